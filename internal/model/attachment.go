package model

import "time"

type Attachment struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	URL       string    `json:"url"`
	FileType  string    `json:"tipo"`
	CreatedAt time.Time `json:"created_at"`
}
