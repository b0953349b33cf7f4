package model

import (
	"time"
)

type Order struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Status       Status    `json:"status"`
	Notes        string    `json:"observacoes"`
	TrackingCode string    `json:"codigo_rastreio,omitempty"`
	Total        float64   `json:"valor_total"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderDetail is what the print view needs: the header, its single line item
// and whatever attachments made it to the store.
type OrderDetail struct {
	Order       Order        `json:"order"`
	StatusLabel string       `json:"status_label"`
	Item        *LineItem    `json:"item"`
	Attachments []Attachment `json:"attachments"`
}
