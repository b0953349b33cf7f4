package model

import "time"

// Partner is an optician account allowed to place orders with the lab.
type Partner struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	PasswordHash []byte    `json:"-"`
	CompanyName  string    `json:"razao_social"`
	CNPJ         string    `json:"cnpj"`
	Phone        string    `json:"telefone,omitempty"`
	CreditLimit  float64   `json:"limite_credito"`
	CreatedAt    time.Time `json:"created_at"`
}
