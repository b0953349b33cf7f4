package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lensportal/internal/model"
)

var ErrPartnerNotFound = errors.New("partner not found")

type ProfileService struct {
	db *sql.DB
}

func NewProfileService(db *sql.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Partner, error) {
	var p model.Partner
	var phone sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, login, razao_social, cnpj, telefone, COALESCE(limite_credito, 0), created_at
		 FROM partners WHERE id = $1`,
		userID,
	).Scan(&p.ID, &p.Login, &p.CompanyName, &p.CNPJ, &phone, &p.CreditLimit, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.Phone = phone.String
	return &p, nil
}
