package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"lensportal/internal/model"
)

var (
	ErrLoginTaken         = errors.New("login already exists")
	ErrInvalidCredentials = errors.New("invalid login or password")
)

type AuthService struct {
	db *sql.DB
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{db: db}
}

// Registration carries the optician's company data alongside the credentials.
type Registration struct {
	Login       string
	Password    string
	CompanyName string
	CNPJ        string
	Phone       string
}

func (s *AuthService) Register(ctx context.Context, reg Registration) (*model.Partner, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	query := `INSERT INTO partners (login, password_hash, razao_social, cnpj, telefone)
	          VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	          RETURNING id, login, razao_social, cnpj, created_at`
	row := s.db.QueryRowContext(ctx, query,
		strings.ToLower(strings.TrimSpace(reg.Login)), hash, reg.CompanyName, reg.CNPJ, reg.Phone)

	var p model.Partner
	if err := row.Scan(&p.ID, &p.Login, &p.CompanyName, &p.CNPJ, &p.CreatedAt); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("insert partner: %w", err)
	}
	p.PasswordHash = hash
	p.Phone = reg.Phone

	return &p, nil
}

func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*model.Partner, error) {
	query := `SELECT id, login, password_hash, created_at FROM partners WHERE login = $1`
	row := s.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(login)))

	var p model.Partner
	if err := row.Scan(&p.ID, &p.Login, &p.PasswordHash, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &p, nil
}
