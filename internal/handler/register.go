package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lensportal/internal/service"
)

type registerRequest struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	CompanyName string `json:"razao_social"`
	CNPJ        string `json:"cnpj"`
	Phone       string `json:"telefone"`
}

func RegisterHandler(authSvc *service.AuthService, secret string, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Login) == "" || req.Password == "" {
			http.Error(w, "login and password required", http.StatusBadRequest)
			return
		}

		partner, err := authSvc.Register(r.Context(), service.Registration{
			Login:       req.Login,
			Password:    req.Password,
			CompanyName: strings.TrimSpace(req.CompanyName),
			CNPJ:        strings.TrimSpace(req.CNPJ),
			Phone:       strings.TrimSpace(req.Phone),
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrLoginTaken):
				http.Error(w, "login already exists", http.StatusConflict)
			default:
				slog.ErrorContext(r.Context(), "register failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		tokenString, err := issueToken(secret, partner.ID, ttl)
		if err != nil {
			http.Error(w, "token generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Authorization", "Bearer "+tokenString)
		w.WriteHeader(http.StatusOK)
	}
}
