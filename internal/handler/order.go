package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lensportal/internal/model"
	"lensportal/internal/mw"
	"lensportal/internal/service"
)

const maxFormBytes = 1 << 20

// OrderService is the part of service.OrderService the HTTP layer uses.
type OrderService interface {
	ParseForm(ctx context.Context, v service.FormValues) service.OrderForm
	Submit(ctx context.Context, userID, idempotencyKey string, form service.OrderForm) (*service.SubmitResult, error)
	Dashboard(ctx context.Context, userID string) (*service.Dashboard, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	Get(ctx context.Context, userID, orderID string) (*model.OrderDetail, error)
}

type submitResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

func SubmitOrderHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := mw.UserID(r.Context())
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, submitResponse{Stage: "auth", Message: "Sessão expirada. Faça login novamente."})
			return
		}

		values, err := readOrderForm(w, r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, submitResponse{Stage: "input", Message: "invalid request body"})
			return
		}

		form := orderSvc.ParseForm(r.Context(), values)
		res, err := orderSvc.Submit(r.Context(), userID, strings.TrimSpace(r.Header.Get("Idempotency-Key")), form)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotAuthenticated):
				writeJSON(w, http.StatusUnauthorized, submitResponse{Stage: "auth", Message: "Sessão expirada. Faça login novamente."})
			case errors.Is(err, service.ErrDuplicateRequest):
				writeJSON(w, http.StatusConflict, submitResponse{Stage: "idempotency", Message: err.Error()})
			case errors.Is(err, service.ErrSaveItem):
				slog.ErrorContext(r.Context(), "order item failed", "error", err)
				writeJSON(w, http.StatusBadGateway, submitResponse{Stage: "item", Message: err.Error()})
			case errors.Is(err, service.ErrCreateOrder):
				slog.ErrorContext(r.Context(), "order create failed", "error", err)
				writeJSON(w, http.StatusBadGateway, submitResponse{Stage: "order", Message: err.Error()})
			default:
				slog.ErrorContext(r.Context(), "order submit failed", "error", err)
				writeJSON(w, http.StatusInternalServerError, submitResponse{Message: "internal error"})
			}
			return
		}

		if res.Replayed {
			writeJSON(w, http.StatusOK, submitResponse{Success: true, OrderID: res.OrderID, Message: "pedido já registrado"})
			return
		}
		writeJSON(w, http.StatusCreated, submitResponse{Success: true, OrderID: res.OrderID, Message: "pedido enviado"})
	}
}

// readOrderForm accepts urlencoded, multipart and JSON bodies.
func readOrderForm(w http.ResponseWriter, r *http.Request) (service.FormValues, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		return service.JSONForm(raw), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}
}

func ListOrdersHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := orderSvc.ListByUser(r.Context(), mw.UserID(r.Context()))
		if err != nil {
			slog.ErrorContext(r.Context(), "list orders failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if len(orders) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, orders)
	}
}

func GetOrderHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := orderSvc.Get(r.Context(), mw.UserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			case errors.Is(err, service.ErrNotAuthenticated):
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			default:
				slog.ErrorContext(r.Context(), "get order failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, detail)
	}
}

func DashboardHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := orderSvc.Dashboard(r.Context(), mw.UserID(r.Context()))
		if err != nil {
			slog.ErrorContext(r.Context(), "dashboard failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, d)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}
