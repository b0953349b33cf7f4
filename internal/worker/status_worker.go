package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lensportal/internal/metrics"
	"lensportal/internal/model"
	"lensportal/internal/service"
)

type OrderSource interface {
	GetOpen(ctx context.Context, limit int) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status model.Status, trackingCode string) error
}

type LabStatusSource interface {
	GetStatus(ctx context.Context, orderID string) (*service.LabOrderStatus, error)
}

// StatusWorker copies status changes made at the lab back onto order headers.
type StatusWorker struct {
	orders    OrderSource
	lab       LabStatusSource
	metrics   *metrics.Registry
	interval  time.Duration
	batchSize int
}

func NewStatusWorker(orders OrderSource, lab LabStatusSource, m *metrics.Registry, interval time.Duration, batchSize int) *StatusWorker {
	return &StatusWorker{
		orders:    orders,
		lab:       lab,
		metrics:   m,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (w *StatusWorker) Start(ctx context.Context) {
	slog.Info("starting lab status worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("lab status worker stopped")
			return
		case <-ticker.C:
			if _, err := w.processBatch(ctx); err != nil {
				slog.Error("status batch failed", "error", err)
			}
		}
	}
}

// processBatch returns how many orders changed.
func (w *StatusWorker) processBatch(ctx context.Context) (int, error) {
	orders, err := w.orders.GetOpen(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get open orders: %w", err)
	}

	updated := 0
	for _, order := range orders {
		resp, err := w.lab.GetStatus(ctx, order.ID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrLabRateLimited):
				slog.Warn("lab rate limited, ending batch early", "order_id", order.ID)
				return updated, nil
			case errors.Is(err, service.ErrLabOrderUnknown):
				continue
			}
			w.metrics.StatusSyncErrors.Inc()
			slog.Error("failed to fetch lab status", "order_id", order.ID, "error", err)
			continue
		}

		status, ok := model.ParseStatus(resp.Status)
		if !ok {
			w.metrics.StatusSyncErrors.Inc()
			slog.Warn("lab reported unknown status", "order_id", order.ID, "status", resp.Status)
			continue
		}
		if status == order.Status && (resp.TrackingCode == "" || resp.TrackingCode == order.TrackingCode) {
			continue
		}

		if err := w.orders.UpdateStatus(ctx, order.ID, status, resp.TrackingCode); err != nil {
			w.metrics.StatusSyncErrors.Inc()
			slog.Error("failed to update order status", "order_id", order.ID, "error", err)
			continue
		}
		updated++
		w.metrics.StatusSyncUpdated.Inc()
		slog.Info("order status updated", "order_id", order.ID, "from", order.Status, "to", status)
	}

	return updated, nil
}
