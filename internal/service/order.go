package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lensportal/internal/catalog"
	"lensportal/internal/metrics"
	"lensportal/internal/model"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrCreateOrder      = errors.New("could not create order")
	ErrSaveItem         = errors.New("could not save item details")
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateRequest = errors.New("request with this idempotency key is still in progress")
)

// OrderTx spans the header and line-item writes. Rolling it back is the
// compensating action for a failed item write.
type OrderTx interface {
	InsertOrder(ctx context.Context, o *model.Order) error
	InsertItem(ctx context.Context, it *model.LineItem) error
	Commit() error
	Rollback() error
}

type OrderStore interface {
	Begin(ctx context.Context) (OrderTx, error)
	InsertAttachment(ctx context.Context, a *model.Attachment) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Order, error)
	ListOpen(ctx context.Context, limit int) ([]model.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error)
	GetItem(ctx context.Context, orderID string) (*model.LineItem, error)
	ListAttachments(ctx context.Context, orderID string) ([]model.Attachment, error)
	UpdateStatus(ctx context.Context, orderID string, status model.Status, trackingCode string) error
}

type ProfileReader interface {
	Get(ctx context.Context, userID string) (*model.Partner, error)
}

// IdempotencyStore maps client-supplied keys to created orders.
// Reserve reports reserved=false with the stored order id when the key was
// already used; an empty id means the first request is still running.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (orderID string, reserved bool, err error)
	Complete(ctx context.Context, key, orderID string) error
	Release(ctx context.Context, key string) error
}

type OrderConfig struct {
	StoreTimeout   time.Duration
	DashboardLimit int
}

type OrderService struct {
	store    OrderStore
	profiles ProfileReader
	catalog  *catalog.Catalog
	metrics  *metrics.Registry
	idem     IdempotencyStore
	cfg      OrderConfig
	now      func() time.Time
}

func NewOrderService(store OrderStore, profiles ProfileReader, cat *catalog.Catalog, m *metrics.Registry, cfg OrderConfig) *OrderService {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.DashboardLimit <= 0 {
		cfg.DashboardLimit = 5
	}
	return &OrderService{
		store:    store,
		profiles: profiles,
		catalog:  cat,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetIdempotency enables request deduplication. A nil store disables it.
func (s *OrderService) SetIdempotency(idem IdempotencyStore) {
	s.idem = idem
}

type SubmitResult struct {
	OrderID          string
	Replayed         bool
	AttachmentsSaved int
}

// Submit persists one order from a parsed form. The header and the line item
// commit together or not at all; attachments are written afterwards and their
// failures never fail the submission.
func (s *OrderService) Submit(ctx context.Context, userID, idempotencyKey string, form OrderForm) (*SubmitResult, error) {
	start := time.Now()
	defer func() { s.metrics.SubmitLatencySec.Observe(time.Since(start).Seconds()) }()

	if userID == "" {
		s.metrics.SubmitFailures.WithLabelValues("auth").Inc()
		return nil, ErrNotAuthenticated
	}

	if idempotencyKey != "" && s.idem != nil {
		existing, reserved, err := s.idem.Reserve(ctx, s.idemKey(userID, idempotencyKey))
		switch {
		case err != nil:
			slog.WarnContext(ctx, "idempotency store unavailable, submitting without dedup", "error", err)
			idempotencyKey = ""
		case !reserved && existing != "":
			s.metrics.OrdersReplayed.Inc()
			slog.InfoContext(ctx, "replaying order for idempotency key", "order_id", existing)
			return &SubmitResult{OrderID: existing, Replayed: true}, nil
		case !reserved:
			return nil, ErrDuplicateRequest
		}
	} else {
		idempotencyKey = ""
	}

	orderID, err := s.createOrder(ctx, userID, form)
	if err != nil {
		if idempotencyKey != "" {
			if relErr := s.idem.Release(ctx, s.idemKey(userID, idempotencyKey)); relErr != nil {
				slog.WarnContext(ctx, "failed to release idempotency key", "error", relErr)
			}
		}
		return nil, err
	}
	s.metrics.OrdersSubmitted.Inc()

	if idempotencyKey != "" {
		if err := s.idem.Complete(ctx, s.idemKey(userID, idempotencyKey), orderID); err != nil {
			slog.WarnContext(ctx, "failed to record idempotency key", "order_id", orderID, "error", err)
		}
	}

	saved := s.saveAttachments(ctx, orderID, form.AttachmentURLs)

	slog.InfoContext(ctx, "order submitted", "order_id", orderID, "user_id", userID, "attachments", saved)
	return &SubmitResult{OrderID: orderID, AttachmentsSaved: saved}, nil
}

func (s *OrderService) createOrder(ctx context.Context, userID string, form OrderForm) (string, error) {
	// begin, both inserts and commit share one transaction deadline; each
	// statement additionally gets its own StoreTimeout
	txCtx, cancelTx := context.WithTimeout(ctx, 4*s.cfg.StoreTimeout)
	defer cancelTx()

	tx, err := s.store.Begin(txCtx)
	if err != nil {
		s.metrics.SubmitFailures.WithLabelValues("order").Inc()
		return "", fmt.Errorf("%w: %w", ErrCreateOrder, err)
	}

	order := &model.Order{
		UserID:    userID,
		Status:    model.InitialStatus,
		Notes:     form.Notes,
		Total:     form.Total,
		CreatedAt: s.now().UTC(),
	}
	if err := s.withTimeout(txCtx, func(ctx context.Context) error { return tx.InsertOrder(ctx, order) }); err != nil {
		s.rollback(ctx, tx)
		s.metrics.SubmitFailures.WithLabelValues("order").Inc()
		return "", fmt.Errorf("%w: %w", ErrCreateOrder, err)
	}

	item := form.Item
	item.OrderID = order.ID
	if err := s.withTimeout(txCtx, func(ctx context.Context) error { return tx.InsertItem(ctx, &item) }); err != nil {
		slog.ErrorContext(ctx, "item insert failed, rolling back order", "order_id", order.ID, "error", err)
		s.rollback(ctx, tx)
		s.metrics.SubmitFailures.WithLabelValues("item").Inc()
		return "", fmt.Errorf("%w: %w", ErrSaveItem, err)
	}

	if err := tx.Commit(); err != nil {
		s.metrics.SubmitFailures.WithLabelValues("order").Inc()
		return "", fmt.Errorf("%w: commit: %w", ErrCreateOrder, err)
	}

	return order.ID, nil
}

// rollback failures are logged only: the caller still sees the write error.
func (s *OrderService) rollback(ctx context.Context, tx OrderTx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.metrics.RollbackFailures.Inc()
		slog.ErrorContext(ctx, "failed to roll back order", "error", err)
	}
}

func (s *OrderService) saveAttachments(ctx context.Context, orderID string, urls []string) int {
	saved := 0
	for _, u := range urls {
		a := &model.Attachment{
			OrderID:   orderID,
			URL:       u,
			FileType:  FileType(u),
			CreatedAt: s.now().UTC(),
		}
		err := s.withTimeout(ctx, func(ctx context.Context) error { return s.store.InsertAttachment(ctx, a) })
		if err != nil {
			s.metrics.AttachmentFailures.Inc()
			slog.ErrorContext(ctx, "failed to save attachment", "order_id", orderID, "url", u, "error", err)
			continue
		}
		saved++
		s.metrics.AttachmentsSaved.Inc()
	}
	return saved
}

func (s *OrderService) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *OrderService) idemKey(userID, key string) string {
	return userID + ":" + key
}

type Dashboard struct {
	Profile *model.Partner `json:"profile"`
	Orders  []model.Order  `json:"orders"`
}

// Dashboard returns the partner profile and the most recent orders. Without a
// principal the result is empty rather than an error.
func (s *OrderService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	d := &Dashboard{Orders: []model.Order{}}
	if userID == "" {
		return d, nil
	}

	if s.profiles != nil {
		err := s.withTimeout(ctx, func(ctx context.Context) error {
			p, err := s.profiles.Get(ctx, userID)
			d.Profile = p
			return err
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to load profile", "user_id", userID, "error", err)
		}
	}

	err := s.withTimeout(ctx, func(ctx context.Context) error {
		orders, err := s.store.ListByUser(ctx, userID, s.cfg.DashboardLimit)
		if orders != nil {
			d.Orders = orders
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard orders: %w", err)
	}
	return d, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	if userID == "" {
		return nil, nil
	}
	var orders []model.Order
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		orders, err = s.store.ListByUser(ctx, userID, 0)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get loads an order with its line item and attachments. Orders owned by
// another partner are reported as not found.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*model.OrderDetail, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, ErrOrderNotFound
	}

	var order *model.Order
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.store.GetOrder(ctx, userID, orderID)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	detail := &model.OrderDetail{
		Order:       *order,
		StatusLabel: order.Status.Label(),
		Attachments: []model.Attachment{},
	}

	err = s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		detail.Item, err = s.store.GetItem(ctx, orderID)
		return err
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order item: %w", err)
	}

	err = s.withTimeout(ctx, func(ctx context.Context) error {
		atts, err := s.store.ListAttachments(ctx, orderID)
		if atts != nil {
			detail.Attachments = atts
		}
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to load attachments", "order_id", orderID, "error", err)
	}

	return detail, nil
}

// GetOpen returns orders the lab may still move forward, oldest first.
func (s *OrderService) GetOpen(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		orders, err = s.store.ListOpen(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query open orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status model.Status, trackingCode string) error {
	return s.withTimeout(ctx, func(ctx context.Context) error {
		return s.store.UpdateStatus(ctx, orderID, status, trackingCode)
	})
}

// ParseForm normalizes a submission against the service's catalog.
func (s *OrderService) ParseForm(ctx context.Context, v FormValues) OrderForm {
	return ParseOrderForm(ctx, v, s.catalog)
}
