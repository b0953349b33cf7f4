package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lensportal/internal/model"
)

// memStore mimics the transactional behaviour of the Postgres store: rows
// written inside a tx only become visible on Commit.
type memStore struct {
	mu          sync.Mutex
	orders      map[string]model.Order
	items       map[string]model.LineItem
	attachments []model.Attachment

	failBegin      error
	failOrder      error
	failItem       error
	failRollback   error
	failCommit     error
	failAttachment func(url string) error
	blockItem      bool

	begins    int
	rollbacks int
}

func newMemStore() *memStore {
	return &memStore{
		orders: make(map[string]model.Order),
		items:  make(map[string]model.LineItem),
	}
}

func (m *memStore) Begin(ctx context.Context) (OrderTx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.begins++
	if m.failBegin != nil {
		return nil, m.failBegin
	}
	return &memTx{store: m}, nil
}

type memTx struct {
	store *memStore
	order *model.Order
	item  *model.LineItem
	done  bool
}

func (t *memTx) InsertOrder(ctx context.Context, o *model.Order) error {
	if t.store.failOrder != nil {
		return t.store.failOrder
	}
	o.ID = uuid.NewString()
	cp := *o
	t.order = &cp
	return nil
}

func (t *memTx) InsertItem(ctx context.Context, it *model.LineItem) error {
	if t.store.blockItem {
		<-ctx.Done()
		return fmt.Errorf("insert order item: %w", ctx.Err())
	}
	if t.store.failItem != nil {
		return t.store.failItem
	}
	if t.order == nil || it.OrderID != t.order.ID {
		return errors.New("item references unknown order")
	}
	it.ID = uuid.NewString()
	cp := *it
	t.item = &cp
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	if t.store.failCommit != nil {
		return t.store.failCommit
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.order != nil {
		t.store.orders[t.order.ID] = *t.order
	}
	if t.item != nil {
		t.store.items[t.item.OrderID] = *t.item
	}
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.mu.Lock()
	t.store.rollbacks++
	t.store.mu.Unlock()
	return t.store.failRollback
}

func (m *memStore) InsertAttachment(ctx context.Context, a *model.Attachment) error {
	if m.failAttachment != nil {
		if err := m.failAttachment(a.URL); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.NewString()
	m.attachments = append(m.attachments, *a)
	return nil
}

func (m *memStore) ListByUser(ctx context.Context, userID string, limit int) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListOpen(ctx context.Context, limit int) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if !o.Status.Terminal() && o.Status != model.StatusDraft {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, fmt.Errorf("get order: %w", sql.ErrNoRows)
	}
	return &o, nil
}

func (m *memStore) GetItem(ctx context.Context, orderID string) (*model.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[orderID]
	if !ok {
		return nil, fmt.Errorf("get order item: %w", sql.ErrNoRows)
	}
	return &it, nil
}

func (m *memStore) ListAttachments(ctx context.Context, orderID string) ([]model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Attachment
	for _, a := range m.attachments {
		if a.OrderID == orderID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, orderID string, status model.Status, trackingCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("update order %s: %w", orderID, sql.ErrNoRows)
	}
	o.Status = status
	if trackingCode != "" {
		o.TrackingCode = trackingCode
	}
	m.orders[orderID] = o
	return nil
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type memProfiles map[string]*model.Partner

func (p memProfiles) Get(ctx context.Context, userID string) (*model.Partner, error) {
	if partner, ok := p[userID]; ok {
		return partner, nil
	}
	return nil, ErrPartnerNotFound
}

type memIdempotency struct {
	mu      sync.Mutex
	keys    map[string]string
	failErr error
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]string)}
}

func (m *memIdempotency) Reserve(ctx context.Context, key string) (string, bool, error) {
	if m.failErr != nil {
		return "", false, m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.keys[key]; ok {
		return id, false, nil
	}
	m.keys[key] = ""
	return "", true, nil
}

func (m *memIdempotency) Complete(ctx context.Context, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = orderID
	return nil
}

func (m *memIdempotency) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

// steppingClock hands out strictly increasing timestamps.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}
