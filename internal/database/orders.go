package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lensportal/internal/model"
	"lensportal/internal/service"
)

const orderColumns = `id, user_id, status, observacoes, COALESCE(codigo_rastreio, ''), valor_total, created_at`

// OrderStore keeps order headers, line items and attachments in PostgreSQL.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Begin(ctx context.Context) (service.OrderTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &orderTx{tx: tx}, nil
}

type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, o *model.Order) error {
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, status, observacoes, valor_total, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		o.UserID, string(o.Status), o.Notes, o.Total, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *orderTx) InsertItem(ctx context.Context, it *model.LineItem) error {
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO order_items (
			order_id, nome_paciente, tipo_lente, tratamento, indice,
			od_esferico, od_cilindrico, od_eixo, od_dnp, od_altura,
			oe_esferico, oe_cilindrico, oe_eixo, oe_dnp, oe_altura,
			adicao
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		it.OrderID, it.PatientName, it.LensType, it.Treatment, it.RefractiveIndex,
		it.Right.Sphere, it.Right.Cylinder, it.Right.Axis, it.Right.DNP, it.Right.Height,
		it.Left.Sphere, it.Left.Cylinder, it.Left.Axis, it.Left.DNP, it.Left.Height,
		it.Addition,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (t *orderTx) Commit() error {
	return t.tx.Commit()
}

func (t *orderTx) Rollback() error {
	return t.tx.Rollback()
}

func (s *OrderStore) InsertAttachment(ctx context.Context, a *model.Attachment) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO order_attachments (order_id, url, tipo, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		a.OrderID, a.URL, a.FileType, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

// ListByUser returns the partner's orders newest first. limit <= 0 means no limit.
func (s *OrderStore) ListByUser(ctx context.Context, userID string, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return scanOrders(rows)
}

func (s *OrderStore) ListOpen(ctx context.Context, limit int) ([]model.Order, error) {
	open := model.OpenStatuses()
	statuses := make([]string, len(open))
	for i, st := range open {
		statuses[i] = string(st)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = ANY($1)
		ORDER BY created_at ASC
		LIMIT $2
	`, statuses, limit)
	if err != nil {
		return nil, fmt.Errorf("query open orders: %w", err)
	}
	return scanOrders(rows)
}

func (s *OrderStore) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	)
	var o model.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Notes, &o.TrackingCode, &o.Total, &o.CreatedAt); err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (s *OrderStore) GetItem(ctx context.Context, orderID string) (*model.LineItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, nome_paciente, tipo_lente, tratamento, indice,
		       od_esferico, od_cilindrico, od_eixo, od_dnp, od_altura,
		       oe_esferico, oe_cilindrico, oe_eixo, oe_dnp, oe_altura,
		       adicao
		FROM order_items
		WHERE order_id = $1
	`, orderID)

	var it model.LineItem
	err := row.Scan(&it.ID, &it.OrderID, &it.PatientName, &it.LensType, &it.Treatment, &it.RefractiveIndex,
		&it.Right.Sphere, &it.Right.Cylinder, &it.Right.Axis, &it.Right.DNP, &it.Right.Height,
		&it.Left.Sphere, &it.Left.Cylinder, &it.Left.Axis, &it.Left.DNP, &it.Left.Height,
		&it.Addition,
	)
	if err != nil {
		return nil, fmt.Errorf("get order item: %w", err)
	}
	return &it, nil
}

func (s *OrderStore) ListAttachments(ctx context.Context, orderID string) ([]model.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, url, tipo, created_at FROM order_attachments WHERE order_id = $1 ORDER BY created_at ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	var atts []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.OrderID, &a.URL, &a.FileType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return atts, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, orderID string, status model.Status, trackingCode string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, codigo_rastreio = COALESCE(NULLIF($2, ''), codigo_rastreio) WHERE id = $3`,
		string(status), trackingCode, orderID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update order %s: %w", orderID, sql.ErrNoRows)
	}
	return nil
}

func scanOrders(rows *sql.Rows) ([]model.Order, error) {
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Notes, &o.TrackingCode, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

// Ping is used by the health endpoint.
func (s *OrderStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
