package database

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

CREATE TABLE IF NOT EXISTS partners (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    login TEXT UNIQUE NOT NULL,
    password_hash BYTEA NOT NULL,
    razao_social TEXT NOT NULL DEFAULT '',
    cnpj TEXT NOT NULL DEFAULT '',
    telefone TEXT,
    limite_credito NUMERIC(12,2) NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS orders (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    user_id UUID NOT NULL REFERENCES partners(id) ON DELETE CASCADE,
    status TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('draft', 'pending', 'in_production', 'treatment', 'shipped', 'delivered', 'cancelled')),
    observacoes TEXT NOT NULL DEFAULT '',
    codigo_rastreio TEXT,
    valor_total NUMERIC(12,2) NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS order_items (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    nome_paciente TEXT NOT NULL,
    tipo_lente TEXT NOT NULL DEFAULT '',
    tratamento TEXT NOT NULL DEFAULT '',
    indice TEXT NOT NULL DEFAULT '',
    od_esferico NUMERIC(6,2) NOT NULL DEFAULT 0,
    od_cilindrico NUMERIC(6,2) NOT NULL DEFAULT 0,
    od_eixo NUMERIC(6,2) NOT NULL DEFAULT 0,
    od_dnp NUMERIC(6,2) NOT NULL DEFAULT 0,
    od_altura NUMERIC(6,2) NOT NULL DEFAULT 0,
    oe_esferico NUMERIC(6,2) NOT NULL DEFAULT 0,
    oe_cilindrico NUMERIC(6,2) NOT NULL DEFAULT 0,
    oe_eixo NUMERIC(6,2) NOT NULL DEFAULT 0,
    oe_dnp NUMERIC(6,2) NOT NULL DEFAULT 0,
    oe_altura NUMERIC(6,2) NOT NULL DEFAULT 0,
    adicao NUMERIC(6,2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS order_attachments (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    tipo TEXT NOT NULL DEFAULT 'other',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_attachments_order_id ON order_attachments(order_id);
`

func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}
