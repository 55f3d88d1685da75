package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	total_amount NUMERIC(10,2) NOT NULL CHECK (total_amount >= 0),
	status TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'canceled')),
	paid BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS order_lines (
	id UUID PRIMARY KEY,
	order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	seq INT NOT NULL,
	ticket_type_id TEXT NOT NULL,
	ticket_type_name TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	quantity INT NOT NULL CHECK (quantity >= 1)
);

CREATE INDEX IF NOT EXISTS order_lines_order_id_idx ON order_lines (order_id);
CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id);
`

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
