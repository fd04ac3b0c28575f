package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		username   VARCHAR(50) NOT NULL UNIQUE,
		email      VARCHAR(100) NOT NULL UNIQUE,
		phone      VARCHAR(20),
		is_active  BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id          BIGSERIAL PRIMARY KEY,
		seller_id   BIGINT NOT NULL REFERENCES users(id),
		title       VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category    VARCHAR(50) NOT NULL DEFAULT 'other',
		price       NUMERIC(10,2) NOT NULL,
		stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		views       INTEGER NOT NULL DEFAULT 0,
		image_url   VARCHAR(255),
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings (seller_id)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_category ON listings (category)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               BIGSERIAL PRIMARY KEY,
		order_number     VARCHAR(32) NOT NULL UNIQUE,
		buyer_id         BIGINT NOT NULL REFERENCES users(id),
		total_amount     NUMERIC(10,2) NOT NULL,
		status           VARCHAR(20) NOT NULL DEFAULT 'pending',
		shipping_address VARCHAR(255) NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders (buyer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id         BIGSERIAL PRIMARY KEY,
		order_id   BIGINT NOT NULL REFERENCES orders(id),
		listing_id BIGINT NOT NULL REFERENCES listings(id),
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(10,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines (order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_lines_listing ON order_lines (listing_id)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users(id),
		recipient_name VARCHAR(50) NOT NULL,
		phone          VARCHAR(20) NOT NULL,
		province       VARCHAR(50),
		city           VARCHAR(50),
		district       VARCHAR(50),
		detail         VARCHAR(255) NOT NULL,
		is_default     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_addresses_user ON addresses (user_id)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id             BIGSERIAL PRIMARY KEY,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id   VARCHAR(64) NOT NULL,
		type           VARCHAR(50) NOT NULL,
		payload        JSONB NOT NULL,
		headers        JSONB,
		traceparent    VARCHAR(64) NOT NULL DEFAULT '',
		status         VARCHAR(20) NOT NULL DEFAULT 'pending',
		relay_id       VARCHAR(64),
		lease_until    TIMESTAMPTZ,
		retry_count    INTEGER NOT NULL DEFAULT 0,
		last_error     TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox (status, id)`,
}

// Migrate applies the schema. Statements are idempotent so startup can run
// this unconditionally.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
