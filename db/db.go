package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB holds the database connection
var DB *sql.DB

const schema = `
CREATE TABLE IF NOT EXISTS guest_sessions (
	id             UUID PRIMARY KEY,
	guest_name     TEXT NOT NULL,
	telegram_id    TEXT,
	checkout_state TEXT NOT NULL DEFAULT 'browsing',
	last_error     TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS guest_cart_lines (
	session_id UUID NOT NULL REFERENCES guest_sessions(id) ON DELETE CASCADE,
	position   INT NOT NULL,
	item_id    BIGINT NOT NULL,
	item_name  TEXT NOT NULL,
	unit_price BIGINT NOT NULL,
	qty        INT NOT NULL CHECK (qty > 0),
	PRIMARY KEY (session_id, item_id)
);

CREATE INDEX IF NOT EXISTS guest_sessions_updated_at_idx ON guest_sessions (updated_at);
`

// InitDB opens the Postgres connection for connStr and makes sure the
// session tables exist.
func InitDB(connStr string) error {
	if connStr == "" {
		return fmt.Errorf("database connection string is empty")
	}

	var err error
	DB, err = sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(10)
	DB.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create session schema: %w", err)
	}

	return nil
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
