package driver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // cgo-free sqlite driver
)

func init() {
	Register("sqlite", func(logger *slog.Logger) Adapter { return NewSQLite(logger) })
}

// SQLite implements the Adapter interface for SQLite database files.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite creates a new SQLite adapter instance.
func NewSQLite(logger *slog.Logger) *SQLite {
	return &SQLite{logger: ensureLogger(logger)}
}

// Connect opens the SQLite file at cfg.Database, creating it when absent.
func (a *SQLite) Connect(ctx context.Context, cfg Config) error {
	db, err := sql.Open("sqlite", cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open sqlite file %s: %w", cfg.Database, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.logger.Debug("connected", "kind", "sqlite", "path", cfg.Database)
	a.db = db
	return nil
}

// Close closes the connection.
func (a *SQLite) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Exec executes a statement that returns no rows.
func (a *SQLite) Exec(ctx context.Context, sqlStr string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := a.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a statement that returns rows.
func (a *SQLite) Query(ctx context.Context, sqlStr string) (*Rows, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := a.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &Rows{Rows: rows}, nil
}

// DB exposes the underlying *sql.DB.
func (a *SQLite) DB() *sql.DB { return a.db }

// KindName returns "sqlite".
func (a *SQLite) KindName() string { return "sqlite" }

var _ Adapter = (*SQLite)(nil)
