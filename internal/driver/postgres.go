package driver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

func init() {
	Register("postgres", func(logger *slog.Logger) Adapter { return NewPostgres(logger) })
}

// connectTimeoutSeconds is applied to all server connections.
const connectTimeoutSeconds = 10

// Postgres implements the Adapter interface for PostgreSQL via pgx.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres creates a new Postgres adapter instance.
func NewPostgres(logger *slog.Logger) *Postgres {
	return &Postgres{logger: ensureLogger(logger)}
}

// postgresDSN builds a postgres:// URL. database overrides cfg.Database when
// non-empty, which EnsureDatabase uses to reach the maintenance database.
func postgresDSN(cfg Config, database string) string {
	if database == "" {
		database = cfg.Database
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   cfg.Host,
		Path:   "/" + database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}

	q := url.Values{}
	q.Set("connect_timeout", fmt.Sprintf("%d", connectTimeoutSeconds))
	u.RawQuery = q.Encode()

	return u.String()
}

// Connect establishes a connection to PostgreSQL.
func (a *Postgres) Connect(ctx context.Context, cfg Config) error {
	db, err := sql.Open("pgx", postgresDSN(cfg, ""))
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.logger.Debug("connected", "kind", "postgres", "host", cfg.Host, "database", cfg.Database)
	a.db = db
	return nil
}

// EnsureDatabase creates cfg.Database when it does not exist, going through
// the postgres maintenance database.
func (a *Postgres) EnsureDatabase(ctx context.Context, cfg Config) error {
	if err := validateDatabaseName(cfg.Database); err != nil {
		return err
	}

	admin, err := sql.Open("pgx", postgresDSN(cfg, "postgres"))
	if err != nil {
		return fmt.Errorf("failed to open maintenance connection: %w", err)
	}
	defer func() { _ = admin.Close() }()

	var exists bool
	err = admin.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Database,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	if exists {
		a.logger.Debug("database exists", "database", cfg.Database)
		return nil
	}

	// CREATE DATABASE cannot be parameterized; the name is validated above.
	if _, err := admin.ExecContext(ctx, fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.Database)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", cfg.Database, err)
	}
	a.logger.Info("database created", "database", cfg.Database)
	return nil
}

// Close closes the connection.
func (a *Postgres) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Exec executes a statement that returns no rows.
func (a *Postgres) Exec(ctx context.Context, sqlStr string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := a.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a statement that returns rows.
func (a *Postgres) Query(ctx context.Context, sqlStr string) (*Rows, error) {
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
func (a *Postgres) DB() *sql.DB { return a.db }

// KindName returns "postgres".
func (a *Postgres) KindName() string { return "postgres" }

// validateDatabaseName rejects names that cannot be safely quoted into a
// CREATE DATABASE statement.
func validateDatabaseName(name string) error {
	if name == "" {
		return fmt.Errorf("database name is empty")
	}
	if strings.ContainsAny(name, `"'[];`) {
		return fmt.Errorf("invalid database name %q", name)
	}
	return nil
}

var (
	_ Adapter         = (*Postgres)(nil)
	_ DatabaseEnsurer = (*Postgres)(nil)
)
