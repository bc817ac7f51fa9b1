package driver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	_ "github.com/microsoft/go-mssqldb" // sqlserver driver
)

func init() {
	Register("mssql", func(logger *slog.Logger) Adapter { return NewMSSQL(logger) })
}

// MSSQL implements the Adapter interface for Microsoft SQL Server.
type MSSQL struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMSSQL creates a new MSSQL adapter instance.
func NewMSSQL(logger *slog.Logger) *MSSQL {
	return &MSSQL{logger: ensureLogger(logger)}
}

// mssqlDSN builds a sqlserver:// URL. database overrides cfg.Database when
// non-empty, which EnsureDatabase uses to reach master.
func mssqlDSN(cfg Config, database string) string {
	if database == "" {
		database = cfg.Database
	}

	u := url.URL{
		Scheme: "sqlserver",
		Host:   cfg.Host,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}

	q := url.Values{}
	q.Set("database", database)
	q.Set("dial timeout", fmt.Sprintf("%d", connectTimeoutSeconds))
	u.RawQuery = q.Encode()

	return u.String()
}

// Connect establishes a connection to SQL Server.
func (a *MSSQL) Connect(ctx context.Context, cfg Config) error {
	db, err := sql.Open("sqlserver", mssqlDSN(cfg, ""))
	if err != nil {
		return fmt.Errorf("failed to open mssql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mssql: %w", err)
	}

	a.logger.Debug("connected", "kind", "mssql", "host", cfg.Host, "database", cfg.Database)
	a.db = db
	return nil
}

// EnsureDatabase creates cfg.Database when it does not exist, going through
// the master database.
func (a *MSSQL) EnsureDatabase(ctx context.Context, cfg Config) error {
	if err := validateDatabaseName(cfg.Database); err != nil {
		return err
	}

	admin, err := sql.Open("sqlserver", mssqlDSN(cfg, "master"))
	if err != nil {
		return fmt.Errorf("failed to open master connection: %w", err)
	}
	defer func() { _ = admin.Close() }()

	// DB name is validated above; CREATE DATABASE cannot be parameterized.
	stmt := fmt.Sprintf("IF DB_ID(N'%s') IS NULL CREATE DATABASE [%s]", cfg.Database, cfg.Database)
	if _, err := admin.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create database %s: %w", cfg.Database, err)
	}
	a.logger.Debug("database ensured", "database", cfg.Database)
	return nil
}

// Close closes the connection.
func (a *MSSQL) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Exec executes a statement that returns no rows.
func (a *MSSQL) Exec(ctx context.Context, sqlStr string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := a.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a statement that returns rows.
func (a *MSSQL) Query(ctx context.Context, sqlStr string) (*Rows, error) {
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
func (a *MSSQL) DB() *sql.DB { return a.db }

// KindName returns "mssql".
func (a *MSSQL) KindName() string { return "mssql" }

var (
	_ Adapter         = (*MSSQL)(nil)
	_ DatabaseEnsurer = (*MSSQL)(nil)
)
