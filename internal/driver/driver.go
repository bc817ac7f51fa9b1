// Package driver provides database adapters for the DBMS kinds connkit can
// talk to (mssql, postgres, sqlite, duckdb). All SQL execution is delegated
// to the underlying database/sql drivers; adapters only build DSNs and
// forward calls.
package driver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// Config holds the parameters for connecting to a database.
type Config struct {
	// Kind specifies the database kind ("mssql", "postgres", "sqlite", "duckdb")
	Kind string

	// Host is the hostname (and optional :port) for server databases
	Host string

	// Database is the database name, or the file path for file databases
	Database string

	// User for authentication
	User string

	// Password for authentication
	Password string

	// UseEnv marks Host, Database, User and Password as names of environment
	// variables to be resolved at connect time rather than literal values.
	UseEnv bool

	// EnsureExists creates the database on the server when it does not exist
	// (server kinds only; file databases are created on open).
	EnsureExists bool
}

// Resolve returns a copy of the config with UseEnv indirection applied.
// Empty user/password values are left empty rather than looked up, matching
// how an empty credential is simply omitted from the DSN.
func (c Config) Resolve() (Config, error) {
	if !c.UseEnv {
		return c, nil
	}

	out := c
	out.UseEnv = false
	out.Host = os.Getenv(c.Host)
	out.Database = os.Getenv(c.Database)
	if c.User != "" {
		out.User = os.Getenv(c.User)
	}
	if c.Password != "" {
		out.Password = os.Getenv(c.Password)
	}
	return out, nil
}

// Validate checks that the required fields for the kind are present.
func (c Config) Validate() error {
	switch c.Kind {
	case "sqlite":
		if c.Database == "" {
			return fmt.Errorf("database file path is required for sqlite")
		}
	case "duckdb":
		// empty path means in-memory
	default:
		if c.Host == "" || c.Database == "" {
			return fmt.Errorf("both host and database must be provided, either directly or through environment variables")
		}
	}
	return nil
}

// Rows wraps sql.Rows to provide a consistent return type across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is the interface all database adapters implement.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// DB exposes the underlying *sql.DB for transfer operations.
	DB() *sql.DB

	// KindName returns the database kind this adapter serves.
	KindName() string
}

// DatabaseEnsurer is implemented by server adapters that can create the
// target database when it does not exist.
type DatabaseEnsurer interface {
	EnsureDatabase(ctx context.Context, cfg Config) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Adapter)
)

// Register adds an adapter factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(kind string, factory func(*slog.Logger) Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

// Kinds returns all registered kind names (sorted).
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownKindError is returned when an unregistered database kind is requested.
type UnknownKindError struct {
	Kind      string
	Available []string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown database kind %q\nAvailable kinds: %v\nHint: check the profile's kind in connkit.yaml", e.Kind, e.Available)
}

// New creates an adapter for the config's kind. The logger is passed to the
// adapter constructor (nil uses a discard logger).
func New(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("database kind not specified")
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownKindError{Kind: cfg.Kind, Available: Kinds()}
	}
	return factory(logger), nil
}

// Open resolves the config, creates the adapter, optionally ensures the
// database exists, and connects. This is the single entry point callers use.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Adapter, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	a, err := New(resolved, logger)
	if err != nil {
		return nil, err
	}

	if resolved.EnsureExists {
		if ensurer, ok := a.(DatabaseEnsurer); ok {
			if err := ensurer.EnsureDatabase(ctx, resolved); err != nil {
				return nil, fmt.Errorf("failed to ensure database exists: %w", err)
			}
		}
	}

	if err := a.Connect(ctx, resolved); err != nil {
		return nil, err
	}
	return a, nil
}

func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
