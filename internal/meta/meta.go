// Package meta reads and writes the _meta provenance table that transfer
// operations stamp into SQLite and DuckDB files.
package meta

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	_ "modernc.org/sqlite"              // sqlite driver
)

// TableName is the name of the provenance table.
const TableName = "_meta"

// Well-known keys. Callers may store arbitrary additional keys.
const (
	KeyTag           = "tag"
	KeyDeliveredAt   = "data_delivered_at"
	KeyCreatedAt     = "table_created_at"
	KeyTransmittedAt = "table_transmitted_at"
)

// Meta is the single provenance row of a database file.
type Meta struct {
	Keys   []string
	Values map[string]string
}

// Write creates (or replaces) the _meta table on an open connection and
// inserts the values as one row. All columns are VARCHAR; keys are written
// in sorted order so the column layout is deterministic.
func Write(ctx context.Context, db *sql.DB, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]string, len(keys))
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = fmt.Sprintf("%q VARCHAR", k)
		placeholders[i] = "?"
		args[i] = values[k]
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", TableName)); err != nil {
		return fmt.Errorf("failed to drop existing %s table: %w", TableName, err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", TableName, strings.Join(cols, ", "))); err != nil {
		return fmt.Errorf("failed to create %s table: %w", TableName, err)
	}
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", TableName, strings.Join(placeholders, ", "))
	if _, err := db.ExecContext(ctx, insert, args...); err != nil {
		return fmt.Errorf("failed to populate %s table: %w", TableName, err)
	}
	return nil
}

// Read opens the database file at path and returns its _meta row.
// The file kind is detected by suffix: .db/.sqlite are SQLite, .duckdb is
// DuckDB. A leading ~ is expanded to the user's home directory.
func Read(ctx context.Context, path string) (*Meta, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	var driverName string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite":
		driverName = "sqlite"
	case ".duckdb":
		driverName = "duckdb"
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", TableName))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s table: %w", TableName, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s columns: %w", TableName, err)
	}

	m := &Meta{Keys: cols, Values: make(map[string]string, len(cols))}

	if rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", TableName, err)
		}
		for i, c := range cols {
			m.Values[c] = toString(vals[i])
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", TableName, err)
	}

	return m, nil
}

// Get returns the value for a key, or "" when absent.
func (m *Meta) Get(key string) string {
	return m.Values[key]
}

// ExpandHome resolves a leading ~ in a path.
func ExpandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
