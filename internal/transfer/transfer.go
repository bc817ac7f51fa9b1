// Package transfer implements connkit's data movement operations: copying
// tables between SQL databases, exporting to Parquet, and unpacking file
// directories into DuckDB. All heavy lifting (CSV/Parquet IO, cross-engine
// reads) is delegated to the database engines themselves.
package transfer

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// batchSize is the number of rows moved per transaction when streaming
// between databases.
const batchSize = 10000

// ErrTargetExists is returned when a copy or convert operation would
// overwrite an existing database file.
var ErrTargetExists = errors.New("target file already exists")

// TableMapping names a source table and an optional target name.
type TableMapping struct {
	// Source is the table name in the source database, optionally
	// schema-qualified (e.g. "dbo.Orders").
	Source string

	// Target is the table name in the destination. Empty derives the name
	// from Source with any schema prefix stripped.
	Target string
}

// TargetName returns the effective destination table name.
func (m TableMapping) TargetName() string {
	if m.Target != "" {
		return m.Target
	}
	name := m.Source
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.Trim(name, "[]")
}

// ParseMappings parses CLI-style table arguments of the form
// "source" or "source:target".
func ParseMappings(items []string) []TableMapping {
	out := make([]TableMapping, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		src, dst, _ := strings.Cut(item, ":")
		out = append(out, TableMapping{Source: strings.TrimSpace(src), Target: strings.TrimSpace(dst)})
	}
	return out
}

// CopyOptions controls table copy operations.
type CopyOptions struct {
	// Meta is written to a _meta table in the destination when non-nil.
	Meta map[string]string

	// Views maps view names to SELECT statements created in the destination
	// (SQLite targets only).
	Views map[string]string

	// TopN limits the number of rows copied per table. 0 copies everything.
	TopN int

	// SourceKind is the source database kind; it decides row-limit syntax
	// and the schema lookup placeholder style. Defaults to "mssql".
	SourceKind string

	Logger *slog.Logger
}

func (o CopyOptions) sourceKind() string {
	if o.SourceKind == "" {
		return "mssql"
	}
	return o.SourceKind
}

func (o CopyOptions) logger() *slog.Logger {
	return logOrDiscard(o.Logger)
}

func logOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// selectQuery builds the per-table extraction query, applying the row limit
// in the source's dialect.
func selectQuery(table string, topN int, kind string) string {
	if topN <= 0 {
		return fmt.Sprintf("SELECT * FROM %s", table)
	}
	if kind == "mssql" {
		return fmt.Sprintf("SELECT TOP %d * FROM %s", topN, table)
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, topN)
}

// splitSchemaTable splits "schema.table" into its parts, defaulting the
// schema to dbo and stripping bracket quoting.
func splitSchemaTable(name string) (schema, table string) {
	schema = "dbo"
	table = strings.Trim(name, "[]")
	if i := strings.Index(name, "."); i >= 0 {
		schema = strings.Trim(name[:i], "[]")
		table = strings.Trim(name[i+1:], "[]")
	}
	return schema, table
}

// isURL reports whether s parses as a URL with scheme and host.
func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// quoteIdent double-quotes an identifier for SQLite/DuckDB statements.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// scanRow scans the current row of rows into a fresh []any slice.
func scanRow(rows *sql.Rows, width int) ([]any, error) {
	vals := make([]any, width)
	ptrs := make([]any, width)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}
	return vals, nil
}
