package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// TypeOverrides maps table name to column name to the desired DuckDB type.
type TypeOverrides map[string]map[string]string

// ApplyTypeOverrides retypes columns of an existing DuckDB file in place.
// Conversions use TRY_CAST so rows that do not fit become NULL instead of
// failing the whole table. Missing tables or columns are skipped with a
// warning, as are columns already of the requested type.
func ApplyTypeOverrides(ctx context.Context, path string, overrides TypeOverrides, logger *slog.Logger) error {
	logger = logOrDiscard(logger)

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("duckdb file not found: %s", path)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb file %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	tables := make([]string, 0, len(overrides))
	for tbl := range overrides {
		tables = append(tables, tbl)
	}
	sort.Strings(tables)

	for _, tbl := range tables {
		current, err := columnTypes(ctx, db, tbl)
		if err != nil {
			return fmt.Errorf("failed to inspect table %s: %w", tbl, err)
		}
		if len(current) == 0 {
			logger.Warn("table not found, skipping overrides", "table", tbl)
			continue
		}

		cols := make([]string, 0, len(overrides[tbl]))
		for col := range overrides[tbl] {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		for _, col := range cols {
			want := overrides[tbl][col]
			have, ok := current[col]
			if !ok {
				logger.Warn("column not found, skipping override", "table", tbl, "column", col)
				continue
			}
			if strings.EqualFold(have, want) {
				logger.Debug("column already has requested type", "table", tbl, "column", col, "type", want)
				continue
			}

			logger.Info("retyping column", "table", tbl, "column", col, "from", have, "to", want)
			stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DATA TYPE %s USING TRY_CAST(%s AS %s)",
				quoteIdent(tbl), quoteIdent(col), want, quoteIdent(col), want)
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to retype %s.%s: %w", tbl, col, err)
			}
		}
	}

	return nil
}

// columnTypes returns column name to type for a DuckDB table, empty when the
// table does not exist.
func columnTypes(ctx context.Context, db *sql.DB, table string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT column_name, data_type FROM duckdb_columns() WHERE table_name = ?", table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, err
		}
		out[name] = typ
	}
	return out, rows.Err()
}
