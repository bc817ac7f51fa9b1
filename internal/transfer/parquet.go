package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ExportOptions controls ExportParquet.
type ExportOptions struct {
	// Overwrite replaces existing parquet files. Existing files are skipped
	// otherwise.
	Overwrite bool

	// Prefix keeps only tables whose name starts with it. Empty keeps all.
	Prefix string

	Logger *slog.Logger
}

// ExportParquet writes every table of a SQLite file into one Parquet file
// per table under dir. DuckDB does the reading (sqlite extension) and the
// Parquet encoding (COPY ... TO). Returns the paths written.
func ExportParquet(ctx context.Context, sqlitePath, dir string, opts ExportOptions) ([]string, error) {
	logger := logOrDiscard(opts.Logger)

	if _, err := os.Stat(sqlitePath); err != nil {
		return nil, fmt.Errorf("sqlite file not found: %s", sqlitePath)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	tables, err := attachSQLite(ctx, db, sqlitePath)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, tbl := range tables {
		if opts.Prefix != "" && !strings.HasPrefix(tbl, opts.Prefix) {
			continue
		}

		path := filepath.Join(dir, tbl+".parquet")
		_, statErr := os.Stat(path)
		exists := statErr == nil

		if exists && !opts.Overwrite {
			logger.Info("skipping existing file", "path", path)
			continue
		}
		if exists {
			logger.Info("replacing file", "path", path)
		} else {
			logger.Info("creating file", "path", path)
		}

		stmt := fmt.Sprintf("COPY (SELECT * FROM src.%s) TO '%s' (FORMAT PARQUET)", quoteIdent(tbl), escapeSingle(path))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return written, fmt.Errorf("failed to export table %s: %w", tbl, err)
		}
		written = append(written, path)
	}

	return written, nil
}

// attachSQLite loads the sqlite extension, attaches the file as "src" and
// returns its table names in sorted order.
func attachSQLite(ctx context.Context, db *sql.DB, path string) ([]string, error) {
	if _, err := db.ExecContext(ctx, "INSTALL sqlite"); err != nil {
		return nil, fmt.Errorf("failed to install sqlite extension: %w", err)
	}
	if _, err := db.ExecContext(ctx, "LOAD sqlite"); err != nil {
		return nil, fmt.Errorf("failed to load sqlite extension: %w", err)
	}
	attach := fmt.Sprintf("ATTACH '%s' AS src (TYPE SQLITE)", escapeSingle(path))
	if _, err := db.ExecContext(ctx, attach); err != nil {
		return nil, fmt.Errorf("failed to attach sqlite file: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		"SELECT table_name FROM duckdb_tables() WHERE database_name = 'src' ORDER BY table_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
