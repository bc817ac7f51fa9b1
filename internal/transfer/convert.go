package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ConvertOptions controls ConvertSQLiteToDuckDB.
type ConvertOptions struct {
	// TopN limits the rows copied per table. 0 copies everything.
	TopN int

	// Prefix keeps only tables whose name starts with it. Empty keeps all.
	Prefix string

	Logger *slog.Logger
}

// ConvertSQLiteToDuckDB materializes every table of a SQLite file into a new
// DuckDB file next to it, replacing the extension. Returns the created path.
func ConvertSQLiteToDuckDB(ctx context.Context, sqlitePath string, opts ConvertOptions) (string, error) {
	logger := logOrDiscard(opts.Logger)

	var target string
	switch {
	case strings.HasSuffix(sqlitePath, ".sqlite"):
		target = strings.TrimSuffix(sqlitePath, ".sqlite") + ".duckdb"
	case strings.HasSuffix(sqlitePath, ".db"):
		target = strings.TrimSuffix(sqlitePath, ".db") + ".duckdb"
	default:
		return "", fmt.Errorf("unsupported file type: %s (want .sqlite or .db)", sqlitePath)
	}

	if _, err := os.Stat(sqlitePath); err != nil {
		return "", fmt.Errorf("sqlite file not found: %s", sqlitePath)
	}
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("%w: %s", ErrTargetExists, target)
	}

	db, err := sql.Open("duckdb", target)
	if err != nil {
		return "", fmt.Errorf("failed to create duckdb file %s: %w", target, err)
	}
	defer func() { _ = db.Close() }()

	tables, err := attachSQLite(ctx, db, sqlitePath)
	if err != nil {
		return "", err
	}

	for _, tbl := range tables {
		if opts.Prefix != "" && !strings.HasPrefix(tbl, opts.Prefix) {
			continue
		}
		logger.Info("converting table", "table", tbl)

		stmt := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM src.%s", quoteIdent(tbl), quoteIdent(tbl))
		if opts.TopN > 0 {
			stmt = fmt.Sprintf("%s LIMIT %d", stmt, opts.TopN)
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return "", fmt.Errorf("failed to convert table %s: %w", tbl, err)
		}
	}

	logger.Info("duckdb file created", "path", target, "tables", len(tables))
	return target, nil
}
