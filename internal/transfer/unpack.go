package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/connkit/connkit/internal/meta"
)

// UnpackOptions controls UnpackDir.
type UnpackOptions struct {
	// Files keeps only the listed basenames (without extension). Nil keeps
	// everything.
	Files []string

	// Prefix is prepended to every created view name.
	Prefix string

	Logger *slog.Logger
}

// UnpackDir creates one DuckDB view per csv/parquet file in dir, on an open
// DuckDB connection, so a whole delivery directory becomes queryable at
// once. Returns the created view names in sorted order.
func UnpackDir(ctx context.Context, db *sql.DB, dir, ext string, opts UnpackOptions) ([]string, error) {
	logger := logOrDiscard(opts.Logger)

	if ext != "csv" && ext != "parquet" {
		return nil, fmt.Errorf("unsupported extension %q (want csv or parquet)", ext)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	suffix := "." + ext
	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), suffix)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if opts.Files != nil {
		allow := make(map[string]bool, len(opts.Files))
		for _, f := range opts.Files {
			allow[f] = true
		}
		filtered := names[:0]
		for _, n := range names {
			if allow[n] {
				filtered = append(filtered, n)
			}
		}
		names = filtered
	}
	sort.Strings(names)

	var views []string
	for _, name := range names {
		path := filepath.Join(dir, name+suffix)
		view := opts.Prefix + name
		logger.Info("loading file", "path", path, "view", view)

		var reader string
		if ext == "parquet" {
			reader = fmt.Sprintf("read_parquet('%s')", escapeSingle(path))
		} else {
			reader = fmt.Sprintf("read_csv('%s', header=true)", escapeSingle(path))
		}

		stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s", quoteIdent(view), reader)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return views, fmt.Errorf("failed to load %s: %w", path, err)
		}
		views = append(views, view)
	}

	return views, nil
}

// LoadFileOptions controls LoadFile.
type LoadFileOptions struct {
	// Name overrides the view name (default: file basename without extension).
	Name string

	// Delimiter for CSV/TXT files. Defaults to ";" since most deliveries this
	// package deals with are semicolon-separated.
	Delimiter string

	Logger *slog.Logger
}

// LoadFile creates a DuckDB view over a single CSV/TXT or Parquet file.
// Local paths get ~ expansion and an existence check; URL paths are handed
// to DuckDB untouched (httpfs). Returns the view name.
func LoadFile(ctx context.Context, db *sql.DB, path string, opts LoadFileOptions) (string, error) {
	logger := logOrDiscard(opts.Logger)

	if path == "" {
		return "", fmt.Errorf("path is empty")
	}

	if !isURL(path) {
		expanded, err := meta.ExpandHome(path)
		if err != nil {
			return "", err
		}
		path = expanded
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("file not found: %s", path)
		}
	}

	delim := opts.Delimiter
	if delim == "" {
		delim = ";"
	}

	var reader string
	switch {
	case strings.HasSuffix(path, ".csv"), strings.HasSuffix(path, ".txt"):
		reader = fmt.Sprintf("read_csv('%s', header=true, delim='%s')", escapeSingle(path), escapeSingle(delim))
	case strings.HasSuffix(path, ".parquet"):
		reader = fmt.Sprintf("read_parquet('%s')", escapeSingle(path))
	default:
		return "", fmt.Errorf("unsupported file type: %s", path)
	}

	name := opts.Name
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	logger.Info("loading file", "path", path, "view", name)
	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s", quoteIdent(name), reader)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", path, err)
	}

	return name, nil
}

// escapeSingle escapes single quotes for embedding in a SQL string literal.
func escapeSingle(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
