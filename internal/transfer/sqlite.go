package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/connkit/connkit/internal/meta"
	_ "modernc.org/sqlite" // sqlite driver
)

// CopyToSQLite copies tables from an open source database into a new SQLite
// file. The operation refuses to touch an existing file. Views and a _meta
// provenance row are created first, then each table is streamed in batches
// of 10000 rows.
func CopyToSQLite(ctx context.Context, src *sql.DB, path string, tables []TableMapping, opts CopyOptions) error {
	logger := opts.logger()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, path)
	}

	dst, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to create sqlite file %s: %w", path, err)
	}
	defer func() { _ = dst.Close() }()

	if err := createViews(ctx, dst, opts.Views); err != nil {
		return err
	}

	if opts.Meta != nil {
		if err := meta.Write(ctx, dst, opts.Meta); err != nil {
			return err
		}
	}

	for _, tm := range tables {
		target := tm.TargetName()
		logger.Info("copying table", "source", tm.Source, "target", target)
		if err := copyTable(ctx, src, dst, tm.Source, target, opts); err != nil {
			return fmt.Errorf("failed to copy table %s: %w", tm.Source, err)
		}
	}

	logger.Info("sqlite file created", "path", path, "tables", len(tables))
	return nil
}

// createViews creates each view in sorted name order. The stored query is
// the bare SELECT; any trailing semicolon is stripped.
func createViews(ctx context.Context, dst *sql.DB, views map[string]string) error {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		query := strings.TrimSuffix(strings.TrimSpace(views[name]), ";")
		stmt := fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS %s", quoteIdent(name), query)
		if _, err := dst.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create view %s: %w", name, err)
		}
	}
	return nil
}

// copyTable streams one table from src into dst. The destination table is
// created untyped; SQLite's dynamic typing stores whatever the source sends.
func copyTable(ctx context.Context, src, dst *sql.DB, source, target string, opts CopyOptions) error {
	rows, err := src.QueryContext(ctx, selectQuery(source, opts.TopN, opts.sourceKind()))
	if err != nil {
		return fmt.Errorf("failed to query source: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read source columns: %w", err)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(target), strings.Join(quoted, ", "))
	if _, err := dst.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create target table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		quoteIdent(target), placeholders(len(cols)))

	return insertBatches(ctx, dst, insert, rows, len(cols))
}

// insertBatches drains rows and inserts them through one prepared statement
// per transaction, batchSize rows at a time.
func insertBatches(ctx context.Context, dst *sql.DB, insert string, rows *sql.Rows, width int) error {
	batch := make([][]any, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		tx, err := dst.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		for _, row := range batch {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				_ = stmt.Close()
				_ = tx.Rollback()
				return fmt.Errorf("failed to insert row: %w", err)
			}
		}
		_ = stmt.Close()
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for rows.Next() {
		row, err := scanRow(rows, width)
		if err != nil {
			return fmt.Errorf("failed to scan source row: %w", err)
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating source rows: %w", err)
	}
	return flush()
}

// placeholders returns "?, ?, ..." of the given width.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
