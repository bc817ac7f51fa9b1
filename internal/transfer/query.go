package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/connkit/connkit/internal/record"
)

// QueryRecordset runs a query and collects the full result set in memory.
func QueryRecordset(ctx context.Context, db *sql.DB, query string, args ...any) (*record.Recordset, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return record.FromRows(rows)
}

// SaveOptions controls SaveTable.
type SaveOptions struct {
	// AddID prepends a 1-based id column before writing.
	AddID bool

	// AddTimestamp appends a created_at column before writing.
	AddTimestamp bool

	// Replace drops an existing table first. Without it an existing table is
	// an error.
	Replace bool
}

// SaveTable writes a recordset into a SQL Server table. The table is created
// from the recordset's columns with types inferred from the first row; rows
// go in through batched inserts with @pN placeholders.
func SaveTable(ctx context.Context, db *sql.DB, rs *record.Recordset, schema, table string, opts SaveOptions) error {
	if rs == nil || len(rs.Columns) == 0 {
		return fmt.Errorf("recordset is empty")
	}
	if schema == "" {
		schema = "dbo"
	}

	if opts.AddID || opts.AddTimestamp {
		rs = rs.Clone()
		if opts.AddID {
			rs.AddID()
		}
		if opts.AddTimestamp {
			rs.AddTimestamp(time.Now())
		}
	}

	qualified := fmt.Sprintf("[%s].[%s]", schema, table)

	var exists bool
	check := "SELECT CASE WHEN OBJECT_ID(@p1) IS NULL THEN 0 ELSE 1 END"
	if err := db.QueryRowContext(ctx, check, qualified).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check table %s: %w", qualified, err)
	}
	if exists {
		if !opts.Replace {
			return fmt.Errorf("%w: %s", ErrTargetExists, qualified)
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", qualified)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", qualified, err)
		}
	}

	defs := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		defs[i] = fmt.Sprintf("[%s] %s", col, mssqlColumnType(rs, i))
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %s: %w", qualified, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", qualified, mssqlPlaceholders(len(rs.Columns)))
	for start := 0; start < len(rs.Rows); start += batchSize {
		end := min(start+batchSize, len(rs.Rows))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		for _, row := range rs.Rows[start:end] {
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
	}

	return nil
}

// mssqlColumnType infers a SQL Server column type from the first non-nil
// value in the column. Everything unrecognized becomes NVARCHAR(MAX).
func mssqlColumnType(rs *record.Recordset, col int) string {
	for _, row := range rs.Rows {
		switch row[col].(type) {
		case nil:
			continue
		case int, int32, int64:
			return "BIGINT"
		case float32, float64:
			return "FLOAT"
		case bool:
			return "BIT"
		case time.Time:
			return "DATETIME2"
		default:
			return "NVARCHAR(MAX)"
		}
	}
	return "NVARCHAR(MAX)"
}

// mssqlPlaceholders returns "@p1, @p2, ..." of the given width.
func mssqlPlaceholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("@p%d", i+1)
	}
	return strings.Join(parts, ", ")
}
