package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/connkit/connkit/internal/meta"
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// mssqlToDuckDBType maps SQL Server column types to DuckDB types. Unmapped
// types fall back to VARCHAR so every row still loads.
var mssqlToDuckDBType = map[string]string{
	"bit":              "BOOLEAN",
	"tinyint":          "TINYINT",
	"smallint":         "SMALLINT",
	"int":              "INTEGER",
	"bigint":           "BIGINT",
	"real":             "REAL",
	"float":            "DOUBLE",
	"decimal":          "DECIMAL",
	"numeric":          "DECIMAL",
	"money":            "DECIMAL(19,4)",
	"smallmoney":       "DECIMAL(10,4)",
	"char":             "VARCHAR",
	"varchar":          "VARCHAR",
	"nchar":            "VARCHAR",
	"nvarchar":         "VARCHAR",
	"text":             "VARCHAR",
	"ntext":            "VARCHAR",
	"date":             "DATE",
	"datetime":         "TIMESTAMP",
	"datetime2":        "TIMESTAMP",
	"smalldatetime":    "TIMESTAMP",
	"time":             "TIME",
	"uniqueidentifier": "UUID",
	"binary":           "BLOB",
	"varbinary":        "BLOB",
	"image":            "BLOB",
}

// CopyToDuckDB copies tables from an open source database into a new DuckDB
// file. Column types are read from the source's INFORMATION_SCHEMA and
// mapped to DuckDB types; the table is created explicitly before rows are
// streamed in batches.
func CopyToDuckDB(ctx context.Context, src *sql.DB, path string, tables []TableMapping, opts CopyOptions) error {
	logger := opts.logger()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, path)
	}

	dst, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to create duckdb file %s: %w", path, err)
	}
	defer func() { _ = dst.Close() }()

	if opts.Meta != nil {
		if err := meta.Write(ctx, dst, opts.Meta); err != nil {
			return err
		}
	}

	for _, tm := range tables {
		target := tm.TargetName()
		logger.Info("copying table", "source", tm.Source, "target", target)

		columns, err := sourceColumns(ctx, src, tm.Source, opts.sourceKind())
		if err != nil {
			return fmt.Errorf("failed to read schema for %s: %w", tm.Source, err)
		}
		if len(columns) == 0 {
			logger.Warn("no columns found, skipping table", "source", tm.Source)
			continue
		}

		defs := make([]string, len(columns))
		for i, col := range columns {
			duckType, ok := mssqlToDuckDBType[strings.ToLower(col.Type)]
			if !ok {
				logger.Warn("unmapped column type, using VARCHAR", "column", col.Name, "type", col.Type)
				duckType = "VARCHAR"
			}
			defs[i] = fmt.Sprintf("%s %s", quoteIdent(col.Name), duckType)
		}

		create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(target), strings.Join(defs, ", "))
		if _, err := dst.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("failed to create table %s: %w", target, err)
		}

		if err := streamTable(ctx, src, dst, tm.Source, target, len(columns), opts); err != nil {
			return fmt.Errorf("failed to copy table %s: %w", tm.Source, err)
		}
	}

	logger.Info("duckdb file created", "path", path, "tables", len(tables))
	return nil
}

// sourceColumn is one column of a source table.
type sourceColumn struct {
	Name string
	Type string
}

// sourceColumns reads the ordered column list of a table from the source's
// INFORMATION_SCHEMA, using the placeholder style of the source kind.
func sourceColumns(ctx context.Context, src *sql.DB, table, kind string) ([]sourceColumn, error) {
	schema, name := splitSchemaTable(table)

	var query string
	switch kind {
	case "postgres":
		query = `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`
	case "mssql":
		query = `SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS
			WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 ORDER BY ORDINAL_POSITION`
	default:
		query = `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position`
	}

	rows, err := src.QueryContext(ctx, query, schema, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []sourceColumn
	for rows.Next() {
		var col sourceColumn
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

// streamTable moves the table contents in batches.
func streamTable(ctx context.Context, src, dst *sql.DB, source, target string, width int, opts CopyOptions) error {
	rows, err := src.QueryContext(ctx, selectQuery(source, opts.TopN, opts.sourceKind()))
	if err != nil {
		return fmt.Errorf("failed to query source: %w", err)
	}
	defer func() { _ = rows.Close() }()

	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(target), placeholders(width))
	return insertBatches(ctx, dst, insert, rows, width)
}
