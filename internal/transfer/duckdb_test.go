package transfer

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyToDuckDB(t *testing.T) {
	src, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer src.Close()

	mock.ExpectQuery("SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS").
		WithArgs("dbo", "Orders").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE"}).
			AddRow("id", "bigint").
			AddRow("name", "nvarchar").
			AddRow("amount", "decimal"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM dbo.Orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "amount"}).
			AddRow(int64(1), "widget", 9.5).
			AddRow(int64(2), "gadget", 12.25))

	path := filepath.Join(t.TempDir(), "delivery.duckdb")
	err = CopyToDuckDB(context.Background(), src, path, []TableMapping{{Source: "dbo.Orders"}}, CopyOptions{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	dst, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	defer dst.Close()

	var count int
	require.NoError(t, dst.QueryRow(`SELECT COUNT(*) FROM "Orders"`).Scan(&count))
	assert.Equal(t, 2, count)

	types, err := columnTypes(context.Background(), dst, "Orders")
	require.NoError(t, err)
	assert.Equal(t, "BIGINT", types["id"])
	assert.Equal(t, "VARCHAR", types["name"])
}

func TestCopyToDuckDBSkipsTableWithoutColumns(t *testing.T) {
	src, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer src.Close()

	mock.ExpectQuery("SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS").
		WithArgs("dbo", "Ghost").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE"}))

	path := filepath.Join(t.TempDir(), "delivery.duckdb")
	err = CopyToDuckDB(context.Background(), src, path, []TableMapping{{Source: "dbo.Ghost"}}, CopyOptions{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyToDuckDBRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delivery.duckdb")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	err := CopyToDuckDB(context.Background(), nil, path, nil, CopyOptions{})
	assert.ErrorIs(t, err, ErrTargetExists)
}

func TestApplyTypeOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.duckdb")
	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE orders (id VARCHAR, amount VARCHAR)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders VALUES ('1', '9.5'), ('x', 'bad')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	overrides := TypeOverrides{
		"orders": {"id": "BIGINT", "amount": "DOUBLE", "missing": "BOOLEAN"},
		"ghost":  {"id": "BIGINT"},
	}
	require.NoError(t, ApplyTypeOverrides(context.Background(), path, overrides, nil))

	db, err = sql.Open("duckdb", path)
	require.NoError(t, err)
	defer db.Close()

	types, err := columnTypes(context.Background(), db, "orders")
	require.NoError(t, err)
	assert.Equal(t, "BIGINT", types["id"])
	assert.Equal(t, "DOUBLE", types["amount"])

	// TRY_CAST turns the unparseable row into NULLs.
	var nulls int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders WHERE id IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestApplyTypeOverridesMissingFile(t *testing.T) {
	err := ApplyTypeOverrides(context.Background(), filepath.Join(t.TempDir(), "nope.duckdb"), nil, nil)
	assert.ErrorContains(t, err, "not found")
}
