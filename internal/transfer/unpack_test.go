package transfer

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connkit/connkit/internal/testutil"
)

func openMemoryDuckDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestUnpackDir(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "orders.csv"), "id,name\n1,widget\n2,gadget\n")
	writeCSV(t, filepath.Join(dir, "customers.csv"), "id,city\n1,Oslo\n")
	writeCSV(t, filepath.Join(dir, "notes.txt"), "ignored\n")

	db := openMemoryDuckDB(t)
	views, err := UnpackDir(context.Background(), db, dir, "csv", UnpackOptions{
		Prefix: "raw_",
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"raw_customers", "raw_orders"}, views)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM raw_orders`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestUnpackDirFileFilter(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "orders.csv"), "id\n1\n")
	writeCSV(t, filepath.Join(dir, "customers.csv"), "id\n1\n")

	db := openMemoryDuckDB(t)
	views, err := UnpackDir(context.Background(), db, dir, "csv", UnpackOptions{Files: []string{"orders"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, views)
}

func TestUnpackDirUnsupportedExtension(t *testing.T) {
	db := openMemoryDuckDB(t)
	_, err := UnpackDir(context.Background(), db, t.TempDir(), "xlsx", UnpackOptions{})
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestUnpackDirMissingDir(t *testing.T) {
	db := openMemoryDuckDB(t)
	_, err := UnpackDir(context.Background(), db, filepath.Join(t.TempDir(), "nope"), "csv", UnpackOptions{})
	assert.ErrorContains(t, err, "failed to read directory")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "delivery.csv")
	writeCSV(t, path, "id;name\n1;widget\n2;gadget\n")

	db := openMemoryDuckDB(t)
	name, err := LoadFile(context.Background(), db, path, LoadFileOptions{})
	require.NoError(t, err)
	assert.Equal(t, "delivery", name)

	var cols int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM duckdb_columns() WHERE table_name = 'delivery'").Scan(&cols))
	assert.Equal(t, 2, cols, "semicolon is the default delimiter")
}

func TestLoadFileCustomDelimiterAndName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	writeCSV(t, path, "id,name\n1,widget\n")

	db := openMemoryDuckDB(t)
	name, err := LoadFile(context.Background(), db, path, LoadFileOptions{Name: "incoming", Delimiter: ","})
	require.NoError(t, err)
	assert.Equal(t, "incoming", name)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM incoming`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLoadFileMissing(t *testing.T) {
	db := openMemoryDuckDB(t)
	_, err := LoadFile(context.Background(), db, filepath.Join(t.TempDir(), "nope.csv"), LoadFileOptions{})
	assert.ErrorContains(t, err, "file not found")
}

func TestLoadFileUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.xlsx")
	writeCSV(t, path, "binary")

	db := openMemoryDuckDB(t)
	_, err := LoadFile(context.Background(), db, path, LoadFileOptions{})
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestLoadFileEmptyPath(t *testing.T) {
	db := openMemoryDuckDB(t)
	_, err := LoadFile(context.Background(), db, "", LoadFileOptions{})
	assert.ErrorContains(t, err, "path is empty")
}

func TestConvertSQLiteToDuckDBErrors(t *testing.T) {
	t.Run("unsupported suffix", func(t *testing.T) {
		_, err := ConvertSQLiteToDuckDB(context.Background(), "data.csv", ConvertOptions{})
		assert.ErrorContains(t, err, "unsupported file type")
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := ConvertSQLiteToDuckDB(context.Background(), filepath.Join(t.TempDir(), "nope.sqlite"), ConvertOptions{})
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("existing target", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "data.sqlite")
		require.NoError(t, os.WriteFile(src, nil, 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data.duckdb"), nil, 0o600))

		_, err := ConvertSQLiteToDuckDB(context.Background(), src, ConvertOptions{})
		assert.ErrorIs(t, err, ErrTargetExists)
	})
}

func TestExportParquetMissingSource(t *testing.T) {
	_, err := ExportParquet(context.Background(), filepath.Join(t.TempDir(), "nope.sqlite"), t.TempDir(), ExportOptions{})
	assert.ErrorContains(t, err, "not found")
}
