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

	"github.com/connkit/connkit/internal/meta"
	"github.com/connkit/connkit/internal/testutil"
)

func TestCopyToSQLite(t *testing.T) {
	src, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer src.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM dbo.Orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "widget").
			AddRow(int64(2), "gadget"))

	path := filepath.Join(t.TempDir(), "delivery.db")
	opts := CopyOptions{
		Meta:   map[string]string{meta.KeyTag: "2026-08"},
		Views:  map[string]string{"orders_v": "SELECT id FROM Orders;"},
		Logger: testutil.NewTestLogger(t),
	}
	err = CopyToSQLite(context.Background(), src, path, []TableMapping{{Source: "dbo.Orders"}}, opts)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	dst, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer dst.Close()

	var count int
	require.NoError(t, dst.QueryRow("SELECT COUNT(*) FROM Orders").Scan(&count))
	assert.Equal(t, 2, count)

	var tag string
	require.NoError(t, dst.QueryRow("SELECT tag FROM _meta").Scan(&tag))
	assert.Equal(t, "2026-08", tag)

	require.NoError(t, dst.QueryRow("SELECT COUNT(*) FROM orders_v").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestCopyToSQLiteRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delivery.db")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	err := CopyToSQLite(context.Background(), nil, path, nil, CopyOptions{})
	assert.ErrorIs(t, err, ErrTargetExists)
}

func TestCopyToSQLiteSourceQueryError(t *testing.T) {
	src, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer src.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM missing")).
		WillReturnError(assert.AnError)

	path := filepath.Join(t.TempDir(), "delivery.db")
	err = CopyToSQLite(context.Background(), src, path, []TableMapping{{Source: "missing"}}, CopyOptions{})
	assert.ErrorContains(t, err, "failed to copy table missing")
}

func TestCopyToSQLiteTopN(t *testing.T) {
	src, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer src.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT TOP 1 * FROM Orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	path := filepath.Join(t.TempDir(), "sample.db")
	err = CopyToSQLite(context.Background(), src, path, []TableMapping{{Source: "Orders"}}, CopyOptions{TopN: 1})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
