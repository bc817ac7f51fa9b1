package record

import (
	"bytes"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "alice").
			AddRow(2, []byte("bob")),
	)

	rows, err := db.Query("SELECT id, name FROM users")
	require.NoError(t, err)

	rs, err := FromRows(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, rs.Columns)
	require.Equal(t, 2, rs.Len())
	assert.Equal(t, "alice", rs.Rows[0][1])
	// []byte cells become strings
	assert.Equal(t, "bob", rs.Rows[1][1])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddID(t *testing.T) {
	rs := &Recordset{
		Columns: []string{"name"},
		Rows:    [][]any{{"alice"}, {"bob"}},
	}

	rs.AddID()
	assert.Equal(t, []string{"id", "name"}, rs.Columns)
	assert.Equal(t, int64(1), rs.Rows[0][0])
	assert.Equal(t, int64(2), rs.Rows[1][0])

	// Second call is a no-op
	rs.AddID()
	assert.Equal(t, []string{"id", "name"}, rs.Columns)
}

func TestAddTimestamp(t *testing.T) {
	rs := &Recordset{
		Columns: []string{"name"},
		Rows:    [][]any{{"alice"}},
	}

	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	rs.AddTimestamp(now)

	assert.Equal(t, []string{"name", "created_at"}, rs.Columns)
	assert.Equal(t, "2024-03-01 12:30:00", rs.Rows[0][1])

	rs.AddTimestamp(now)
	assert.Equal(t, []string{"name", "created_at"}, rs.Columns)
}

func TestClone(t *testing.T) {
	rs := &Recordset{
		Columns: []string{"a"},
		Rows:    [][]any{{int64(1)}},
	}

	cp := rs.Clone()
	cp.AddID()

	assert.Equal(t, []string{"a"}, rs.Columns)
	assert.Equal(t, []string{"id", "a"}, cp.Columns)
}

func TestRender(t *testing.T) {
	rs := &Recordset{
		Columns: []string{"name", "value"},
		Rows:    [][]any{{"alice", int64(1)}},
	}

	var buf bytes.Buffer
	rs.Render(&buf)

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "alice")
}
