package commands

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCommand("1.2.3", "2026-08-01", "abc123"))
	require.NoError(t, err)
	assert.Contains(t, out, "connkit v1.2.3")
	assert.Contains(t, out, "abc123")
}

func TestQueryCommandSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE orders (id INTEGER, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders VALUES (1, 'widget')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := execute(t, NewQueryCommand(), path, "SELECT id, name FROM orders")
	require.NoError(t, err)
	assert.Contains(t, out, "widget")
	assert.Contains(t, strings.ToUpper(out), "NAME")
}

func TestQueryCommandUnknownProfile(t *testing.T) {
	_, err := execute(t, NewQueryCommand(), "nonexistent", "SELECT 1")
	assert.ErrorContains(t, err, "not found")
}

func TestMetaCommandMissingFile(t *testing.T) {
	_, err := execute(t, NewMetaCommand(), filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}

func TestConvertCommandBadSuffix(t *testing.T) {
	_, err := execute(t, NewConvertCommand(), "data.csv")
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestUnpackCommandBadExtension(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, NewUnpackCommand(),
		dir, "--ext", "xlsx", "--database", filepath.Join(dir, "out.duckdb"))
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestUnpackCommandSingleFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id;name\n1;widget\n"), 0o600))

	out, err := execute(t, NewUnpackCommand(),
		csvPath, "--database", filepath.Join(dir, "out.duckdb"))
	require.NoError(t, err)
	assert.Contains(t, out, "orders")
}

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"tag=2026-08", "note=a=b"}, "meta")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tag": "2026-08", "note": "a=b"}, got)

	_, err = parsePairs([]string{"novalue"}, "meta")
	assert.ErrorContains(t, err, "invalid --meta")

	got, err = parsePairs(nil, "meta")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCutLast(t *testing.T) {
	table, column, ok := cutLast("stg.orders.amount", ".")
	require.True(t, ok)
	assert.Equal(t, "stg.orders", table)
	assert.Equal(t, "amount", column)

	_, _, ok = cutLast("noseparator", ".")
	assert.False(t, ok)
}

func TestConfirm(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	cmd.SetIn(strings.NewReader("y\n"))
	assert.True(t, confirm(cmd, "Replace?"))

	cmd.SetIn(strings.NewReader("no\n"))
	assert.False(t, confirm(cmd, "Replace?"))

	cmd.SetIn(strings.NewReader(""))
	assert.False(t, confirm(cmd, "Replace?"))
}

func TestOpenSourceKinds(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	path := filepath.Join(t.TempDir(), "data.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE t (x)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	adapter, err := openSource(context.Background(), cmd, path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", adapter.KindName())
	require.NoError(t, adapter.Close())

	_, err = openSource(context.Background(), cmd, "missing-profile")
	assert.ErrorContains(t, err, "not found")
}
