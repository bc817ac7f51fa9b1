package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connkit/connkit/internal/config"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"query", "copy", "export", "unpack", "convert", "meta", "pgp", "secrets", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommandLoadsConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "connkit.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
profiles:
  warehouse:
    kind: mssql
    host: db.example.com
`), 0o600))
	t.Cleanup(config.ResetConfig)

	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"--config", cfgPath, "version"})
	require.NoError(t, root.Execute())

	cfg := config.GetCurrentConfig()
	require.NotNil(t, cfg)
	profile, err := cfg.Profile("warehouse")
	require.NoError(t, err)
	assert.Equal(t, "mssql", profile.Kind)
	assert.Contains(t, out.String(), "connkit v")
}

func TestRootCommandBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(":\n  -bad yaml ["), 0o600))
	t.Cleanup(config.ResetConfig)

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "version"})
	assert.Error(t, root.Execute())
}
