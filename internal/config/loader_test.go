package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	dir := t.TempDir()

	cfgPath := writeFile(t, dir, "connkit.yaml", `
env_file: ""
profiles:
  warehouse:
    kind: mssql
    host: SQL_HOST
    database: SQL_DB
    use_env: true
  local:
    kind: sqlite
    database: ./local.db
secrets:
  environment: staging
`)

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	require.Len(t, cfg.Profiles, 2)
	wh, err := cfg.Profile("warehouse")
	require.NoError(t, err)
	assert.Equal(t, "mssql", wh.Kind)
	assert.True(t, wh.UseEnv)

	dc := wh.DriverConfig()
	assert.Equal(t, "SQL_HOST", dc.Host)
	assert.True(t, dc.UseEnv)

	assert.Equal(t, "staging", cfg.Secrets.Environment)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

func TestLoadDefaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "connkit.yaml", `env_file: ""`)

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultEnvironment, cfg.Secrets.Environment)
	assert.False(t, cfg.Verbose)
}

func TestLoadFlagOverrides(t *testing.T) {
	t.Cleanup(ResetConfig)
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "connkit.yaml", `env_file: ""`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--verbose"}))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}

func TestLoadEnvVarOverrides(t *testing.T) {
	t.Cleanup(ResetConfig)
	t.Setenv("CONNKIT_VERBOSE", "true")

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "connkit.yaml", `env_file: ""`)

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}

func TestProfileNotFound(t *testing.T) {
	cfg := &Config{Profiles: map[string]Profile{}}

	_, err := cfg.Profile("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")

	_, err = cfg.Profile("")
	require.Error(t, err)
}

func TestApplyEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "CONNKIT_TEST_SECRET=from-file\n")

	// Ensure no leakage between runs
	t.Setenv("CONNKIT_TEST_SECRET", "")
	require.NoError(t, os.Unsetenv("CONNKIT_TEST_SECRET"))

	require.NoError(t, ApplyEnvFile(envPath))
	assert.Equal(t, "from-file", os.Getenv("CONNKIT_TEST_SECRET"))
}

func TestApplyEnvFileExistingEnvWins(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "CONNKIT_TEST_PRESENT=from-file\n")

	t.Setenv("CONNKIT_TEST_PRESENT", "from-env")
	require.NoError(t, ApplyEnvFile(envPath))
	assert.Equal(t, "from-env", os.Getenv("CONNKIT_TEST_PRESENT"))
}

func TestApplyEnvFileMissing(t *testing.T) {
	err := ApplyEnvFile(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
