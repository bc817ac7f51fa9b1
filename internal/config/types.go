// Package config provides connkit's configuration: connection profiles,
// secrets settings, and CLI defaults. It is decoupled from CLI concerns so
// library callers can load a project config directly.
package config

import (
	"fmt"

	"github.com/connkit/connkit/internal/driver"
)

// Default configuration values.
const (
	DefaultEnvironment = "dev"
	DefaultEnvFile     = ".env"
)

// Profile holds one named database connection.
type Profile struct {
	Kind     string `koanf:"kind"`
	Host     string `koanf:"host"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// UseEnv marks host/database/user/password as names of environment
	// variables resolved at connect time.
	UseEnv bool `koanf:"use_env"`

	// EnsureExists creates the database on the server when missing.
	EnsureExists bool `koanf:"ensure_exists"`
}

// DriverConfig converts the profile into a driver.Config.
func (p Profile) DriverConfig() driver.Config {
	return driver.Config{
		Kind:         p.Kind,
		Host:         p.Host,
		Database:     p.Database,
		User:         p.User,
		Password:     p.Password,
		UseEnv:       p.UseEnv,
		EnsureExists: p.EnsureExists,
	}
}

// SecretsConfig holds Infisical settings that are not credentials.
// Credentials always come from the environment (INF_CLIENT, INF_SECRET,
// INF_PROJECT).
type SecretsConfig struct {
	Environment string `koanf:"environment"`
	SiteURL     string `koanf:"site_url"`
}

// Config holds all connkit configuration options.
type Config struct {
	EnvFile  string             `koanf:"env_file"`
	Verbose  bool               `koanf:"verbose"`
	Profiles map[string]Profile `koanf:"profiles"`
	Secrets  SecretsConfig      `koanf:"secrets"`
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		return Profile{}, fmt.Errorf("profile name is required")
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found in configuration\nHint: define it under profiles.%s in connkit.yaml", name, name)
	}
	return p, nil
}
