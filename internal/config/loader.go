package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names searched in the working directory.
const (
	ConfigFileName    = "connkit.yaml"
	ConfigFileNameAlt = "connkit.yml"
)

var (
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > connkit.yaml > connkit.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// Load loads configuration from file, .env file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config file >
// defaults. The .env file is applied to the process environment so that
// profile use_env indirection and the secrets/pgp env credentials resolve.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"env_file":            DefaultEnvFile,
		"verbose":             false,
		"secrets.environment": DefaultEnvironment,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (CONNKIT_ prefix)
	// Transform: CONNKIT_ENV_FILE -> env_file
	if err := k.Load(env.Provider("CONNKIT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CONNKIT_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Apply the .env file to the process environment. Missing default .env
	// is fine; an explicitly configured one must exist.
	if cfg.EnvFile != "" {
		if err := ApplyEnvFile(cfg.EnvFile); err != nil {
			if !os.IsNotExist(err) || cfg.EnvFile != DefaultEnvFile {
				return nil, err
			}
		}
	}

	currentConfig = &cfg
	return &cfg, nil
}

// ApplyEnvFile parses a dotenv file and sets each item in the process
// environment. Variables already present in the environment win.
func ApplyEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), dotenv.Parser()); err != nil {
		return fmt.Errorf("error reading env file %s: %w", path, err)
	}

	for _, key := range k.Keys() {
		if _, present := os.LookupEnv(key); present {
			continue
		}
		if err := os.Setenv(key, k.String(key)); err != nil {
			return fmt.Errorf("failed to set %s from %s: %w", key, path, err)
		}
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration loaded by the last Load call.
func GetCurrentConfig() *Config {
	return currentConfig
}

// ResetConfig clears the loaded configuration. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}
