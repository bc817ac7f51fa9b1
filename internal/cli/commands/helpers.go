package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/driver"
)

// openSource opens a database from either a named profile or a local
// database file. Names ending in .db/.sqlite open SQLite files directly,
// .duckdb opens DuckDB files; anything else is looked up in the profiles.
func openSource(ctx context.Context, cmd *cobra.Command, name string) (driver.Adapter, error) {
	rt := runtime(cmd)

	var cfg driver.Config
	switch {
	case strings.HasSuffix(name, ".db"), strings.HasSuffix(name, ".sqlite"):
		cfg = driver.Config{Kind: "sqlite", Database: name}
	case strings.HasSuffix(name, ".duckdb"):
		cfg = driver.Config{Kind: "duckdb", Database: name}
	default:
		profile, err := rt.Config.Profile(name)
		if err != nil {
			return nil, err
		}
		cfg = profile.DriverConfig()
	}

	return driver.Open(ctx, cfg, rt.Logger)
}

// confirm asks the user for a yes/no answer on the command's input stream.
// Anything but y/yes declines.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// cutLast splits s around the last occurrence of sep.
func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// parsePairs parses repeated "key=value" flag values.
func parsePairs(items []string, flag string) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --%s value %q (want key=value)", flag, item)
		}
		out[key] = value
	}
	return out, nil
}
