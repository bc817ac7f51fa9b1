// Package commands implements the connkit subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/config"
)

type runtimeKey struct{}

// Runtime carries the loaded configuration and logger through the command
// context.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger
}

// WithRuntime stores the runtime in ctx.
func WithRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, runtimeKey{}, &Runtime{Config: cfg, Logger: logger})
}

// runtime retrieves the runtime from the command context, falling back to
// defaults so commands stay usable in tests.
func runtime(cmd *cobra.Command) *Runtime {
	if rt, ok := cmd.Context().Value(runtimeKey{}).(*Runtime); ok {
		return rt
	}
	return &Runtime{
		Config: &config.Config{},
		Logger: slog.New(slog.DiscardHandler),
	}
}

// NewLogger builds the CLI logger: text handler on w, debug level when
// verbose.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
