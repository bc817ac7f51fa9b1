package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/meta"
	"github.com/connkit/connkit/internal/transfer"
)

// NewCopyCommand creates the copy command group.
func NewCopyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy tables from a database into a portable file",
	}
	cmd.AddCommand(newCopySQLiteCommand())
	cmd.AddCommand(newCopyDuckDBCommand())
	return cmd
}

type copyFlags struct {
	profile string
	top     int
	tag     string
	metas   []string
	views   []string
	yes     bool
}

func (f *copyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Source connection profile (required)")
	cmd.Flags().IntVar(&f.top, "top", 0, "Copy only the first N rows per table")
	cmd.Flags().StringVar(&f.tag, "tag", "", "Delivery tag written to the _meta table")
	cmd.Flags().StringArrayVar(&f.metas, "meta", nil, "Extra _meta entry (key=value, repeatable)")
	cmd.Flags().StringArrayVar(&f.views, "view", nil, "View to create in the target (name=SELECT ..., repeatable)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Replace the target file without asking")
	_ = cmd.MarkFlagRequired("profile")
}

// options builds the transfer options, stamping provenance into _meta.
func (f *copyFlags) options(cmd *cobra.Command) (transfer.CopyOptions, error) {
	rt := runtime(cmd)

	metas, err := parsePairs(f.metas, "meta")
	if err != nil {
		return transfer.CopyOptions{}, err
	}
	if metas == nil {
		metas = make(map[string]string)
	}
	if f.tag != "" {
		metas[meta.KeyTag] = f.tag
	}
	if _, ok := metas[meta.KeyCreatedAt]; !ok {
		metas[meta.KeyCreatedAt] = time.Now().Format("2006-01-02 15:04:05")
	}

	views, err := parsePairs(f.views, "view")
	if err != nil {
		return transfer.CopyOptions{}, err
	}

	profile, err := rt.Config.Profile(f.profile)
	if err != nil {
		return transfer.CopyOptions{}, err
	}

	return transfer.CopyOptions{
		Meta:       metas,
		Views:      views,
		TopN:       f.top,
		SourceKind: profile.Kind,
		Logger:     rt.Logger,
	}, nil
}

// clearTarget removes an existing target file, prompting unless --yes.
func clearTarget(cmd *cobra.Command, path string, yes bool) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if !yes && !confirm(cmd, fmt.Sprintf("Target %s exists. Replace it?", path)) {
		return fmt.Errorf("%w: %s", transfer.ErrTargetExists, path)
	}
	return os.Remove(path)
}

func newCopySQLiteCommand() *cobra.Command {
	flags := &copyFlags{}
	cmd := &cobra.Command{
		Use:   "sqlite <file> <table[:target]>...",
		Short: "Copy tables into a new SQLite file",
		Example: `  # Copy two tables into a delivery file
  connkit copy sqlite delivery.db dbo.Orders dbo.Customers -p warehouse --tag 2026-08

  # Sample run with renamed target table
  connkit copy sqlite sample.db "dbo.Orders:orders" -p warehouse --top 100`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, flags, args[0], args[1:], transfer.CopyToSQLite)
		},
	}
	flags.register(cmd)
	return cmd
}

func newCopyDuckDBCommand() *cobra.Command {
	flags := &copyFlags{}
	var retypes []string
	cmd := &cobra.Command{
		Use:   "duckdb <file> <table[:target]>...",
		Short: "Copy tables into a new DuckDB file",
		Long: `Copy tables into a new DuckDB file. Column types are read from the
source schema and mapped to DuckDB types; --retype forces individual columns
afterwards using a lossy TRY_CAST.`,
		Example: `  # Copy a table and force a column type
  connkit copy duckdb delivery.duckdb dbo.Orders -p warehouse --retype orders.amount=DECIMAL(18,2)`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runCopy(cmd, flags, args[0], args[1:], transfer.CopyToDuckDB); err != nil {
				return err
			}
			return applyRetypes(cmd, args[0], retypes)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVar(&retypes, "retype", nil, "Force a column type (table.column=TYPE, repeatable)")
	return cmd
}

type copyFunc func(context.Context, *sql.DB, string, []transfer.TableMapping, transfer.CopyOptions) error

func runCopy(cmd *cobra.Command, flags *copyFlags, path string, tables []string, fn copyFunc) error {
	ctx := cmd.Context()

	opts, err := flags.options(cmd)
	if err != nil {
		return err
	}
	if err := clearTarget(cmd, path, flags.yes); err != nil {
		return err
	}

	src, err := openSource(ctx, cmd, flags.profile)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	return fn(ctx, src.DB(), path, transfer.ParseMappings(tables), opts)
}

func applyRetypes(cmd *cobra.Command, path string, retypes []string) error {
	if len(retypes) == 0 {
		return nil
	}
	pairs, err := parsePairs(retypes, "retype")
	if err != nil {
		return err
	}

	overrides := make(transfer.TypeOverrides)
	for spec, typ := range pairs {
		table, column, ok := cutLast(spec, ".")
		if !ok {
			return fmt.Errorf("invalid --retype value %q (want table.column=TYPE)", spec)
		}
		if overrides[table] == nil {
			overrides[table] = make(map[string]string)
		}
		overrides[table][column] = typ
	}

	return transfer.ApplyTypeOverrides(cmd.Context(), path, overrides, runtime(cmd).Logger)
}
