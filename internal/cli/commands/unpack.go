package commands

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/transfer"
)

// isDataFile reports whether the argument names a single data file (local
// path or URL) rather than a directory.
func isDataFile(path string) bool {
	for _, suffix := range []string{".csv", ".txt", ".parquet"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// NewUnpackCommand creates the unpack command.
func NewUnpackCommand() *cobra.Command {
	var (
		database  string
		ext       string
		files     []string
		prefix    string
		delimiter string
		yes       bool
	)
	cmd := &cobra.Command{
		Use:   "unpack <directory|file>",
		Short: "Expose CSV or Parquet files as DuckDB views",
		Long: `Create one view per data file in a DuckDB database file, so a whole
delivery directory (or a single file) becomes queryable without importing
anything. The views read the files in place.`,
		Example: `  # All CSV files in the directory
  connkit unpack ./delivery --database delivery.duckdb

  # Only two parquet files, with a view name prefix
  connkit unpack ./delivery --ext parquet --file orders --file customers --prefix raw_

  # One semicolon-separated file
  connkit unpack ./delivery/orders.csv --database delivery.duckdb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtime(cmd)

			if err := clearTarget(cmd, database, yes); err != nil {
				return err
			}

			db, err := sql.Open("duckdb", database)
			if err != nil {
				return fmt.Errorf("failed to create duckdb file %s: %w", database, err)
			}
			defer func() { _ = db.Close() }()

			if isDataFile(args[0]) {
				view, err := transfer.LoadFile(cmd.Context(), db, args[0], transfer.LoadFileOptions{
					Delimiter: delimiter,
					Logger:    rt.Logger,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), view)
				return nil
			}

			var filter []string
			if cmd.Flags().Changed("file") {
				filter = files
			}
			views, err := transfer.UnpackDir(cmd.Context(), db, args[0], ext, transfer.UnpackOptions{
				Files:  filter,
				Prefix: prefix,
				Logger: rt.Logger,
			})
			if err != nil {
				return err
			}
			for _, view := range views {
				fmt.Fprintln(cmd.OutOrStdout(), view)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&database, "database", "unpacked.duckdb", "DuckDB file holding the views")
	cmd.Flags().StringVar(&ext, "ext", "csv", "File extension to unpack (csv|parquet)")
	cmd.Flags().StringArrayVar(&files, "file", nil, "Unpack only this file basename (repeatable)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix for the created view names")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "CSV delimiter for single-file unpack (default ;)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Replace the database file without asking")
	return cmd
}
