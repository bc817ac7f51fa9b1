package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/transfer"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	var (
		top    int
		prefix string
	)
	cmd := &cobra.Command{
		Use:   "convert <sqlite-file>",
		Short: "Convert a SQLite file into a DuckDB file",
		Long: `Materialize every table of a SQLite file into a new DuckDB file next
to it (same name, .duckdb extension). The source is read through DuckDB's
sqlite extension so types survive the trip.`,
		Example: `  connkit convert delivery.db

  # Only a 1000-row sample of the staging tables
  connkit convert delivery.db --top 1000 --prefix stg_`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtime(cmd)
			target, err := transfer.ConvertSQLiteToDuckDB(cmd.Context(), args[0], transfer.ConvertOptions{
				TopN:   top,
				Prefix: prefix,
				Logger: rt.Logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "Convert only the first N rows per table")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Convert only tables with this name prefix")
	return cmd
}
