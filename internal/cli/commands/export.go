package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/transfer"
)

// NewExportCommand creates the export command group.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export database files to other formats",
	}
	cmd.AddCommand(newExportParquetCommand())
	return cmd
}

func newExportParquetCommand() *cobra.Command {
	var (
		overwrite bool
		prefix    string
	)
	cmd := &cobra.Command{
		Use:   "parquet <sqlite-file> <directory>",
		Short: "Export every table of a SQLite file to Parquet",
		Example: `  # One parquet file per table
  connkit export parquet delivery.db ./out

  # Re-export only staging tables
  connkit export parquet delivery.db ./out --prefix stg_ --overwrite`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtime(cmd)
			written, err := transfer.ExportParquet(cmd.Context(), args[0], args[1], transfer.ExportOptions{
				Overwrite: overwrite,
				Prefix:    prefix,
				Logger:    rt.Logger,
			})
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing parquet files")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Export only tables with this name prefix")
	return cmd
}
