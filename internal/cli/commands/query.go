package commands

import (
	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/transfer"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <profile|file> <sql>",
		Short: "Run a SQL query and render the result",
		Long: `Run a SQL query against a named connection profile or a local database
file (.db, .sqlite, .duckdb) and render the result as a table.`,
		Example: `  # Query a configured profile
  connkit query warehouse "SELECT TOP 10 * FROM dbo.Orders"

  # Query a local delivery file
  connkit query delivery.duckdb "SELECT COUNT(*) FROM orders"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], args[1])
		},
	}
	return cmd
}

func runQuery(cmd *cobra.Command, target, query string) error {
	ctx := cmd.Context()

	adapter, err := openSource(ctx, cmd, target)
	if err != nil {
		return err
	}
	defer func() { _ = adapter.Close() }()

	rs, err := transfer.QueryRecordset(ctx, adapter.DB(), query)
	if err != nil {
		return err
	}

	rs.Render(cmd.OutOrStdout())
	return nil
}
