package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/meta"
)

// NewMetaCommand creates the meta command.
func NewMetaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "meta <file>",
		Short: "Show the provenance (_meta) of a database file",
		Example: `  connkit meta delivery.db
  connkit meta ~/data/delivery.duckdb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := meta.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, key := range m.Keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, m.Values[key])
			}
			return nil
		},
	}
}
