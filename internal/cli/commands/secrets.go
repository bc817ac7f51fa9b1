package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/secrets"
)

// NewSecretsCommand creates the secrets command group.
func NewSecretsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Retrieve secrets from Infisical",
	}
	cmd.AddCommand(newSecretsGetCommand())
	return cmd
}

func newSecretsGetCommand() *cobra.Command {
	var (
		environment string
		valuesOnly  bool
	)
	cmd := &cobra.Command{
		Use:   "get <name>...",
		Short: "Retrieve named secrets",
		Long: `Retrieve named secrets using the machine identity from INF_CLIENT,
INF_SECRET and INF_PROJECT. The environment slug defaults to the configured
secrets.environment (dev when unset).`,
		Example: `  connkit secrets get DB_PASSWORD API_TOKEN --environment prod

  # Value only, for shell substitution
  DB_PASSWORD=$(connkit secrets get DB_PASSWORD --value)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtime(cmd)

			env := environment
			if env == "" {
				env = rt.Config.Secrets.Environment
			}

			client, err := secrets.NewFromEnv(cmd.Context(), rt.Config.Secrets.SiteURL)
			if err != nil {
				return err
			}

			found, err := client.Get(cmd.Context(), args, env)
			if err != nil {
				return err
			}
			for _, s := range found {
				if valuesOnly {
					fmt.Fprintln(cmd.OutOrStdout(), s.Value)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", s.Name, s.Value)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&environment, "environment", "", "Infisical environment slug")
	cmd.Flags().BoolVar(&valuesOnly, "value", false, "Print only the secret values")
	return cmd
}
