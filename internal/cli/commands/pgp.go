package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/connkit/connkit/internal/pgp"
)

// NewPGPCommand creates the pgp command group.
func NewPGPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pgp",
		Short: "Encrypt, decrypt and manage OpenPGP keys",
	}
	cmd.AddCommand(newPGPKeygenCommand())
	cmd.AddCommand(newPGPExportCommand())
	cmd.AddCommand(newPGPEncryptCommand())
	cmd.AddCommand(newPGPDecryptCommand())
	cmd.AddCommand(newPGPFindCommand())
	return cmd
}

// writeOutput writes data to a file, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func newPGPKeygenCommand() *cobra.Command {
	var (
		name  string
		email string
		out   string
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new key pair",
		Long: `Generate a new key pair and print (or write) the armored private key.
The key is locked with the passphrase from PGP_PASSPHRASE when set.`,
		Example: `  PGP_PASSPHRASE=secret connkit pgp keygen --name "Data Team" --email data@example.com --out team.asc`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			armored, err := pgp.GenerateKey(name, email, []byte(os.Getenv(pgp.EnvPassphrase)))
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, []byte(armored))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Key holder name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Key holder email (required)")
	cmd.Flags().StringVar(&out, "out", "", "Write the private key to this file instead of stdout")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newPGPExportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <key-file>",
		Short: "Export the public key of a key file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read key file: %w", err)
			}
			pub, err := pgp.PublicKey(string(data))
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, []byte(pub))
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write the public key to this file instead of stdout")
	return cmd
}

func newPGPEncryptCommand() *cobra.Command {
	var (
		recipients []string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt a file for one or more recipients",
		Example: `  connkit pgp encrypt delivery.db --recipient partner.asc --out delivery.db.asc`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			keys := make([]string, 0, len(recipients))
			for _, path := range recipients {
				key, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read recipient key %s: %w", path, err)
				}
				keys = append(keys, string(key))
			}

			ciphertext, err := pgp.Encrypt(data, keys...)
			if err != nil {
				return err
			}

			if out == "" {
				out = args[0] + ".asc"
			}
			if err := writeOutput(cmd, out, ciphertext); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&recipients, "recipient", nil, "Recipient public key file (repeatable, required)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default <file>.asc)")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}

func newPGPDecryptCommand() *cobra.Command {
	var (
		keyFile string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "decrypt <file>",
		Short: "Decrypt an armored file",
		Long: `Decrypt an armored file with a private key. The key comes from --key,
or from the PGP_PRIVATE_KEY environment variable; the passphrase from
PGP_PASSPHRASE.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var plaintext []byte
			if keyFile != "" {
				key, err := os.ReadFile(keyFile)
				if err != nil {
					return fmt.Errorf("failed to read key file: %w", err)
				}
				plaintext, err = pgp.Decrypt(data, string(key), []byte(os.Getenv(pgp.EnvPassphrase)))
				if err != nil {
					return err
				}
			} else {
				plaintext, err = pgp.DecryptFromEnv(data)
				if err != nil {
					return err
				}
			}

			if out == "" && strings.HasSuffix(args[0], ".asc") {
				out = strings.TrimSuffix(args[0], ".asc")
			}
			return writeOutput(cmd, out, plaintext)
		},
	}
	cmd.Flags().StringVar(&keyFile, "key", "", "Private key file (default: PGP_PRIVATE_KEY)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: input without .asc, else stdout)")
	return cmd
}

func newPGPFindCommand() *cobra.Command {
	var keyFiles []string
	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Find keys by fingerprint, key ID or identity",
		Example: `  connkit pgp find partner@example.com --keyring partner.asc --keyring team.asc`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ring := pgp.NewKeyring()
			for _, path := range keyFiles {
				if _, err := ring.ImportFile(path); err != nil {
					return err
				}
			}

			matches := ring.Find(args[0])
			if len(matches) == 0 {
				return fmt.Errorf("no key matches %q", args[0])
			}
			for _, entry := range matches {
				kind := "public"
				if entry.Private {
					kind = "private"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
					entry.Fingerprint, kind, strings.Join(entry.Identities, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&keyFiles, "keyring", nil, "Key file to search (repeatable, required)")
	_ = cmd.MarkFlagRequired("keyring")
	return cmd
}
