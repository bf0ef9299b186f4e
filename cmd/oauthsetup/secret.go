package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neboloop/oauthsetup/internal/keyring"
)

// SecretCmd manages the client secret kept in the OS keychain.
func SecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage the OAuth client secret in the OS keychain",
		Long: `The stored secret is printed in the credentials block when
GOOGLE_CLIENT_SECRET is not set.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <secret>",
		Short: "Store the client secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keyring.SetClientSecret(args[0]); err != nil {
				return fmt.Errorf("store secret: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Client secret stored.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored client secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := keyring.DeleteClientSecret()
			switch {
			case errors.Is(err, keyring.ErrNotFound):
				fmt.Fprintln(cmd.OutOrStdout(), "No client secret stored.")
				return nil
			case err != nil:
				return fmt.Errorf("delete secret: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Client secret deleted.")
			return nil
		},
	})

	return cmd
}
