package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"thrivepath/internal/security"
)

// NewGenSecretCommand creates the gen-secret command.
func NewGenSecretCommand() *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random value suitable for JWT_SECRET_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := security.GenerateSecret(length)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "length", 64, "secret length in characters")
	return cmd
}
