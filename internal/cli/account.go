package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"thrivepath/internal/repository"
	"thrivepath/internal/service"
)

// NewAccountStatusCommand creates the activate or deactivate command.
// Deactivated accounts can neither log in nor use tokens issued earlier.
func NewAccountStatusCommand(rootOpts *RootOptions, use string, active bool) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Mark an account as %sd", use),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			auth := service.NewAuthService(repository.NewAccountRepository(env.db), nil, env.log)
			if err := auth.SetActive(cmd.Context(), email, active); err != nil {
				return fmt.Errorf("failed to %s %s: %w", use, email, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s %sd\n", email, use)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
