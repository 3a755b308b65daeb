// Package cli implements the thrivectl operator commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"thrivepath/internal/config"
	"thrivepath/internal/database"
	"thrivepath/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Quiet      bool
}

// NewRootCommand creates the root command for thrivectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "thrivectl",
		Short: "ThrivePath operator tool",
		Long:  "Maintenance commands for a ThrivePath deployment: migrations, secrets, backups and account status.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigFile != "" {
				return os.Setenv("CONFIG_FILE", opts.ConfigFile)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	cmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress log output")

	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewGenSecretCommand())
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewAccountStatusCommand(opts, "activate", true))
	cmd.AddCommand(NewAccountStatusCommand(opts, "deactivate", false))

	return cmd
}

// environment is what every database-backed command needs.
type environment struct {
	cfg *config.Config
	db  *database.DB
	log *logger.Logger
}

func (e *environment) Close() {
	_ = e.db.Close()
	e.log.Sync()
}

// openEnvironment loads configuration, connects and brings the schema up to date.
func openEnvironment(ctx context.Context, opts *RootOptions) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.NewNop()
	if !opts.Quiet {
		if log, err = logger.New(cfg.LogMode); err != nil {
			return nil, err
		}
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if _, err := db.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &environment{cfg: cfg, db: db, log: log}, nil
}
