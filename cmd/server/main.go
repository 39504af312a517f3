package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/social-blog-api/internal/config"
	"github.com/social-blog-api/internal/database"
	"github.com/social-blog-api/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree; with no subcommand the server runs
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "social-blog-api",
		Short:         "Blog and social feed API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newGroupsCmd())
	root.AddCommand(newUsersCmd())

	return root
}

// bootstrap loads configuration and builds the logger it describes
func bootstrap() (*config.Config, zerolog.Logger, error) {
	log := logger.Bootstrap()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, log, err
	}

	log = logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	return cfg, log, nil
}

// openDatabase connects using cfg; callers close the returned handle
func openDatabase(cfg *config.Config, log zerolog.Logger) (*database.DB, error) {
	return database.New(&cfg.Database, log)
}
