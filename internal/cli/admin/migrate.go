package admin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EnricoHuber/home-chatbot/internal/config"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Apply pending migrations to the remote Postgres store",
		RunE:  runMigrate,
	}

	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.StorageBackend != config.BackendRemote {
		return fmt.Errorf("migrations only apply to the remote backend (STORAGE_BACKEND=%s)", cfg.StorageBackend)
	}

	return runMigrations(cfg.DatabaseURL)
}
