package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/roots-api/internal/config"
	"github.com/noah-isme/roots-api/internal/database"
)

// NewMigrateCmd applies the schema of every persisted entity.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("database url must be provided")
			}

			db, err := database.ConnectPostgres(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}

			logger := newLogger(cfg.LogLevel)
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}
