package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/roots-api/internal/config"
	"github.com/noah-isme/roots-api/internal/database"
	"github.com/noah-isme/roots-api/internal/repository"
	"github.com/noah-isme/roots-api/internal/service"
)

// NewBootstrapCmd seeds the admin account, the competition and its first season.
func NewBootstrapCmd() *cobra.Command {
	var competitionName string

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed an admin user, the competition, a first season, problem set and series",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("database url must be provided")
			}
			if competitionName == "" {
				competitionName = cfg.CompetitionName
			}

			logger := newLogger(cfg.LogLevel)
			db, err := database.ConnectPostgres(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}

			bootstrap := service.NewBootstrapService(
				repository.NewUserRepository(db),
				repository.NewCompetitionRepository(db),
				repository.NewProblemSetRepository(db),
				logger,
			)
			result, err := bootstrap.Run(cmd.Context(), competitionName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.AdminCreated {
				fmt.Fprintf(out, "created admin user #%d\n", result.AdminID)
			}
			fmt.Fprintf(out, "competition #%d, season #%d, problem set #%d, series #%d\n",
				result.CompetitionID, result.SeasonID, result.ProblemSetID, result.SeriesID)
			return nil
		},
	}

	cmd.Flags().StringVar(&competitionName, "competition", "", "competition name (defaults to ROOTS_COMPETITION_NAME)")
	return cmd
}
