package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/roots-api/internal/config"
	"github.com/noah-isme/roots-api/internal/database"
	"github.com/noah-isme/roots-api/internal/document"
	"github.com/noah-isme/roots-api/internal/repository"
	"github.com/noah-isme/roots-api/internal/service"
)

// NewImportCorrectionsCmd applies a correction archive from the local disk.
func NewImportCorrectionsCmd() *cobra.Command {
	var staffUsername string

	cmd := &cobra.Command{
		Use:   "import-corrections <archive.zip>",
		Short: "Import corrected solutions named <score>-<username>-<problem_id>.pdf from a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("database url must be provided")
			}

			archive, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}

			logger := newLogger(cfg.LogLevel)
			db, err := database.ConnectPostgres(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			redisClient, err := database.ConnectRedis(cmd.Context(), cfg.RedisURL)
			if err != nil {
				return err
			}
			if redisClient != nil {
				defer redisClient.Close()
			}
			natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
			if err != nil {
				return err
			}
			if natsConn != nil {
				defer natsConn.Close()
			}

			users := repository.NewUserRepository(db)
			actor := service.ActivityActor{Role: "system"}
			if staffUsername != "" {
				staff, err := users.GetByUsername(cmd.Context(), staffUsername)
				if err != nil {
					return fmt.Errorf("resolve staff user %q: %w", staffUsername, err)
				}
				actor = service.ActivityActor{ID: staff.ID, Role: "staff"}
			}

			importer := service.NewCorrectionImportService(
				users,
				repository.NewSolutionRepository(db),
				document.NewStore(cfg.DocumentRoot, cfg.DocumentTmpDir),
				service.NewSolutionLocker(redisClient, cfg.LockTTL),
				service.NewEventPublisher(redisClient, natsConn, cfg.EventsSubjectPrefix, logger),
				service.NewActivityService(repository.NewActivityLogRepository(db), logger),
				cfg.MaxArchiveExpandedBytes(),
				logger,
			)

			report, err := importer.Import(cmd.Context(), actor, archive)
			if err != nil {
				return err
			}
			return printImportReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&staffUsername, "as", "", "username recorded as the corrector")
	return cmd
}

var errImportAborted = errors.New("import aborted")

func printImportReport(out io.Writer, report service.ImportReport) error {
	for _, success := range report.Successes {
		fmt.Fprintf(out, "ok     %s\n", success)
	}
	for _, entryErr := range report.Errors {
		fmt.Fprintf(out, "error  %s: %s\n", entryErr.Entry, entryErr.Reason)
	}
	if report.Aborted != nil {
		fmt.Fprintf(out, "abort  %s\n", report.Aborted)
		return errImportAborted
	}
	return nil
}
