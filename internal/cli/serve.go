package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/noah-isme/roots-api/internal/config"
	"github.com/noah-isme/roots-api/internal/database"
	"github.com/noah-isme/roots-api/internal/document"
	"github.com/noah-isme/roots-api/internal/handler"
	"github.com/noah-isme/roots-api/internal/middleware"
	"github.com/noah-isme/roots-api/internal/repository"
	"github.com/noah-isme/roots-api/internal/router"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/pkg/office"
)

// NewServeCmd starts the HTTP API.
func NewServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not migrate the schema on start")
	return cmd
}

func runServer(parent context.Context, cfg config.Config, skipMigrations bool) error {
	logger := newLogger(cfg.LogLevel)

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if !skipMigrations {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	redisClient, err := database.ConnectRedis(parent, cfg.RedisURL)
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

	validate := validator.New(validator.WithRequiredStructEnabled())

	converter := office.NewLibreOffice(office.Config{
		Binary:  cfg.OfficeBinary,
		Timeout: cfg.OfficeTimeout,
		TempDir: cfg.DocumentTmpDir,
		Logger:  logger,
	})
	normalizer := document.NewNormalizer(converter, cfg.RiskyExtensions, logger)
	store := document.NewStore(cfg.DocumentRoot, cfg.DocumentTmpDir)

	userRepo := repository.NewUserRepository(db)
	problemRepo := repository.NewProblemRepository(db)
	problemSetRepo := repository.NewProblemSetRepository(db)
	solutionRepo := repository.NewSolutionRepository(db)
	competitionRepo := repository.NewCompetitionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	postRepo := repository.NewPostRepository(db)
	galleryRepo := repository.NewGalleryRepository(db)

	locker := service.NewSolutionLocker(redisClient, cfg.LockTTL)
	events := service.NewEventPublisher(redisClient, natsConn, cfg.EventsSubjectPrefix, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	userService := service.NewUserService(userRepo)
	seasonService := service.NewSeasonService(competitionRepo, solutionRepo, userRepo, cfg.CompetitionSlug)

	solutionService := service.NewSolutionService(service.SolutionServiceConfig{
		Problems:       problemRepo,
		Solutions:      solutionRepo,
		Gate:           service.NewProfileGate(userRepo, cfg.RequiredProfileFields),
		Normalizer:     normalizer,
		Store:          store,
		Locker:         locker,
		Events:         events,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         logger,
	})
	problemService := service.NewProblemService(problemRepo, competitionRepo, validate, activityService, logger)
	problemSetService := service.NewProblemSetService(problemSetRepo, problemRepo, competitionRepo, validate, activityService, logger)
	orgSolutionService := service.NewOrgSolutionService(problemRepo, store, activityService, cfg.MaxUploadBytes(), logger)
	adminSolutionService := service.NewAdminSolutionService(solutionRepo, seasonService, locker, events, validate, activityService, logger)
	classificationService := service.NewClassificationService(problemRepo, competitionRepo, validate, activityService, logger)
	postService := service.NewPostService(postRepo, competitionRepo, validate, activityService, logger)
	galleryService := service.NewGalleryService(galleryRepo, competitionRepo, validate, activityService, logger)
	importService := service.NewCorrectionImportService(userRepo, solutionRepo, store, locker, events, activityService, cfg.MaxArchiveExpandedBytes(), logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxUploadBytes()) + 1<<20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ProblemHandler:         handler.NewProblemHandler(problemService, logger),
		SolutionHandler:        handler.NewSolutionHandler(solutionService, userService, logger),
		AdminProblemHandler:    handler.NewAdminProblemHandler(problemService, orgSolutionService, logger),
		AdminProblemSetHandler: handler.NewAdminProblemSetHandler(problemSetService, logger),
		AdminSolutionHandler:   handler.NewAdminSolutionHandler(adminSolutionService, importService, cfg.MaxUploadBytes(), logger),
		AdminActivityHandler:   handler.NewAdminActivityHandler(activityService, logger),
		AdminClassification:    handler.NewAdminClassificationHandler(classificationService, logger),
		ContentHandler:         handler.NewContentHandler(postService, galleryService, logger),
		AdminContentHandler:    handler.NewAdminContentHandler(postService, galleryService, logger),
		JWTMiddleware:          middleware.JWTProtected(cfg.JWTSecret),
		SubmissionsPerMinute:   cfg.SubmissionsPerMinute,
	})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.HTTPAddress())
	}()
	logger.Info().Str("address", cfg.HTTPAddress()).Str("competition", cfg.CompetitionSlug).Msg("api listening")

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
