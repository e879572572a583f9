package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/roots-api/internal/config"
	"github.com/noah-isme/roots-api/internal/handler"
	"github.com/noah-isme/roots-api/internal/middleware"
	"github.com/noah-isme/roots-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProblemHandler         *handler.ProblemHandler
	SolutionHandler        *handler.SolutionHandler
	AdminProblemHandler    *handler.AdminProblemHandler
	AdminProblemSetHandler *handler.AdminProblemSetHandler
	AdminSolutionHandler   *handler.AdminSolutionHandler
	AdminActivityHandler   *handler.AdminActivityHandler
	AdminClassification    *handler.AdminClassificationHandler
	ContentHandler         *handler.ContentHandler
	AdminContentHandler    *handler.AdminContentHandler
	JWTMiddleware          fiber.Handler
	// SubmissionsPerMinute throttles POST /api/v1/solutions per user; zero disables it.
	SubmissionsPerMinute int
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ProblemHandler != nil {
		deps.ProblemHandler.Register(api.Group("/problems", jwtMiddleware))
	}

	if deps.ContentHandler != nil {
		deps.ContentHandler.RegisterPosts(api.Group("/posts", jwtMiddleware))
		deps.ContentHandler.RegisterGalleries(api.Group("/galleries", jwtMiddleware))
	}

	if deps.SolutionHandler != nil {
		var guards []fiber.Handler
		if deps.SubmissionsPerMinute > 0 {
			guards = append(guards, middleware.RateLimit("solutions", deps.SubmissionsPerMinute, time.Minute))
		}
		deps.SolutionHandler.Register(api.Group("/solutions", jwtMiddleware), guards...)
	}

	admin := app.Group(middleware.AdminPrefix, jwtMiddleware, middleware.RequireStaff())
	if deps.AdminProblemHandler != nil {
		deps.AdminProblemHandler.Register(admin.Group("/problems"))
	}
	if deps.AdminProblemSetHandler != nil {
		deps.AdminProblemSetHandler.Register(admin.Group("/problemsets"))
	}
	if deps.AdminSolutionHandler != nil {
		deps.AdminSolutionHandler.Register(admin.Group("/solutions"))
	}
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activity"))
	}
	if deps.AdminClassification != nil {
		deps.AdminClassification.Register(admin)
	}
	if deps.AdminContentHandler != nil {
		deps.AdminContentHandler.Register(admin)
	}
}
