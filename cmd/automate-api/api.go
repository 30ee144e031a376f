// Package main provides the Automate API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gestia/automate/pkg/engine"
	"github.com/gestia/automate/pkg/eventbus"
	"github.com/gestia/automate/pkg/persistence"
	"github.com/gestia/automate/pkg/registry"
	"github.com/gestia/automate/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	engine   *engine.Engine
	registry *registry.Registry
	eventBus eventbus.EventBus
	validate *validator.Validate
}

func NewAPI(
	ctx context.Context,
	logger *slog.Logger,
	store persistence.Store,
	eventBus eventbus.EventBus,
) (*API, error) {
	actionRegistry := registry.NewDefaultRegistry(eventBus, logger)

	ruleEngine, err := engine.New(ctx, store, actionRegistry, logger)
	if err != nil {
		return nil, err
	}

	return &API{
		logger:   logger,
		engine:   ruleEngine,
		registry: actionRegistry,
		eventBus: eventBus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.engine, a.registry, a.validate, a.eventBus)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Automate API")
	})

	r := app.Group("/rules")
	r.Get("/", handlers.GetRules)
	r.Post("/", handlers.CreateRule)
	r.Get("/stats", handlers.GetStats)
	r.Get("/:id", handlers.GetRule)
	r.Patch("/:id", handlers.UpdateRule)
	r.Delete("/:id", handlers.DeleteRule)
	r.Post("/:id/toggle", handlers.ToggleRule)

	app.Get("/executions", handlers.GetExecutions)
	app.Post("/events", handlers.IngestEvent)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
