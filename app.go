package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"blog/internal/cache"
	"blog/internal/config"
	"blog/internal/handlers"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/repositories"
	"blog/internal/services"
	"blog/pkg/rabbitmq"
	"blog/pkg/textgen"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// collectors register on the default registry, so only once per process
func metrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New("blog")
	})
	return prom
}

// App bundles the Fiber app with the resources it must release on shutdown.
type App struct {
	Fiber *fiber.App

	db     *gorm.DB
	cache  *cache.Store
	broker *rabbitmq.Client
}

// NewApp wires the store, cache, broker, services and routes described by cfg.
func NewApp(cfg *config.Config) (*App, error) {
	a := &App{}

	var (
		userRepo repositories.UserRepository
		postRepo repositories.PostRepository
	)
	if cfg.StoreDriver == repositories.DriverMemory {
		log.Println("Using in-memory store; data is lost on restart")
		users := repositories.NewMemoryUserRepository()
		userRepo = users
		postRepo = repositories.NewMemoryPostRepository(users)
	} else {
		db, err := repositories.Open(cfg.StoreDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := repositories.Migrate(db); err != nil {
			_ = repositories.Close(db)
			return nil, err
		}
		a.db = db
		userRepo = repositories.NewGORMUserRepository(db)
		postRepo = repositories.NewGORMPostRepository(db)
	}

	a.cache = cache.New(cfg.RedisURL)

	var events services.PostEventPublisher
	if cfg.RabbitMQURL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("RabbitMQ connection warning: %v (continuing without post events)", err)
		} else {
			a.broker = client
			events = client
			if err := client.ConsumePostEvents(rabbitmq.HandlePostEvent); err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}
	}

	authService := services.NewAuthService(userRepo, cfg.SessionSecret, cfg.SessionTTL, a.cache)
	postService := services.NewPostService(postRepo, userRepo, a.cache, events)
	generator := textgen.NewClient(textgen.Config{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
		Timeout: cfg.GenerationTimeout,
	})

	if cfg.AdminUsername != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := authService.BootstrapAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		cancel()
		switch {
		case errors.Is(err, models.ErrUsernameTaken):
			log.Printf("Admin user %s already exists", cfg.AdminUsername)
		case err != nil:
			_ = a.Close()
			return nil, fmt.Errorf("failed to bootstrap admin user: %w", err)
		}
	}

	app := fiber.New(fiber.Config{AppName: "blog"})
	app.Use(recover.New())
	app.Use(logger.New())

	p := metrics()
	p.RegisterAt(app, "/metrics")
	app.Use(p.Middleware)

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status, code, store := "healthy", fiber.StatusOK, "ok"
		if err := postService.Ping(ctx); err != nil {
			log.Printf("Health check failed: %v", err)
			status, code, store = "unhealthy", fiber.StatusServiceUnavailable, "unreachable"
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
			"store":  store,
			"cache":  a.cache.Enabled(),
			"events": a.broker != nil,
		})
	})

	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(authService, cfg.CookieSecure).RegisterRoutes(apiV1)
	postHandler := handlers.NewPostHandler(postService)
	postHandler.RegisterRoutes(apiV1)

	admin := apiV1.Group("/admin", middleware.AuthRequired(authService))
	postHandler.RegisterAdminRoutes(admin)
	handlers.NewGenerateHandler(generator).RegisterRoutes(admin)

	a.Fiber = app
	return a, nil
}

// Close releases the broker, cache and database connections.
func (a *App) Close() error {
	var errs []error
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
	}
	if a.db != nil {
		if err := repositories.Close(a.db); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
