package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/service-core/internal/api/http"
	"github.com/spec-kit/service-core/internal/api/http/handlers"
	"github.com/spec-kit/service-core/internal/auth"
	"github.com/spec-kit/service-core/internal/config"
	"github.com/spec-kit/service-core/internal/jobs"
	"github.com/spec-kit/service-core/internal/observability"
	"github.com/spec-kit/service-core/internal/persistence"
	"github.com/spec-kit/service-core/internal/pipeline"
	"github.com/spec-kit/service-core/internal/repository"
	"github.com/spec-kit/service-core/internal/service"
)

const (
	demoIODelay    = 2 * time.Second
	demoIterations = 10_000_000
)

// Container holds the long-lived services of the process. It is built once
// at startup and read-only afterwards; handlers receive only the services
// they use.
type Container struct {
	cfg         *config.Config
	logger      *zap.Logger
	metrics     *observability.Metrics
	postgres    *persistence.Postgres
	redis       *persistence.Redis
	tokens      *auth.TokenService
	revocations auth.RevocationStore
	users       repository.UserRepository
	authService *service.AuthService
	userService *service.UserService
	dispatcher  *jobs.Dispatcher
	executor    *pipeline.Executor
}

// NewContainer connects the backing stores and builds every service. An
// empty POSTGRES_DSN or REDIS_ADDR leaves the matching features disabled.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{cfg: cfg, logger: logger, metrics: observability.NewMetrics()}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	c.tokens = tokens

	c.postgres, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pool := c.postgres.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				c.postgres.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		c.users = repository.NewUserRepository(pool)
	}

	c.redis = persistence.NewRedis(ctx, cfg.Redis, logger)
	if c.redis.Enabled() {
		c.revocations = auth.NewRedisRevocationStore(c.redis.Client)
	}

	c.authService = service.NewAuthService(service.AuthDependencies{
		Users:       c.users,
		Tokens:      tokens,
		Revocations: c.revocations,
		TokenTTL:    cfg.Auth.AccessTokenTTL(),
	})
	c.userService = service.NewUserService(c.users, cfg.Auth.BcryptCost)

	c.dispatcher = jobs.NewDispatcher(cfg.Jobs, logger, c.metrics)
	c.executor = pipeline.NewExecutor(auth.NewBearerExtractor(tokens, c.revocations), c.dispatcher, logger)

	logger.Info("container ready",
		zap.String("jwt_algorithm", tokens.Algorithm()),
		zap.Bool("postgres", c.users != nil),
		zap.Bool("redis", c.revocations != nil),
	)
	return c, nil
}

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config { return c.cfg }

// Metrics returns the process counters.
func (c *Container) Metrics() *observability.Metrics { return c.metrics }

// RouteConfig builds the handlers for every route.
func (c *Container) RouteConfig() httptransport.RouteConfig {
	var pg, rd handlers.Pinger
	if c.postgres.PoolHandle() != nil {
		pg = c.postgres
	}
	if c.redis.Enabled() {
		rd = c.redis
	}

	return httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(c.cfg.App.Name, c.cfg.App.Version, pg, rd),
		Home:   handlers.NewHomeHandler(),
		Auth:   handlers.NewAuthHandler(c.authService, c.logger),
		Users:  handlers.NewUsersHandler(c.userService, c.logger),
		Jobs:   handlers.NewDemoJobs(c.logger, demoIODelay, demoIterations),
		Response: []pipeline.ResponseMiddleware{
			observability.ResponseLogger(c.logger, c.metrics),
		},
	}
}

// NewServer builds the fiber application with global middleware and the
// route table mounted.
func (c *Container) NewServer() (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               c.cfg.App.Name,
		BodyLimit:             c.cfg.App.BodyLimitBytes,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, c.logger, c.metrics, c.cfg.App.RequestTimeout())

	table, err := httptransport.RegisterRoutes(app, c.executor, c.RouteConfig())
	if err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}
	c.logger.Info("routes registered", zap.Int("count", table.Len()))
	return app, nil
}

// Shutdown drains background jobs and releases the backing stores.
func (c *Container) Shutdown(ctx context.Context) error {
	err := c.dispatcher.Shutdown(ctx)
	c.redis.Close()
	c.postgres.Close()
	return err
}
