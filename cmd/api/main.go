package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/account-service/internal/api/http"
	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/ratelimit"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
	"github.com/spec-kit/account-service/internal/worker"
)

const (
	shutdownTimeout  = 30 * time.Second
	devAdminPassword = "admin"
)

type store struct {
	users       repository.UserRepository
	authorities repository.AuthorityRepository
	pinger      handlers.Pinger
	close       func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, level, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)

	tokens, err := auth.NewTokenProvider(cfg.Auth, auth.WithInvalidTokenHook(func(err error) {
		logger.Debug("invalid jwt token", zap.Error(err))
	}))
	if err != nil {
		logger.Fatal("failed to init token provider", zap.Error(err))
	}

	dispatcher := events.NewAsyncDispatcher(cfg.Async.Workers, cfg.Async.QueueSize, logger)
	mailService := service.NewMailService(dispatcher, logger, cfg.Mail, nil)
	worker.StartMailWorker(mailService)

	deps := service.Dependencies{
		UserRepo:      db.users,
		AuthorityRepo: db.authorities,
		Dispatcher:    dispatcher,
		Logger:        logger,
	}
	accountService := service.NewAccountService(*cfg, deps)
	userService := service.NewUserService(*cfg, deps)

	bootstrapAdmin(ctx, cfg, accountService, logger)

	cleanup, err := worker.NewAccountCleanup(cfg.Cleanup.Schedule, userService, logger)
	if err != nil {
		logger.Fatal("invalid cleanup schedule", zap.String("schedule", cfg.Cleanup.Schedule), zap.Error(err))
	}
	cleanup.Start()

	var loginLimiter fiber.Handler
	if redis.Enabled() {
		limiter, err := ratelimit.NewRedisLimiter(redis.Client, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow(), "ratelimit:login:")
		if err != nil {
			logger.Fatal("failed to init login limiter", zap.Error(err))
		}
		loginLimiter = ratelimit.Middleware(limiter, ratelimit.ByIP, logger)
	}

	healthDeps := map[string]handlers.Pinger{"database": db.pinger}
	if redis.Enabled() {
		healthDeps["redis"] = redis
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSAllowedOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Account:        handlers.NewAccountHandler(accountService),
		UserJWT:        handlers.NewUserJWTHandler(accountService, tokens, logger),
		Users:          handlers.NewUsersHandler(userService),
		Management:     handlers.NewManagementHandler(metrics, level, logger),
		Profile:        handlers.NewProfileHandler(cfg.App.Env),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, logger),
		LoginLimiter:   loginLimiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("account service started",
		zap.String("addr", cfg.App.Addr()),
		zap.String("env", cfg.App.Env),
		zap.String("driver", cfg.Database.Driver),
	)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				logger.Info("shutting down http server")
				return app.ShutdownWithContext(ctx)
			},
			"cleanup": cleanup.Stop,
			"events":  dispatcher.Close,
		},
	)

	exitCode := <-wait
	cancel()
	if err := redis.Close(); err != nil {
		logger.Warn("closing redis", zap.Error(err))
	}
	if err := db.close(); err != nil {
		logger.Warn("closing store", zap.Error(err))
	}
	logger.Info("account service stopped", zap.Int("exit_code", exitCode))
	_ = logger.Sync()
	os.Exit(exitCode)
}

// openStore selects the Postgres repositories in prod-style deployments and
// the gorm/sqlite ones for local development.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	if cfg.Database.Driver == config.DriverSQLite {
		sqlite, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		return &store{
			users:       repository.NewGormUserRepository(sqlite.DB),
			authorities: repository.NewGormAuthorityRepository(sqlite.DB),
			pinger:      sqlite,
			close:       sqlite.Close,
		}, nil
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, err
		}
	}
	return &store{
		users:       repository.NewUserRepository(pg.Pool),
		authorities: repository.NewAuthorityRepository(pg.Pool),
		pinger:      pg,
		close: func() error {
			pg.Close()
			return nil
		},
	}, nil
}

func bootstrapAdmin(ctx context.Context, cfg *config.Config, accounts *service.AccountService, logger *zap.Logger) {
	password := cfg.Admin.Password
	if password == "" {
		if cfg.App.IsProduction() {
			logger.Warn("ADMIN_PASSWORD not set; skipping administrator bootstrap")
			return
		}
		password = devAdminPassword
	}

	created, err := accounts.EnsureAdmin(ctx, service.AdminInput{
		Login:    cfg.Admin.Login,
		Email:    cfg.Admin.Email,
		Password: password,
	})
	if err != nil {
		logger.Fatal("failed to bootstrap administrator", zap.Error(err))
	}
	if created && password == devAdminPassword {
		logger.Warn("administrator created with the default development password", zap.String("login", cfg.Admin.Login))
	}
}
