package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/shopfront-dev/storefront/internal/api/http"
	"github.com/shopfront-dev/storefront/internal/api/http/handlers"
	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/config"
	"github.com/shopfront-dev/storefront/internal/events"
	"github.com/shopfront-dev/storefront/internal/observability"
	"github.com/shopfront-dev/storefront/internal/persistence"
	"github.com/shopfront-dev/storefront/internal/repository"
	"github.com/shopfront-dev/storefront/internal/service"
	"github.com/shopfront-dev/storefront/internal/session"
	"github.com/shopfront-dev/storefront/internal/storage"
	"github.com/shopfront-dev/storefront/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	checks := map[string]handlers.Pinger{"postgres": pg}

	var store session.Store
	switch cfg.Auth.SessionStore {
	case config.SessionStoreMemory:
		logger.Warn("using in-memory session store; sessions are lost on restart")
		store = session.NewMemoryStore()
	default:
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		checks["redis"] = redis
		store = session.NewRedisStore(redis.Client, redis.Prefix)
	}

	pool := pg.PoolHandle()
	adminRepo := repository.NewAdminRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	productRepo := repository.NewProductRepository(pool)

	images, err := storage.NewImageStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		logger.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	sessions, err := session.NewManager(store, adminRepo, hasher, auth.NewCookieSigner(cfg.Auth.SessionSecret),
		session.Options{
			TTL:                  cfg.Auth.SessionTTL(),
			VerifyRolePerRequest: cfg.Auth.VerifyRolePerRequest,
		}, logger)
	if err != nil {
		logger.Fatal("failed to init session manager", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	accountService := service.NewAccountService(service.AccountDependencies{
		AdminRepo:  adminRepo,
		Hasher:     hasher,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	settingService := service.NewSettingService(settingRepo, cfg.Contact.Email, dispatcher, logger)
	productService := service.NewProductService(productRepo, images, dispatcher, logger)
	worker.StartLifecycleWorker(service.NewLifecycleHooks(dispatcher, sessions, images, logger))

	if _, err := accountService.EnsureSuperAdmin(ctx, cfg.Bootstrap.SuperAdminUsername, cfg.Bootstrap.SuperAdminPassword); err != nil {
		logger.Fatal("failed to bootstrap super admin", zap.Error(err))
	}
	if err := settingService.EnsureDefaults(ctx); err != nil {
		logger.Fatal("failed to seed settings", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	cookie := auth.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure,
		TTL:    cfg.Auth.SessionTTL(),
	}

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Upload.MaxBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:                 handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks, metrics),
		Auth:                   handlers.NewAuthHandler(sessions, cookie, metrics, logger),
		Storefront:             handlers.NewStorefrontHandler(productService, settingService),
		Products:               handlers.NewProductsHandler(productService),
		Settings:               handlers.NewSettingsHandler(settingService),
		Accounts:               handlers.NewAccountsHandler(accountService),
		Session:                auth.NewSessionMiddleware(sessions, cookie),
		UploadDir:              images.Dir(),
		LoginAttemptsPerMinute: cfg.Auth.LoginAttemptsPerMinute,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
