package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/shopfront-dev/storefront/internal/api/http/handlers"
	"github.com/shopfront-dev/storefront/internal/auth"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Storefront *handlers.StorefrontHandler
	Products   *handlers.ProductsHandler
	Settings   *handlers.SettingsHandler
	Accounts   *handlers.AccountsHandler
	Session    *auth.SessionMiddleware

	// UploadDir is served under /uploads when set.
	UploadDir string
	// LoginAttemptsPerMinute caps POST /admin/login per client IP; 0 disables it.
	LoginAttemptsPerMinute int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir, fiber.Static{Browse: false})
	}

	app.Use(cfg.Session.Handle, actorContext)

	app.Get("/", cfg.Storefront.Home)

	admin := app.Group("/admin")
	admin.Get("/login", cfg.Auth.LoginPage)
	admin.Post("/login", loginLimiter(cfg.LoginAttemptsPerMinute), cfg.Auth.Login)
	admin.Get("/logout", cfg.Auth.Logout)
	admin.Post("/logout", cfg.Auth.Logout)

	signedIn := admin.Group("", auth.RequireAuthenticated())
	signedIn.Get("/", cfg.Storefront.Dashboard)
	signedIn.Post("/products", cfg.Products.Create)
	signedIn.Post("/products/:id/delete", cfg.Products.Delete)

	super := admin.Group("", auth.RequireSuperAdmin())
	super.Post("/contact-method", cfg.Settings.SetContactMethod)
	super.Post("/contact-phone", cfg.Settings.SetContactPhone)
	super.Get("/users", cfg.Accounts.List)
	super.Post("/users", cfg.Accounts.Create)
	super.Post("/users/:id/delete", cfg.Accounts.Delete)
}

func loginLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperrors.NewTooManyRequests("too many login attempts, try again later")
		},
	})
}
