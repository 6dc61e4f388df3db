package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shopfront-dev/storefront/internal/api/dto"
	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/observability"
	"github.com/shopfront-dev/storefront/internal/session"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// AuthHandler exposes the admin login and logout endpoints.
type AuthHandler struct {
	sessions *session.Manager
	cookie   auth.CookieConfig
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *session.Manager, cookie auth.CookieConfig, metrics *observability.Metrics, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookie: cookie, metrics: metrics, logger: logger}
}

// LoginPage handles GET /admin/login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	_, authenticated := auth.PrincipalFromContext(c)
	return render(c, dto.LoginView{
		Error:         c.Query("error"),
		Authenticated: authenticated,
	})
}

// Login handles POST /admin/login. A browser whose login fails is sent back
// to the login page with the generic message.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, auth.LoginPath, apperrors.NewValidationError("invalid payload", nil))
	}

	sess, cookie, err := h.sessions.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		h.metrics.RecordLogin("failure")
		return fail(c, auth.LoginPath, err)
	}
	h.metrics.RecordLogin("success")

	auth.SetSessionCookie(c, h.cookie, cookie)
	return done(c, auth.LandingPath, fiber.StatusOK, dto.SessionResponse{
		Username:     sess.Username,
		IsSuperAdmin: sess.IsSuperAdmin,
	})
}

// Logout handles GET and POST /admin/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	value := c.Cookies(h.cookie.Name)
	auth.ClearSessionCookie(c, h.cookie)
	if value != "" {
		if err := h.sessions.Logout(c.UserContext(), value); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
			return err
		}
	}
	return done(c, auth.LoginPath, fiber.StatusOK, fiber.Map{"logged_out": true})
}
