package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/shopfront-dev/storefront/internal/domain"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	AccountID    string
	Username     string
	IsSuperAdmin bool
	Session      *domain.Session
}

// SessionResolver maps a cookie value to a session.
type SessionResolver interface {
	Resolve(ctx context.Context, cookieValue string) (*domain.Session, domain.SessionState)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// SessionMiddleware resolves the session cookie for every request. It never
// rejects a request; gates decide what an anonymous caller may do.
type SessionMiddleware struct {
	sessions SessionResolver
	cookie   CookieConfig
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions SessionResolver, cookie CookieConfig) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookie: cookie}
}

// Handle loads the principal into the request locals.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	value := c.Cookies(m.cookie.Name)
	if value == "" {
		return c.Next()
	}

	session, state := m.sessions.Resolve(c.UserContext(), value)
	if state != domain.SessionAuthenticated || session == nil {
		ClearSessionCookie(c, m.cookie)
		return c.Next()
	}

	c.Locals(principalKey, &Principal{
		AccountID:    session.AccountID,
		Username:     session.Username,
		IsSuperAdmin: session.IsSuperAdmin,
		Session:      session,
	})
	// rolling cookie: the store slides the session TTL on every resolve
	SetSessionCookie(c, m.cookie, value)
	return c.Next()
}

// Cookie exposes the cookie settings for handlers that log in or out.
func (m *SessionMiddleware) Cookie() CookieConfig {
	return m.cookie
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}

// SetSessionCookie writes the HTTP-only session cookie.
func SetSessionCookie(c *fiber.Ctx, cfg CookieConfig, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cfg.TTL / time.Second),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c *fiber.Ctx, cfg CookieConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
