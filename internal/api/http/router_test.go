package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shopfront-dev/storefront/internal/api/http/handlers"
	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/events"
	"github.com/shopfront-dev/storefront/internal/observability"
	"github.com/shopfront-dev/storefront/internal/repository/repotest"
	"github.com/shopfront-dev/storefront/internal/service"
	"github.com/shopfront-dev/storefront/internal/session"
	"github.com/shopfront-dev/storefront/internal/storage"
)

const cookieName = "storefront_session"

type testEnv struct {
	app      *fiber.App
	accounts *repotest.AdminRepository
	settings *repotest.SettingRepository
}

func newTestEnv(t *testing.T, loginRate int) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	adminRepo := repotest.NewAdminRepository()
	settingRepo := repotest.NewSettingRepository()
	productRepo := repotest.NewProductRepository()

	images, err := storage.NewImageStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("image store: %v", err)
	}
	hasher := auth.NewHasher(4)
	cookie := auth.CookieConfig{Name: cookieName, TTL: time.Hour}

	sessions, err := session.NewManager(session.NewMemoryStore(), adminRepo, hasher,
		auth.NewCookieSigner("test-secret"), session.Options{TTL: time.Hour, VerifyRolePerRequest: true}, logger)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	accountSvc := service.NewAccountService(service.AccountDependencies{
		AdminRepo: adminRepo, Hasher: hasher, Dispatcher: dispatcher, Logger: logger,
	})
	settingSvc := service.NewSettingService(settingRepo, "shop@example.com", dispatcher, logger)
	productSvc := service.NewProductService(productRepo, images, dispatcher, logger)
	service.NewLifecycleHooks(dispatcher, sessions, images, logger).RegisterHandlers()

	ctx := context.Background()
	if _, err := accountSvc.EnsureSuperAdmin(ctx, "root", "s3cr3t"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := settingSvc.EnsureDefaults(ctx); err != nil {
		t.Fatalf("defaults: %v", err)
	}

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:                 handlers.NewHealthHandler("storefront", "test", map[string]handlers.Pinger{}, metrics),
		Auth:                   handlers.NewAuthHandler(sessions, cookie, metrics, logger),
		Storefront:             handlers.NewStorefrontHandler(productSvc, settingSvc),
		Products:               handlers.NewProductsHandler(productSvc),
		Settings:               handlers.NewSettingsHandler(settingSvc),
		Accounts:               handlers.NewAccountsHandler(accountSvc),
		Session:                auth.NewSessionMiddleware(sessions, cookie),
		UploadDir:              images.Dir(),
		LoginAttemptsPerMinute: loginRate,
	})
	return &testEnv{app: app, accounts: adminRepo, settings: settingRepo}
}

type request struct {
	method, path, cookie string
	form                 url.Values
	json                 bool
}

func (e *testEnv) do(t *testing.T, r request) *nethttp.Response {
	t.Helper()
	var body io.Reader
	if r.form != nil {
		body = strings.NewReader(r.form.Encode())
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if r.json {
		req.Header.Set("Accept", "application/json")
	}
	if r.cookie != "" {
		req.AddCookie(&nethttp.Cookie{Name: cookieName, Value: r.cookie})
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", r.method, r.path, err)
	}
	return resp
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := e.do(t, request{method: "POST", path: "/admin/login", form: url.Values{
		"username": {username}, "password": {password},
	}})
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get("Location") != "/admin" {
		t.Fatalf("login %s: status %d location %q", username, resp.StatusCode, resp.Header.Get("Location"))
	}
	for _, c := range resp.Cookies() {
		if c.Name == cookieName && c.Value != "" {
			if !c.HttpOnly {
				t.Fatalf("session cookie must be HttpOnly")
			}
			return c.Value
		}
	}
	t.Fatalf("login %s: no session cookie", username)
	return ""
}

func expectRedirect(t *testing.T, resp *nethttp.Response, location string) {
	t.Helper()
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("status: got %d want 303", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("location: got %q want %q", got, location)
	}
}

func decodeError(t *testing.T, resp *nethttp.Response) (code, message string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code, body.Error.Message
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	env := newTestEnv(t, 0)

	for _, r := range []request{
		{method: "GET", path: "/admin"},
		{method: "GET", path: "/admin/users"},
		{method: "POST", path: "/admin/products", form: url.Values{"name": {"x"}, "description": {"y"}}},
		{method: "POST", path: "/admin/contact-method", form: url.Values{"contactMethod": {"sms"}}},
	} {
		expectRedirect(t, env.do(t, r), "/admin/login")
	}

	resp := env.do(t, request{method: "GET", path: "/admin", json: true})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("json anonymous: status %d", resp.StatusCode)
	}

	resp = env.do(t, request{method: "GET", path: "/admin", cookie: "forged"})
	expectRedirect(t, resp, "/admin/login")
}

func TestLoginFailuresLookAlike(t *testing.T) {
	env := newTestEnv(t, 0)

	wrong := env.do(t, request{method: "POST", path: "/admin/login", json: true, form: url.Values{"username": {"root"}, "password": {"nope"}}})
	unknown := env.do(t, request{method: "POST", path: "/admin/login", json: true, form: url.Values{"username": {"ghost"}, "password": {"nope"}}})

	for _, resp := range []*nethttp.Response{wrong, unknown} {
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("status: %d", resp.StatusCode)
		}
		code, message := decodeError(t, resp)
		if code != "INVALID_CREDENTIALS" || message != "invalid credentials" {
			t.Fatalf("body: %s %q", code, message)
		}
	}
}

func TestBrowserLoginFailureReturnsToLoginPage(t *testing.T) {
	env := newTestEnv(t, 0)
	location := "/admin/login?error=" + url.QueryEscape("invalid credentials")

	for _, username := range []string{"root", "ghost"} {
		resp := env.do(t, request{method: "POST", path: "/admin/login", form: url.Values{"username": {username}, "password": {"nope"}}})
		expectRedirect(t, resp, location)
		for _, c := range resp.Cookies() {
			if c.Name == cookieName && c.Value != "" {
				t.Fatalf("failed login must not set a session cookie")
			}
		}
	}

	resp := env.do(t, request{method: "GET", path: location})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login page: status %d", resp.StatusCode)
	}
	var page struct {
		Data struct {
			Error         string `json:"error"`
			Authenticated bool   `json:"authenticated"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Data.Error != "invalid credentials" || page.Data.Authenticated {
		t.Fatalf("login page: %+v", page.Data)
	}
}

func TestLastSuperAdminOverHTTP(t *testing.T) {
	env := newTestEnv(t, 0)
	rootCookie := env.login(t, "root", "s3cr3t")

	resp := env.do(t, request{method: "POST", path: "/admin/users", cookie: rootCookie,
		form: url.Values{"username": {"alice"}, "password": {"pw"}}})
	expectRedirect(t, resp, "/admin/users")

	resp = env.do(t, request{method: "POST", path: "/admin/users", cookie: rootCookie,
		form: url.Values{"username": {"alice"}, "password": {"other"}, "is_super_admin": {"on"}}})
	expectRedirect(t, resp, "/admin/users?error="+url.QueryEscape("username already exists"))

	resp = env.do(t, request{method: "POST", path: "/admin/users", cookie: rootCookie, json: true,
		form: url.Values{"username": {"alice"}, "password": {"other"}, "is_super_admin": {"on"}}})
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("duplicate: status %d", resp.StatusCode)
	}
	if code, _ := decodeError(t, resp); code != "DUPLICATE_USERNAME" {
		t.Fatalf("duplicate code: %s", code)
	}

	root, _ := env.accounts.FindByUsername(context.Background(), "root")
	alice, _ := env.accounts.FindByUsername(context.Background(), "alice")
	if alice.IsSuperAdmin {
		t.Fatalf("alice should not be super admin")
	}

	resp = env.do(t, request{method: "POST", path: "/admin/users/" + root.ID + "/delete", cookie: rootCookie})
	expectRedirect(t, resp, "/admin/users?error="+url.QueryEscape("cannot delete the last super admin"))

	aliceCookie := env.login(t, "alice", "pw")
	resp = env.do(t, request{method: "POST", path: "/admin/users/" + alice.ID + "/delete", cookie: rootCookie})
	expectRedirect(t, resp, "/admin/users")

	if env.accounts.Len() != 1 {
		t.Fatalf("accounts left: %d", env.accounts.Len())
	}
	resp = env.do(t, request{method: "GET", path: "/admin", cookie: aliceCookie})
	expectRedirect(t, resp, "/admin/login")
}

func TestNonSuperAdminIsBounced(t *testing.T) {
	env := newTestEnv(t, 0)
	rootCookie := env.login(t, "root", "s3cr3t")
	env.do(t, request{method: "POST", path: "/admin/users", cookie: rootCookie,
		form: url.Values{"username": {"alice"}, "password": {"pw"}}})
	aliceCookie := env.login(t, "alice", "pw")

	resp := env.do(t, request{method: "GET", path: "/admin", cookie: aliceCookie})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("landing: status %d", resp.StatusCode)
	}

	resp = env.do(t, request{method: "POST", path: "/admin/users", cookie: aliceCookie,
		form: url.Values{"username": {"mallory"}, "password": {"pw"}, "is_super_admin": {"on"}}})
	expectRedirect(t, resp, "/admin")
	if env.accounts.Len() != 2 {
		t.Fatalf("no account should be created by a non-super admin")
	}

	resp = env.do(t, request{method: "POST", path: "/admin/contact-method", cookie: aliceCookie,
		form: url.Values{"contactMethod": {"sms"}}, json: true})
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("json forbidden: status %d", resp.StatusCode)
	}
	if v, _, _ := env.settings.Get(context.Background(), "contact_method"); v != "email" {
		t.Fatalf("setting changed by non-super admin: %q", v)
	}
}

func TestContactSettingsAndStorefront(t *testing.T) {
	env := newTestEnv(t, 0)
	rootCookie := env.login(t, "root", "s3cr3t")

	resp := env.do(t, request{method: "POST", path: "/admin/contact-method", cookie: rootCookie,
		form: url.Values{"contactMethod": {"sms"}}})
	expectRedirect(t, resp, "/admin")
	resp = env.do(t, request{method: "POST", path: "/admin/contact-phone", cookie: rootCookie,
		form: url.Values{"contactPhone": {"555-0100"}}})
	expectRedirect(t, resp, "/admin")

	resp = env.do(t, request{method: "POST", path: "/admin/products", cookie: rootCookie,
		form: url.Values{"name": {"Mug"}, "description": {"Ceramic"}}})
	expectRedirect(t, resp, "/admin")

	resp = env.do(t, request{method: "GET", path: "/"})
	var page struct {
		Data struct {
			Products []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"products"`
			Contact struct {
				Method string `json:"method"`
				Email  string `json:"email"`
				Phone  string `json:"phone"`
			} `json:"contact"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Data.Contact.Method != "sms" || page.Data.Contact.Phone != "555-0100" || page.Data.Contact.Email != "shop@example.com" {
		t.Fatalf("contact: %+v", page.Data.Contact)
	}
	if len(page.Data.Products) != 1 || page.Data.Products[0].Name != "Mug" {
		t.Fatalf("products: %+v", page.Data.Products)
	}

	resp = env.do(t, request{method: "POST", path: "/admin/contact-method", cookie: rootCookie,
		form: url.Values{"contactMethod": {"carrier-pigeon"}}})
	expectRedirect(t, resp, "/admin")
	if v, _, _ := env.settings.Get(context.Background(), "contact_method"); v != "email" {
		t.Fatalf("invalid method should be stored as email, got %q", v)
	}

	resp = env.do(t, request{method: "POST", path: "/admin/products/" + page.Data.Products[0].ID + "/delete", cookie: rootCookie})
	expectRedirect(t, resp, "/admin")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, 0)
	rootCookie := env.login(t, "root", "s3cr3t")

	resp := env.do(t, request{method: "POST", path: "/admin/logout", cookie: rootCookie})
	expectRedirect(t, resp, "/admin/login")

	resp = env.do(t, request{method: "GET", path: "/admin", cookie: rootCookie})
	expectRedirect(t, resp, "/admin/login")
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, 2)
	form := url.Values{"username": {"root"}, "password": {"nope"}}

	for i := 0; i < 2; i++ {
		if resp := env.do(t, request{method: "POST", path: "/admin/login", form: form, json: true}); resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("attempt %d: status %d", i, resp.StatusCode)
		}
	}
	resp := env.do(t, request{method: "POST", path: "/admin/login", form: form})
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("limited attempt: status %d", resp.StatusCode)
	}
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	env := newTestEnv(t, 0)

	if resp := env.do(t, request{method: "GET", path: "/health/ready"}); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("ready: %d", resp.StatusCode)
	}
	if resp := env.do(t, request{method: "GET", path: "/health/metrics"}); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("metrics: %d", resp.StatusCode)
	}
	resp := env.do(t, request{method: "GET", path: "/nope"})
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown route: %d", resp.StatusCode)
	}
}
