package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Bootstrap BootstrapConfig
	Upload    UploadConfig
	Contact   ContactConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// LoggerConfig configures logging behavior. File is optional; when set, logs
// are also written to a rotating file.
type LoggerConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AuthConfig defines authentication and session parameters.
type AuthConfig struct {
	SessionSecret          string
	SessionTTLMinutes      int
	SessionStore           string
	CookieName             string
	CookieSecure           bool
	BcryptCost             int
	VerifyRolePerRequest   bool
	LoginAttemptsPerMinute int
}

// BootstrapConfig carries the seed super-admin credentials.
type BootstrapConfig struct {
	SuperAdminUsername string
	SuperAdminPassword string
}

// UploadConfig controls product image storage.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// ContactConfig holds contact data that is not editable at runtime.
type ContactConfig struct {
	Email string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "storefront"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Prefix:   getEnv("REDIS_PREFIX", "storefront"),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
		},
		Auth: AuthConfig{
			SessionSecret:          os.Getenv("SESSION_SECRET"),
			SessionTTLMinutes:      getEnvAsInt("SESSION_TTL_MINUTES", 120),
			SessionStore:           strings.ToLower(getEnv("SESSION_STORE", SessionStoreRedis)),
			CookieName:             getEnv("SESSION_COOKIE_NAME", "storefront_session"),
			CookieSecure:           getEnvAsBool("SESSION_COOKIE_SECURE", false),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
			VerifyRolePerRequest:   getEnvAsBool("AUTH_VERIFY_ROLE_PER_REQUEST", true),
			LoginAttemptsPerMinute: getEnvAsInt("AUTH_LOGIN_RATE_PER_MINUTE", 10),
		},
		Bootstrap: BootstrapConfig{
			SuperAdminUsername: os.Getenv("SUPER_ADMIN_USERNAME"),
			SuperAdminPassword: os.Getenv("SUPER_ADMIN_PASSWORD"),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: getEnvAsInt64("UPLOAD_MAX_BYTES", 5*1024*1024),
		},
		Contact: ContactConfig{
			Email: os.Getenv("CONTACT_EMAIL"),
		},
	}

	if cfg.Auth.SessionSecret == "" && cfg.App.IsDevelopment() {
		cfg.Auth.SessionSecret = "dev-session-secret"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run safely with.
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	switch c.Auth.SessionStore {
	case SessionStoreRedis, SessionStoreMemory:
	default:
		return fmt.Errorf("invalid SESSION_STORE %q: want %s or %s", c.Auth.SessionStore, SessionStoreRedis, SessionStoreMemory)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("invalid UPLOAD_MAX_BYTES: %d", c.Upload.MaxBytes)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsDevelopment reports whether the service runs in the development environment.
func (a AppConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Env, "development")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the idle lifetime of a session.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
