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

const (
	// DefaultJWTSecret is only acceptable outside of the prod profile.
	DefaultJWTSecret = "dev-secret-change-me-dev-secret-change-me"

	EnvDevelopment = "dev"
	EnvProduction  = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	minProdSecretLength = 32
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Admin    AdminConfig
	Mail     MailConfig
	Async    AsyncConfig
	Cleanup  CleanupConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSAllowedOrigins    string
}

// DatabaseConfig selects the backing store.
type DatabaseConfig struct {
	Driver string
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

// SQLiteConfig is used by the dev profile and tests.
type SQLiteConfig struct {
	Path string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret                      string
	TokenValiditySeconds           int
	TokenValidityRememberMeSeconds int
	BcryptCost                     int
	LoginRateLimit                 int
	LoginRateWindowSeconds         int
}

// AdminConfig describes the bootstrap administrator.
type AdminConfig struct {
	Login    string
	Email    string
	Password string
}

// MailConfig holds stub mail settings.
type MailConfig struct {
	From    string
	BaseURL string
}

// AsyncConfig sizes the event worker pool.
type AsyncConfig struct {
	Workers   int
	QueueSize int
}

// CleanupConfig schedules removal of stale unactivated accounts.
type CleanupConfig struct {
	Schedule string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "account-service"),
			Env:                   getEnv("APP_ENV", EnvDevelopment),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSAllowedOrigins:    os.Getenv("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "account-service.db"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                      getEnv("AUTH_JWT_SECRET", DefaultJWTSecret),
			TokenValiditySeconds:           getEnvAsInt("AUTH_TOKEN_VALIDITY_SECONDS", 86400),
			TokenValidityRememberMeSeconds: getEnvAsInt("AUTH_TOKEN_VALIDITY_REMEMBER_ME_SECONDS", 2592000),
			BcryptCost:                     getEnvAsInt("AUTH_BCRYPT_COST", 10),
			LoginRateLimit:                 getEnvAsInt("AUTH_LOGIN_RATE_LIMIT", 10),
			LoginRateWindowSeconds:         getEnvAsInt("AUTH_LOGIN_RATE_WINDOW_SECONDS", 60),
		},
		Admin: AdminConfig{
			Login:    getEnv("ADMIN_LOGIN", "admin"),
			Email:    getEnv("ADMIN_EMAIL", "admin@localhost"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Mail: MailConfig{
			From:    getEnv("MAIL_FROM", "noreply@localhost"),
			BaseURL: getEnv("MAIL_BASE_URL", "http://localhost:8080"),
		},
		Async: AsyncConfig{
			Workers:   getEnvAsInt("ASYNC_WORKERS", 2),
			QueueSize: getEnvAsInt("ASYNC_QUEUE_SIZE", 10000),
		},
		Cleanup: CleanupConfig{
			Schedule: getEnv("CLEANUP_SCHEDULE", "0 1 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must not be empty"))
	}
	if c.App.IsProduction() {
		if c.Auth.JWTSecret == DefaultJWTSecret {
			errs = append(errs, errors.New("AUTH_JWT_SECRET must be set in prod"))
		} else if len(c.Auth.JWTSecret) < minProdSecretLength {
			errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes in prod", minProdSecretLength))
		}
	}
	if c.Auth.TokenValiditySeconds <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_VALIDITY_SECONDS must be positive"))
	}
	if c.Auth.TokenValidityRememberMeSeconds <= c.Auth.TokenValiditySeconds {
		errs = append(errs, errors.New("AUTH_TOKEN_VALIDITY_REMEMBER_ME_SECONDS must exceed AUTH_TOKEN_VALIDITY_SECONDS"))
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// IsProduction reports whether the prod profile is active.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, EnvProduction)
}

// TokenValidity is the lifetime of a regular session token.
func (a AuthConfig) TokenValidity() time.Duration {
	return time.Duration(a.TokenValiditySeconds) * time.Second
}

// TokenValidityRememberMe is the lifetime of a "remember me" session token.
func (a AuthConfig) TokenValidityRememberMe() time.Duration {
	return time.Duration(a.TokenValidityRememberMeSeconds) * time.Second
}

// LoginRateWindow is the window used by the login limiter.
func (a AuthConfig) LoginRateWindow() time.Duration {
	return time.Duration(a.LoginRateWindowSeconds) * time.Second
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
