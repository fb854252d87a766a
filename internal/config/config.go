package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "lanchat-development-secret"

type Config struct {
	// Application
	AppName    string
	AppEnv     string
	Port       string
	TrustProxy bool // honour X-Forwarded-For / X-Real-IP when rate limiting

	// Account & profile store (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret        string
	JWTExpiry        time.Duration
	AuthTimeout      time.Duration
	SignInRateLimit  int
	SignInRateWindow time.Duration
	APIRateLimit     int
	APIRateWindow    time.Duration

	// Device-side session persistence
	AuthStorageKey   string
	LocalStoreDriver string // "sqlite", "redis" or "memory"
	LocalStorePath   string
	RedisURL         string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Translation proxy
	TranslateURL     string
	TranslateTimeout time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible, optional: media uploads are disabled without a bucket)
	S3Region               string
	S3Bucket               string
	S3AccessKey            string
	S3SecretKey            string
	S3Endpoint             string
	S3PresignExpiryPublic  time.Duration
	S3PresignExpiryPrivate time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	appEnv := envString("APP_ENV", "development")

	cfg := &Config{
		AppName: envString("APP_NAME", "LanChat"),
		AppEnv:  appEnv,
		Port:    envString("PORT", "3001"),

		TrustProxy: envBool("TRUST_PROXY", false),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/lanchat.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		JWTSecret:        envString("JWT_SECRET", devJWTSecret),
		JWTExpiry:        envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		AuthTimeout:      envDuration("AUTH_TIMEOUT", 10*time.Second),
		SignInRateLimit:  envInt("SIGNIN_RATE_LIMIT", 5),
		SignInRateWindow: envDuration("SIGNIN_RATE_WINDOW", 15*time.Minute),
		APIRateLimit:     envInt("API_RATE_LIMIT", 60),
		APIRateWindow:    envDuration("API_RATE_WINDOW", time.Minute),

		AuthStorageKey:   envString("AUTH_STORAGE_KEY", "lanchat_auth"),
		LocalStoreDriver: envString("LOCAL_STORE_DRIVER", "sqlite"),
		LocalStorePath:   envString("LOCAL_STORE_PATH", "./data/device.db"),
		RedisURL:         envString("REDIS_URL", "redis://localhost:6379/0"),

		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  envString("GOOGLE_REDIRECT_URL", "http://127.0.0.1:8085/callback"),

		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		TranslateURL:     envString("TRANSLATE_URL", "https://translate.googleapis.com/translate_a/single"),
		TranslateTimeout: envDuration("TRANSLATE_TIMEOUT", 10*time.Second),

		SentryDSN: envString("SENTRY_DSN", ""),

		S3Region:               envString("S3_REGION", "us-east-1"),
		S3Bucket:               envString("S3_BUCKET", ""),
		S3AccessKey:            envString("S3_ACCESS_KEY", ""),
		S3SecretKey:            envString("S3_SECRET_KEY", ""),
		S3Endpoint:             envString("S3_ENDPOINT", ""),
		S3PresignExpiryPublic:  envDuration("S3_PRESIGN_EXPIRY_PUBLIC", 168*time.Hour),
		S3PresignExpiryPrivate: envDuration("S3_PRESIGN_EXPIRY_PRIVATE", 1*time.Hour),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction refuses to start a production deployment that would
// sign tokens with the development secret or drop verification mail.
func validateProduction(cfg *Config) {
	if cfg.JWTSecret == devJWTSecret {
		envRequiredFatal("JWT_SECRET", "production deployment requires a JWT_SECRET")
	}
	if cfg.ResendAPIKey == "" {
		envRequiredFatal("RESEND_API_KEY", "production deployment requires RESEND_API_KEY")
	}
}

func envRequiredFatal(key, msg string) {
	slog.Error(msg, "key", key, "hint", "set APP_ENV=development for local testing")
	os.Exit(1)
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GoogleEnabled reports whether federated sign-in can be offered.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// StorageEnabled reports whether media uploads have a bucket to write to.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:        c.AppName,
		AppEnv:         c.AppEnv,
		Port:           c.Port,
		AuthTimeout:    c.AuthTimeout,
		AuthStorageKey: c.AuthStorageKey,
		GoogleClientID: c.GoogleClientID,
		EmailFrom:      c.EmailFrom,
		S3Endpoint:     c.S3Endpoint,
	}
}
