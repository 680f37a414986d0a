package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

const (
	DriverAppwrite = "appwrite"
	DriverMongo    = "mongo"
	DriverBolt     = "bolt"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	StoreDriver string

	// Hosted document database
	AppwriteEndpoint  string
	AppwriteProjectID string
	AppwriteAPIKey    string
	DatabaseID        string
	CollectionID      string

	MongoURI   string
	BoltPath   string
	SQLitePath string

	// Shared secret the payment gateway sends in the verif-hash header.
	WebhookSecret       string
	StripeWebhookSecret string

	SentryDSN string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	TelegramBotToken string
	TelegramChatID   int64

	ManualRateLimit  int
	ManualRateWindow time.Duration
	// Honour X-Forwarded-For / X-Real-IP only behind a proxy that sets them.
	TrustProxyHeaders bool

	CORSAllowedOrigins []string
}

// LoadDotEnv loads a .env file when one exists. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

func New() (*Config, error) {
	var result *multierror.Error

	telegramChatID, err := envInt64("TELEGRAM_CHAT_ID", 0)
	if err != nil {
		result = multierror.Append(result, err)
	}
	rateLimit, err := envInt("MANUAL_RATE_LIMIT", 30)
	if err != nil {
		result = multierror.Append(result, err)
	}
	rateWindow, err := envDuration("MANUAL_RATE_WINDOW", time.Minute)
	if err != nil {
		result = multierror.Append(result, err)
	}
	trustProxy, err := envBool("TRUST_PROXY_HEADERS", false)
	if err != nil {
		result = multierror.Append(result, err)
	}

	cfg := &Config{
		Port:     envOrDefault("PORT", "8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		StoreDriver: strings.ToLower(envOrDefault("STORE_DRIVER", DriverAppwrite)),

		AppwriteEndpoint:  strings.TrimRight(strings.TrimSpace(os.Getenv("APPWRITE_ENDPOINT")), "/"),
		AppwriteProjectID: strings.TrimSpace(os.Getenv("APPWRITE_PROJECT_ID")),
		AppwriteAPIKey:    strings.TrimSpace(os.Getenv("APPWRITE_API_KEY")),
		DatabaseID:        strings.TrimSpace(os.Getenv("APPWRITE_DATABASE_ID")),
		CollectionID:      strings.TrimSpace(os.Getenv("APPWRITE_COLLECTION_ID")),

		MongoURI:   strings.TrimSpace(os.Getenv("MONGO_URI")),
		BoltPath:   envOrDefault("BOLT_PATH", "data/licenses.db"),
		SQLitePath: envOrDefault("SQLITE_PATH", "data/licenses.sqlite"),

		WebhookSecret:       os.Getenv("FLW_SECRET_HASH"),
		StripeWebhookSecret: strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET")),

		SentryDSN: strings.TrimSpace(os.Getenv("SENTRY_DSN")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     os.Getenv("SMTP_PORT"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    envOrDefault("EMAIL_FROM", "licenses@schoollicense.app"),

		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		TelegramChatID:   telegramChatID,

		ManualRateLimit:   rateLimit,
		ManualRateWindow:  rateWindow,
		TrustProxyHeaders: trustProxy,

		CORSAllowedOrigins: splitList(envOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}

	if err := cfg.validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var result *multierror.Error

	switch c.StoreDriver {
	case DriverAppwrite:
		for name, value := range map[string]string{
			"APPWRITE_ENDPOINT":      c.AppwriteEndpoint,
			"APPWRITE_PROJECT_ID":    c.AppwriteProjectID,
			"APPWRITE_API_KEY":       c.AppwriteAPIKey,
			"APPWRITE_DATABASE_ID":   c.DatabaseID,
			"APPWRITE_COLLECTION_ID": c.CollectionID,
		} {
			if value == "" {
				result = multierror.Append(result, fmt.Errorf("%s environment variable is required when STORE_DRIVER=appwrite", name))
			}
		}
	case DriverMongo:
		if c.MongoURI == "" {
			result = multierror.Append(result, errors.New("MONGO_URI environment variable is required when STORE_DRIVER=mongo"))
		}
		if c.DatabaseID == "" || c.CollectionID == "" {
			result = multierror.Append(result, errors.New("APPWRITE_DATABASE_ID and APPWRITE_COLLECTION_ID name the mongo database and collection and are required"))
		}
	case DriverBolt, DriverSQLite, DriverMemory:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.WebhookSecret == "" {
		result = multierror.Append(result, errors.New("FLW_SECRET_HASH environment variable is required"))
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		result = multierror.Append(result, fmt.Errorf("PORT must be between 1 and 65535, got %q", c.Port))
	}

	if c.ManualRateLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("MANUAL_RATE_LIMIT cannot be negative, got %d", c.ManualRateLimit))
	}

	smtpFields := []string{c.SMTPHost, c.SMTPPort, c.SMTPUsername, c.SMTPPassword}
	if set := countSet(smtpFields); set > 0 && set < len(smtpFields) {
		result = multierror.Append(result, errors.New("SMTP_HOST, SMTP_PORT, SMTP_USERNAME, and SMTP_PASSWORD must be set together"))
	}

	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		result = multierror.Append(result, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}

	return result.ErrorOrNil()
}

func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 1m: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func countSet(values []string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
