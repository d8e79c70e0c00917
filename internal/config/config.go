package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Environment string
	HTTPAddr    string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	CheckoutScriptURL     string

	JWTSecret string

	OrderTTL          time.Duration
	ReconcileInterval time.Duration
	ReconcileWorkers  int

	AllowedOrigins []string

	TelegramBotToken string
	TelegramChatID   int64
}

// LoadEnvFiles reads the first files that exist without overriding variables
// already set in the process environment.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),

		PostgresDSN: strings.TrimSpace(os.Getenv("POSTGRES_DSN")),

		RedisAddr:     fmt.Sprintf("%s:%s", getEnv("REDIS_HOST", "localhost"), getEnv("REDIS_PORT", "6379")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "image_credits"),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		CheckoutScriptURL:     getEnv("RAZORPAY_CHECKOUT_URL", "https://checkout.razorpay.com/v1/checkout.js"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		OrderTTL:          getEnvDuration("ORDER_TTL", 30*time.Minute),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", time.Minute),
		ReconcileWorkers:  getEnvInt("RECONCILE_WORKERS", 3),

		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
	}
	if cfg.PostgresDSN == "" {
		cfg.PostgresDSN = buildPostgresDSNFromEnv()
	}

	var err error
	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("TELEGRAM_CHAT_ID: %w", perr))
		}
		cfg.TelegramChatID = id
	}

	if cfg.RazorpayKeyID == "" {
		err = multierr.Append(err, errors.New("RAZORPAY_KEY_ID is required"))
	}
	if cfg.RazorpayKeySecret == "" {
		err = multierr.Append(err, errors.New("RAZORPAY_KEY_SECRET is required"))
	}
	if cfg.JWTSecret == "" {
		err = multierr.Append(err, errors.New("JWT_SECRET is required"))
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func buildPostgresDSNFromEnv() string {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	db := getEnv("POSTGRES_DB", "image_credits")
	user := getEnv("POSTGRES_USER", "image_credits")
	pass := os.Getenv("POSTGRES_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", urlEscape(user), urlEscape(pass), host, port, db)
}

func urlEscape(s string) string {
	r := strings.NewReplacer(
		"%", "%25",
		":", "%3A",
		"/", "%2F",
		"@", "%40",
		"?", "%3F",
		"#", "%23",
		"[", "%5B",
		"]", "%5D",
	)
	return r.Replace(s)
}
