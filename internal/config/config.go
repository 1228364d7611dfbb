package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string

	MongoURI      string
	MongoDatabase string
	RedisURI      string

	JWTSecret string
	JWTExpiry time.Duration

	DefaultCredits int

	// Completion provider: "openai" (any OpenAI-compatible endpoint) or "gemini".
	AIProvider string
	AIAPIKey   string
	AIBaseURL  string
	AIModel    string

	ImageKitURLEndpoint string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string

	StripeSecretKey     string
	StripeWebhookSecret string
	AppID               string
	FrontendURL         string

	EmptyChatTTL       time.Duration
	SweepInterval      time.Duration
	FulfillmentWorkers int
	ReconcileInterval  time.Duration
}

// Load reads configuration from .env file and environment variables.
// It returns an error naming every required variable that is missing or malformed.
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist - env vars may be set directly)
	_ = godotenv.Load()

	l := &loader{}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		MongoURI:      l.required("MONGO_URI"),
		MongoDatabase: l.required("MONGO_DATABASE"),
		RedisURI:      getEnv("REDIS_URI", "localhost:6379"),

		JWTSecret: l.required("JWT_SECRET"),
		JWTExpiry: l.duration("JWT_EXPIRY", "720h"),

		DefaultCredits: l.integer("DEFAULT_CREDITS", 20),

		AIProvider: strings.ToLower(getEnv("AI_PROVIDER", "openai")),
		AIAPIKey:   l.required("AI_API_KEY"),
		AIBaseURL:  getEnv("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		AIModel:    getEnv("AI_MODEL", "gemini-2.0-flash"),

		ImageKitURLEndpoint: strings.TrimRight(l.required("IMAGEKIT_URL_ENDPOINT"), "/"),

		S3Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey: getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:    getEnv("S3_BUCKET", "quickchat-images"),
		S3UseSSL:    l.boolean("S3_USE_SSL", false),
		S3PublicURL: strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),

		StripeSecretKey:     l.required("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: l.required("STRIPE_WEBHOOK_SECRET"),
		AppID:               getEnv("APP_ID", "quickgpt"),
		FrontendURL:         strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),

		EmptyChatTTL:       l.duration("EMPTY_CHAT_TTL", "30m"),
		SweepInterval:      l.duration("SWEEP_INTERVAL", "5m"),
		FulfillmentWorkers: l.integer("FULFILLMENT_WORKERS", 2),
		ReconcileInterval:  l.duration("RECONCILE_INTERVAL", "10m"),
	}

	if cfg.AIProvider != "openai" && cfg.AIProvider != "gemini" {
		l.fail("AI_PROVIDER must be openai or gemini, got %q", cfg.AIProvider)
	}

	if len(l.problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(l.problems, "; "))
	}

	return cfg, nil
}

// getEnv reads an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loader accumulates problems so a misconfigured deployment reports all of them at once.
type loader struct {
	problems []string
}

func (l *loader) fail(format string, args ...interface{}) {
	l.problems = append(l.problems, fmt.Sprintf(format, args...))
}

func (l *loader) required(key string) string {
	value := os.Getenv(key)
	if value == "" {
		l.fail("required environment variable %s is not set", key)
	}
	return value
}

func (l *loader) duration(key, defaultValue string) time.Duration {
	raw := getEnv(key, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		l.fail("invalid duration for %s: %q", key, raw)
	}
	return d
}

func (l *loader) integer(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		l.fail("invalid integer for %s: %q", key, raw)
		return defaultValue
	}
	return n
}

func (l *loader) boolean(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		l.fail("invalid boolean for %s: %q", key, raw)
		return defaultValue
	}
	return b
}
