package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yoockh/jobber/internal/ratelimit"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string
	GinMode     string
	StoreDriver string // postgres|memory

	PostgresURI string
	RedisAddr   string // host:port or redis:// URL
	MongoURI    string
	MongoDB     string

	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration

	GCSBucket      string
	VertexProject  string
	VertexLocation string
	VertexModel    string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	NotificationWorkers int

	RateLimitEnabled    bool
	RateLimitMaxBuckets int
	RateLimitStats      bool
	RateLimits          map[string]ratelimit.Override

	JobCacheTTL time.Duration
}

// fileConfig is the optional YAML overlay pointed to by CONFIG_FILE.
type fileConfig struct {
	RateLimits map[string]ratelimit.Override `yaml:"rate_limits"`
}

// Load reads .env (if present), the environment and the optional CONFIG_FILE.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "release"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),

		PostgresURI: os.Getenv("POSTGRES_URI"),
		RedisAddr:   firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getEnv("MONGO_DB", "jobber"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTAccessTTL:  getEnvAsDuration("JWT_ACCESS_TTL", 24*time.Hour),
		JWTRefreshTTL: getEnvAsDuration("JWT_REFRESH_TTL", 7*24*time.Hour),

		GCSBucket:      os.Getenv("GCS_BUCKET"),
		VertexProject:  os.Getenv("VERTEX_PROJECT"),
		VertexLocation: getEnv("VERTEX_LOCATION", "us-central1"),
		VertexModel:    getEnv("VERTEX_MODEL", "gemini-1.5-flash"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@jobber.local"),

		NotificationWorkers: getEnvAsInt("NOTIFICATION_WORKERS", 2),

		RateLimitEnabled:    getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimitMaxBuckets: getEnvAsInt("RATE_LIMIT_MAX_BUCKETS", 100_000),
		RateLimitStats:      getEnvAsBool("RATE_LIMIT_STATS", false),

		JobCacheTTL: getEnvAsDuration("JOB_CACHE_TTL", 2*time.Minute),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if cfg.StoreDriver != DriverPostgres && cfg.StoreDriver != DriverMemory {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == DriverPostgres && cfg.PostgresURI == "" {
		return nil, fmt.Errorf("POSTGRES_URI environment variable is not set")
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.RateLimits = fc.RateLimits
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getEnv(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return fallback
}
