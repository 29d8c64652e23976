package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Port          string `yaml:"port"`
	DatabaseURL   string `yaml:"database_url"`
	JWTSecret     string `yaml:"jwt_secret"`
	JWTIssuer     string `yaml:"jwt_issuer"`
	JWTTTLMinutes int    `yaml:"jwt_ttl_minutes"`

	LogLevel string `yaml:"log_level"`

	// Redis backs request rate limiting; empty address disables it.
	RedisAddr          string `yaml:"redis_addr"`
	RedisPassword      string `yaml:"redis_password"`
	RedisDB            int    `yaml:"redis_db"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`

	// NATS carries notifications; empty URL falls back to the log notifier.
	NATSURL             string        `yaml:"nats_url"`
	NotifySubjectPrefix string        `yaml:"notify_subject_prefix"`
	NotifyTimeout       time.Duration `yaml:"notify_timeout"`

	UploadDir      string `yaml:"upload_dir"`
	UploadMaxBytes int64  `yaml:"upload_max_bytes"`

	OTELCollectorURL string `yaml:"otel_collector_url"`
	ServiceName      string `yaml:"service_name"`
}

func defaults() Config {
	return Config{
		Port:                "8080",
		JWTSecret:           "dev-secret-change",
		JWTIssuer:           "jobboard",
		JWTTTLMinutes:       60,
		LogLevel:            "info",
		RateLimitPerMinute:  30,
		NotifySubjectPrefix: "jobboard.notifications",
		NotifyTimeout:       5 * time.Second,
		UploadDir:           "uploads",
		UploadMaxBytes:      15 << 20,
		ServiceName:         "jobboard",
	}
}

// Load reads configuration in three layers: defaults, an optional YAML file
// named by CONFIG_FILE, then environment variables (optionally from .env).
func Load() (Config, error) {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)
	cfg.JWTTTLMinutes = getEnvInt("JWT_TTL_MINUTES", cfg.JWTTTLMinutes)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.NotifySubjectPrefix = getEnv("NOTIFY_SUBJECT_PREFIX", cfg.NotifySubjectPrefix)
	cfg.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", cfg.NotifyTimeout)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.UploadMaxBytes = int64(getEnvInt("UPLOAD_MAX_BYTES", int(cfg.UploadMaxBytes)))
	cfg.OTELCollectorURL = getEnv("OTEL_COLLECTOR_URL", cfg.OTELCollectorURL)
	cfg.ServiceName = getEnv("SERVICE_NAME", cfg.ServiceName)

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is empty")
	}
	if c.JWTTTLMinutes <= 0 {
		return fmt.Errorf("jwt ttl must be positive: %d", c.JWTTTLMinutes)
	}
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("rate limit per minute must be at least 1")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("notify timeout must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
