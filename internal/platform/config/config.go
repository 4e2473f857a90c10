package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	AppName  string
	AppURL   string
	APIPort  string
	LogLevel string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	DatabaseURL string
	DBMaxConns  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	MailFromName    string
	MailFromAddress string

	RateLimit          int
	RateLimitWindow    time.Duration
	CORSAllowedOrigins []string
	// Honour X-Forwarded-For / X-Real-IP; only safe behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// MissingKeysError lists every required environment variable that was unset or blank.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Keys, ", ")
}

var ErrSharedJWTSecret = errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	req := &requirer{}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		AppName:  getEnv("APP_NAME", "Task Management App"),
		AppURL:   strings.TrimRight(req.get("APP_URL"), "/"),
		APIPort:  getEnv("API_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTAccessSecret:  []byte(req.get("JWT_SECRET")),
		JWTRefreshSecret: []byte(req.get("JWT_REFRESH_SECRET")),
		AccessTokenTTL:   getEnvAsDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		DatabaseURL: req.get("DATABASE_URL"),
		DBMaxConns:  getEnvAsInt("DB_MAX_CONNS", 25),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		SMTPHost:        req.get("SMTP_HOST"),
		SMTPPort:        req.getInt("SMTP_PORT"),
		SMTPUser:        req.get("SMTP_USER"),
		SMTPPassword:    req.get("SMTP_PASSWORD"),
		MailFromAddress: req.get("MAIL_FROM_ADDRESS"),

		RateLimit:          getEnvAsInt("RATE_LIMIT", 10),
		RateLimitWindow:    getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),
	}
	cfg.MailFromName = getEnv("MAIL_FROM_NAME", cfg.AppName)

	if len(req.missing) > 0 {
		return nil, &MissingKeysError{Keys: req.missing}
	}
	if bytes.Equal(cfg.JWTAccessSecret, cfg.JWTRefreshSecret) {
		return nil, ErrSharedJWTSecret
	}
	if cfg.RateLimit <= 0 || cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT and RATE_LIMIT_WINDOW must be positive")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// requirer collects every missing key so the operator sees them all at once.
type requirer struct {
	missing []string
}

func (r *requirer) get(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		r.missing = append(r.missing, key)
	}
	return value
}

func (r *requirer) getInt(key string) int {
	raw := r.get(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		r.missing = append(r.missing, key+" (not an integer)")
		return 0
	}
	return value
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
