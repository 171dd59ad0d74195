package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	JWTSecret    string

	// Threat intelligence sources
	URLScanAPIKey   string
	URLScanAPIURL   string
	ThreatFoxAPIKey string
	ThreatFoxAPIURL string
	AbuseIPDBAPIKey string
	AbuseIPDBAPIURL string
	SourceTimeout   time.Duration

	// Verdict cache
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// Outbound alerts (shoutrrr URL, empty disables alerts)
	AlertURL string

	// Password reset mail
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	ResetBaseURL string
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:  getEnv("SW_ENV", "development"),
		HTTPPort:     getEnv("SW_HTTP_PORT", "8080"),
		DatabasePath: getEnv("SW_DB_PATH", filepath.Join("data", "safewaters.db")),
		JWTSecret:    getEnv("SW_JWT_SECRET", ""),

		URLScanAPIKey:   getEnv("SW_URLSCAN_API_KEY", ""),
		URLScanAPIURL:   getEnv("SW_URLSCAN_API_URL", "https://urlscan.io/api/v1/search/"),
		ThreatFoxAPIKey: getEnv("SW_THREATFOX_API_KEY", ""),
		ThreatFoxAPIURL: getEnv("SW_THREATFOX_API_URL", "https://threatfox-api.abuse.ch/api/v1/"),
		AbuseIPDBAPIKey: getEnv("SW_ABUSEIPDB_API_KEY", ""),
		AbuseIPDBAPIURL: getEnv("SW_ABUSEIPDB_API_URL", "https://api.abuseipdb.com/api/v2/check"),
		SourceTimeout:   getEnvDuration("SW_SOURCE_TIMEOUT", 10*time.Second),

		RedisAddr:     getEnv("SW_REDIS_ADDR", ""),
		RedisPassword: getEnv("SW_REDIS_PASSWORD", ""),
		CacheTTL:      getEnvDuration("SW_CACHE_TTL", 24*time.Hour),

		AlertURL: getEnv("SW_ALERT_URL", ""),

		SMTPHost:     getEnv("SW_SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SW_SMTP_PORT", 587),
		SMTPUsername: getEnv("SW_SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SW_SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SW_SMTP_FROM", ""),
		ResetBaseURL: getEnv("SW_RESET_BASE_URL", "http://localhost:8080/reset-password"),
	}

	if cfg.JWTSecret == "" && cfg.Environment != "development" {
		return Config{}, fmt.Errorf("SW_JWT_SECRET is required outside development")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "development-only-secret"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// Bare numbers are treated as seconds to match the .env files used by
		// the browser extension deployment scripts.
		if n, err := strconv.Atoi(val); err == nil {
			return time.Duration(n) * time.Second
		}
	}

	return fallback
}
