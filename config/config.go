// Package config loads application settings from the environment.
// File: config/config.go
package config

import (
	"crypto/sha256"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Config holds every runtime setting.
type Config struct {
	Port           string
	Env            string
	LogDir         string
	ApplicationURL string

	// TicketingAPIURL is the base URL of the external ticketing API.
	TicketingAPIURL string
	// APITimeout bounds each outgoing call; zero means no client-side timeout.
	APITimeout time.Duration

	SessionSecret string
	SessionMaxAge int
	SessionSecure bool

	// AdminUsername is the account treated as administrator regardless of role.
	AdminUsername string

	ResultDisplay time.Duration
	AutoRearm     bool

	AllowedOrigins    []string
	CloudWatchEnabled bool
	TracingEnabled    bool
}

// Load reads the environment, falling back to defaults suited to local testing.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		LogDir:         getEnv("LOG_DIR", "./logs"),
		ApplicationURL: getEnv("APPLICATION_URL", "http://localhost:8080"),

		TicketingAPIURL: getEnv("TICKETING_API_URL", "http://127.0.0.1:8000"),
		APITimeout:      time.Duration(getEnvInt("API_TIMEOUT_SECONDS", 0)) * time.Second,

		SessionSecret: getEnv("SESSION_SECRET", "change-me"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 86400*7),
		SessionSecure: getEnvBool("SESSION_SECURE", false),

		AdminUsername: getEnv("ADMIN_USERNAME", "otf"),

		ResultDisplay: time.Duration(getEnvInt("RESULT_DISPLAY_SECONDS", 4)) * time.Second,
		AutoRearm:     getEnvBool("SCANNER_AUTO_REARM", false),

		AllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS"),
		CloudWatchEnabled: getEnvBool("METRICS_CLOUDWATCH", false),
		TracingEnabled:    getEnvBool("XRAY_ENABLED", false),
	}
}

// Production reports whether the app runs in production.
func (c *Config) Production() bool { return c.Env == "production" }

// SessionKeys derives the cookie authentication key and the AES-256 encryption key
// from SessionSecret, so the bearer token never sits in a readable cookie.
func (c *Config) SessionKeys() (hashKey, blockKey []byte, err error) {
	r := hkdf.New(sha256.New, []byte(c.SessionSecret), nil, []byte("ticket-gate session cookie"))
	hashKey = make([]byte, 32)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, nil, err
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}

// ------------------- env helpers -------------------

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
