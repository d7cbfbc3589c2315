// file: config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "TICKETING_API_URL", "ADMIN_USERNAME", "RESULT_DISPLAY_SECONDS", "SCANNER_AUTO_REARM", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.TicketingAPIURL)
	assert.Equal(t, "otf", cfg.AdminUsername)
	assert.Equal(t, 4*time.Second, cfg.ResultDisplay)
	assert.False(t, cfg.AutoRearm)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.Production())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TICKETING_API_URL", "https://api.example.com")
	t.Setenv("API_TIMEOUT_SECONDS", "15")
	t.Setenv("RESULT_DISPLAY_SECONDS", "6")
	t.Setenv("SCANNER_AUTO_REARM", "true")
	t.Setenv("SESSION_SECURE", "not-a-bool")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg := Load()

	assert.True(t, cfg.Production())
	assert.Equal(t, "https://api.example.com", cfg.TicketingAPIURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, 6*time.Second, cfg.ResultDisplay)
	assert.True(t, cfg.AutoRearm)
	assert.False(t, cfg.SessionSecure, "unparsable values fall back to the default")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestSessionKeys(t *testing.T) {
	a := &Config{SessionSecret: "one"}
	b := &Config{SessionSecret: "two"}

	hashA, blockA, err := a.SessionKeys()
	require.NoError(t, err)
	hashA2, blockA2, err := a.SessionKeys()
	require.NoError(t, err)
	hashB, _, err := b.SessionKeys()
	require.NoError(t, err)

	assert.Len(t, hashA, 32)
	assert.Len(t, blockA, 32)
	assert.Equal(t, hashA, hashA2, "keys are derived deterministically")
	assert.Equal(t, blockA, blockA2)
	assert.NotEqual(t, hashA, blockA)
	assert.NotEqual(t, hashA, hashB)
}
