package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("AUTH_TIMEOUT", "")
	t.Setenv("AUTH_STORAGE_KEY", "")

	cfg := Load()
	require.NotNil(t, cfg)

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.AuthTimeout)
	assert.Equal(t, "lanchat_auth", cfg.AuthStorageKey)
	assert.Equal(t, "sqlite", cfg.LocalStoreDriver)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_TIMEOUT", "3s")
	t.Setenv("SIGNIN_RATE_LIMIT", "9")
	t.Setenv("TRUST_PROXY", "true")
	t.Setenv("LOCAL_STORE_DRIVER", "redis")

	cfg := Load()

	assert.Equal(t, "staging", cfg.AppEnv)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.AuthTimeout)
	assert.Equal(t, 9, cfg.SignInRateLimit)
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, "redis", cfg.LocalStoreDriver)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("AUTH_TIMEOUT", "soon")
	t.Setenv("SIGNIN_RATE_LIMIT", "-4")
	t.Setenv("TRUST_PROXY", "maybe")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.AuthTimeout)
	assert.Equal(t, 5, cfg.SignInRateLimit)
	assert.False(t, cfg.TrustProxy)
}

func TestFeatureSwitches(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.StorageEnabled())

	cfg.GoogleClientID = "id"
	cfg.GoogleClientSecret = "secret"
	cfg.S3Bucket = "media"
	assert.True(t, cfg.GoogleEnabled())
	assert.True(t, cfg.StorageEnabled())
}

func TestSanitized_DropsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:            "LanChat",
		JWTSecret:          "s3cret",
		GoogleClientID:     "client",
		GoogleClientSecret: "shh",
		ResendAPIKey:       "re_123",
		S3SecretKey:        "aws",
	}

	safe := cfg.Sanitized()

	assert.Equal(t, "LanChat", safe.AppName)
	assert.Equal(t, "client", safe.GoogleClientID)
	assert.Empty(t, safe.JWTSecret)
	assert.Empty(t, safe.GoogleClientSecret)
	assert.Empty(t, safe.ResendAPIKey)
	assert.Empty(t, safe.S3SecretKey)
}
