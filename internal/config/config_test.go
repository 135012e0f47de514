package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	base := Config{
		Port:      "8480",
		JWTSecret: "0123456789abcdef0123456789abcdef",
		Env:       "development",
	}

	t.Run("development defaults pass", func(t *testing.T) {
		cfg := base
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		cfg := base
		cfg.Port = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := base
		cfg.JWTSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("production rejects default secret", func(t *testing.T) {
		cfg := base
		cfg.Env = "production"
		cfg.JWTSecret = "your-secret-key-change-in-production"
		assert.Error(t, cfg.Validate())
	})

	t.Run("production requires google client id", func(t *testing.T) {
		cfg := base
		cfg.Env = "production"
		cfg.DBPassword = "srv-9f2c1d7e8a5b"
		assert.Error(t, cfg.Validate())

		cfg.GoogleClientID = "1234567890-abc.apps.googleusercontent.com"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("production rejects weak db password", func(t *testing.T) {
		cfg := base
		cfg.Env = "production"
		cfg.GoogleClientID = "1234567890-abc.apps.googleusercontent.com"
		cfg.DBPassword = "password"
		assert.Error(t, cfg.Validate())
	})
}

func TestEnvHelpers(t *testing.T) {
	assert.True(t, (&Config{Env: "prod"}).IsProduction())
	assert.True(t, (&Config{Env: "production"}).IsProduction())
	assert.False(t, (&Config{Env: "development"}).IsProduction())
	assert.True(t, (&Config{Env: ""}).IsDevelopment())
	assert.False(t, (&Config{Env: "production"}).IsDevelopment())
}
