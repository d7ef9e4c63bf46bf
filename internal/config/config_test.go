package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10, cfg.MaxUploadMB)
	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.NotEmpty(t, cfg.AllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MAX_UPLOAD_MB", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, 25, cfg.MaxUploadMB)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
