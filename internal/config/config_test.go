package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := FromViper(NewViper())

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "cashbook-api", cfg.JWTIssuer)
		assert.Equal(t, 24*time.Hour, cfg.JWTExpirationDur)
		assert.Equal(t, 50, cfg.DBMaxOpenConns)
		assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
		assert.Empty(t, cfg.ServiceAPIKey)
	})

	t.Run("environment_overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("JWT_EXPIRES_IN", "2h")
		t.Setenv("TIMEZONE", "UTC")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
		t.Setenv("DB_MAX_OPEN_CONNS", "7")

		cfg := FromViper(NewViper())

		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, 2*time.Hour, cfg.JWTExpirationDur)
		require.NotNil(t, cfg.Timezone)
		assert.Equal(t, "UTC", cfg.Timezone.String())
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
		assert.Equal(t, 7, cfg.DBMaxOpenConns)
	})

	t.Run("invalid_values_fall_back", func(t *testing.T) {
		t.Setenv("JWT_EXPIRES_IN", "soon")
		t.Setenv("TIMEZONE", "Nowhere/Special")

		cfg := FromViper(NewViper())

		assert.Equal(t, 24*time.Hour, cfg.JWTExpirationDur)
		assert.Equal(t, time.UTC, cfg.Timezone)
	})
}
