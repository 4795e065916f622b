package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/studyhaven")
	t.Setenv("APP_ENV", "development")
	for _, key := range []string{"PORT", "SHUTDOWN_TIMEOUT", "REDIS_ADDR", "S3_PRESIGN_TTL", "AI_RATE_PER_MINUTE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Storage.PresignTTL)
	assert.Equal(t, 10, cfg.AI.RatePerMinute)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/studyhaven")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("AUTH_DEV_MODE", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Firebase.DevAuth)
	assert.Equal(t, 10, cfg.Database.MaxConns, "invalid integers fall back to the default")
}

func TestValidate(t *testing.T) {
	t.Run("requires dsn", func(t *testing.T) {
		cfg := &Config{Server: ServerConfig{Port: "8080"}}
		assert.EqualError(t, cfg.Validate(), "DB_DSN is required")
	})

	t.Run("production needs firebase credentials", func(t *testing.T) {
		cfg := &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{DSN: "postgres://x"},
			App:      AppConfig{Environment: "production"},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("production rejects dev auth", func(t *testing.T) {
		cfg := &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{DSN: "postgres://x"},
			Firebase: FirebaseConfig{CredentialsPath: "/etc/firebase.json", DevAuth: true},
			App:      AppConfig{Environment: "production"},
		}
		assert.EqualError(t, cfg.Validate(), "AUTH_DEV_MODE must be disabled in production")
	})
}
