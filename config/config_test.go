package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvClientDefaults(t *testing.T) {
	t.Setenv("REVIEWS_SERVER_URL", "https://api.example.com")
	t.Setenv("REVIEWS_USER_ID", "u1")

	var cfg Client
	require.NoError(t, ParseEnv(&cfg))

	assert.Equal(t, "https://api.example.com", cfg.ServerURL)
	assert.Equal(t, "u1", cfg.UserID)
	assert.Equal(t, "http://localhost:3000", cfg.Origin)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestParseEnvInvalidDuration(t *testing.T) {
	t.Setenv("REVIEWS_TIMEOUT", "soon")

	var cfg Client
	err := ParseEnv(&cfg)
	assert.ErrorContains(t, err, "parse env")
}

func TestServerDSN(t *testing.T) {
	cfg := Server{DBUser: "app", DBPassword: "pw", DBHost: " db ", DBPort: "5432", DBName: "reviews", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://app:pw@db:5432/reviews?sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", cfg.DSN())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REVIEWS_DOTENV_MARKER=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("REVIEWS_DOTENV_MARKER") })

	assert.True(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("REVIEWS_DOTENV_MARKER"))
	assert.False(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
