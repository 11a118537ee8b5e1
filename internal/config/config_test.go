package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terminal-bench/capacities/internal/models"
)

func TestConfigLoading(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 100, cfg.RateLimitRPS)
		assert.Equal(t, 200, cfg.RateLimitBurst)
		assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
		assert.Empty(t, cfg.AllowedOrigins)
		assert.False(t, cfg.Debug)
	})

	t.Run("should use environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("RATE_LIMIT_RPS", "20")
		t.Setenv("SHUTDOWN_TIMEOUT", "250ms")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 20, cfg.RateLimitRPS)
		assert.Equal(t, 40, cfg.RateLimitBurst)
		assert.Equal(t, 250*time.Millisecond, cfg.ShutdownTimeout)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	})

	t.Run("should allow every origin in debug mode", func(t *testing.T) {
		t.Setenv("DEBUG", "true")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Debug)
		assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	})
}

func TestConfigEnvParsing(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"RATE_LIMIT_RPS", "fast"},
		{"RATE_LIMIT_RPS", "-1"},
		{"RATE_LIMIT_BURST", "1.5"},
		{"SHUTDOWN_TIMEOUT", "5"},
		{"DEBUG", "yes please"},
	}

	for _, tt := range tests {
		t.Run("should reject "+tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("should ignore a missing file", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("should load variables from the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("CAPACITIES_TEST_VAR=from-file\n"), 0o600))
		t.Setenv("CAPACITIES_TEST_VAR", "")
		os.Unsetenv("CAPACITIES_TEST_VAR")

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-file", os.Getenv("CAPACITIES_TEST_VAR"))
	})

	t.Run("should not override the environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("CAPACITIES_TEST_VAR=from-file\n"), 0o600))
		t.Setenv("CAPACITIES_TEST_VAR", "from-env")

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-env", os.Getenv("CAPACITIES_TEST_VAR"))
	})
}

func TestSeed(t *testing.T) {
	writeSeed := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "seed.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("should default to the built-in capacities", func(t *testing.T) {
		seed, err := (&Config{}).Seed()
		require.NoError(t, err)
		assert.Equal(t, models.DefaultCapacities(), seed)
	})

	t.Run("should load capacities from a seed file", func(t *testing.T) {
		path := writeSeed(t, "- id: 10\n  label: Flight\n- id: 3\n  label: Sweet\n")
		seed, err := (&Config{SeedFile: path}).Seed()
		require.NoError(t, err)
		assert.Equal(t, []models.Capacity{{ID: 10, Label: "Flight"}, {ID: 3, Label: "Sweet"}}, seed)
	})

	t.Run("should accept an empty seed file", func(t *testing.T) {
		seed, err := LoadSeed(writeSeed(t, ""))
		require.NoError(t, err)
		assert.NotNil(t, seed)
		assert.Empty(t, seed)
	})

	t.Run("should reject duplicate ids", func(t *testing.T) {
		_, err := LoadSeed(writeSeed(t, "- {id: 1, label: a}\n- {id: 1, label: b}\n"))
		assert.ErrorContains(t, err, "duplicate id 1")
	})

	t.Run("should reject empty labels", func(t *testing.T) {
		_, err := LoadSeed(writeSeed(t, "- id: 1\n"))
		assert.ErrorContains(t, err, "label is required")
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		_, err := LoadSeed(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
