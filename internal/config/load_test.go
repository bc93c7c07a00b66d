package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	// Set new environment variables
	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	// Return cleanup function
	return func() {
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

// TestLoadDefaults verifies that Load applies defaults when nothing is configured.
func TestLoadDefaults(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"SCRY_SERVER_PORT":      "",
		"SCRY_SERVER_LOG_LEVEL": "",
		"SCRY_STORAGE_DRIVER":   "",
		"SCRY_STORAGE_DSN":      "",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "flashcards", cfg.Storage.KeyPrefix)
	assert.Equal(t, 20, cfg.Study.BatchSize)
	assert.Equal(t, "Local", cfg.Study.Timezone)
	assert.Equal(t, 5, cfg.Backup.Keep)
}

// TestLoadFromEnv verifies that Load reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"SCRY_SERVER_PORT":        "9090",
		"SCRY_SERVER_LOG_LEVEL":   "debug",
		"SCRY_STORAGE_DRIVER":     "sqlite",
		"SCRY_STORAGE_DSN":        "/tmp/flashcards.db",
		"SCRY_STUDY_BATCH_SIZE":   "30",
		"SCRY_STUDY_TIMEZONE":     "Europe/Berlin",
		"SCRY_BACKUP_KEEP":        "3",
		"SCRY_STORAGE_KEY_PREFIX": "cards-test",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/flashcards.db", cfg.Storage.DSN)
	assert.Equal(t, "cards-test", cfg.Storage.KeyPrefix)
	assert.Equal(t, 30, cfg.Study.BatchSize)
	assert.Equal(t, "Europe/Berlin", cfg.Study.Timezone)
	assert.Equal(t, 3, cfg.Backup.Keep)

	loc, err := cfg.Study.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name: "Invalid port number",
			envVars: map[string]string{
				"SCRY_SERVER_PORT": "999999",
			},
		},
		{
			name: "Invalid log level",
			envVars: map[string]string{
				"SCRY_SERVER_LOG_LEVEL": "verbose",
			},
		},
		{
			name: "Unknown storage driver",
			envVars: map[string]string{
				"SCRY_STORAGE_DRIVER": "mongodb",
			},
		},
		{
			name: "Missing DSN for sqlite",
			envVars: map[string]string{
				"SCRY_STORAGE_DRIVER": "sqlite",
				"SCRY_STORAGE_DSN":    "",
			},
		},
		{
			name: "Batch size out of range",
			envVars: map[string]string{
				"SCRY_STUDY_BATCH_SIZE": "0",
			},
		},
		{
			name: "Unknown timezone",
			envVars: map[string]string{
				"SCRY_STUDY_TIMEZONE": "Mars/Olympus_Mons",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanup := setupEnv(t, tc.envVars)
			defer cleanup()

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadWithFlags(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"SCRY_SERVER_PORT": "9090",
	})
	defer cleanup()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--port", "7070", "--storage-driver", "redis", "--storage-dsn", "redis://localhost:6379/0"}))

	cfg, err := LoadWithFlags(fs)

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port, "explicit flag should win over environment")
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Server.LogLevel, "unset flag should fall back to defaults")
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scry.yaml")
	content := []byte("server:\n  port: 6060\nstudy:\n  batch_size: 15\nbackup:\n  keep: 2\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path}))

	cfg, err := LoadWithFlags(fs)

	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Study.BatchSize)
	assert.Equal(t, 2, cfg.Backup.Keep)
}

func TestLoadFromEnvFile(t *testing.T) {
	original, had := os.LookupEnv("SCRY_SERVER_LOG_LEVEL")
	require.NoError(t, os.Unsetenv("SCRY_SERVER_LOG_LEVEL"))
	t.Cleanup(func() {
		if had {
			os.Setenv("SCRY_SERVER_LOG_LEVEL", original)
		} else {
			os.Unsetenv("SCRY_SERVER_LOG_LEVEL")
		}
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SCRY_SERVER_LOG_LEVEL=warn\n"), 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--env-file", path}))

	cfg, err := LoadWithFlags(fs)

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
}
