// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabasePathConfiguration(t *testing.T) {
	tests := []struct {
		name           string
		configContent  string
		envVars        map[string]string
		expectedDBPath string
	}{
		{
			name: "default_behavior_db_next_to_config",
			configContent: `
host = "localhost"
port = 7373
logLevel = "INFO"
`,
			expectedDBPath: "sweeparr.db",
		},
		{
			name: "explicit_path_in_config",
			configContent: `
host = "localhost"
port = 7373
databasePath = "/data/custom.db"
`,
			expectedDBPath: "/data/custom.db",
		},
		{
			name: "explicit_path_via_env_var",
			configContent: `
host = "localhost"
port = 7373
`,
			envVars: map[string]string{
				"SWEEPARR__DATABASE_PATH": "/var/db/sweeparr/sweeparr.db",
			},
			expectedDBPath: "/var/db/sweeparr/sweeparr.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.toml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.configContent), 0o644))

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := New(configPath, "test")
			require.NoError(t, err)
			require.NotNil(t, cfg)

			assert.Contains(t, cfg.GetDatabasePath(), tt.expectedDBPath)
		})
	}
}

func TestConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
host = "localhost"
port = 7373
databasePath = "/config/file/path.db"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	t.Setenv("SWEEPARR__DATABASE_PATH", "/env/var/path.db")

	cfg, err := New(configPath, "test")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/env/var/path.db", cfg.GetDatabasePath(), "environment variable should override config file")
}

func TestDefaultConfigWrittenOnFirstRun(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	cfg, err := New(configPath, "test")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[deleteSync]")

	// Defaults from the template
	assert.Equal(t, 7373, cfg.Config.Port)
	assert.Equal(t, "watchlist", cfg.Config.DeleteSync.NormalizedMode())
	assert.Equal(t, 10, cfg.Config.DeleteSync.MaxDeletionPrevention)
	assert.False(t, cfg.Config.DeleteSync.Enabled)
}

func TestDeleteSyncConfigValidation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
host = "localhost"
port = 7373

[deleteSync]
mode = "nonsense"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	_, err := New(configPath, "test")
	require.Error(t, err)
}

func TestDeleteSyncEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
host = "localhost"
port = 7373

[deleteSync]
enabled = false
deleteMovie = false
maxDeletionPrevention = 10
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	t.Setenv("SWEEPARR__DELETE_SYNC_ENABLED", "true")
	t.Setenv("SWEEPARR__DELETE_SYNC_DELETE_MOVIE", "true")
	t.Setenv("SWEEPARR__DELETE_SYNC_MAX_DELETION_PREVENTION", "25")

	cfg, err := New(configPath, "test")
	require.NoError(t, err)

	assert.True(t, cfg.Config.DeleteSync.Enabled)
	assert.True(t, cfg.Config.DeleteSync.DeleteMovie)
	assert.Equal(t, 25, cfg.Config.DeleteSync.MaxDeletionPrevention)
}

func TestDockerEnvironmentCompatibility(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/config")

	assert.Equal(t, "/config", getDefaultConfigDir(), "Docker environment should use /config directly")
}
