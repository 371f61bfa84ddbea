// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the application configuration from config.toml with
// SWEEPARR__ environment variable overrides and live reload of dynamic
// settings (log level).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/autobrr/sweeparr/internal/domain"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// SWEEPARR__LOG_LEVEL, SWEEPARR__PLEX_TOKEN, SWEEPARR__DATABASE_PATH.
const envPrefix = "SWEEPARR__"

var configTemplate = `# config.toml - Auto-generated on first run

# Hostname / IP
# Default: "localhost"
host = "{{ .host }}"

# Port
# Default: 7373
port = 7373

# Base url
# Set custom baseUrl eg /sweeparr/ to serve in subdirectory.
# Not needed for subdomain, or by accessing with the :port directly.
# Optional
#baseUrl = "/sweeparr/"

# Log file path
# If not defined, logs to stdout
# Optional
#logPath = "log/sweeparr.log"

# Log level
# Default: "INFO"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "INFO"

# Plex server used for watchlist refresh and playlist protection
#plexUrl = "http://localhost:32400"
#plexToken = ""

# Delete-sync reconciliation policy
[deleteSync]
enabled = false
intervalHours = 24
# Options: "watchlist", "tag"
mode = "watchlist"
deleteMovie = false
deleteEndedShow = false
deleteContinuingShow = false
deleteFiles = true
#removedTagPrefix = "sweeparr:removed"
#requiredTagRegex = ""
trackedOnly = false
playlistProtection = false
protectionPlaylistName = "Do Not Delete"
# Abort a run when more than this percentage of the library would be removed
maxDeletionPrevention = 10
respectUserSyncSetting = true
`

// AppConfig wraps the parsed configuration and the viper instance backing it.
type AppConfig struct {
	Config *domain.Config
	viper  *viper.Viper
	mu     sync.Mutex
}

// New loads the configuration, creating a default config file on first run.
// configPath may be a directory, a file path, or empty for the default
// location.
func New(configPath string, version string) (*AppConfig, error) {
	c := &AppConfig{
		viper: viper.New(),
	}

	c.defaults()
	c.Config.Version = version

	if err := c.load(configPath); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := c.Config.DeleteSync.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *AppConfig) defaults() {
	c.Config = &domain.Config{
		Host:          "localhost",
		Port:          7373,
		LogLevel:      "INFO",
		LogMaxSize:    50,
		LogMaxBackups: 3,
		DeleteSync: domain.DeleteSyncConfig{
			IntervalHours:          24,
			Mode:                   domain.DeleteSyncModeWatchlist,
			DeleteFiles:            true,
			ProtectionPlaylistName: "Do Not Delete",
			MaxDeletionPrevention:  10,
			RespectUserSyncSetting: true,
		},
	}

	c.viper.SetDefault("host", c.Config.Host)
	c.viper.SetDefault("port", c.Config.Port)
	c.viper.SetDefault("logLevel", c.Config.LogLevel)
	c.viper.SetDefault("logMaxSize", c.Config.LogMaxSize)
	c.viper.SetDefault("logMaxBackups", c.Config.LogMaxBackups)
	c.viper.SetDefault("deleteSync.intervalHours", c.Config.DeleteSync.IntervalHours)
	c.viper.SetDefault("deleteSync.mode", c.Config.DeleteSync.Mode)
	c.viper.SetDefault("deleteSync.deleteFiles", c.Config.DeleteSync.DeleteFiles)
	c.viper.SetDefault("deleteSync.protectionPlaylistName", c.Config.DeleteSync.ProtectionPlaylistName)
	c.viper.SetDefault("deleteSync.maxDeletionPrevention", c.Config.DeleteSync.MaxDeletionPrevention)
	c.viper.SetDefault("deleteSync.respectUserSyncSetting", c.Config.DeleteSync.RespectUserSyncSetting)
}

func (c *AppConfig) load(configPath string) error {
	c.viper.SetConfigType("toml")

	switch {
	case configPath != "" && strings.HasSuffix(configPath, ".toml"):
		c.viper.SetConfigFile(configPath)
	case configPath != "":
		c.viper.SetConfigFile(filepath.Join(configPath, "config.toml"))
	default:
		c.viper.SetConfigFile(filepath.Join(getDefaultConfigDir(), "config.toml"))
	}

	if err := c.writeDefaultIfMissing(c.viper.ConfigFileUsed()); err != nil {
		return err
	}

	if err := c.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("config read: %w", err)
	}

	c.bindEnv()

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return fmt.Errorf("config unmarshal: %w", err)
	}

	return nil
}

// bindEnv wires SWEEPARR__ environment variables. Viper's automatic env
// handling does not apply to unmarshal, so each key is bound explicitly.
func (c *AppConfig) bindEnv() {
	bindings := map[string]string{
		"host":                              "HOST",
		"port":                              "PORT",
		"baseUrl":                           "BASE_URL",
		"logLevel":                          "LOG_LEVEL",
		"logPath":                           "LOG_PATH",
		"dataDir":                           "DATA_DIR",
		"databasePath":                      "DATABASE_PATH",
		"plexUrl":                           "PLEX_URL",
		"plexToken":                         "PLEX_TOKEN",
		"deleteSync.enabled":                "DELETE_SYNC_ENABLED",
		"deleteSync.mode":                   "DELETE_SYNC_MODE",
		"deleteSync.deleteMovie":            "DELETE_SYNC_DELETE_MOVIE",
		"deleteSync.deleteEndedShow":        "DELETE_SYNC_DELETE_ENDED_SHOW",
		"deleteSync.deleteContinuingShow":   "DELETE_SYNC_DELETE_CONTINUING_SHOW",
		"deleteSync.deleteFiles":            "DELETE_SYNC_DELETE_FILES",
		"deleteSync.removedTagPrefix":       "DELETE_SYNC_REMOVED_TAG_PREFIX",
		"deleteSync.requiredTagRegex":       "DELETE_SYNC_REQUIRED_TAG_REGEX",
		"deleteSync.trackedOnly":            "DELETE_SYNC_TRACKED_ONLY",
		"deleteSync.playlistProtection":     "DELETE_SYNC_PLAYLIST_PROTECTION",
		"deleteSync.maxDeletionPrevention":  "DELETE_SYNC_MAX_DELETION_PREVENTION",
		"deleteSync.respectUserSyncSetting": "DELETE_SYNC_RESPECT_USER_SYNC_SETTING",
	}

	for key, env := range bindings {
		if err := c.viper.BindEnv(key, envPrefix+env); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("config: failed to bind env var")
		}
	}
}

func (c *AppConfig) writeDefaultIfMissing(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	host := "localhost"
	if _, dockerErr := os.Stat("/.dockerenv"); dockerErr == nil {
		host = "0.0.0.0"
	}

	content := strings.ReplaceAll(configTemplate, "{{ .host }}", host)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	log.Info().Str("path", path).Msg("config: wrote default config file")
	return nil
}

// getDefaultConfigDir resolves the default config directory. In containers
// XDG_CONFIG_HOME=/config is used directly; otherwise the per-OS user config
// directory with a sweeparr subdirectory.
func getDefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if xdg == "/config" {
			return xdg
		}
		return filepath.Join(xdg, "sweeparr")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "sweeparr")
		}
		return filepath.Join(home, "sweeparr")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "sweeparr")
	default:
		return filepath.Join(home, ".config", "sweeparr")
	}
}

// GetDatabasePath returns the SQLite database location: the configured path
// if set, the data dir when configured, otherwise next to the config file.
func (c *AppConfig) GetDatabasePath() string {
	if c.Config.DatabasePath != "" {
		return c.Config.DatabasePath
	}
	if c.Config.DataDir != "" {
		return filepath.Join(c.Config.DataDir, "sweeparr.db")
	}
	return filepath.Join(filepath.Dir(c.viper.ConfigFileUsed()), "sweeparr.db")
}

// WatchConfig reloads dynamic settings when the config file changes on disk.
// Only settings that are safe to change at runtime are applied; the
// delete-sync policy is snapshotted per run and deliberately not hot-swapped.
func (c *AppConfig) WatchConfig() {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Debug().Str("file", e.Name).Msg("config: file changed, reloading dynamic settings")

		c.mu.Lock()
		defer c.mu.Unlock()

		if err := c.viper.ReadInConfig(); err != nil {
			log.Error().Err(err).Msg("config: failed to re-read config file")
			return
		}

		if level := c.viper.GetString("logLevel"); level != c.Config.LogLevel {
			c.Config.LogLevel = level
			setLogLevel(level)
			log.Info().Str("level", level).Msg("config: log level updated")
		}
	})
	c.viper.WatchConfig()
}
