// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"strings"
)

// Config represents the application configuration
type Config struct {
	Version       string
	Host          string `toml:"host" mapstructure:"host"`
	Port          int    `toml:"port" mapstructure:"port"`
	BaseURL       string `toml:"baseUrl" mapstructure:"baseUrl"`
	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir       string `toml:"dataDir" mapstructure:"dataDir"`
	DatabasePath  string `toml:"databasePath" mapstructure:"databasePath"`

	// Plex connection used for watchlist refresh and playlist protection.
	PlexURL   string `toml:"plexUrl" mapstructure:"plexUrl"`
	PlexToken string `toml:"plexToken" mapstructure:"plexToken"`

	// DeleteSync holds the reconciliation policy. The engine snapshots it at
	// run start so a config reload never shifts policy mid-reconciliation.
	DeleteSync DeleteSyncConfig `toml:"deleteSync" mapstructure:"deleteSync"`

	// NotificationURLs are shoutrrr URLs (discord://, generic webhook, ...).
	NotificationURLs []string `toml:"notificationUrls" mapstructure:"notificationUrls"`
}

// DeleteSyncConfig is the delete-sync reconciliation policy.
type DeleteSyncConfig struct {
	Enabled                bool   `toml:"enabled" mapstructure:"enabled"`
	IntervalHours          int    `toml:"intervalHours" mapstructure:"intervalHours"`
	Mode                   string `toml:"mode" mapstructure:"mode"` // "watchlist" or "tag"
	DeleteMovie            bool   `toml:"deleteMovie" mapstructure:"deleteMovie"`
	DeleteEndedShow        bool   `toml:"deleteEndedShow" mapstructure:"deleteEndedShow"`
	DeleteContinuingShow   bool   `toml:"deleteContinuingShow" mapstructure:"deleteContinuingShow"`
	DeleteFiles            bool   `toml:"deleteFiles" mapstructure:"deleteFiles"`
	RemovedTagPrefix       string `toml:"removedTagPrefix" mapstructure:"removedTagPrefix"`
	RequiredTagRegex       string `toml:"requiredTagRegex" mapstructure:"requiredTagRegex"`
	TrackedOnly            bool   `toml:"trackedOnly" mapstructure:"trackedOnly"`
	PlaylistProtection     bool   `toml:"playlistProtection" mapstructure:"playlistProtection"`
	ProtectionPlaylistName string `toml:"protectionPlaylistName" mapstructure:"protectionPlaylistName"`
	MaxDeletionPrevention  int    `toml:"maxDeletionPrevention" mapstructure:"maxDeletionPrevention"`
	RespectUserSyncSetting bool   `toml:"respectUserSyncSetting" mapstructure:"respectUserSyncSetting"`
}

// DeleteSyncMode values accepted for DeleteSyncConfig.Mode.
const (
	DeleteSyncModeWatchlist = "watchlist"
	DeleteSyncModeTag       = "tag"
)

var ErrInvalidDeleteSyncMode = errors.New("deleteSync.mode must be 'watchlist' or 'tag'")

// Validate checks the delete-sync policy for configuration errors.
func (c *DeleteSyncConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "", DeleteSyncModeWatchlist, DeleteSyncModeTag:
	default:
		return ErrInvalidDeleteSyncMode
	}
	if c.MaxDeletionPrevention < 0 || c.MaxDeletionPrevention > 100 {
		return errors.New("deleteSync.maxDeletionPrevention must be between 0 and 100")
	}
	return nil
}

// NormalizedMode returns the delete-sync mode with the default applied.
func (c *DeleteSyncConfig) NormalizedMode() string {
	mode := strings.ToLower(strings.TrimSpace(c.Mode))
	if mode == "" {
		return DeleteSyncModeWatchlist
	}
	return mode
}
