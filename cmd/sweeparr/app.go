// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/autobrr/sweeparr/internal/arr"
	"github.com/autobrr/sweeparr/internal/buildinfo"
	"github.com/autobrr/sweeparr/internal/config"
	"github.com/autobrr/sweeparr/internal/crypto"
	"github.com/autobrr/sweeparr/internal/database"
	"github.com/autobrr/sweeparr/internal/domain"
	"github.com/autobrr/sweeparr/internal/models"
	"github.com/autobrr/sweeparr/internal/plex"
	"github.com/autobrr/sweeparr/internal/services/deletesync"
	"github.com/autobrr/sweeparr/internal/services/notifications"
)

// application holds the wired service graph shared by the serve and one-shot
// commands.
type application struct {
	cfg *config.AppConfig
	db  *database.DB

	users     *models.UserStore
	watchlist *models.WatchlistStore
	approvals *models.ApprovalStore
	instances *models.ArrInstanceStore

	plexClient *plex.Client
	notifier   *notifications.Service
	deleteSync *deletesync.Service
}

func newApplication(configPath string) (*application, error) {
	cfg, err := config.New(configPath, buildinfo.Version)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	config.InitLogger(cfg.Config)

	if err := cfg.Config.DeleteSync.Validate(); err != nil {
		return nil, err
	}

	dbPath := cfg.GetDatabasePath()
	db, err := database.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	encryptionKey, err := loadOrCreateEncryptionKey(filepath.Join(filepath.Dir(dbPath), "sweeparr.key"))
	if err != nil {
		db.Close()
		return nil, err
	}

	app := &application{cfg: cfg, db: db}

	app.users = models.NewUserStore(db)
	app.watchlist = models.NewWatchlistStore(db)
	app.approvals = models.NewApprovalStore(db)

	app.instances, err = models.NewArrInstanceStore(db, encryptionKey)
	if err != nil {
		db.Close()
		return nil, err
	}

	app.plexClient = plex.NewClient(plex.Config{
		ServerURL: cfg.Config.PlexURL,
		Token:     cfg.Config.PlexToken,
		UserAgent: buildinfo.UserAgent,
	})

	app.notifier = notifications.NewService(cfg.Config.NotificationURLs)

	refresher := plex.NewWatchlistRefresher(app.plexClient, app.users, app.watchlist)
	sonarrManager := arr.NewSonarrManager(app.instances, buildinfo.UserAgent)
	radarrManager := arr.NewRadarrManager(app.instances, buildinfo.UserAgent)

	app.deleteSync = deletesync.NewService(
		deletesync.DefaultConfig(),
		app.policySource,
		app.watchlist,
		app.users,
		app.approvals,
		refresher,
		sonarrManager,
		radarrManager,
		app.plexClient,
		notifierOrNil(app.notifier),
	)

	return app, nil
}

// policySource returns the live policy; the engine snapshots it per run.
func (a *application) policySource() domain.DeleteSyncConfig {
	return a.cfg.Config.DeleteSync
}

func (a *application) Close() error {
	return a.db.Close()
}

// notifierOrNil converts a nil *Service into a nil interface so the engine's
// nil check works.
func notifierOrNil(n *notifications.Service) deletesync.Notifier {
	if n == nil {
		return nil
	}
	return n
}

// loadOrCreateEncryptionKey reads the 32-byte hex-encoded key protecting API
// keys at rest, generating one on first run.
func loadOrCreateEncryptionKey(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		key, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode encryption key %s: %w", path, err)
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read encryption key: %w", err)
	}

	token, err := crypto.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate encryption key: %w", err)
	}

	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write encryption key: %w", err)
	}

	key, err := hex.DecodeString(token)
	if err != nil {
		return nil, err
	}
	return key, nil
}
