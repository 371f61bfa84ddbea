// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package plex

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/sweeparr/internal/guid"
	"github.com/autobrr/sweeparr/internal/models"
)

// ownerUserName is the store row representing the server owner's watchlist.
const ownerUserName = "owner"

// WatchlistRefresher pulls watchlists from Plex and persists them, so a
// reconciliation run always works from a fresh snapshot.
type WatchlistRefresher struct {
	client    *Client
	users     *models.UserStore
	watchlist *models.WatchlistStore
}

// NewWatchlistRefresher creates a new WatchlistRefresher.
func NewWatchlistRefresher(client *Client, users *models.UserStore, watchlist *models.WatchlistStore) *WatchlistRefresher {
	return &WatchlistRefresher{
		client:    client,
		users:     users,
		watchlist: watchlist,
	}
}

// RefreshSelf replaces the owner's stored watchlist with the live one.
func (r *WatchlistRefresher) RefreshSelf(ctx context.Context) error {
	entries, err := r.client.GetSelfWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("refresh self watchlist: %w", err)
	}

	userID, err := r.users.Upsert(ctx, ownerUserName, nil, true)
	if err != nil {
		return err
	}

	if err := r.persist(ctx, userID, entries); err != nil {
		return err
	}

	log.Debug().Int("items", len(entries)).Msg("plex: refreshed self watchlist")
	return nil
}

// RefreshOthers replaces the stored watchlists of all Plex Home users with
// their live ones. Users are created on first sight with sync enabled; an
// operator can disable individual users afterwards.
func (r *WatchlistRefresher) RefreshOthers(ctx context.Context) error {
	homeUsers, err := r.client.GetHomeUsers(ctx)
	if err != nil {
		return fmt.Errorf("refresh others watchlists: %w", err)
	}

	for _, hu := range homeUsers {
		if hu.Admin {
			// The admin account is the owner, covered by RefreshSelf.
			continue
		}

		token, err := r.client.SwitchHomeUser(ctx, hu.UUID)
		if err != nil {
			return fmt.Errorf("user %q: %w", hu.Title, err)
		}

		entries, err := r.client.GetUserWatchlist(ctx, token)
		if err != nil {
			return fmt.Errorf("user %q: %w", hu.Title, err)
		}

		plexID := hu.UUID
		userID, err := r.users.Upsert(ctx, hu.Title, &plexID, true)
		if err != nil {
			return err
		}

		if err := r.persist(ctx, userID, entries); err != nil {
			return err
		}

		log.Debug().Str("user", hu.Title).Int("items", len(entries)).Msg("plex: refreshed user watchlist")
	}
	return nil
}

func (r *WatchlistRefresher) persist(ctx context.Context, userID int, entries []WatchlistEntry) error {
	var movies, shows []models.WatchlistItem

	for _, e := range entries {
		rawGuids, err := models.EncodeGuids(guid.NormalizeAll(e.Guids))
		if err != nil {
			return err
		}

		item := models.WatchlistItem{
			Title:    e.Title,
			RawGuids: rawGuids,
		}

		switch e.Type {
		case "movie":
			item.Type = models.WatchlistItemTypeMovie
			movies = append(movies, item)
		case "show":
			item.Type = models.WatchlistItemTypeShow
			shows = append(shows, item)
		default:
			log.Debug().Str("type", e.Type).Str("title", e.Title).Msg("plex: skipping unsupported watchlist entry type")
		}
	}

	if err := r.watchlist.ReplaceForUser(ctx, nil, userID, models.WatchlistItemTypeMovie, movies); err != nil {
		return err
	}
	return r.watchlist.ReplaceForUser(ctx, nil, userID, models.WatchlistItemTypeShow, shows)
}
