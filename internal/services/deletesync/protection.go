// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deletesync

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/sweeparr/internal/guid"
	"github.com/autobrr/sweeparr/internal/plex"
)

// PlaylistClient is the subset of the Plex client used for playlist
// protection.
type PlaylistClient interface {
	ListPlaylists(ctx context.Context) ([]plex.Playlist, error)
	CreatePlaylist(ctx context.Context, title string) (*plex.Playlist, error)
	GetPlaylistItemGuids(ctx context.Context, ratingKey string) ([]string, error)
}

// buildProtectedGuidSet unions the GUIDs of every playlist named like the
// protection playlist. A missing playlist is created even under dry-run:
// the protection mechanism has to exist before users can rely on it, and
// creating an empty playlist deletes nothing.
func buildProtectedGuidSet(ctx context.Context, client PlaylistClient, playlistName string) (guid.Set, error) {
	playlistName = strings.TrimSpace(playlistName)
	if playlistName == "" {
		return guid.NewSet(), nil
	}

	playlists, err := client.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list protection playlists: %w", err)
	}

	var matched []plex.Playlist
	for _, p := range playlists {
		if strings.EqualFold(strings.TrimSpace(p.Title), playlistName) {
			matched = append(matched, p)
		}
	}

	if len(matched) == 0 {
		created, err := client.CreatePlaylist(ctx, playlistName)
		if err != nil {
			return nil, fmt.Errorf("create protection playlist: %w", err)
		}
		log.Info().Str("playlist", playlistName).Msg("deletesync: created missing protection playlist")
		matched = append(matched, *created)
	}

	protected := guid.NewSet()
	for _, p := range matched {
		guids, err := client.GetPlaylistItemGuids(ctx, p.RatingKey)
		if err != nil {
			return nil, fmt.Errorf("read protection playlist %q: %w", p.Title, err)
		}
		for _, g := range guids {
			protected.Add(g)
		}
	}

	log.Debug().Int("guids", protected.Len()).Str("playlist", playlistName).Msg("deletesync: built protected guid set")
	return protected, nil
}
