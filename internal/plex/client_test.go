// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package plex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return &Client{
		serverURL:    serverURL,
		discoverHost: serverURL,
		plexTVHost:   serverURL,
		token:        "owner-token",
		httpClient:   &http.Client{},
		userAgent:    "sweeparr-test",
	}
}

func TestGetSelfWatchlist(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/library/sections/watchlist/all", r.URL.Path)
		require.Equal(t, "owner-token", r.Header.Get("X-Plex-Token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"MediaContainer":{"Metadata":[
			{"title":"Fight Club","type":"movie","Guid":[{"id":"tmdb://550"},{"id":"imdb://tt0137523"}]},
			{"title":"Severance","type":"show","Guid":[{"id":"tvdb://371980"}]}
		]}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	entries, err := client.GetSelfWatchlist(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Fight Club", entries[0].Title)
	assert.Equal(t, "movie", entries[0].Type)
	assert.Equal(t, []string{"tmdb://550", "imdb://tt0137523"}, entries[0].Guids)

	assert.Equal(t, "show", entries[1].Type)
}

func TestGetWatchlistRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"MediaContainer":{"Metadata":[]}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	entries, err := client.GetSelfWatchlist(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 2, calls)
}

func TestListPlaylistsAndItems(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/playlists":
			w.Write([]byte(`{"MediaContainer":{"Metadata":[{"ratingKey":"41","title":"Do Not Delete"}]}}`))
		case "/playlists/41/items":
			w.Write([]byte(`{"MediaContainer":{"Metadata":[
				{"title":"Heat","type":"movie","Guid":[{"id":"tmdb://949"}]}
			]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	playlists, err := client.ListPlaylists(ctx)
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, "Do Not Delete", playlists[0].Title)

	guids, err := client.GetPlaylistItemGuids(ctx, playlists[0].RatingKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmdb://949"}, guids)
}

func TestSwitchHomeUser(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v2/home/users/uuid-1/switch", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"authToken":"user-token"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	token, err := client.SwitchHomeUser(context.Background(), "uuid-1")
	require.NoError(t, err)
	assert.Equal(t, "user-token", token)
}
