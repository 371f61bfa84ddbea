// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/sweeparr/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "sweeparr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserStoreUpsertAndList(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	id, err := store.Upsert(ctx, "alice", nil, true)
	require.NoError(t, err)
	require.NotZero(t, id)

	// Upserting the same name keeps the same row.
	again, err := store.Upsert(ctx, "alice", nil, true)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = store.Upsert(ctx, "bob", nil, false)
	require.NoError(t, err)

	users, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[0].CanSync)
	assert.False(t, users[1].CanSync)
}

func TestUserStoreSetCanSync(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	id, err := store.Upsert(ctx, "alice", nil, true)
	require.NoError(t, err)

	require.NoError(t, store.SetCanSync(ctx, id, false))

	u, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, u.CanSync)

	assert.ErrorIs(t, store.SetCanSync(ctx, 9999, true), ErrUserNotFound)
}

func TestWatchlistStoreReplaceForUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	users := NewUserStore(db)
	store := NewWatchlistStore(db)
	ctx := context.Background()

	userID, err := users.Upsert(ctx, "alice", nil, true)
	require.NoError(t, err)

	err = store.ReplaceForUser(ctx, nil, userID, WatchlistItemTypeMovie, []WatchlistItem{
		{Title: "Fight Club", RawGuids: `["tmdb://550"]`},
		{Title: "Heat", RawGuids: `["tmdb://949"]`},
	})
	require.NoError(t, err)

	items, err := store.GetAllMovieItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Fight Club", items[0].Title)
	assert.Equal(t, `["tmdb://550"]`, items[0].RawGuids)

	// Replacing drops rows no longer present.
	err = store.ReplaceForUser(ctx, nil, userID, WatchlistItemTypeMovie, []WatchlistItem{
		{Title: "Heat", RawGuids: `["tmdb://949"]`},
	})
	require.NoError(t, err)

	items, err = store.GetAllMovieItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Heat", items[0].Title)

	shows, err := store.GetAllShowItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, shows)
}

func TestApprovalStoreApprovedGuids(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewApprovalStore(db)
	ctx := context.Background()

	_, err := store.Create(ctx, nil, "Fight Club", `["tmdb://550"]`, "approved")
	require.NoError(t, err)
	_, err = store.Create(ctx, nil, "Heat", `["tmdb://949"]`, "pending")
	require.NoError(t, err)

	payloads, err := store.GetApprovedGuidPayloads(ctx)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	assert.Equal(t, `["tmdb://550"]`, payloads[0])
}

func TestArrInstanceStoreRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	key := make([]byte, 32)
	copy(key, []byte("0123456789abcdef0123456789abcdef"))

	store, err := NewArrInstanceStore(db, key)
	require.NoError(t, err)
	ctx := context.Background()

	inst, err := store.Create(ctx, ArrInstanceTypeRadarr, "radarr-main", "http://localhost:7878/", "secret-key", true, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7878", inst.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 30, inst.TimeoutSeconds, "default timeout applied")
	assert.NotEqual(t, "secret-key", inst.APIKeyEncrypted)

	apiKey, err := store.GetAPIKey(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", apiKey)

	enabled, err := store.ListEnabled(ctx, ArrInstanceTypeRadarr)
	require.NoError(t, err)
	require.Len(t, enabled, 1)

	none, err := store.ListEnabled(ctx, ArrInstanceTypeSonarr)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseArrInstanceType(t *testing.T) {
	t.Parallel()

	typ, err := ParseArrInstanceType("Sonarr")
	require.NoError(t, err)
	assert.Equal(t, ArrInstanceTypeSonarr, typ)

	_, err = ParseArrInstanceType("lidarr")
	require.Error(t, err)
}
