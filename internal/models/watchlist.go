// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/sweeparr/internal/dbinterface"
)

// WatchlistItemType discriminates movie and show watchlist rows.
type WatchlistItemType string

const (
	WatchlistItemTypeMovie WatchlistItemType = "movie"
	WatchlistItemTypeShow  WatchlistItemType = "show"
)

// WatchlistItem is one wanted title for one user. RawGuids carries the stored
// guids column verbatim; it may be a JSON array or a JSON-string-encoded
// array on legacy rows, so consumers decode it with guid.ParseFlexible.
type WatchlistItem struct {
	ID        int               `json:"id"`
	UserID    int               `json:"user_id"`
	Title     string            `json:"title"`
	Type      WatchlistItemType `json:"type"`
	RawGuids  string            `json:"guids"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// WatchlistStore manages watchlist items in the database.
type WatchlistStore struct {
	db dbinterface.Querier
}

// NewWatchlistStore creates a new WatchlistStore.
func NewWatchlistStore(db dbinterface.Querier) *WatchlistStore {
	return &WatchlistStore{db: db}
}

// GetAllMovieItems returns every movie watchlist row across all users.
func (s *WatchlistStore) GetAllMovieItems(ctx context.Context) ([]*WatchlistItem, error) {
	return s.listByType(ctx, WatchlistItemTypeMovie)
}

// GetAllShowItems returns every show watchlist row across all users.
func (s *WatchlistStore) GetAllShowItems(ctx context.Context) ([]*WatchlistItem, error) {
	return s.listByType(ctx, WatchlistItemTypeShow)
}

func (s *WatchlistStore) listByType(ctx context.Context, itemType WatchlistItemType) ([]*WatchlistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, type, guids, created_at, updated_at
		FROM watchlist_items
		WHERE type = ?
		ORDER BY id
	`, itemType)
	if err != nil {
		return nil, fmt.Errorf("list watchlist items: %w", err)
	}
	defer rows.Close()

	var items []*WatchlistItem
	for rows.Next() {
		var item WatchlistItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.Type, &item.RawGuids, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// ReplaceForUser atomically replaces one user's watchlist rows of the given
// type with the refreshed snapshot. Guids are stored as a JSON array.
func (s *WatchlistStore) ReplaceForUser(ctx context.Context, tx dbinterface.Querier, userID int, itemType WatchlistItemType, items []WatchlistItem) error {
	q := s.db
	if tx != nil {
		q = tx
	}

	if _, err := q.ExecContext(ctx, `
		DELETE FROM watchlist_items WHERE user_id = ? AND type = ?
	`, userID, itemType); err != nil {
		return fmt.Errorf("clear watchlist items: %w", err)
	}

	for i := range items {
		item := &items[i]
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		rawGuids := item.RawGuids
		if rawGuids == "" {
			rawGuids = "[]"
		}

		if _, err := q.ExecContext(ctx, `
			INSERT INTO watchlist_items (user_id, title, type, guids)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, type, title) DO UPDATE SET
				guids = excluded.guids,
				updated_at = CURRENT_TIMESTAMP
		`, userID, title, itemType, rawGuids); err != nil {
			return fmt.Errorf("insert watchlist item %q: %w", title, err)
		}
	}
	return nil
}

// EncodeGuids marshals a GUID list for storage.
func EncodeGuids(guids []string) (string, error) {
	if guids == nil {
		guids = []string{}
	}
	data, err := json.Marshal(guids)
	if err != nil {
		return "", fmt.Errorf("encode guids: %w", err)
	}
	return string(data), nil
}

// ApprovalStore reads the approval-tracking table used by tracked-only
// delete-sync.
type ApprovalStore struct {
	db dbinterface.Querier
}

// NewApprovalStore creates a new ApprovalStore.
func NewApprovalStore(db dbinterface.Querier) *ApprovalStore {
	return &ApprovalStore{db: db}
}

// GetApprovedGuidPayloads returns the raw guids column of every approved
// request. Each payload may be a JSON array or a legacy JSON-string-encoded
// array.
func (s *ApprovalStore) GetApprovedGuidPayloads(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guids FROM approvals WHERE status = 'approved'
	`)
	if err != nil {
		return nil, fmt.Errorf("list approved guids: %w", err)
	}
	defer rows.Close()

	var payloads []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan approval guids: %w", err)
		}
		payloads = append(payloads, raw)
	}
	return payloads, rows.Err()
}

// Create inserts an approval request. Used by tests and the request flow.
func (s *ApprovalStore) Create(ctx context.Context, userID *int, title string, rawGuids, status string) (int, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, errors.New("approval title cannot be empty")
	}
	if rawGuids == "" {
		rawGuids = "[]"
	}

	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO approvals (user_id, title, guids, status)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, userID, title, rawGuids, status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create approval: %w", err)
	}
	return id, nil
}
