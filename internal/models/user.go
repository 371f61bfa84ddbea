// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package models contains the persistence stores backing sweeparr.
package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/sweeparr/internal/dbinterface"
)

var ErrUserNotFound = errors.New("user not found")

// User is a Plex account whose watchlist feeds the reconciliation universe.
// CanSync gates whether the user's wanted items count when
// respectUserSyncSetting is enabled.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	PlexID    *string   `json:"plex_id,omitempty"`
	CanSync   bool      `json:"can_sync"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserStore manages users in the database.
type UserStore struct {
	db dbinterface.Querier
}

// NewUserStore creates a new UserStore.
func NewUserStore(db dbinterface.Querier) *UserStore {
	return &UserStore{db: db}
}

// List returns all users.
func (s *UserStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, plex_id, can_sync, created_at, updated_at
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.PlexID, &u.CanSync, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// Get returns a single user by id.
func (s *UserStore) Get(ctx context.Context, id int) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, plex_id, can_sync, created_at, updated_at
		FROM users
		WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &u.PlexID, &u.CanSync, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Upsert inserts or updates a user by name, returning its id.
func (s *UserStore) Upsert(ctx context.Context, name string, plexID *string, canSync bool) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("user name cannot be empty")
	}

	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, plex_id, can_sync)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			plex_id = excluded.plex_id,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, name, plexID, canSync).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert user: %w", err)
	}
	return id, nil
}

// SetCanSync toggles a user's sync eligibility.
func (s *UserStore) SetCanSync(ctx context.Context, id int, canSync bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET can_sync = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, canSync, id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}
