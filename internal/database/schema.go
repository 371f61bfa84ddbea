// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

// schema is the single-version bootstrap schema. Watchlist rows are written
// by the Plex refresh and read by the delete-sync engine; guids is stored as
// a JSON array, but historical rows may hold a JSON-string-encoded array, so
// readers must parse defensively.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	plex_id TEXT,
	can_sync BOOLEAN NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS watchlist_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('movie', 'show')),
	guids TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, type, title)
);

CREATE INDEX IF NOT EXISTS idx_watchlist_items_user ON watchlist_items(user_id);
CREATE INDEX IF NOT EXISTS idx_watchlist_items_type ON watchlist_items(type);

CREATE TABLE IF NOT EXISTS arr_instances (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL CHECK (type IN ('sonarr', 'radarr')),
	name TEXT NOT NULL UNIQUE,
	base_url TEXT NOT NULL,
	api_key_encrypted TEXT NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT 1,
	timeout_seconds INTEGER NOT NULL DEFAULT 30,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS approvals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
	title TEXT NOT NULL,
	guids TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_approvals_status ON approvals(status);
`
