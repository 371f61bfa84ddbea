// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package plex provides the Plex API wrapper used by delete-sync: watchlist
// reads for the server owner and home users, and playlist operations for the
// do-not-delete protection mechanism.
package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

const (
	// discoverHost serves watchlist metadata for plex.tv accounts.
	discoverHost = "https://metadata.provider.plex.tv"
	// plexTVHost serves account and home-user management.
	plexTVHost = "https://plex.tv"
)

// Config holds the options for constructing a Client.
type Config struct {
	// ServerURL is the local Plex media server, used for playlists.
	ServerURL string
	// Token is the server owner's X-Plex-Token.
	Token      string
	Timeout    int
	HTTPClient *http.Client
	UserAgent  string
}

// Client provides a minimal Plex API wrapper.
type Client struct {
	serverURL    string
	discoverHost string
	plexTVHost   string
	token        string
	httpClient   *http.Client
	userAgent    string
}

// NewClient constructs a new Client using the provided configuration.
func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = "sweeparr"
	}

	return &Client{
		serverURL:    strings.TrimRight(cfg.ServerURL, "/"),
		discoverHost: discoverHost,
		plexTVHost:   plexTVHost,
		token:        cfg.Token,
		httpClient:   client,
		userAgent:    ua,
	}
}

// WatchlistEntry is one wanted title from a Plex watchlist.
type WatchlistEntry struct {
	Title string
	Type  string // "movie" or "show"
	Guids []string
}

// HomeUser is a managed user on the server owner's Plex Home.
type HomeUser struct {
	ID       int64  `json:"id"`
	UUID     string `json:"uuid"`
	Title    string `json:"title"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// Playlist is a Plex server playlist.
type Playlist struct {
	RatingKey string `json:"ratingKey"`
	Title     string `json:"title"`
}

type mediaContainerResponse struct {
	MediaContainer struct {
		Metadata []struct {
			RatingKey string `json:"ratingKey"`
			Title     string `json:"title"`
			Type      string `json:"type"`
			Guid      []struct {
				ID string `json:"id"`
			} `json:"Guid"`
		} `json:"Metadata"`
	} `json:"MediaContainer"`
}

// GetSelfWatchlist returns the server owner's watchlist.
func (c *Client) GetSelfWatchlist(ctx context.Context) ([]WatchlistEntry, error) {
	return c.getWatchlist(ctx, c.token)
}

// GetUserWatchlist returns the watchlist for a specific user token, used for
// Plex Home users after switching.
func (c *Client) GetUserWatchlist(ctx context.Context, userToken string) ([]WatchlistEntry, error) {
	return c.getWatchlist(ctx, userToken)
}

func (c *Client) getWatchlist(ctx context.Context, token string) ([]WatchlistEntry, error) {
	var resp mediaContainerResponse
	endpoint := c.discoverHost + "/library/sections/watchlist/all"
	if err := c.getJSONWithRetry(ctx, endpoint, token, &resp); err != nil {
		return nil, fmt.Errorf("fetch watchlist: %w", err)
	}

	entries := make([]WatchlistEntry, 0, len(resp.MediaContainer.Metadata))
	for _, md := range resp.MediaContainer.Metadata {
		entry := WatchlistEntry{
			Title: md.Title,
			Type:  md.Type,
		}
		for _, g := range md.Guid {
			if id := strings.TrimSpace(g.ID); id != "" {
				entry.Guids = append(entry.Guids, id)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetHomeUsers returns the managed users on the owner's Plex Home.
func (c *Client) GetHomeUsers(ctx context.Context) ([]HomeUser, error) {
	var resp struct {
		Users []HomeUser `json:"users"`
	}
	endpoint := c.plexTVHost + "/api/v2/home/users"
	if err := c.getJSONWithRetry(ctx, endpoint, c.token, &resp); err != nil {
		return nil, fmt.Errorf("fetch home users: %w", err)
	}
	return resp.Users, nil
}

// SwitchHomeUser exchanges the owner token for a managed user's token.
func (c *Client) SwitchHomeUser(ctx context.Context, userUUID string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v2/home/users/%s/switch", c.plexTVHost, url.PathEscape(userUUID))

	var resp struct {
		AuthToken string `json:"authToken"`
	}
	if err := c.doJSON(ctx, http.MethodPost, endpoint, c.token, &resp); err != nil {
		return "", fmt.Errorf("switch home user: %w", err)
	}
	if resp.AuthToken == "" {
		return "", fmt.Errorf("switch home user: empty auth token")
	}
	return resp.AuthToken, nil
}

// ListPlaylists returns the server's video playlists.
func (c *Client) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	var resp mediaContainerResponse
	endpoint := c.serverURL + "/playlists?playlistType=video"
	if err := c.getJSONWithRetry(ctx, endpoint, c.token, &resp); err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}

	playlists := make([]Playlist, 0, len(resp.MediaContainer.Metadata))
	for _, md := range resp.MediaContainer.Metadata {
		playlists = append(playlists, Playlist{
			RatingKey: md.RatingKey,
			Title:     md.Title,
		})
	}
	return playlists, nil
}

// CreatePlaylist creates an empty video playlist with the given title.
// Safe to call repeatedly; the caller checks for existence first.
func (c *Client) CreatePlaylist(ctx context.Context, title string) (*Playlist, error) {
	query := url.Values{}
	query.Set("type", "video")
	query.Set("title", title)
	query.Set("smart", "0")
	query.Set("uri", "")

	endpoint := c.serverURL + "/playlists?" + query.Encode()

	var resp mediaContainerResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, c.token, &resp); err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("create playlist: empty response")
	}

	md := resp.MediaContainer.Metadata[0]
	return &Playlist{RatingKey: md.RatingKey, Title: md.Title}, nil
}

// GetPlaylistItemGuids returns the external GUIDs of every item on a playlist.
func (c *Client) GetPlaylistItemGuids(ctx context.Context, ratingKey string) ([]string, error) {
	var resp mediaContainerResponse
	endpoint := fmt.Sprintf("%s/playlists/%s/items", c.serverURL, url.PathEscape(ratingKey))
	if err := c.getJSONWithRetry(ctx, endpoint, c.token, &resp); err != nil {
		return nil, fmt.Errorf("fetch playlist items: %w", err)
	}

	var guids []string
	for _, md := range resp.MediaContainer.Metadata {
		for _, g := range md.Guid {
			if id := strings.TrimSpace(g.ID); id != "" {
				guids = append(guids, id)
			}
		}
	}
	return guids, nil
}

// getJSONWithRetry retries transient failures on read-only endpoints. The
// watchlist endpoints on plex.tv rate-limit aggressively under load.
func (c *Client) getJSONWithRetry(ctx context.Context, endpoint, token string, out any) error {
	return retry.Do(
		func() error {
			return c.doJSON(ctx, http.MethodGet, endpoint, token, out)
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint, token string, out any) error {
	if c.httpClient == nil {
		return fmt.Errorf("plex HTTP client is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build plex request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Plex-Token", token)
	req.Header.Set("X-Plex-Client-Identifier", "sweeparr")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plex request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read plex response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("plex returned status %d", resp.StatusCode)
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode plex response: %w", err)
	}
	return nil
}
