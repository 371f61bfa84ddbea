// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package radarr provides a minimal Radarr v3 API wrapper covering the
// endpoints delete-sync needs: movie listing, movie deletion, and tags.
package radarr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the options for constructing a Client.
type Config struct {
	Host       string
	APIKey     string
	Timeout    int
	HTTPClient *http.Client
	UserAgent  string
}

// Client provides a minimal Radarr API wrapper.
type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
	userAgent  string
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
		host:       strings.TrimRight(cfg.Host, "/"),
		apiKey:     cfg.APIKey,
		httpClient: client,
		userAgent:  ua,
	}
}

// Movie represents a Radarr movie as returned by /api/v3/movie.
type Movie struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	TmdbID      int64  `json:"tmdbId"`
	ImdbID      string `json:"imdbId"`
	HasFile     bool   `json:"hasFile"`
	IsAvailable bool   `json:"isAvailable"`
	Tags        []int  `json:"tags"`
}

// Guids returns the external identifiers of the movie in scheme-prefixed
// form, suitable for watchlist matching.
func (m *Movie) Guids() []string {
	var guids []string
	if m.TmdbID > 0 {
		guids = append(guids, fmt.Sprintf("tmdb://%d", m.TmdbID))
	}
	if imdb := strings.TrimSpace(m.ImdbID); imdb != "" {
		guids = append(guids, fmt.Sprintf("imdb://%s", imdb))
	}
	return guids
}

// Tag represents a Radarr tag.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// GetAllMovies returns every movie known to the instance.
func (c *Client) GetAllMovies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	if err := c.get(ctx, "/api/v3/movie", nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetTags returns all tags configured on the instance.
func (c *Client) GetTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.get(ctx, "/api/v3/tag", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// DeleteMovie removes a movie from Radarr, optionally deleting its files.
// An import exclusion is never added so a later re-add stays possible.
func (c *Client) DeleteMovie(ctx context.Context, movieID int, deleteFiles bool) error {
	query := url.Values{}
	query.Set("deleteFiles", strconv.FormatBool(deleteFiles))
	query.Set("addImportExclusion", "false")

	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v3/movie/%d", movieID), query, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	if c.httpClient == nil {
		return fmt.Errorf("radarr HTTP client is not configured")
	}

	endpoint := c.host + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build radarr request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("radarr request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read radarr response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("radarr returned status %d: %s", resp.StatusCode, strings.TrimSpace(truncateBody(body)))
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode radarr response: %w", err)
	}
	return nil
}

func truncateBody(body []byte) string {
	const limit = 512
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
