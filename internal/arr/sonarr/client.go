// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package sonarr provides a minimal Sonarr v3 API wrapper covering the
// endpoints delete-sync needs: series listing, series deletion, tags, and
// root folders.
package sonarr

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

// Client provides a minimal Sonarr API wrapper.
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

// Series represents a Sonarr series as returned by /api/v3/series.
type Series struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"` // "continuing", "ended", "upcoming", "deleted"
	TvdbID    int64  `json:"tvdbId"`
	ImdbID    string `json:"imdbId"`
	TitleSlug string `json:"titleSlug"`
	Tags      []int  `json:"tags"`
}

// Ended reports whether the series has finished airing.
func (s *Series) Ended() bool {
	return strings.EqualFold(s.Status, "ended")
}

// Guids returns the external identifiers of the series in scheme-prefixed
// form, suitable for watchlist matching.
func (s *Series) Guids() []string {
	var guids []string
	if s.TvdbID > 0 {
		guids = append(guids, fmt.Sprintf("tvdb://%d", s.TvdbID))
	}
	if imdb := strings.TrimSpace(s.ImdbID); imdb != "" {
		guids = append(guids, fmt.Sprintf("imdb://%s", imdb))
	}
	return guids
}

// Tag represents a Sonarr tag.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// RootFolder represents a Sonarr root folder.
type RootFolder struct {
	ID        int    `json:"id"`
	Path      string `json:"path"`
	FreeSpace int64  `json:"freeSpace"`
}

// GetAllSeries returns every series known to the instance.
func (c *Client) GetAllSeries(ctx context.Context) ([]Series, error) {
	var series []Series
	if err := c.get(ctx, "/api/v3/series", nil, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// GetTags returns all tags configured on the instance.
func (c *Client) GetTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.get(ctx, "/api/v3/tag", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// GetRootFolders returns the configured root folders.
func (c *Client) GetRootFolders(ctx context.Context) ([]RootFolder, error) {
	var folders []RootFolder
	if err := c.get(ctx, "/api/v3/rootfolder", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// DeleteSeries removes a series from Sonarr, optionally deleting its files.
// An import list exclusion is never added: delete-sync removals reflect
// watchlist intent, and a later re-add must be possible.
func (c *Client) DeleteSeries(ctx context.Context, seriesID int, deleteFiles bool) error {
	query := url.Values{}
	query.Set("deleteFiles", strconv.FormatBool(deleteFiles))
	query.Set("addImportListExclusion", "false")

	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v3/series/%d", seriesID), query, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	if c.httpClient == nil {
		return fmt.Errorf("sonarr HTTP client is not configured")
	}

	endpoint := c.host + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build sonarr request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sonarr request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read sonarr response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sonarr returned status %d: %s", resp.StatusCode, strings.TrimSpace(truncateBody(body)))
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode sonarr response: %w", err)
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
