// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package arr manages the configured Sonarr and Radarr instances and fans
// library reads out across them.
package arr

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/sweeparr/internal/arr/radarr"
	"github.com/autobrr/sweeparr/internal/arr/sonarr"
	"github.com/autobrr/sweeparr/internal/models"
)

// SeriesItem is a Sonarr series bound to its owning instance.
type SeriesItem struct {
	InstanceID   int
	InstanceName string
	Series       sonarr.Series
}

// MovieItem is a Radarr movie bound to its owning instance.
type MovieItem struct {
	InstanceID   int
	InstanceName string
	Movie        radarr.Movie
}

// SonarrManager fans operations out across all enabled Sonarr instances.
type SonarrManager struct {
	store     *models.ArrInstanceStore
	userAgent string

	mu      sync.Mutex
	clients map[int]*sonarr.Client
}

// NewSonarrManager creates a new SonarrManager.
func NewSonarrManager(store *models.ArrInstanceStore, userAgent string) *SonarrManager {
	return &SonarrManager{
		store:     store,
		userAgent: userAgent,
		clients:   make(map[int]*sonarr.Client),
	}
}

func (m *SonarrManager) client(ctx context.Context, instance *models.ArrInstance) (*sonarr.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[instance.ID]; ok {
		return c, nil
	}

	apiKey, err := m.store.GetAPIKey(ctx, instance)
	if err != nil {
		return nil, err
	}

	c := sonarr.NewClient(sonarr.Config{
		Host:      instance.BaseURL,
		APIKey:    apiKey,
		Timeout:   instance.TimeoutSeconds,
		UserAgent: m.userAgent,
	})
	m.clients[instance.ID] = c
	return c, nil
}

// FetchAllSeries returns every series across all enabled Sonarr instances,
// fetched concurrently. Any instance failure fails the whole fetch: a
// partial library view is unsafe to reconcile against.
func (m *SonarrManager) FetchAllSeries(ctx context.Context) ([]SeriesItem, error) {
	instances, err := m.store.ListEnabled(ctx, models.ArrInstanceTypeSonarr)
	if err != nil {
		return nil, fmt.Errorf("list sonarr instances: %w", err)
	}

	results := make([][]SeriesItem, len(instances))
	g, gctx := errgroup.WithContext(ctx)

	for i, instance := range instances {
		g.Go(func() error {
			client, err := m.client(gctx, instance)
			if err != nil {
				return fmt.Errorf("sonarr %q: %w", instance.Name, err)
			}

			series, err := client.GetAllSeries(gctx)
			if err != nil {
				return fmt.Errorf("sonarr %q: fetch series: %w", instance.Name, err)
			}

			items := make([]SeriesItem, 0, len(series))
			for _, s := range series {
				items = append(items, SeriesItem{
					InstanceID:   instance.ID,
					InstanceName: instance.Name,
					Series:       s,
				})
			}
			results[i] = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []SeriesItem
	for _, items := range results {
		all = append(all, items...)
	}

	log.Debug().Int("instances", len(instances)).Int("series", len(all)).Msg("arr: fetched all series")
	return all, nil
}

// GetTags returns the tag map (id -> label) for one Sonarr instance.
func (m *SonarrManager) GetTags(ctx context.Context, instanceID int) (map[int]string, error) {
	instance, err := m.store.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	client, err := m.client(ctx, instance)
	if err != nil {
		return nil, err
	}

	tags, err := client.GetTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("sonarr %q: fetch tags: %w", instance.Name, err)
	}

	tagMap := make(map[int]string, len(tags))
	for _, t := range tags {
		tagMap[t.ID] = t.Label
	}
	return tagMap, nil
}

// DeleteSeries removes a series from its owning instance.
func (m *SonarrManager) DeleteSeries(ctx context.Context, instanceID, seriesID int, deleteFiles bool) error {
	instance, err := m.store.Get(ctx, instanceID)
	if err != nil {
		return err
	}

	client, err := m.client(ctx, instance)
	if err != nil {
		return err
	}

	return client.DeleteSeries(ctx, seriesID, deleteFiles)
}

// RadarrManager fans operations out across all enabled Radarr instances.
type RadarrManager struct {
	store     *models.ArrInstanceStore
	userAgent string

	mu      sync.Mutex
	clients map[int]*radarr.Client
}

// NewRadarrManager creates a new RadarrManager.
func NewRadarrManager(store *models.ArrInstanceStore, userAgent string) *RadarrManager {
	return &RadarrManager{
		store:     store,
		userAgent: userAgent,
		clients:   make(map[int]*radarr.Client),
	}
}

func (m *RadarrManager) client(ctx context.Context, instance *models.ArrInstance) (*radarr.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[instance.ID]; ok {
		return c, nil
	}

	apiKey, err := m.store.GetAPIKey(ctx, instance)
	if err != nil {
		return nil, err
	}

	c := radarr.NewClient(radarr.Config{
		Host:      instance.BaseURL,
		APIKey:    apiKey,
		Timeout:   instance.TimeoutSeconds,
		UserAgent: m.userAgent,
	})
	m.clients[instance.ID] = c
	return c, nil
}

// FetchAllMovies returns every movie across all enabled Radarr instances,
// fetched concurrently. Any instance failure fails the whole fetch.
func (m *RadarrManager) FetchAllMovies(ctx context.Context) ([]MovieItem, error) {
	instances, err := m.store.ListEnabled(ctx, models.ArrInstanceTypeRadarr)
	if err != nil {
		return nil, fmt.Errorf("list radarr instances: %w", err)
	}

	results := make([][]MovieItem, len(instances))
	g, gctx := errgroup.WithContext(ctx)

	for i, instance := range instances {
		g.Go(func() error {
			client, err := m.client(gctx, instance)
			if err != nil {
				return fmt.Errorf("radarr %q: %w", instance.Name, err)
			}

			movies, err := client.GetAllMovies(gctx)
			if err != nil {
				return fmt.Errorf("radarr %q: fetch movies: %w", instance.Name, err)
			}

			items := make([]MovieItem, 0, len(movies))
			for _, mv := range movies {
				items = append(items, MovieItem{
					InstanceID:   instance.ID,
					InstanceName: instance.Name,
					Movie:        mv,
				})
			}
			results[i] = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []MovieItem
	for _, items := range results {
		all = append(all, items...)
	}

	log.Debug().Int("instances", len(instances)).Int("movies", len(all)).Msg("arr: fetched all movies")
	return all, nil
}

// GetTags returns the tag map (id -> label) for one Radarr instance.
func (m *RadarrManager) GetTags(ctx context.Context, instanceID int) (map[int]string, error) {
	instance, err := m.store.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	client, err := m.client(ctx, instance)
	if err != nil {
		return nil, err
	}

	tags, err := client.GetTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("radarr %q: fetch tags: %w", instance.Name, err)
	}

	tagMap := make(map[int]string, len(tags))
	for _, t := range tags {
		tagMap[t.ID] = t.Label
	}
	return tagMap, nil
}

// DeleteMovie removes a movie from its owning instance.
func (m *RadarrManager) DeleteMovie(ctx context.Context, instanceID, movieID int, deleteFiles bool) error {
	instance, err := m.store.Get(ctx, instanceID)
	if err != nil {
		return err
	}

	client, err := m.client(ctx, instance)
	if err != nil {
		return err
	}

	return client.DeleteMovie(ctx, movieID, deleteFiles)
}
