// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package deletesync implements the delete-sync reconciliation engine: it
// compares Plex watchlist intent against the Sonarr/Radarr libraries and
// removes media no longer wanted by any user, guarded against mass deletion.
package deletesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/sweeparr/internal/arr"
	"github.com/autobrr/sweeparr/internal/domain"
	"github.com/autobrr/sweeparr/internal/guid"
	"github.com/autobrr/sweeparr/internal/models"
)

// ErrRunInProgress is returned when a manual trigger arrives while a run is
// executing. Runs never interleave: the counters and per-run caches are not
// designed for concurrent mutation.
var ErrRunInProgress = errors.New("delete-sync run already in progress")

// WatchlistStore reads the persisted watchlist snapshot.
type WatchlistStore interface {
	GetAllMovieItems(ctx context.Context) ([]*models.WatchlistItem, error)
	GetAllShowItems(ctx context.Context) ([]*models.WatchlistItem, error)
}

// UserStore reads users for sync-eligibility filtering.
type UserStore interface {
	List(ctx context.Context) ([]*models.User, error)
}

// ApprovalStore reads the tracked-GUID universe for tracked-only policies.
type ApprovalStore interface {
	GetApprovedGuidPayloads(ctx context.Context) ([]string, error)
}

// WatchlistRefresher pulls fresh watchlists from Plex before a run.
type WatchlistRefresher interface {
	RefreshSelf(ctx context.Context) error
	RefreshOthers(ctx context.Context) error
}

// SonarrLibrary is the Sonarr surface the engine consumes.
type SonarrLibrary interface {
	FetchAllSeries(ctx context.Context) ([]arr.SeriesItem, error)
	GetTags(ctx context.Context, instanceID int) (map[int]string, error)
	DeleteSeries(ctx context.Context, instanceID, seriesID int, deleteFiles bool) error
}

// RadarrLibrary is the Radarr surface the engine consumes.
type RadarrLibrary interface {
	FetchAllMovies(ctx context.Context) ([]arr.MovieItem, error)
	GetTags(ctx context.Context, instanceID int) (map[int]string, error)
	DeleteMovie(ctx context.Context, instanceID, movieID int, deleteFiles bool) error
}

// Notifier delivers the run summary. Best-effort: implementations handle
// their own failures and never affect the run outcome.
type Notifier interface {
	SendDeleteSyncNotification(result *Result)
}

// Service drives delete-sync reconciliation runs.
type Service struct {
	cfg          Config
	policySource func() domain.DeleteSyncConfig

	watchlist WatchlistStore
	users     UserStore
	approvals ApprovalStore
	refresher WatchlistRefresher
	sonarr    SonarrLibrary
	radarr    RadarrLibrary
	playlists PlaylistClient
	notifier  Notifier

	// tagCache is rebuilt at the start of every run; tags change between
	// runs and recomputing is the simplest correct discipline.
	tagCache *tagCache

	running atomic.Bool

	mu            sync.Mutex
	lastResult    *Result
	lastRunAt     time.Time
	lastScheduled time.Time
}

// NewService creates a new delete-sync service. policySource returns the
// live configuration; the service snapshots it at the start of each run.
func NewService(
	cfg Config,
	policySource func() domain.DeleteSyncConfig,
	watchlist WatchlistStore,
	users UserStore,
	approvals ApprovalStore,
	refresher WatchlistRefresher,
	sonarr SonarrLibrary,
	radarr RadarrLibrary,
	playlists PlaylistClient,
	notifier Notifier,
) *Service {
	if cfg.SchedulerInterval <= 0 {
		cfg.SchedulerInterval = DefaultConfig().SchedulerInterval
	}
	return &Service{
		cfg:          cfg,
		policySource: policySource,
		watchlist:    watchlist,
		users:        users,
		approvals:    approvals,
		refresher:    refresher,
		sonarr:       sonarr,
		radarr:       radarr,
		playlists:    playlists,
		notifier:     notifier,
	}
}

// Status describes the service's last and current run.
type Status struct {
	Running    bool      `json:"running"`
	LastRunAt  time.Time `json:"lastRunAt,omitzero"`
	LastResult *Result   `json:"lastResult,omitempty"`
}

// Status returns the last run summary.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:    s.running.Load(),
		LastRunAt:  s.lastRunAt,
		LastResult: s.lastResult,
	}
}

// Start starts the background scheduler.
func (s *Service) Start(ctx context.Context) {
	if s == nil {
		return
	}
	go s.loop(ctx)
}

func (s *Service) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SchedulerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkScheduledRun(ctx)
		}
	}
}

func (s *Service) checkScheduledRun(ctx context.Context) {
	policy := s.policySource()
	if !policy.Enabled {
		return
	}

	interval := time.Duration(policy.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	s.mu.Lock()
	last := s.lastScheduled
	s.mu.Unlock()

	if !last.IsZero() && time.Since(last) < interval {
		return
	}

	log.Info().Msg("deletesync: starting scheduled run")
	started := time.Now()
	if _, err := s.Run(ctx, false); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			// Not stamped: the run stays due and retries on the next tick
			// instead of waiting out a full interval.
			log.Warn().Msg("deletesync: scheduled run skipped, another run is in flight")
			return
		}
		log.Error().Err(err).Msg("deletesync: scheduled run failed")
	}

	s.mu.Lock()
	s.lastScheduled = started
	s.mu.Unlock()
}

// Run executes one reconciliation pass. Under dryRun it computes and records
// every decision without issuing deletions. Only one run may be in flight;
// concurrent triggers fail with ErrRunInProgress.
func (s *Service) Run(ctx context.Context, dryRun bool) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	started := time.Now()
	result, err := s.run(ctx, dryRun)
	if err != nil {
		log.Error().Err(err).Bool("dryRun", dryRun).Msg("deletesync: run failed")
		return nil, err
	}

	s.mu.Lock()
	s.lastResult = result
	s.lastRunAt = started
	s.mu.Unlock()

	log.Info().
		Bool("dryRun", dryRun).
		Bool("safetyTriggered", result.SafetyTriggered).
		Int("deleted", result.Total.Deleted).
		Int("skipped", result.Total.Skipped).
		Int("protected", result.Total.Protected).
		Dur("elapsed", time.Since(started)).
		Msg("deletesync: run complete")

	// Notification is not part of the run's success contract.
	if s.notifier != nil {
		s.notifier.SendDeleteSyncNotification(result)
	}

	return result, nil
}

func (s *Service) run(ctx context.Context, dryRun bool) (*Result, error) {
	policy := policyFromConfig(s.policySource())
	c := &counters{}

	// CHECK_ENABLED: a fully disabled policy is a no-op, not an error.
	if !policy.anyCategoryEnabled() {
		log.Debug().Msg("deletesync: no deletion category enabled, nothing to do")
		return c.result(dryRun), nil
	}

	s.tagCache = newTagCache(s.sonarr.GetTags, s.radarr.GetTags)

	// REFRESH_SOURCES: reconciling against stale watchlist data risks
	// deleting items someone still wants, so a refresh failure trips the
	// safety gate instead of proceeding.
	if err := s.refreshSources(ctx); err != nil {
		log.Error().Err(err).Msg("deletesync: watchlist refresh failed, aborting run for safety")
		return safetyTriggeredResult(c, dryRun, fmt.Sprintf("watchlist refresh failed: %v", err)), nil
	}

	// BUILD_WATCHLIST_UNIVERSE
	universe, err := s.buildWatchlistUniverse(ctx, policy, c)
	if err != nil {
		return nil, err
	}
	if universe.Len() == 0 {
		// An empty universe is indistinguishable from an upstream fetch
		// failure; mass unwatching this total is not a plausible input.
		return safetyTriggeredResult(c, dryRun, "watchlist universe is empty; refusing to reconcile (possible upstream data failure)"), nil
	}

	// FETCH_LIBRARY: prerequisite; failure propagates, no partial
	// reconciliation is attempted.
	series, movies, err := s.fetchLibrary(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch library: %w", err)
	}

	protected, err := s.buildProtection(ctx, policy)
	if err != nil {
		return nil, err
	}

	tracked, err := s.buildTrackedSet(ctx, policy, c)
	if err != nil {
		return nil, err
	}

	// Decide everything before deleting anything, so the safety gate is
	// exact over the full candidate set.
	movieDecisions := s.decideMovies(ctx, movies, universe, protected, tracked, policy)
	showDecisions := s.decideShows(ctx, series, universe, protected, tracked, policy)

	// SAFETY_CHECK(percentage)
	candidateMovies := 0
	for _, d := range movieDecisions {
		if d.act == actionDelete {
			candidateMovies++
		}
	}
	candidateShows := 0
	for _, d := range showDecisions {
		if d.act == actionDelete {
			candidateShows++
		}
	}
	totalLibrary := len(movies) + len(series)

	if gate := checkSafety(candidateMovies, candidateShows, totalLibrary, policy.MaxDeletionPrevention); !gate.safe {
		// Zero deletions; every candidate is reported as skipped.
		recordGatedDecisions(c, movieDecisions, showDecisions)
		res := c.result(dryRun)
		res.SafetyTriggered = true
		res.SafetyMessage = gate.message
		log.Warn().Str("reason", gate.message).Msg("deletesync: safety gate triggered")
		return res, nil
	}

	// PROCESS_MOVIES / PROCESS_SHOWS: deletions execute sequentially to
	// keep audit-record ordering deterministic and bound load on the
	// download managers.
	s.processMovies(ctx, movieDecisions, policy, dryRun, c)
	s.processShows(ctx, showDecisions, policy, dryRun, c)

	return c.result(dryRun), nil
}

func safetyTriggeredResult(c *counters, dryRun bool, message string) *Result {
	res := c.result(dryRun)
	res.SafetyTriggered = true
	res.SafetyMessage = message
	return res
}

func (s *Service) refreshSources(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.refresher.RefreshSelf(gctx) })
	g.Go(func() error { return s.refresher.RefreshOthers(gctx) })
	return g.Wait()
}

func (s *Service) fetchLibrary(ctx context.Context) ([]arr.SeriesItem, []arr.MovieItem, error) {
	var (
		series []arr.SeriesItem
		movies []arr.MovieItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		series, err = s.sonarr.FetchAllSeries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		movies, err = s.radarr.FetchAllMovies(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return series, movies, nil
}

// buildWatchlistUniverse unions every watchlisted GUID across users,
// optionally restricted to users whose sync setting is enabled.
func (s *Service) buildWatchlistUniverse(ctx context.Context, policy Policy, c *counters) (guid.Set, error) {
	eligible := map[int]bool{}
	if policy.RespectUserSyncSetting {
		users, err := s.users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, u := range users {
			eligible[u.ID] = u.CanSync
		}
	}

	movieItems, err := s.watchlist.GetAllMovieItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load movie watchlist: %w", err)
	}
	showItems, err := s.watchlist.GetAllShowItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load show watchlist: %w", err)
	}

	universe := guid.NewSet()
	addItems := func(items []*models.WatchlistItem) {
		for _, item := range items {
			if policy.RespectUserSyncSetting && !eligible[item.UserID] {
				continue
			}
			guids, malformed := guid.ParseFlexible(item.RawGuids)
			if malformed {
				c.incrementMalformed()
				log.Warn().Str("title", item.Title).Int("userID", item.UserID).Msg("deletesync: watchlist item has malformed guids")
			}
			for _, g := range guids {
				universe.Add(g)
			}
		}
	}
	addItems(movieItems)
	addItems(showItems)

	log.Debug().Int("guids", universe.Len()).Msg("deletesync: built watchlist universe")
	return universe, nil
}

func (s *Service) buildProtection(ctx context.Context, policy Policy) (guid.Set, error) {
	if !policy.PlaylistProtection {
		return guid.NewSet(), nil
	}
	protected, err := buildProtectedGuidSet(ctx, s.playlists, policy.ProtectionPlaylistName)
	if err != nil {
		return nil, fmt.Errorf("build protection set: %w", err)
	}
	return protected, nil
}

func (s *Service) buildTrackedSet(ctx context.Context, policy Policy, c *counters) (guid.Set, error) {
	if !policy.TrackedOnly {
		return guid.NewSet(), nil
	}

	payloads, err := s.approvals.GetApprovedGuidPayloads(ctx)
	if err != nil {
		return nil, fmt.Errorf("build tracked set: %w", err)
	}

	tracked := guid.NewSet()
	for _, raw := range payloads {
		guids, malformed := guid.ParseFlexible(raw)
		if malformed {
			c.incrementMalformed()
		}
		for _, g := range guids {
			tracked.Add(g)
		}
	}
	return tracked, nil
}

type action int

const (
	// actionNone: the item is watchlisted; it is neither counted nor recorded.
	actionNone action = iota
	actionDelete
	actionSkip
	actionProtect
)

type movieDecision struct {
	item arr.MovieItem
	act  action
}

type showDecision struct {
	item arr.SeriesItem
	act  action
}

func (s *Service) decideMovies(ctx context.Context, movies []arr.MovieItem, universe, protected, tracked guid.Set, policy Policy) []movieDecision {
	decisions := make([]movieDecision, 0, len(movies))
	for _, m := range movies {
		guids := m.Movie.Guids()

		if guid.AnyMatch(guids, universe) {
			decisions = append(decisions, movieDecision{item: m, act: actionNone})
			continue
		}

		if policy.PlaylistProtection && guid.AnyMatch(guids, protected) {
			decisions = append(decisions, movieDecision{item: m, act: actionProtect})
			continue
		}

		decisions = append(decisions, movieDecision{item: m, act: s.decideAction(ctx, kindMovie, models.ArrInstanceTypeRadarr, m.InstanceID, m.Movie.Tags, guids, policy, tracked)})
	}
	return decisions
}

func (s *Service) decideShows(ctx context.Context, series []arr.SeriesItem, universe, protected, tracked guid.Set, policy Policy) []showDecision {
	decisions := make([]showDecision, 0, len(series))
	for _, sh := range series {
		guids := sh.Series.Guids()

		if guid.AnyMatch(guids, universe) {
			decisions = append(decisions, showDecision{item: sh, act: actionNone})
			continue
		}

		kind := kindEndedShow
		if !sh.Series.Ended() {
			kind = kindContinuingShow
		}

		if policy.PlaylistProtection && guid.AnyMatch(guids, protected) {
			decisions = append(decisions, showDecision{item: sh, act: actionProtect})
			continue
		}

		decisions = append(decisions, showDecision{item: sh, act: s.decideAction(ctx, kind, models.ArrInstanceTypeSonarr, sh.InstanceID, sh.Series.Tags, guids, policy, tracked)})
	}
	return decisions
}

// decideAction resolves eligibility for an unmatched, unprotected item under
// the active deletion mode.
func (s *Service) decideAction(ctx context.Context, kind itemKind, instanceType models.ArrInstanceType, instanceID int, tagIDs []int, guids []string, policy Policy, tracked guid.Set) action {
	switch policy.Mode {
	case domain.DeleteSyncModeTag:
		if s.eligibleForTagRemoval(ctx, kind, instanceType, instanceID, tagIDs, guids, policy, tracked) {
			return actionDelete
		}
		return actionSkip
	default: // watchlist mode: unmatched + category enabled is unconditional
		if !policy.categoryEnabled(kind) {
			return actionSkip
		}
		if policy.TrackedOnly && !guid.AnyMatch(guids, tracked) {
			return actionSkip
		}
		return actionDelete
	}
}

// recordGatedDecisions accounts for every decided item after the safety gate
// trips: would-delete candidates are demoted to skipped, nothing is deleted.
func recordGatedDecisions(c *counters, movies []movieDecision, shows []showDecision) {
	for _, d := range movies {
		switch d.act {
		case actionSkip, actionDelete:
			c.incrementMovieSkipped()
		case actionProtect:
			c.incrementMovieProtected()
		}
	}
	for _, d := range shows {
		continuing := !d.item.Series.Ended()
		switch d.act {
		case actionSkip, actionDelete:
			c.incrementShowSkipped(continuing)
		case actionProtect:
			c.incrementShowProtected()
		}
	}
}

func (s *Service) processMovies(ctx context.Context, decisions []movieDecision, policy Policy, dryRun bool, c *counters) {
	for _, d := range decisions {
		switch d.act {
		case actionSkip:
			c.incrementMovieSkipped()
		case actionProtect:
			c.incrementMovieProtected()
		case actionDelete:
			rec := DeletionRecord{
				Title:    d.item.Movie.Title,
				Guid:     firstGuid(d.item.Movie.Guids()),
				Instance: d.item.InstanceName,
			}

			if dryRun {
				log.Info().Str("title", rec.Title).Str("instance", rec.Instance).Msg("deletesync: would delete movie (dry run)")
				c.incrementMovieDeleted(rec)
				continue
			}

			if err := s.radarr.DeleteMovie(ctx, d.item.InstanceID, d.item.Movie.ID, policy.DeleteFiles); err != nil {
				// Partial failure is expected; the run continues.
				log.Error().Err(err).Str("title", rec.Title).Str("instance", rec.Instance).Msg("deletesync: movie deletion failed, counting as skipped")
				c.incrementMovieSkipped()
				continue
			}

			log.Info().Str("title", rec.Title).Str("instance", rec.Instance).Msg("deletesync: deleted movie")
			c.incrementMovieDeleted(rec)
		}
	}
}

func (s *Service) processShows(ctx context.Context, decisions []showDecision, policy Policy, dryRun bool, c *counters) {
	for _, d := range decisions {
		continuing := !d.item.Series.Ended()
		switch d.act {
		case actionSkip:
			c.incrementShowSkipped(continuing)
		case actionProtect:
			c.incrementShowProtected()
		case actionDelete:
			rec := DeletionRecord{
				Title:    d.item.Series.Title,
				Guid:     firstGuid(d.item.Series.Guids()),
				Instance: d.item.InstanceName,
			}

			if dryRun {
				log.Info().Str("title", rec.Title).Str("instance", rec.Instance).Msg("deletesync: would delete series (dry run)")
				c.incrementShowDeleted(rec, continuing)
				continue
			}

			if err := s.sonarr.DeleteSeries(ctx, d.item.InstanceID, d.item.Series.ID, policy.DeleteFiles); err != nil {
				log.Error().Err(err).Str("title", rec.Title).Str("instance", rec.Instance).Msg("deletesync: series deletion failed, counting as skipped")
				c.incrementShowSkipped(continuing)
				continue
			}

			log.Info().Str("title", rec.Title).Str("instance", rec.Instance).Msg("deletesync: deleted series")
			c.incrementShowDeleted(rec, continuing)
		}
	}
}

func firstGuid(guids []string) string {
	if len(guids) == 0 {
		return ""
	}
	return guids[0]
}
