// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deletesync

import (
	"time"

	"github.com/autobrr/sweeparr/internal/domain"
)

// Config holds the service configuration.
type Config struct {
	// SchedulerInterval is how often the background loop checks whether a
	// scheduled reconciliation is due.
	SchedulerInterval time.Duration
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		SchedulerInterval: 5 * time.Minute,
	}
}

// Policy is the immutable per-run snapshot of the delete-sync configuration.
// It is captured once at run start and never mutated mid-run, so a config
// reload cannot shift policy inside a reconciliation.
type Policy struct {
	Mode                   string
	DeleteMovie            bool
	DeleteEndedShow        bool
	DeleteContinuingShow   bool
	DeleteFiles            bool
	RemovedTagPrefix       string
	RequiredTagRegex       string
	TrackedOnly            bool
	PlaylistProtection     bool
	ProtectionPlaylistName string
	MaxDeletionPrevention  int
	RespectUserSyncSetting bool
	IntervalHours          int
}

// policyFromConfig snapshots the live configuration into a run policy.
func policyFromConfig(cfg domain.DeleteSyncConfig) Policy {
	return Policy{
		Mode:                   cfg.NormalizedMode(),
		DeleteMovie:            cfg.DeleteMovie,
		DeleteEndedShow:        cfg.DeleteEndedShow,
		DeleteContinuingShow:   cfg.DeleteContinuingShow,
		DeleteFiles:            cfg.DeleteFiles,
		RemovedTagPrefix:       cfg.RemovedTagPrefix,
		RequiredTagRegex:       cfg.RequiredTagRegex,
		TrackedOnly:            cfg.TrackedOnly,
		PlaylistProtection:     cfg.PlaylistProtection,
		ProtectionPlaylistName: cfg.ProtectionPlaylistName,
		MaxDeletionPrevention:  cfg.MaxDeletionPrevention,
		RespectUserSyncSetting: cfg.RespectUserSyncSetting,
		IntervalHours:          cfg.IntervalHours,
	}
}

// anyCategoryEnabled reports whether any deletion category is active. When
// none is, a run short-circuits to an empty successful result.
func (p Policy) anyCategoryEnabled() bool {
	return p.DeleteMovie || p.DeleteEndedShow || p.DeleteContinuingShow
}

func (p Policy) categoryEnabled(kind itemKind) bool {
	switch kind {
	case kindMovie:
		return p.DeleteMovie
	case kindEndedShow:
		return p.DeleteEndedShow
	case kindContinuingShow:
		return p.DeleteContinuingShow
	default:
		return false
	}
}

// itemKind classifies a library item for per-category policy decisions.
type itemKind int

const (
	kindMovie itemKind = iota
	kindEndedShow
	kindContinuingShow
)
