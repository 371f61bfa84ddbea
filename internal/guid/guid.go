// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package guid normalizes and compares external content identifiers
// (tmdb://, tvdb://, imdb:// style GUIDs) across watchlist and library items.
package guid

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

// Normalize lower-cases a GUID and strips surrounding whitespace so that
// "TMDB://550 " and "tmdb://550" compare equal.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeAll normalizes a list of GUIDs, dropping empties.
func NormalizeAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, g := range raw {
		if n := Normalize(g); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ParseFlexible decodes GUIDs persisted as either a genuine JSON array or a
// JSON-string-encoded array (legacy storage format). Parse failure is treated
// as "no GUIDs" rather than an error; the caller counts the anomaly.
// The returned bool reports whether the value was malformed.
func ParseFlexible(raw string) ([]string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}

	var arr []string
	if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
		return NormalizeAll(arr), false
	}

	// Legacy rows hold the array JSON-encoded a second time: "\"[...]\"".
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), &arr); err == nil {
			return NormalizeAll(arr), false
		}
	}

	log.Warn().Str("raw", truncate(trimmed, 120)).Msg("guid: unparseable guid payload, treating as empty")
	return nil, true
}

// Set is a set of normalized GUIDs.
type Set map[string]struct{}

// NewSet builds a Set from raw GUIDs, normalizing each.
func NewSet(guids ...string) Set {
	s := make(Set, len(guids))
	for _, g := range guids {
		s.Add(g)
	}
	return s
}

// Add normalizes and inserts a GUID. Empty strings are ignored.
func (s Set) Add(raw string) {
	if n := Normalize(raw); n != "" {
		s[n] = struct{}{}
	}
}

// Contains reports whether the set holds the normalized form of raw.
func (s Set) Contains(raw string) bool {
	_, ok := s[Normalize(raw)]
	return ok
}

// Len returns the number of GUIDs in the set.
func (s Set) Len() int {
	return len(s)
}

// AnyMatch reports whether any of the item's GUIDs is present in the set.
// An item with zero GUIDs never matches: it cannot be watchlisted, protected,
// or tracked, and is handled as orphaned by the eligibility rules.
func AnyMatch(itemGuids []string, set Set) bool {
	if len(set) == 0 {
		return false
	}
	for _, g := range itemGuids {
		if set.Contains(g) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
