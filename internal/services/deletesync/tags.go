// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deletesync

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/sweeparr/internal/models"
)

// maxRegexPatternLength caps user-supplied required-tag patterns.
const maxRegexPatternLength = 1024

// catastrophicShapes match pattern text that produces exponential
// backtracking on classic regex engines: nested quantifiers like (a+)+ or
// (a*)+, and quantified alternations of overlapping branches like (a|a)*.
// Go's RE2 engine cannot backtrack catastrophically, but patterns shaped
// like this are configuration mistakes either way, and rejecting them keeps
// the policy portable across engines.
var catastrophicShapes = []*regexp.Regexp{
	regexp.MustCompile(`\([^()]*[+*]\)[+*]`),
	regexp.MustCompile(`\([^()]*\|[^()]*\)[+*]\s*[+*]`),
	regexp.MustCompile(`[+*]\{\d+,\}[+*]`),
}

// tagFetcher retrieves the tag map (id -> name) for one instance.
type tagFetcher func(ctx context.Context, instanceID int) (map[int]string, error)

type tagCacheKey struct {
	instanceType models.ArrInstanceType
	instanceID   int
}

// tagCache memoizes per-instance tag maps and compiled required-tag regexes
// for the duration of one reconciliation run. Tags change between runs, so
// the cache is rebuilt per run rather than invalidated.
type tagCache struct {
	fetchSonarr tagFetcher
	fetchRadarr tagFetcher

	mu      sync.Mutex
	tags    map[tagCacheKey]map[int]string
	regexes map[string]*regexp.Regexp
	// regexRejected memoizes patterns that failed validation or compilation
	// so the failure is logged once, not per item.
	regexRejected map[string]struct{}
}

func newTagCache(fetchSonarr, fetchRadarr tagFetcher) *tagCache {
	return &tagCache{
		fetchSonarr:   fetchSonarr,
		fetchRadarr:   fetchRadarr,
		tags:          make(map[tagCacheKey]map[int]string),
		regexes:       make(map[string]*regexp.Regexp),
		regexRejected: make(map[string]struct{}),
	}
}

// tagsForInstance returns the tag map for an instance, fetching it at most
// once per run.
func (c *tagCache) tagsForInstance(ctx context.Context, instanceType models.ArrInstanceType, instanceID int) (map[int]string, error) {
	key := tagCacheKey{instanceType: instanceType, instanceID: instanceID}

	c.mu.Lock()
	defer c.mu.Unlock()

	if tags, ok := c.tags[key]; ok {
		return tags, nil
	}

	fetch := c.fetchSonarr
	if instanceType == models.ArrInstanceTypeRadarr {
		fetch = c.fetchRadarr
	}
	if fetch == nil {
		return nil, fmt.Errorf("no tag fetcher for instance type %s", instanceType)
	}

	tags, err := fetch(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("fetch tags for %s instance %d: %w", instanceType, instanceID, err)
	}

	c.tags[key] = tags
	return tags, nil
}

// compiledRegex compiles and memoizes a user-supplied pattern. It fails
// closed: an over-long, catastrophic-shaped, or uncompilable pattern is
// rejected and reported as no-match, never as match-everything.
func (c *tagCache) compiledRegex(pattern string) (*regexp.Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if re, ok := c.regexes[pattern]; ok {
		return re, true
	}
	if _, rejected := c.regexRejected[pattern]; rejected {
		return nil, false
	}

	if reason := validatePattern(pattern); reason != "" {
		log.Warn().Str("reason", reason).Msg("deletesync: rejecting required-tag regex, treating as no-match")
		c.regexRejected[pattern] = struct{}{}
		return nil, false
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		log.Warn().Err(err).Msg("deletesync: required-tag regex failed to compile, treating as no-match")
		c.regexRejected[pattern] = struct{}{}
		return nil, false
	}

	c.regexes[pattern] = re
	return re, true
}

func validatePattern(pattern string) string {
	if len(pattern) > maxRegexPatternLength {
		return fmt.Sprintf("pattern length %d exceeds maximum %d", len(pattern), maxRegexPatternLength)
	}
	for _, shape := range catastrophicShapes {
		if shape.MatchString(pattern) {
			return "pattern matches a known catastrophic-backtracking shape"
		}
	}
	return ""
}
