// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deletesync

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/sweeparr/internal/guid"
	"github.com/autobrr/sweeparr/internal/models"
)

// eligibleForTagRemoval decides whether an item qualifies for tag-based
// deletion:
//
//  1. the item's category must be enabled (checked before the tag cache is
//     touched, so disabled categories never populate it),
//  2. some tag on the item must start with the removal-tag prefix,
//  3. when a required-tag regex is configured, a second, distinct tag must
//     match it — the removal tag alone is not enough,
//  4. when tracked-only is set, the item's GUIDs must intersect the tracked
//     set.
//
// Tag ids missing from the instance's tag map are ignored, not errors. An
// item with no tags is never eligible. Tag fetch failures fail closed.
func (s *Service) eligibleForTagRemoval(
	ctx context.Context,
	kind itemKind,
	instanceType models.ArrInstanceType,
	instanceID int,
	tagIDs []int,
	itemGuids []string,
	policy Policy,
	tracked guid.Set,
) bool {
	if !policy.categoryEnabled(kind) {
		return false
	}

	prefix := strings.TrimSpace(policy.RemovedTagPrefix)
	if prefix == "" || len(tagIDs) == 0 {
		return false
	}

	tagMap, err := s.tagCache.tagsForInstance(ctx, instanceType, instanceID)
	if err != nil {
		log.Error().Err(err).
			Str("instanceType", string(instanceType)).
			Int("instanceID", instanceID).
			Msg("deletesync: tag fetch failed, treating item as not eligible")
		return false
	}

	removalTagID, found := findRemovalTag(tagIDs, tagMap, prefix)
	if !found {
		return false
	}

	if pattern := strings.TrimSpace(policy.RequiredTagRegex); pattern != "" {
		re, ok := s.tagCache.compiledRegex(pattern)
		if !ok {
			return false
		}
		if !hasOtherMatchingTag(tagIDs, tagMap, re, removalTagID) {
			return false
		}
	}

	if policy.TrackedOnly && !guid.AnyMatch(itemGuids, tracked) {
		return false
	}

	return true
}

func findRemovalTag(tagIDs []int, tagMap map[int]string, prefix string) (int, bool) {
	for _, id := range tagIDs {
		name, ok := tagMap[id]
		if !ok {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			return id, true
		}
	}
	return 0, false
}

// hasOtherMatchingTag requires the regex match to come from a tag other than
// the removal tag itself, so both markers must be present simultaneously.
func hasOtherMatchingTag(tagIDs []int, tagMap map[int]string, re *regexp.Regexp, removalTagID int) bool {
	for _, id := range tagIDs {
		if id == removalTagID {
			continue
		}
		name, ok := tagMap[id]
		if !ok {
			continue
		}
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
