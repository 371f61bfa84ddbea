// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deletesync

import "fmt"

// safetyResult is the outcome of the mass-deletion circuit breaker.
type safetyResult struct {
	safe    bool
	message string
}

// checkSafety computes the fraction of the combined library the candidate
// set would remove and trips when it exceeds (strictly) the configured
// ceiling. It runs before any deletion executes, over the full candidate
// set, so the gate is exact. A zero-item library is itself unsafe: there is
// nothing legitimate to reconcile against.
func checkSafety(candidateMovieCount, candidateShowCount, totalLibraryCount, ceilingPercent int) safetyResult {
	if totalLibraryCount <= 0 {
		return safetyResult{
			safe:    false,
			message: "library reported zero items; refusing to reconcile against an empty library",
		}
	}

	candidates := candidateMovieCount + candidateShowCount
	percentage := float64(candidates) / float64(totalLibraryCount) * 100

	if percentage > float64(ceilingPercent) {
		return safetyResult{
			safe: false,
			message: fmt.Sprintf(
				"deletion of %d movies and %d shows (%.2f%% of %d library items) exceeds the %d%% safety ceiling",
				candidateMovieCount, candidateShowCount, percentage, totalLibraryCount, ceilingPercent,
			),
		}
	}

	return safetyResult{safe: true}
}
