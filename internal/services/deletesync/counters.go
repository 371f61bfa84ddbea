// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deletesync

// DeletionRecord is an immutable audit entry, appended exactly once per
// deleted (or simulated-deleted) item. Skipped and protected items are
// counted but not recorded, which keeps the audit payload bounded.
type DeletionRecord struct {
	Title    string `json:"title"`
	Guid     string `json:"guid"`
	Instance string `json:"instance"`
}

// counters accumulates per-run deletion accounting. One instance per run,
// owned exclusively by the orchestrator; never shared across runs.
type counters struct {
	movieDeleted   int
	movieSkipped   int
	movieProtected int
	movieRecords   []DeletionRecord

	endedShowDeleted      int
	continuingShowDeleted int
	endedShowSkipped      int
	continuingShowSkipped int
	showProtected         int
	showRecords           []DeletionRecord

	malformedItems int
}

func (c *counters) incrementMovieDeleted(rec DeletionRecord) {
	c.movieDeleted++
	c.movieRecords = append(c.movieRecords, rec)
}

func (c *counters) incrementMovieSkipped() {
	c.movieSkipped++
}

func (c *counters) incrementMovieProtected() {
	c.movieProtected++
}

func (c *counters) incrementShowDeleted(rec DeletionRecord, continuing bool) {
	if continuing {
		c.continuingShowDeleted++
	} else {
		c.endedShowDeleted++
	}
	c.showRecords = append(c.showRecords, rec)
}

func (c *counters) incrementShowSkipped(continuing bool) {
	if continuing {
		c.continuingShowSkipped++
	} else {
		c.endedShowSkipped++
	}
}

func (c *counters) incrementShowProtected() {
	c.showProtected++
}

func (c *counters) incrementMalformed() {
	c.malformedItems++
}

func (c *counters) totalShowsDeleted() int {
	return c.endedShowDeleted + c.continuingShowDeleted
}

func (c *counters) totalShowsSkipped() int {
	return c.endedShowSkipped + c.continuingShowSkipped
}

func (c *counters) totalDeleted() int {
	return c.movieDeleted + c.totalShowsDeleted()
}

func (c *counters) totalSkipped() int {
	return c.movieSkipped + c.totalShowsSkipped()
}

func (c *counters) totalProtected() int {
	return c.movieProtected + c.showProtected
}

// totalProcessed counts acted-upon candidates only: deleted, skipped, and
// protected. Items matched in the watchlist universe are neither counted nor
// recorded.
func (c *counters) totalProcessed() int {
	return c.totalDeleted() + c.totalSkipped() + c.totalProtected()
}

// result assembles the run summary from the counters.
func (c *counters) result(dryRun bool) *Result {
	movieItems := c.movieRecords
	if movieItems == nil {
		movieItems = []DeletionRecord{}
	}
	showItems := c.showRecords
	if showItems == nil {
		showItems = []DeletionRecord{}
	}

	return &Result{
		Total: Totals{
			Deleted:   c.totalDeleted(),
			Skipped:   c.totalSkipped(),
			Protected: c.totalProtected(),
			Processed: c.totalProcessed(),
		},
		Movies: CategoryResult{
			Deleted: c.movieDeleted,
			Skipped: c.movieSkipped,
			Items:   movieItems,
		},
		Shows: CategoryResult{
			Deleted: c.totalShowsDeleted(),
			Skipped: c.totalShowsSkipped(),
			Items:   showItems,
		},
		MalformedItems: c.malformedItems,
		DryRun:         dryRun,
	}
}

// Totals aggregates counts across both content types.
type Totals struct {
	Deleted   int `json:"deleted"`
	Skipped   int `json:"skipped"`
	Protected int `json:"protected"`
	Processed int `json:"processed"`
}

// CategoryResult holds per-content-type counts and audit records.
type CategoryResult struct {
	Deleted int              `json:"deleted"`
	Skipped int              `json:"skipped"`
	Items   []DeletionRecord `json:"items"`
}

// Result is the single source of truth for a reconciliation run's outcome.
// SafetyTriggered distinguishes "the engine refused to act" from a hard
// failure; both are successful run outcomes to the caller.
type Result struct {
	Total           Totals         `json:"total"`
	Movies          CategoryResult `json:"movies"`
	Shows           CategoryResult `json:"shows"`
	SafetyTriggered bool           `json:"safetyTriggered,omitempty"`
	SafetyMessage   string         `json:"safetyMessage,omitempty"`
	MalformedItems  int            `json:"malformedItems,omitempty"`
	DryRun          bool           `json:"dryRun"`
}
