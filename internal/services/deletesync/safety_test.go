// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deletesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSafety(t *testing.T) {
	tests := []struct {
		name           string
		movies, shows  int
		library        int
		ceilingPercent int
		wantSafe       bool
	}{
		{name: "no candidates", movies: 0, shows: 0, library: 100, ceilingPercent: 10, wantSafe: true},
		{name: "under ceiling", movies: 2, shows: 2, library: 100, ceilingPercent: 10, wantSafe: true},
		{name: "exactly at ceiling", movies: 5, shows: 5, library: 100, ceilingPercent: 10, wantSafe: true},
		{name: "just above ceiling", movies: 5, shows: 6, library: 100, ceilingPercent: 10, wantSafe: false},
		{name: "everything is a candidate", movies: 50, shows: 50, library: 100, ceilingPercent: 99, wantSafe: false},
		{name: "zero library", movies: 0, shows: 0, library: 0, ceilingPercent: 10, wantSafe: false},
		{name: "negative library", movies: 0, shows: 0, library: -1, ceilingPercent: 10, wantSafe: false},
		{name: "zero ceiling blocks any candidate", movies: 1, shows: 0, library: 100, ceilingPercent: 0, wantSafe: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkSafety(tt.movies, tt.shows, tt.library, tt.ceilingPercent)
			assert.Equal(t, tt.wantSafe, got.safe)
			if !tt.wantSafe {
				assert.NotEmpty(t, got.message)
			}
		})
	}
}
