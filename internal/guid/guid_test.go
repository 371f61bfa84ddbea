// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package guid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"TMDB://550", "tmdb://550"},
		{"  tvdb://12345 ", "tvdb://12345"},
		{"imdb://tt0137523", "imdb://tt0137523"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestParseFlexible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		raw           string
		want          []string
		wantMalformed bool
	}{
		{
			name: "json_array",
			raw:  `["tmdb://550", "IMDB://tt0137523"]`,
			want: []string{"tmdb://550", "imdb://tt0137523"},
		},
		{
			name: "json_string_encoded_array",
			raw:  `"[\"tvdb://12345\"]"`,
			want: []string{"tvdb://12345"},
		},
		{
			name: "empty_string",
			raw:  "",
			want: nil,
		},
		{
			name: "empty_array",
			raw:  "[]",
			want: []string{},
		},
		{
			name:          "garbage",
			raw:           "not json at all",
			want:          nil,
			wantMalformed: true,
		},
		{
			name:          "string_but_not_array",
			raw:           `"still not an array"`,
			want:          nil,
			wantMalformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, malformed := ParseFlexible(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantMalformed, malformed)
		})
	}
}

func TestAnyMatch(t *testing.T) {
	t.Parallel()

	set := NewSet("tmdb://550", "TVDB://12345")

	assert.True(t, AnyMatch([]string{"imdb://tt1", "tmdb://550"}, set))
	assert.True(t, AnyMatch([]string{"tvdb://12345"}, set), "set normalizes on insert")
	assert.False(t, AnyMatch([]string{"tmdb://551"}, set))

	// Zero-GUID items never match anything.
	assert.False(t, AnyMatch(nil, set))
	assert.False(t, AnyMatch([]string{}, set))

	// Nothing matches an empty set.
	assert.False(t, AnyMatch([]string{"tmdb://550"}, NewSet()))
}

func TestSetAddIgnoresEmpty(t *testing.T) {
	t.Parallel()

	s := NewSet()
	s.Add("  ")
	s.Add("")
	assert.Equal(t, 0, s.Len())

	s.Add("TMDB://1")
	assert.True(t, s.Contains("tmdb://1"))
	assert.Equal(t, 1, s.Len())
}
