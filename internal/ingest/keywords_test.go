// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package ingest

import (
	"math/rand"
	"strings"
	"testing"
)

func TestExtractQueryTerms(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{
			name:  "bigrams before trigrams, capped at five",
			title: "learn golang programming fast today",
			want: []string{
				"learn golang", "golang programming", "programming fast", "fast today",
				"learn golang programming",
			},
		},
		{
			name:  "stopwords and short tokens removed",
			title: "The Best AI Tools for Coding",
			want:  []string{"best tools", "tools coding", "best tools coding"},
		},
		{
			name:  "punctuation stripped",
			title: "iPhone 17: honest review!",
			want:  []string{"iphone honest", "honest review", "iphone honest review"},
		},
		{
			name:  "single keyword yields nothing",
			title: "the review",
			want:  nil,
		},
		{
			name:  "empty title",
			title: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractQueryTerms(tt.title)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractQueryTerms(%q) = %v, want %v", tt.title, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("phrase %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGenerateLongTailQueries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	keywords := []string{"golang", "kubernetes", "postgres", "terraform", "redis", "kafka"}

	queries := GenerateLongTailQueries(rng, keywords, 10)
	if len(queries) != 10 {
		t.Fatalf("got %d queries, want 10", len(queries))
	}

	keywordSet := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		keywordSet[k] = true
	}
	for _, q := range queries {
		parts := strings.Split(q, " ")
		last := parts[len(parts)-1]
		if !keywordSet[last] {
			t.Errorf("query %q does not end in a corpus keyword", q)
		}
		intent := strings.Join(parts[:len(parts)-1], " ")
		found := false
		for _, seed := range IntentSeeds {
			if seed == intent {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("query %q does not start with an intent seed", q)
		}
	}
}

func TestGenerateLongTailQueriesEmptyInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if got := GenerateLongTailQueries(rng, nil, 10); got != nil {
		t.Errorf("nil keywords: got %v, want nil", got)
	}
	if got := GenerateLongTailQueries(rng, []string{"golang"}, 0); got != nil {
		t.Errorf("zero budget: got %v, want nil", got)
	}
}

func TestGenerateLongTailQueriesDeterministic(t *testing.T) {
	keywords := []string{"golang", "kubernetes", "postgres"}
	a := GenerateLongTailQueries(rand.New(rand.NewSource(7)), keywords, 5)
	b := GenerateLongTailQueries(rand.New(rand.NewSource(7)), keywords, 5)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("query %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}
