// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package cluster

import (
	"strings"
	"testing"
)

func TestExtractKeywordsSurfacesCommonTerms(t *testing.T) {
	titles := []string{
		"sourdough bread baking tutorial",
		"my sourdough bread starter routine",
		"sourdough baking mistakes everyone makes",
		"easy sourdough bread recipe",
	}
	keywords := ExtractKeywords(titles)
	if len(keywords) == 0 {
		t.Fatal("no keywords extracted")
	}
	joined := strings.Join(keywords, " ")
	if !strings.Contains(joined, "sourdough") {
		t.Errorf("keywords %v missing dominant term", keywords)
	}
}

func TestExtractKeywordsFiltersStopwords(t *testing.T) {
	titles := []string{
		"the best new video 2025",
		"best top new youtube video",
	}
	keywords := ExtractKeywords(titles)
	for _, kw := range keywords {
		for _, w := range strings.Fields(kw) {
			if _, stop := labelStopwords[w]; stop {
				t.Errorf("stopword %q leaked into keywords %v", w, keywords)
			}
		}
	}
}

func TestExtractKeywordsEmpty(t *testing.T) {
	if kw := ExtractKeywords(nil); kw != nil {
		t.Errorf("nil titles: got %v", kw)
	}
	// Titles made entirely of stopwords yield nothing.
	if kw := ExtractKeywords([]string{"the best top", "new video"}); len(kw) != 0 {
		t.Errorf("stopword-only titles: got %v", kw)
	}
}

func TestExtractKeywordsDeterministic(t *testing.T) {
	titles := []string{
		"mechanical keyboard build guide",
		"custom mechanical keyboard sound test",
		"budget mechanical keyboard comparison",
	}
	a := ExtractKeywords(titles)
	b := ExtractKeywords(titles)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("keyword %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestGenerateLabel(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		want     string
	}{
		{"empty", nil, "General"},
		{"single", []string{"sourdough"}, "Sourdough"},
		{"caps at three", []string{"sourdough", "bread", "baking", "recipe"}, "Sourdough Bread Baking"},
		{"bigram keyword", []string{"mechanical keyboard"}, "Mechanical Keyboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateLabel(tt.keywords); got != tt.want {
				t.Errorf("GenerateLabel(%v) = %q, want %q", tt.keywords, got, tt.want)
			}
		})
	}
}
