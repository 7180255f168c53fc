// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package ingest

import (
	"math/rand"
	"regexp"
	"strings"
)

// stopwords are excluded from query extraction. Short function words
// only; domain terms always pass through.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "and": {},
	"or": {}, "but": {}, "with": {}, "this": {}, "that": {}, "my": {},
	"your": {}, "i": {}, "you": {}, "we": {}, "they": {}, "it": {},
}

var nonWordRE = regexp.MustCompile(`[^\w\s]`)

// maxQueryTerms caps the phrases extracted from a single title.
const maxQueryTerms = 5

// ExtractQueryTerms turns a video title into search phrases: all 2-word
// runs first, then all 3-word runs, over the stopword-filtered tokens.
// At most maxQueryTerms phrases are returned.
func ExtractQueryTerms(title string) []string {
	cleaned := nonWordRE.ReplaceAllString(strings.ToLower(title), " ")

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if _, stop := stopwords[w]; stop || len(w) <= 2 {
			continue
		}
		words = append(words, w)
	}

	var phrases []string
	for i := 0; i+1 < len(words); i++ {
		phrases = append(phrases, words[i]+" "+words[i+1])
	}
	for i := 0; i+2 < len(words); i++ {
		phrases = append(phrases, words[i]+" "+words[i+1]+" "+words[i+2])
	}

	if len(phrases) > maxQueryTerms {
		phrases = phrases[:maxQueryTerms]
	}
	return phrases
}

// GenerateLongTailQueries combines intent seeds with extracted keywords
// into shuffled "intent keyword" queries. rng keeps runs reproducible in
// tests; pass rand.New(rand.NewSource(time.Now().UnixNano())) in
// production paths.
func GenerateLongTailQueries(rng *rand.Rand, keywords []string, queriesPerRun int) []string {
	if len(keywords) == 0 || queriesPerRun <= 0 {
		return nil
	}

	intents := sampleStrings(rng, IntentSeeds, 10)
	sampled := sampleStrings(rng, keywords, 20)
	if len(sampled) > 5 {
		sampled = sampled[:5]
	}

	var queries []string
	for _, intent := range intents {
		for _, kw := range sampled {
			queries = append(queries, intent+" "+kw)
		}
	}

	rng.Shuffle(len(queries), func(i, j int) {
		queries[i], queries[j] = queries[j], queries[i]
	})
	if len(queries) > queriesPerRun {
		queries = queries[:queriesPerRun]
	}
	return queries
}

// sampleStrings draws up to n elements without replacement, leaving the
// input untouched.
func sampleStrings(rng *rand.Rand, in []string, n int) []string {
	if len(in) <= n {
		out := make([]string, len(in))
		copy(out, in)
		return out
	}
	perm := rng.Perm(len(in))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, in[idx])
	}
	return out
}
