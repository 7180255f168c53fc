// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package cluster

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// labelStopwords are dropped before keyword extraction. Platform noise
// words and year tags are included because they dominate titles without
// describing a niche.
var labelStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "being": {}, "how": {}, "what": {}, "why": {}, "when": {},
	"where": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"you": {}, "your": {}, "my": {}, "we": {}, "they": {}, "i": {},
	"it": {}, "as": {}, "vs": {}, "best": {}, "top": {}, "new": {},
	"video": {}, "videos": {}, "youtube": {}, "watch": {}, "subscribe": {},
	"like": {}, "comment": {}, "2024": {}, "2025": {}, "2026": {},
	"part": {}, "episode": {}, "ep": {}, "vol": {}, "official": {},
}

var nonAlnumRE = regexp.MustCompile(`[^a-z0-9\s]`)

const (
	maxFeatures  = 50
	topKeywords  = 5
	minTokenLen  = 3
	defaultLabel = "General"
)

// cleanTitle lowercases and strips everything but letters, digits, and
// spaces.
func cleanTitle(title string) string {
	title = nonAlnumRE.ReplaceAllString(strings.ToLower(title), " ")
	return strings.Join(strings.Fields(title), " ")
}

// titleTokens returns the stopword-filtered tokens of a cleaned title.
func titleTokens(title string) []string {
	var out []string
	for _, w := range strings.Fields(cleanTitle(title)) {
		if len(w) < minTokenLen {
			continue
		}
		if _, stop := labelStopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// ExtractKeywords ranks unigrams and bigrams across the titles by mean
// TF-IDF score and returns up to topKeywords terms. Falls back to raw
// frequency when the vocabulary is degenerate.
func ExtractKeywords(titles []string) []string {
	if len(titles) == 0 {
		return nil
	}

	docs := make([][]string, 0, len(titles))
	for _, t := range titles {
		tokens := titleTokens(t)
		terms := append([]string(nil), tokens...)
		for i := 0; i+1 < len(tokens); i++ {
			terms = append(terms, tokens[i]+" "+tokens[i+1])
		}
		docs = append(docs, terms)
	}

	// Vocabulary capped by document frequency, ties broken by term for
	// determinism.
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return nil
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Slice(vocab, func(i, j int) bool {
		if df[vocab[i]] != df[vocab[j]] {
			return df[vocab[i]] > df[vocab[j]]
		}
		return vocab[i] < vocab[j]
	})
	if len(vocab) > maxFeatures {
		vocab = vocab[:maxFeatures]
	}
	inVocab := make(map[string]struct{}, len(vocab))
	for _, term := range vocab {
		inVocab[term] = struct{}{}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(vocab))
	for _, term := range vocab {
		// Smoothed IDF, matching the usual vectorizer formulation.
		idf[term] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	// Mean TF-IDF per term over all documents.
	scores := make(map[string]float64, len(vocab))
	tf := make(map[string]float64)
	for _, doc := range docs {
		for k := range tf {
			delete(tf, k)
		}
		for _, term := range doc {
			if _, ok := inVocab[term]; ok {
				tf[term]++
			}
		}
		norm := 0.0
		for term, count := range tf {
			v := count * idf[term]
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		for term, count := range tf {
			scores[term] += count * idf[term] / norm
		}
	}
	for term := range scores {
		scores[term] /= n
	}

	ranked := append([]string(nil), vocab...)
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > topKeywords {
		ranked = ranked[:topKeywords]
	}
	return ranked
}

// GenerateLabel title-cases the top keywords into a short human-readable
// label.
func GenerateLabel(keywords []string) string {
	if len(keywords) == 0 {
		return defaultLabel
	}
	words := keywords
	if len(words) > 3 {
		words = words[:3]
	}
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, titleCase(w))
	}
	return strings.Join(parts, " ")
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}
