// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package ingest

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/nichescout/nichescout/internal/database"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
	"github.com/nichescout/nichescout/internal/platform"
)

// Feeder source tags recorded on discovered videos.
const (
	FeederIntentSeed = "intent_seed"
	FeederExpansion  = "graph_expand"
	FeederLongTail   = "longtail"
	FeederRSSExpand  = "rss_expand"
)

// Searcher is the platform capability feeders need.
type Searcher interface {
	SearchVideos(ctx context.Context, params platform.SearchParams) ([]platform.SearchResult, error)
	FetchChannelFeed(ctx context.Context, channelID string) ([]platform.FeedItem, error)
}

// StateStore persists per-feeder cursors and run counters.
type StateStore interface {
	GetCursor(ctx context.Context, feeder string) (int, error)
	SaveCursor(ctx context.Context, feeder string, cursor, videosAdded int) error
}

// ScoreStore provides the high performers the expansion feeder reads.
type ScoreStore interface {
	FetchTopPerformers(ctx context.Context, window models.Window, limit int) ([]database.TopPerformer, error)
}

// VideoStore provides the corpus and channel lookups feeders read.
type VideoStore interface {
	GetUniqueChannelIDs(ctx context.Context, limit int) ([]string, error)
	GetExistingVideoIDs(ctx context.Context, sinceDays int) (map[string]bool, error)
	FetchVideosWithoutEmbeddings(ctx context.Context, window models.Window, limit int) ([]database.VideoTitle, error)
}

// Feeder generates candidates for one window. Implementations stop early
// and return a platform.QuotaExceededError when the budget runs out;
// candidates produced before that point are still returned.
type Feeder interface {
	Name() string
	Generate(ctx context.Context, window models.Window) ([]Candidate, error)
}

// IntentSeedFeeder rotates through the intent seed list with a persisted
// cursor, issuing one search per seed.
type IntentSeedFeeder struct {
	client        Searcher
	state         StateStore
	seedsPerRun   int
	videosPerSeed int
	seeds         []string
}

// NewIntentSeedFeeder creates the primary feeder.
func NewIntentSeedFeeder(client Searcher, state StateStore, seedsPerRun, videosPerSeed int) *IntentSeedFeeder {
	return &IntentSeedFeeder{
		client:        client,
		state:         state,
		seedsPerRun:   seedsPerRun,
		videosPerSeed: videosPerSeed,
		seeds:         IntentSeeds,
	}
}

func (f *IntentSeedFeeder) Name() string { return FeederIntentSeed }

// Generate searches one window's worth of results for the next
// seedsPerRun seeds and advances the cursor past the seeds it finished.
// The cursor wraps at the end of the list.
func (f *IntentSeedFeeder) Generate(ctx context.Context, window models.Window) ([]Candidate, error) {
	after := time.Now().UTC().AddDate(0, 0, -window.Days())

	cursor, err := f.state.GetCursor(ctx, f.Name())
	if err != nil {
		return nil, err
	}
	if cursor >= len(f.seeds) {
		cursor = 0
	}
	end := cursor + f.seedsPerRun
	if end > len(f.seeds) {
		end = len(f.seeds)
	}
	batch := f.seeds[cursor:end]

	logging.Ctx(ctx).Info().
		Str("feeder", f.Name()).
		Int("cursor", cursor).
		Int("seeds", len(batch)).
		Msg("processing intent seeds")

	var candidates []Candidate
	var quotaErr error
	processed := 0

	for _, seed := range batch {
		results, err := f.client.SearchVideos(ctx, platform.SearchParams{
			Query:          seed,
			MaxResults:     f.videosPerSeed,
			PublishedAfter: &after,
			Order:          SearchOrderFor(window),
		})
		if err != nil {
			if platform.IsQuotaExceeded(err) {
				quotaErr = err
				break
			}
			logging.Ctx(ctx).Error().Err(err).
				Str("feeder", f.Name()).Str("seed", seed).Msg("seed search failed")
			continue
		}
		for _, r := range results {
			candidates = append(candidates, Candidate{Result: r, Feeder: f.Name(), Seed: seed})
		}
		processed++
	}

	newCursor := cursor + processed
	if newCursor >= len(f.seeds) {
		newCursor = 0
	}
	if err := f.state.SaveCursor(ctx, f.Name(), newCursor, len(candidates)); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("feeder", f.Name()).Msg("failed to save cursor")
	}

	metrics.FeederCandidatesTotal.WithLabelValues(f.Name()).Add(float64(len(candidates)))
	return candidates, quotaErr
}

// ExpansionFeeder expands from recent high performers: extracts phrases
// from their titles and searches the most frequent ones.
type ExpansionFeeder struct {
	client         Searcher
	scores         ScoreStore
	state          StateStore
	topN           int
	videosPerQuery int
	rng            *rand.Rand
}

// NewExpansionFeeder creates the secondary feeder.
func NewExpansionFeeder(client Searcher, scores ScoreStore, state StateStore, rng *rand.Rand) *ExpansionFeeder {
	return &ExpansionFeeder{
		client:         client,
		scores:         scores,
		state:          state,
		topN:           20,
		videosPerQuery: 15,
		rng:            rng,
	}
}

func (f *ExpansionFeeder) Name() string { return FeederExpansion }

// Generate reads the top performers for the window, ranks the phrases
// extracted from their titles by frequency, and runs up to ten
// relevance-ordered searches over a shuffled top 15.
func (f *ExpansionFeeder) Generate(ctx context.Context, window models.Window) ([]Candidate, error) {
	after := time.Now().UTC().AddDate(0, 0, -window.Days())

	top, err := f.scores.FetchTopPerformers(ctx, window, f.topN)
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		logging.Ctx(ctx).Info().Str("feeder", f.Name()).Msg("no top performers, skipping")
		return nil, nil
	}

	var phrases []string
	for _, tp := range top {
		phrases = append(phrases, ExtractQueryTerms(tp.Title)...)
	}
	queries := mostCommon(phrases, 15)
	f.rng.Shuffle(len(queries), func(i, j int) {
		queries[i], queries[j] = queries[j], queries[i]
	})
	if len(queries) > 10 {
		queries = queries[:10]
	}

	logging.Ctx(ctx).Info().
		Str("feeder", f.Name()).
		Int("queries", len(queries)).
		Msg("running expansion queries")

	var candidates []Candidate
	var quotaErr error

	for _, query := range queries {
		results, err := f.client.SearchVideos(ctx, platform.SearchParams{
			Query:          query,
			MaxResults:     f.videosPerQuery,
			PublishedAfter: &after,
			Order:          platform.OrderRelevance,
		})
		if err != nil {
			if platform.IsQuotaExceeded(err) {
				quotaErr = err
				break
			}
			logging.Ctx(ctx).Error().Err(err).
				Str("feeder", f.Name()).Str("query", query).Msg("expansion search failed")
			continue
		}
		for _, r := range results {
			candidates = append(candidates, Candidate{Result: r, Feeder: f.Name(), Seed: query})
		}
	}

	if err := f.state.SaveCursor(ctx, f.Name(), 0, len(candidates)); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("feeder", f.Name()).Msg("failed to save state")
	}

	metrics.FeederCandidatesTotal.WithLabelValues(f.Name()).Add(float64(len(candidates)))
	return candidates, quotaErr
}

// defaultTopics seed the long-tail feeder when the corpus is empty.
var defaultTopics = []string{"gaming", "cooking", "fitness", "tech", "music", "art", "travel"}

// LongTailFeeder joins intent seeds with keywords sampled from the
// ingested corpus into "intent keyword" queries.
type LongTailFeeder struct {
	client         Searcher
	videos         VideoStore
	state          StateStore
	queriesPerRun  int
	videosPerQuery int
	rng            *rand.Rand
}

// NewLongTailFeeder creates the tertiary feeder.
func NewLongTailFeeder(client Searcher, videos VideoStore, state StateStore, queriesPerRun int, rng *rand.Rand) *LongTailFeeder {
	return &LongTailFeeder{
		client:         client,
		videos:         videos,
		state:          state,
		queriesPerRun:  queriesPerRun,
		videosPerQuery: 10,
		rng:            rng,
	}
}

func (f *LongTailFeeder) Name() string { return FeederLongTail }

// corpusStopwords extends the shared stopwords with the question words
// that dominate ingested titles.
var corpusStopwords = []string{"how", "what", "why", "when", "where", "who"}

// corpusKeywords extracts the most frequent title words from recently
// ingested videos that do not yet have embeddings.
func (f *LongTailFeeder) corpusKeywords(ctx context.Context, limit int) ([]string, error) {
	titles, err := f.videos.FetchVideosWithoutEmbeddings(ctx, models.Window30d, limit*5)
	if err != nil {
		return nil, err
	}

	extra := make(map[string]struct{}, len(corpusStopwords))
	for _, w := range corpusStopwords {
		extra[w] = struct{}{}
	}

	var words []string
	for _, vt := range titles {
		cleaned := nonWordRE.ReplaceAllString(strings.ToLower(vt.Title), " ")
		for _, w := range strings.Fields(cleaned) {
			if len(w) <= 3 {
				continue
			}
			if _, stop := stopwords[w]; stop {
				continue
			}
			if _, stop := extra[w]; stop {
				continue
			}
			words = append(words, w)
		}
	}
	return mostCommon(words, limit), nil
}

// Generate builds long-tail queries from the corpus and runs them
// date-ordered, preferring fresh uploads.
func (f *LongTailFeeder) Generate(ctx context.Context, window models.Window) ([]Candidate, error) {
	after := time.Now().UTC().AddDate(0, 0, -window.Days())

	keywords, err := f.corpusKeywords(ctx, 100)
	if err != nil {
		return nil, err
	}
	if len(keywords) == 0 {
		logging.Ctx(ctx).Info().Str("feeder", f.Name()).Msg("empty corpus, using default topics")
		keywords = defaultTopics
	}

	queries := GenerateLongTailQueries(f.rng, keywords, f.queriesPerRun)

	logging.Ctx(ctx).Info().
		Str("feeder", f.Name()).
		Int("queries", len(queries)).
		Msg("running long-tail queries")

	var candidates []Candidate
	var quotaErr error

	for _, query := range queries {
		results, err := f.client.SearchVideos(ctx, platform.SearchParams{
			Query:          query,
			MaxResults:     f.videosPerQuery,
			PublishedAfter: &after,
			Order:          platform.OrderDate,
		})
		if err != nil {
			if platform.IsQuotaExceeded(err) {
				quotaErr = err
				break
			}
			logging.Ctx(ctx).Error().Err(err).
				Str("feeder", f.Name()).Str("query", query).Msg("long-tail search failed")
			continue
		}
		for _, r := range results {
			candidates = append(candidates, Candidate{Result: r, Feeder: f.Name(), Seed: query})
		}
	}

	if err := f.state.SaveCursor(ctx, f.Name(), 0, len(candidates)); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("feeder", f.Name()).Msg("failed to save state")
	}

	metrics.FeederCandidatesTotal.WithLabelValues(f.Name()).Add(float64(len(candidates)))
	return candidates, quotaErr
}

// RSSExpansionFeeder pulls the public feeds of recently seen channels.
// Uses zero quota.
type RSSExpansionFeeder struct {
	client        Searcher
	videos        VideoStore
	maxChannels   int
	maxPerChannel int
}

// NewRSSExpansionFeeder creates the free-feed feeder.
func NewRSSExpansionFeeder(client Searcher, videos VideoStore) *RSSExpansionFeeder {
	return &RSSExpansionFeeder{
		client:        client,
		videos:        videos,
		maxChannels:   50,
		maxPerChannel: 10,
	}
}

func (f *RSSExpansionFeeder) Name() string { return FeederRSSExpand }

// Generate walks the most recent known channels and emits feed items not
// already in the store. Per-channel failures are logged and skipped.
func (f *RSSExpansionFeeder) Generate(ctx context.Context, window models.Window) ([]Candidate, error) {
	channelIDs, err := f.videos.GetUniqueChannelIDs(ctx, f.maxChannels)
	if err != nil {
		return nil, err
	}
	if len(channelIDs) == 0 {
		logging.Ctx(ctx).Info().Str("feeder", f.Name()).Msg("no channels to expand")
		return nil, nil
	}

	existing, err := f.videos.GetExistingVideoIDs(ctx, 30)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("feeder", f.Name()).
		Int("channels", len(channelIDs)).
		Msg("fetching channel feeds")

	var candidates []Candidate
	for _, channelID := range channelIDs {
		items, err := f.client.FetchChannelFeed(ctx, channelID)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).
				Str("feeder", f.Name()).Str("channel_id", channelID).Msg("feed fetch failed")
			continue
		}
		if len(items) > f.maxPerChannel {
			items = items[:f.maxPerChannel]
		}
		for _, item := range items {
			if existing[item.VideoID] {
				continue
			}
			candidates = append(candidates, Candidate{
				Result: platform.SearchResult{
					VideoID:      item.VideoID,
					Title:        item.Title,
					ChannelID:    channelID,
					PublishedAt:  item.PublishedAt,
					ThumbnailURL: item.ThumbnailURL,
				},
				Feeder: f.Name(),
			})
		}
	}

	metrics.FeederCandidatesTotal.WithLabelValues(f.Name()).Add(float64(len(candidates)))
	return candidates, nil
}

// RunnerStats holds per-feeder and total candidate counts for one pass.
type RunnerStats struct {
	PerFeeder map[string]int
	Total     int
}

// RunFeeders invokes the feeders in their fixed order. A quota-exceeded
// signal abandons only the current feeder; the free-feed feeder still
// runs afterwards since it costs nothing.
func RunFeeders(ctx context.Context, feeders []Feeder, window models.Window) ([]Candidate, RunnerStats) {
	stats := RunnerStats{PerFeeder: make(map[string]int, len(feeders))}

	var all []Candidate
	for _, f := range feeders {
		candidates, err := f.Generate(ctx, window)
		if err != nil {
			if platform.IsQuotaExceeded(err) {
				logging.Ctx(ctx).Warn().Str("feeder", f.Name()).Msg("quota exceeded, moving to next feeder")
			} else {
				logging.Ctx(ctx).Error().Err(err).Str("feeder", f.Name()).Msg("feeder failed")
			}
		}
		all = append(all, candidates...)
		stats.PerFeeder[f.Name()] = len(candidates)
	}
	stats.Total = len(all)
	return all, stats
}

// mostCommon ranks items by frequency and returns up to n of them, most
// frequent first. Ties break by first appearance to keep output stable.
func mostCommon(items []string, n int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string
	for i, item := range items {
		if _, ok := counts[item]; !ok {
			firstSeen[item] = i
			order = append(order, item)
		}
		counts[item]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}
