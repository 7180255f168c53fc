// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/nichescout/nichescout/internal/config"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/quota"
)

const (
	maxRetries     = 5
	backoffBase    = time.Second
	backoffCap     = 60 * time.Second
	jitterCap      = 500 * time.Millisecond
	searchesPerSec = 2
)

// Client talks to the metered platform API. All calls pre-check the quota
// governor, retry transient failures with exponential backoff and jitter,
// and run behind a circuit breaker.
type Client struct {
	baseURL    string
	apiKey     string
	region     string
	language   string
	httpClient *http.Client
	governor   *quota.Governor
	breaker    *gobreaker.CircuitBreaker[[]byte]

	// searchLimiter paces the expensive search endpoint so a burst of
	// feeders cannot spend the whole budget in seconds.
	searchLimiter *rate.Limiter
}

// Ensure Client implements PlatformClient.
var _ PlatformClient = (*Client)(nil)

// NewClient creates a platform API client bound to a quota governor.
func NewClient(cfg *config.PlatformConfig, governor *quota.Governor) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "platform-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// Quota exhaustion and caller bugs are not platform outages.
			if err == nil || IsQuotaExceeded(err) {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr)
		},
	})

	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		region:        cfg.Region,
		language:      cfg.Language,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		governor:      governor,
		breaker:       breaker,
		searchLimiter: rate.NewLimiter(rate.Limit(searchesPerSec), 1),
	}
}

// SearchVideos runs one search call. Cost: 100 units.
func (c *Client) SearchVideos(ctx context.Context, params SearchParams) ([]SearchResult, error) {
	if err := c.searchLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	maxResults := params.MaxResults
	if maxResults <= 0 || maxResults > maxBatchSize {
		maxResults = maxBatchSize
	}
	order := params.Order
	if order == "" {
		order = OrderRelevance
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("q", params.Query)
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("order", order)
	q.Set("regionCode", c.region)
	q.Set("relevanceLanguage", c.language)
	if params.PublishedAfter != nil {
		q.Set("publishedAfter", params.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if params.PublishedBefore != nil {
		q.Set("publishedBefore", params.PublishedBefore.UTC().Format(time.RFC3339))
	}

	var resp searchResponse
	if err := c.call(ctx, "/search", q, CostSearch, &resp); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			logging.Debug().Str("query", params.Query).Msg("search item without video id, skipped")
			continue
		}
		results = append(results, SearchResult{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
			ThumbnailURL: item.Snippet.Thumbnails.best(),
		})
	}
	return results, nil
}

// GetVideoStats fetches statistics for up to 50 video IDs. Cost: 1 unit.
func (c *Client) GetVideoStats(ctx context.Context, ids []string) (map[string]Stats, error) {
	if len(ids) == 0 {
		return map[string]Stats{}, nil
	}
	if len(ids) > maxBatchSize {
		return nil, fmt.Errorf("stats batch of %d exceeds limit %d", len(ids), maxBatchSize)
	}

	q := url.Values{}
	q.Set("part", "statistics,contentDetails")
	q.Set("id", joinIDs(ids))

	var resp videosResponse
	if err := c.call(ctx, "/videos", q, CostVideos, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]Stats, len(resp.Items))
	for _, item := range resp.Items {
		views, err := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
		if err != nil {
			logging.Debug().Str("video_id", item.ID).Msg("unparsable view count, skipped")
			continue
		}
		out[item.ID] = Stats{
			ViewCount:       views,
			LikeCount:       parseOptionalCount(item.Statistics.LikeCount),
			CommentCount:    parseOptionalCount(item.Statistics.CommentCount),
			DurationSeconds: ParseDuration(item.ContentDetails.Duration),
		}
	}
	return out, nil
}

// GetVideoStatsBatched chunks IDs by 50. On quota exhaustion it returns
// the partial map together with the QuotaExceededError; callers keep the
// partial results and stop the stage.
func (c *Client) GetVideoStatsBatched(ctx context.Context, ids []string) (map[string]Stats, error) {
	out := make(map[string]Stats, len(ids))
	for _, chunk := range chunkIDs(ids, maxBatchSize) {
		stats, err := c.GetVideoStats(ctx, chunk)
		for id, s := range stats {
			out[id] = s
		}
		if err != nil {
			if IsQuotaExceeded(err) {
				metrics.QuotaExhaustedTotal.Inc()
				return out, err
			}
			return out, err
		}
	}
	return out, nil
}

// GetChannelInfo fetches metadata for up to 50 channel IDs. Cost: 1 unit.
func (c *Client) GetChannelInfo(ctx context.Context, ids []string) (map[string]ChannelInfo, error) {
	if len(ids) == 0 {
		return map[string]ChannelInfo{}, nil
	}
	if len(ids) > maxBatchSize {
		return nil, fmt.Errorf("channel batch of %d exceeds limit %d", len(ids), maxBatchSize)
	}

	q := url.Values{}
	q.Set("part", "snippet,statistics")
	q.Set("id", joinIDs(ids))

	var resp channelsResponse
	if err := c.call(ctx, "/channels", q, CostChannels, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]ChannelInfo, len(resp.Items))
	for _, item := range resp.Items {
		info := ChannelInfo{
			ChannelID: item.ID,
			Title:     item.Snippet.Title,
		}
		if !item.Statistics.HiddenSubscriberCount {
			info.SubscriberCount = parseOptionalCount(item.Statistics.SubscriberCount)
		}
		if !item.Snippet.PublishedAt.IsZero() {
			t := item.Snippet.PublishedAt
			info.PublishedAt = &t
		}
		out[item.ID] = info
	}
	return out, nil
}

// GetChannelInfoBatched dedupes IDs preserving order, chunks by 50, and
// stops early on quota exhaustion like GetVideoStatsBatched.
func (c *Client) GetChannelInfoBatched(ctx context.Context, ids []string) (map[string]ChannelInfo, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	out := make(map[string]ChannelInfo, len(unique))
	for _, chunk := range chunkIDs(unique, maxBatchSize) {
		infos, err := c.GetChannelInfo(ctx, chunk)
		for id, info := range infos {
			out[id] = info
		}
		if err != nil {
			if IsQuotaExceeded(err) {
				metrics.QuotaExhaustedTotal.Inc()
			}
			return out, err
		}
	}
	return out, nil
}

// call performs one quota-governed API request and decodes the response.
func (c *Client) call(ctx context.Context, endpoint string, params url.Values, cost int, out any) error {
	if !c.governor.CanAfford(cost) {
		metrics.PlatformRequestsTotal.WithLabelValues(endpoint, "quota_exceeded").Inc()
		return &QuotaExceededError{Endpoint: endpoint, Cost: cost}
	}

	start := time.Now()
	body, err := c.doWithRetry(ctx, endpoint, params)
	metrics.PlatformRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		status := "error"
		if IsQuotaExceeded(err) {
			status = "quota_exceeded"
		}
		metrics.PlatformRequestsTotal.WithLabelValues(endpoint, status).Inc()
		return err
	}

	// Consume only after success: a failed request costs nothing locally.
	c.governor.Consume(cost)
	metrics.PlatformRequestsTotal.WithLabelValues(endpoint, "ok").Inc()

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// doWithRetry runs the request with exponential backoff and jitter.
// Quota and non-retryable API errors pass through immediately.
func (c *Client) doWithRetry(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			metrics.PlatformRetriesTotal.Inc()
			if err := sleepCtx(ctx, backoffDelay(attempt)); err != nil {
				return nil, err
			}
		}

		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.doOnce(ctx, endpoint, params)
		})
		if err == nil {
			return body, nil
		}

		var qe *QuotaExceededError
		var apiErr *APIError
		switch {
		case errors.As(err, &qe), errors.As(err, &apiErr):
			return nil, err
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			lastErr = fmt.Errorf("platform circuit breaker open: %w", err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			lastErr = err
		}

		logging.Debug().Err(err).Str("endpoint", endpoint).Int("attempt", attempt+1).
			Msg("platform request failed, will retry")
	}
	return nil, fmt.Errorf("platform %s failed after %d attempts: %w", endpoint, maxRetries, lastErr)
}

// doOnce performs a single HTTP round trip and classifies failures.
func (c *Client) doOnce(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("key", c.apiKey)

	reqURL := c.baseURL + endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if retryableTransport(err) {
			return nil, &transientError{cause: err}
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{cause: err}
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	reason := eb.firstReason()

	if resp.StatusCode == http.StatusForbidden && quotaReasons[reason] {
		return nil, &QuotaExceededError{Endpoint: endpoint, Reason: reason}
	}
	if retryableStatus(resp.StatusCode) {
		return nil, &transientError{cause: fmt.Errorf("status %d (%s)", resp.StatusCode, reason)}
	}
	return nil, &APIError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Reason:     reason,
		Message:    eb.Error.Message,
	}
}

// transientError marks a failure worth retrying.
type transientError struct {
	cause error
}

func (e *transientError) Error() string { return "transient platform error: " + e.cause.Error() }
func (e *transientError) Unwrap() error { return e.cause }

// backoffDelay returns the exponential delay for the given attempt (1-based
// for the first retry) plus up to 500ms of jitter.
func backoffDelay(attempt int) time.Duration {
	d := backoffBase << (attempt - 1)
	if d > backoffCap {
		d = backoffCap
	}
	return d + time.Duration(rand.Int63n(int64(jitterCap))) //nolint:gosec // jitter needs no crypto rand
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func parseOptionalCount(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// Response envelopes.

type thumbnails struct {
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
	Default thumbnail `json:"default"`
}

type thumbnail struct {
	URL string `json:"url"`
}

func (t thumbnails) best() string {
	switch {
	case t.Medium.URL != "":
		return t.Medium.URL
	case t.High.URL != "":
		return t.High.URL
	default:
		return t.Default.URL
	}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string     `json:"title"`
			Description  string     `json:"description"`
			ChannelID    string     `json:"channelId"`
			ChannelTitle string     `json:"channelTitle"`
			PublishedAt  time.Time  `json:"publishedAt"`
			Thumbnails   thumbnails `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount       string `json:"subscriberCount"`
			HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
		} `json:"statistics"`
	} `json:"items"`
}
