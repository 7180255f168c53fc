// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nichescout/nichescout/internal/config"
	"github.com/nichescout/nichescout/internal/quota"
)

func testClient(t *testing.T, handler http.Handler, dailyQuota int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.PlatformConfig{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Region:   "US",
		Language: "en",
		Timeout:  5 * time.Second,
	}
	return NewClient(cfg, quota.New(dailyQuota, 0))
}

func TestSearchVideosDecodesResults(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("order"); got != "viewCount" {
			t.Errorf("order = %q, want viewCount", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": {"videoId": "v1"},
				 "snippet": {"title": "How to solder", "channelId": "c1",
				             "channelTitle": "Maker", "publishedAt": "2026-08-20T00:00:00Z",
				             "thumbnails": {"medium": {"url": "https://i.example.com/v1.jpg"}}}},
				{"id": {}, "snippet": {"title": "channel result, no video id"}}
			]
		}`))
	})

	c := testClient(t, handler, 10000)
	results, err := c.SearchVideos(context.Background(), SearchParams{
		Query: "how to", MaxResults: 10, Order: OrderViewCount,
	})
	if err != nil {
		t.Fatalf("SearchVideos error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (item without id skipped)", len(results))
	}
	if results[0].VideoID != "v1" || results[0].ChannelID != "c1" {
		t.Errorf("unexpected result %+v", results[0])
	}
	if got := c.governor.Used(); got != CostSearch {
		t.Errorf("quota used = %d, want %d", got, CostSearch)
	}
}

func TestSearchRefusedWhenUnaffordable(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	c := testClient(t, handler, 50) // effective 50 < search cost 100
	_, err := c.SearchVideos(context.Background(), SearchParams{Query: "q"})
	if !IsQuotaExceeded(err) {
		t.Fatalf("want QuotaExceededError, got %v", err)
	}
	if called {
		t.Error("request must not start when unaffordable")
	}
}

func TestQuotaReasonIsTerminal(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "quota",
			"errors": [{"reason": "quotaExceeded"}]}}`))
	})

	c := testClient(t, handler, 10000)
	_, err := c.GetVideoStats(context.Background(), []string{"v1"})
	if !IsQuotaExceeded(err) {
		t.Fatalf("want QuotaExceededError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("quota 403 must not retry, got %d calls", calls)
	}
	if got := c.governor.Used(); got != 0 {
		t.Errorf("failed call must not consume quota, used = %d", got)
	}
}

func TestNonRetryable4xxSurfacesAPIError(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "invalid id",
			"errors": [{"reason": "invalidParameter"}]}}`))
	})

	c := testClient(t, handler, 10000)
	_, err := c.GetVideoStats(context.Background(), []string{"v1"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %T: %v", err, err)
	}
	if apiErr.Reason != "invalidParameter" {
		t.Errorf("Reason = %q, want invalidParameter", apiErr.Reason)
	}
	if calls != 1 {
		t.Errorf("400 must not retry, got %d calls", calls)
	}
}

func TestGetVideoStatsParsesCounts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "v1",
				 "statistics": {"viewCount": "1000", "likeCount": "50", "commentCount": "7"},
				 "contentDetails": {"duration": "PT5M30S"}},
				{"id": "v2",
				 "statistics": {"viewCount": "200"},
				 "contentDetails": {"duration": ""}}
			]
		}`))
	})

	c := testClient(t, handler, 10000)
	stats, err := c.GetVideoStats(context.Background(), []string{"v1", "v2"})
	if err != nil {
		t.Fatalf("GetVideoStats error: %v", err)
	}

	s1 := stats["v1"]
	if s1.ViewCount != 1000 {
		t.Errorf("v1 views = %d, want 1000", s1.ViewCount)
	}
	if s1.LikeCount == nil || *s1.LikeCount != 50 {
		t.Errorf("v1 likes = %v, want 50", s1.LikeCount)
	}
	if s1.DurationSeconds == nil || *s1.DurationSeconds != 330 {
		t.Errorf("v1 duration = %v, want 330", s1.DurationSeconds)
	}

	s2 := stats["v2"]
	if s2.LikeCount != nil || s2.CommentCount != nil || s2.DurationSeconds != nil {
		t.Errorf("v2 optional fields should be nil, got %+v", s2)
	}
}

func TestBatchedStatsStopsOnQuota(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{"items": [{"id": "v1", "statistics": {"viewCount": "5"}}]}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"errors": [{"reason": "dailyLimitExceeded"}]}}`))
	})

	c := testClient(t, handler, 10000)

	// 60 IDs -> two chunks of 50 and 10.
	ids := make([]string, 60)
	for i := range ids {
		ids[i] = "v"
	}
	ids[0] = "v1"

	stats, err := c.GetVideoStatsBatched(context.Background(), ids)
	if !IsQuotaExceeded(err) {
		t.Fatalf("want QuotaExceededError, got %v", err)
	}
	if len(stats) != 1 {
		t.Errorf("partial results should be kept, got %d", len(stats))
	}
	if calls != 2 {
		t.Errorf("should stop after quota hit, got %d calls", calls)
	}
}

func TestChannelInfoHiddenSubscribers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "c1", "snippet": {"title": "Open", "publishedAt": "2020-01-01T00:00:00Z"},
				 "statistics": {"subscriberCount": "9000", "hiddenSubscriberCount": false}},
				{"id": "c2", "snippet": {"title": "Hidden"},
				 "statistics": {"subscriberCount": "1", "hiddenSubscriberCount": true}}
			]
		}`))
	})

	c := testClient(t, handler, 10000)
	infos, err := c.GetChannelInfo(context.Background(), []string{"c1", "c2"})
	if err != nil {
		t.Fatalf("GetChannelInfo error: %v", err)
	}
	if infos["c1"].SubscriberCount == nil || *infos["c1"].SubscriberCount != 9000 {
		t.Errorf("c1 subs = %v, want 9000", infos["c1"].SubscriberCount)
	}
	if infos["c2"].SubscriberCount != nil {
		t.Errorf("hidden subscriber count should be nil, got %d", *infos["c2"].SubscriberCount)
	}
}

func TestChannelInfoBatchedDedupes(t *testing.T) {
	var gotIDs string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("id")
		_, _ = w.Write([]byte(`{"items": []}`))
	})

	c := testClient(t, handler, 10000)
	_, err := c.GetChannelInfoBatched(context.Background(), []string{"c1", "c2", "c1", "", "c3", "c2"})
	if err != nil {
		t.Fatalf("GetChannelInfoBatched error: %v", err)
	}
	if gotIDs != "c1,c2,c3" {
		t.Errorf("ids = %q, want c1,c2,c3 (deduped, order preserved)", gotIDs)
	}
}
