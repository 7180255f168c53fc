// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/nichescout/nichescout/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(&config.EmbeddingConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		Model:     "text-embedding-3-small",
		Dim:       3,
		BatchSize: 100,
	})
	c.retryBase = time.Millisecond
	return c
}

func TestEmbedBatch(t *testing.T) {
	var gotAuth string
	var gotReq embedRequest

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.4, 0.5, 0.6}},
				{"index": 0, "embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	})

	vectors, err := c.EmbedBatch(context.Background(), []string{"first title", "second title"})
	if err != nil {
		t.Fatalf("EmbedBatch error: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "text-embedding-3-small" || len(gotReq.Input) != 2 {
		t.Errorf("request = %+v", gotReq)
	}
	// Out-of-order response items land at their declared index.
	if vectors[0][0] != 0.1 || vectors[1][0] != 0.4 {
		t.Errorf("vectors misordered: %v", vectors)
	}
}

func TestEmbedBatchEmpty(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	})
	vectors, err := c.EmbedBatch(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", vectors, err)
	}
}

func TestEmbedBatchDimensionMismatch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float32{0.1, 0.2}},
			},
		})
	})
	if _, err := c.EmbedBatch(context.Background(), []string{"title"}); err == nil {
		t.Fatal("expected error for wrong dimension")
	}
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	})
	if _, err := c.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error for missing vectors")
	}
}

func TestEmbedBatchRetriesServerErrors(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float32{1, 2, 3}},
			},
		})
	})

	vectors, err := c.EmbedBatch(context.Background(), []string{"title"})
	if err != nil {
		t.Fatalf("EmbedBatch error: %v", err)
	}
	if calls != 3 {
		t.Errorf("made %d calls, want 3", calls)
	}
	if len(vectors) != 1 || vectors[0][2] != 3 {
		t.Errorf("vectors = %v", vectors)
	}
}
