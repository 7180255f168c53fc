// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/nichescout/nichescout/internal/database"
	"github.com/nichescout/nichescout/internal/models"
)

type mockEmbedder struct {
	batches    [][]string
	failBatch  int
	batchCount int
}

func (m *mockEmbedder) ModelName() string { return "test-model" }
func (m *mockEmbedder) Dimension() int    { return 3 }

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCount++
	m.batches = append(m.batches, texts)
	if m.batchCount == m.failBatch {
		return nil, errors.New("embedder down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

type mockVideoStore struct {
	titles []database.VideoTitle
}

func (m *mockVideoStore) FetchVideosWithoutEmbeddings(ctx context.Context, window models.Window, limit int) ([]database.VideoTitle, error) {
	if len(m.titles) > limit {
		return m.titles[:limit], nil
	}
	return m.titles, nil
}

type mockEmbeddingStore struct {
	upserted []*models.Embedding
}

func (m *mockEmbeddingStore) Upsert(ctx context.Context, e *models.Embedding) error {
	m.upserted = append(m.upserted, e)
	return nil
}

func makeTitles(n int) []database.VideoTitle {
	out := make([]database.VideoTitle, n)
	for i := range out {
		out[i] = database.VideoTitle{VideoID: "v" + string(rune('a'+i)), Title: "title"}
	}
	return out
}

func TestRunEmbedsInBatches(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockEmbeddingStore{}
	svc := NewService(embedder, &mockVideoStore{titles: makeTitles(5)}, store, 2)

	stats, err := svc.Run(context.Background(), models.Window7d)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Embedded != 5 || stats.TotalFound != 5 {
		t.Errorf("stats = %+v, want 5 embedded", stats)
	}
	if embedder.batchCount != 3 {
		t.Errorf("made %d batches of size 2 for 5 titles, want 3", embedder.batchCount)
	}
	if len(store.upserted) != 5 {
		t.Fatalf("upserted %d embeddings, want 5", len(store.upserted))
	}
	if store.upserted[0].Model != "test-model" {
		t.Errorf("model tag = %q", store.upserted[0].Model)
	}
}

func TestRunContinuesPastFailedBatch(t *testing.T) {
	embedder := &mockEmbedder{failBatch: 1}
	store := &mockEmbeddingStore{}
	svc := NewService(embedder, &mockVideoStore{titles: makeTitles(4)}, store, 2)

	stats, err := svc.Run(context.Background(), models.Window7d)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Embedded != 2 || stats.Failed != 2 {
		t.Errorf("stats = %+v, want 2 embedded 2 failed", stats)
	}
}

func TestRunNoWork(t *testing.T) {
	embedder := &mockEmbedder{}
	svc := NewService(embedder, &mockVideoStore{}, &mockEmbeddingStore{}, 100)

	stats, err := svc.Run(context.Background(), models.Window7d)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.TotalFound != 0 || embedder.batchCount != 0 {
		t.Errorf("expected no work, got %+v with %d batches", stats, embedder.batchCount)
	}
}
