// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package embedding turns video titles into fixed-dimension vectors via
// an OpenAI-compatible embeddings endpoint.
package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nichescout/nichescout/internal/config"
	"github.com/nichescout/nichescout/internal/logging"
)

const (
	maxRetries  = 3
	backoffBase = 2 * time.Second
	backoffCap  = 30 * time.Second
	httpTimeout = 60 * time.Second
)

// Embedder is the capability interface the embedding stage depends on.
type Embedder interface {
	ModelName() string
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Client calls an OpenAI-compatible embeddings API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dim        int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]

	// retryBase is overridable so tests do not sleep for real.
	retryBase time.Duration
}

// Ensure Client implements Embedder.
var _ Embedder = (*Client)(nil)

// NewClient creates an embeddings client.
func NewClient(cfg *config.EmbeddingConfig) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "embedder-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dim:        cfg.Dim,
		httpClient: &http.Client{Timeout: httpTimeout},
		breaker:    breaker,
		retryBase:  backoffBase,
	}
}

// ModelName returns the model tag recorded with every embedding.
func (c *Client) ModelName() string { return c.model }

// Dimension returns the configured vector dimension.
func (c *Client) Dimension() int { return c.dim }

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedBatch embeds texts in one call and returns vectors in input
// order. Dimension mismatches fail the whole batch rather than persist
// vectors the similarity index cannot compare.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(embedRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	body, err := c.doWithRetry(ctx, payload)
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedder returned out-of-range index %d", item.Index)
		}
		if len(item.Embedding) != c.dim {
			return nil, fmt.Errorf("embedder returned %d-dim vector, want %d", len(item.Embedding), c.dim)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embedder response missing vector for input %d", i)
		}
	}
	return vectors, nil
}

func (c *Client) doWithRetry(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.doOnce(ctx, payload)
		})
		if err == nil {
			return body, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err

		if attempt < maxRetries {
			delay := c.retryBase << (attempt - 1)
			if delay > backoffCap {
				delay = backoffCap
			}
			logging.Warn().Err(err).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("embed call failed, retrying")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("embed call failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) doOnce(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return nil, fmt.Errorf("embed request transport error: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed request returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
