// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopRunsImmediatelyThenOnInterval(t *testing.T) {
	var runs atomic.Int32
	loop := NewLoop("test-loop", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("runs = %d, want at least 3", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}

func TestLoopSurvivesPassFailures(t *testing.T) {
	var runs atomic.Int32
	loop := NewLoop("failing-loop", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("pass failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("runs = %d, want the loop to keep going past failures", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestLoopString(t *testing.T) {
	loop := NewLoop("ingest-loop", time.Minute, func(ctx context.Context) error { return nil })
	if loop.String() != "ingest-loop" {
		t.Errorf("String() = %q, want ingest-loop", loop.String())
	}
}

// fakeServer satisfies HTTPServer without opening sockets.
type fakeServer struct {
	serveErr  error
	shutdown  atomic.Bool
	releaseCh chan struct{}
}

func newFakeServer(serveErr error) *fakeServer {
	return &fakeServer{serveErr: serveErr, releaseCh: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.serveErr != nil {
		return f.serveErr
	}
	<-f.releaseCh
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdown.Store(true)
	close(f.releaseCh)
	return nil
}

func TestOpsServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer(nil)
	svc := NewOpsService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	if !srv.shutdown.Load() {
		t.Error("Shutdown was not called")
	}
}

func TestOpsServicePropagatesListenFailure(t *testing.T) {
	srv := newFakeServer(errors.New("bind: address already in use"))
	svc := NewOpsService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("want listen failure surfaced")
	}
}
