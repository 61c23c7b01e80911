// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package supervisor

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingService tracks how many times it was started.
type countingService struct {
	starts atomic.Int64
}

func (s *countingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return "counting-service" }

func TestTreeServesAndStopsServices(t *testing.T) {
	tree := NewTree(testLogger(), DefaultTreeConfig())

	messaging := &countingService{}
	api := &countingService{}
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for messaging.starts.Load() == 0 || api.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("services never started: messaging=%d api=%d", messaging.starts.Load(), api.starts.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			t.Errorf("supervisor stopped with %v, want nil or context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("supervisor did not stop after cancel")
	}
}

func TestTreeConfigDefaults(t *testing.T) {
	tree := NewTree(testLogger(), TreeConfig{})

	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("FailureThreshold = %v, want 5.0", tree.config.FailureThreshold)
	}
	if tree.config.FailureDecay != 30.0 {
		t.Errorf("FailureDecay = %v, want 30.0", tree.config.FailureDecay)
	}
	if tree.config.FailureBackoff != 15*time.Second {
		t.Errorf("FailureBackoff = %v, want 15s", tree.config.FailureBackoff)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", tree.config.ShutdownTimeout)
	}
}
