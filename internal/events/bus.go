// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/models"
	"github.com/TVWIT/invintus-sync/internal/reconcile"
)

// Bus is an in-process pub/sub channel for record mutation events. Each
// subscriber receives every published event; slow subscribers are buffered
// up to the configured channel size.
type Bus struct {
	pubsub *gochannel.GoChannel
	mu     sync.RWMutex
	closed bool
}

// BusConfig tunes the underlying go-channel pub/sub.
type BusConfig struct {
	// BufferSize is the per-subscriber channel buffer. Zero means 256.
	BufferSize int64
}

// NewBus creates an in-process event bus.
func NewBus(cfg BusConfig, logger watermill.LoggerAdapter) *Bus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if logger == nil {
		logger = NewLoggerAdapter()
	}

	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, logger),
	}
}

// PublishRecordEvent serializes and publishes a record mutation event.
func (b *Bus) PublishRecordEvent(ctx context.Context, ev *RecordEvent) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	b.mu.RUnlock()

	data, err := SerializeEvent(ev)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(ev.EventID, data)
	msg.Metadata.Set("op", string(ev.Op))
	msg.Metadata.Set("remote_event_id", ev.RemoteEventID)
	msg.SetContext(ctx)

	return b.pubsub.Publish(TopicRecords, msg)
}

// Subscribe returns a channel of record mutation messages. The channel is
// closed when ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicRecords)
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

// AfterSaveHook returns a reconcile hook that publishes every persisted
// mutation onto the bus. Publish failures are logged, not surfaced; the
// mutation has already been committed.
func (b *Bus) AfterSaveHook() reconcile.AfterSaveHook {
	return func(ctx context.Context, record *models.LocalRecord, op reconcile.Op) {
		ev := NewRecordEvent(op, record)
		if err := b.PublishRecordEvent(ctx, ev); err != nil {
			logging.Warn().
				Err(err).
				Str("op", string(op)).
				Str("remote_event_id", ev.RemoteEventID).
				Msg("failed to publish record event")
		}
	}
}
