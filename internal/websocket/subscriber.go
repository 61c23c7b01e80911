// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package websocket

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/TVWIT/invintus-sync/internal/events"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/models"
)

// EventSource is the subset of the event bus the subscriber needs.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithPublicFutureEvents controls whether future-state records are
// broadcast to clients. Off by default: upcoming events stay internal
// until they go live.
func WithPublicFutureEvents(public bool) SubscriberOption {
	return func(s *Subscriber) {
		s.publicFuture = public
	}
}

// Subscriber bridges record mutation events to WebSocket broadcasts.
// It satisfies suture.Service via Serve.
type Subscriber struct {
	hub          *Hub
	source       EventSource
	publicFuture bool
}

// NewSubscriber creates a bus-to-hub bridge.
func NewSubscriber(hub *Hub, source EventSource, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{hub: hub, source: source}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// String identifies the service in supervisor logs.
func (s *Subscriber) String() string {
	return "websocket-subscriber"
}

// Serve consumes record events until ctx is canceled or the source closes
// its channel. Undecodable payloads are acked and dropped.
func (s *Subscriber) Serve(ctx context.Context) error {
	msgs, err := s.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	logging.Info().Str("component", "websocket-subscriber").Msg("record event subscriber started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				logging.Info().Str("component", "websocket-subscriber").Msg("event channel closed")
				return nil
			}

			ev, err := events.DeserializeEvent(msg.Payload)
			if err != nil {
				logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable record event")
				msg.Ack()
				continue
			}

			if s.visible(ev) {
				s.hub.BroadcastRecordEvent(ev)
			}
			msg.Ack()
		}
	}
}

// visible reports whether an event may be pushed to clients. Deletions
// are always visible; future-state records only when enabled.
func (s *Subscriber) visible(ev *events.RecordEvent) bool {
	if ev.Record == nil || ev.Record.State != models.StateFuture {
		return true
	}
	return s.publicFuture
}
