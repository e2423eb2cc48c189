// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/metrics"
)

// DefaultTopic is the subject telemetry rows arrive on.
const DefaultTopic = "telemetry.rows"

// ErrNotSubscribed is reported by Ready before Serve subscribes and after
// it returns.
var ErrNotSubscribed = errors.New("telemetry ingestor not subscribed")

// Decode failure reasons.
const (
	ReasonMalformed       = "malformed"
	ReasonMissingPosition = "missing_position"
	ReasonInvalid         = "invalid"
)

// RowHandler receives decoded rows in arrival order.
type RowHandler interface {
	HandleRow(ctx context.Context, r *Row) error
}

// RowHandlerFunc adapts a function to RowHandler.
type RowHandlerFunc func(ctx context.Context, r *Row) error

// HandleRow calls f.
func (f RowHandlerFunc) HandleRow(ctx context.Context, r *Row) error { return f(ctx, r) }

// IngestStats counts the messages one Ingestor has seen.
type IngestStats struct {
	Received uint64 `json:"received"`
	Rejected uint64 `json:"rejected"`
	Failed   uint64 `json:"failed"`
}

// Ingestor reads rows from a subscriber and hands them to a RowHandler one
// at a time. Every message is acked: a row that cannot be decoded now never
// will be, and a row the handler refused is stale by the time it comes back.
type Ingestor struct {
	sub     message.Subscriber
	topic   string
	handler RowHandler
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time

	subscribed atomic.Bool
	received   atomic.Uint64
	rejected   atomic.Uint64
	failed     atomic.Uint64
}

// NewIngestor returns an Ingestor for topic. m may be nil.
func NewIngestor(sub message.Subscriber, topic string, handler RowHandler, m *metrics.Metrics) *Ingestor {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Ingestor{
		sub:     sub,
		topic:   topic,
		handler: handler,
		metrics: m,
		logger:  logging.WithComponent("ingest"),
		now:     time.Now,
	}
}

// Serve implements suture.Service.
func (i *Ingestor) Serve(ctx context.Context) error {
	messages, err := i.sub.Subscribe(ctx, i.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", i.topic, err)
	}
	i.subscribed.Store(true)
	defer i.subscribed.Store(false)
	i.logger.Info().Str("topic", i.topic).Msg("Telemetry ingestion started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("subscription to %s closed", i.topic)
			}
			i.process(ctx, msg)
		}
	}
}

func (i *Ingestor) process(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	i.received.Add(1)
	i.metrics.RecordRowReceived()

	row, err := Decode(msg.Payload, i.now())
	if err != nil {
		i.rejected.Add(1)
		i.metrics.RecordDecodeFailure(decodeReason(err))
		i.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Skipping telemetry row")
		return
	}

	if err := i.handler.HandleRow(ctx, row); err != nil {
		i.failed.Add(1)
		i.logger.Warn().Err(err).Uint64("sequence", row.Sequence).Msg("Row handler failed")
	}
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingPosition):
		return ReasonMissingPosition
	case errors.Is(err, ErrInvalidRow):
		return ReasonInvalid
	default:
		return ReasonMalformed
	}
}

// Ready returns ErrNotSubscribed unless Serve holds a live subscription.
func (i *Ingestor) Ready(context.Context) error {
	if !i.subscribed.Load() {
		return ErrNotSubscribed
	}
	return nil
}

// Stats returns the message counters.
func (i *Ingestor) Stats() IngestStats {
	return IngestStats{
		Received: i.received.Load(),
		Rejected: i.rejected.Load(),
		Failed:   i.failed.Load(),
	}
}

// String implements fmt.Stringer for suture logs.
func (i *Ingestor) String() string {
	return "telemetry-ingestor"
}
