// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/metrics"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// NATSConfig describes a core NATS connection.
type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	CloseTimeout  time.Duration
}

// BreakerConfig configures the publish circuit breaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig trips after five consecutive failures and probes
// again after ten seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "telemetry-publish",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

func natsOptions(cfg NATSConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("furrow"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// NewNATSSubscriber returns a core NATS subscriber. A single consumer keeps
// rows in arrival order.
func NewNATSSubscriber(cfg NATSConfig) (message.Subscriber, error) {
	logger := logging.NewWatermillLogger("nats-subscriber")
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOptions(cfg, logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	return sub, nil
}

// NewNATSPublisher returns a core NATS publisher guarded by a circuit
// breaker.
func NewNATSPublisher(cfg NATSConfig, topic string, bc BreakerConfig, m *metrics.Metrics) (*Publisher, error) {
	logger := logging.NewWatermillLogger("nats-publisher")
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions(cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	return NewPublisher(pub, topic, bc, m), nil
}

// Publisher encodes rows and publishes them through a circuit breaker.
type Publisher struct {
	publisher message.Publisher
	topic     string
	breaker   *gobreaker.CircuitBreaker[any]
	metrics   *metrics.Metrics

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps any watermill publisher.
func NewPublisher(pub message.Publisher, topic string, bc BreakerConfig, m *metrics.Metrics) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if bc.FailureThreshold == 0 {
		bc.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	logger := logging.WithComponent("publisher")

	settings := gobreaker.Settings{
		Name:        bc.Name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state changed")
			m.SetCircuitState(name, int(to))
		},
	}

	return &Publisher{
		publisher: pub,
		topic:     topic,
		breaker:   gobreaker.NewCircuitBreaker[any](settings),
		metrics:   m,
	}
}

// Publish encodes r and sends it.
func (p *Publisher) Publish(ctx context.Context, r *Row) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(r)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(p.topic, msg)
	})
	p.metrics.RecordPublish(err)
	if err != nil {
		return fmt.Errorf("publish row: %w", err)
	}
	return nil
}

// BreakerState reports the current circuit breaker state.
func (p *Publisher) BreakerState() string {
	return p.breaker.State().String()
}

// Close closes the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
