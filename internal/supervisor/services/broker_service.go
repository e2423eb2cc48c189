// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// ErrBrokerStopped means the broker exited while the tree was running.
var ErrBrokerStopped = errors.New("embedded broker stopped")

// Broker is satisfied by *telemetry.EmbeddedServer.
type Broker interface {
	Running() bool
	Shutdown(ctx context.Context) error
}

// BrokerService ties an already started in-process broker to the tree.
// The broker is started before the tree because subscribers need it at
// construction; this service watches it and shuts it down last.
type BrokerService struct {
	broker          Broker
	pollInterval    time.Duration
	shutdownTimeout time.Duration
}

// NewBrokerService wraps broker.
func NewBrokerService(broker Broker, shutdownTimeout time.Duration) *BrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &BrokerService{broker: broker, pollInterval: time.Second, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. An embedded broker cannot be restarted
// in place, so a broker that dies underneath the tree is reported with
// suture.ErrDoNotRestart.
func (s *BrokerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.broker.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("embedded broker shutdown: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.broker.Running() {
				return fmt.Errorf("%w: %w", ErrBrokerStopped, suture.ErrDoNotRestart)
			}
		}
	}
}

func (s *BrokerService) String() string {
	return "embedded-nats"
}
