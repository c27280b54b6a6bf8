// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/leadflow/internal/metrics"
	"github.com/tomtom215/leadflow/internal/models"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Metadata keys set on every EventIngested message.
const (
	MetadataEventID   = "event_id"
	MetadataEventName = "event_name"
)

// Publisher wraps a Watermill publisher with circuit breaker protection.
// It satisfies ingest.Publisher.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	topic          string
	mu             sync.RWMutex
	closed         bool
}

// NewPublisher wraps pub. A nil breaker publishes unprotected.
func NewPublisher(pub message.Publisher, topic string, cb *gobreaker.CircuitBreaker[interface{}]) *Publisher {
	return &Publisher{
		publisher:      pub,
		circuitBreaker: cb,
		topic:          topic,
	}
}

// Publish sends msg to the configured topic through the circuit breaker.
// The event id doubles as Nats-Msg-Id so JetStream streams can deduplicate.
func (p *Publisher) Publish(ctx context.Context, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		id := msg.Metadata.Get(MetadataEventID)
		if id == "" {
			id = msg.UUID
		}
		msg.Metadata.Set(natsgo.MsgIdHdr, id)
	}
	msg.SetContext(ctx)

	var err error
	if p.circuitBreaker != nil {
		_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(p.topic, msg)
		})
	} else {
		err = p.publisher.Publish(p.topic, msg)
	}

	if err != nil {
		metrics.EventBusPublishFailures.WithLabelValues(failureReason(err)).Inc()
		return err
	}
	metrics.EventBusPublished.Inc()
	return nil
}

// PublishEventIngested serializes and publishes a post-commit notification.
func (p *Publisher) PublishEventIngested(ctx context.Context, evt models.EventIngested) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetadataEventID, evt.EventID)
	msg.Metadata.Set(MetadataEventName, evt.EventName)

	if err := p.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", evt.EventID, err)
	}
	return nil
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}

func failureReason(err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "circuit_open"
	}
	return "error"
}
