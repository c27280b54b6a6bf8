// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/leadflow/internal/metrics"
	"github.com/tomtom215/leadflow/internal/models"
)

// recordingPublisher is a message.Publisher test double.
type recordingPublisher struct {
	mu       sync.Mutex
	err      error
	topics   []string
	messages []*message.Message
	closed   int
}

func (r *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, m := range msgs {
		r.topics = append(r.topics, topic)
		r.messages = append(r.messages, m)
	}
	return nil
}

func (r *recordingPublisher) Close() error {
	r.mu.Lock()
	r.closed++
	r.mu.Unlock()
	return nil
}

func sampleEvent() models.EventIngested {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return models.EventIngested{
		EventID:    "evt-1",
		EventName:  "booking_start",
		LeadID:     "lead-1",
		OccurredAt: ts,
		ReceivedAt: ts.Add(time.Second),
	}
}

func TestPublisher_PublishEventIngested(t *testing.T) {
	rec := &recordingPublisher{}
	pub := NewPublisher(rec, "analytics.test", nil)

	before := testutil.ToFloat64(metrics.EventBusPublished)
	require.NoError(t, pub.PublishEventIngested(context.Background(), sampleEvent()))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventBusPublished))

	require.Len(t, rec.messages, 1)
	assert.Equal(t, "analytics.test", rec.topics[0])

	msg := rec.messages[0]
	assert.Equal(t, "evt-1", msg.Metadata.Get(MetadataEventID))
	assert.Equal(t, "booking_start", msg.Metadata.Get(MetadataEventName))
	assert.Equal(t, "evt-1", msg.Metadata.Get(natsgo.MsgIdHdr))
	assert.NotEmpty(t, msg.UUID)

	var decoded models.EventIngested
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, sampleEvent(), decoded)
}

func TestPublisher_KeepsExplicitMsgID(t *testing.T) {
	rec := &recordingPublisher{}
	pub := NewPublisher(rec, "t", nil)

	msg := message.NewMessage("uuid-1", []byte("{}"))
	msg.Metadata.Set(natsgo.MsgIdHdr, "custom")
	require.NoError(t, pub.Publish(context.Background(), msg))
	assert.Equal(t, "custom", rec.messages[0].Metadata.Get(natsgo.MsgIdHdr))

	msg = message.NewMessage("uuid-2", []byte("{}"))
	require.NoError(t, pub.Publish(context.Background(), msg))
	assert.Equal(t, "uuid-2", rec.messages[1].Metadata.Get(natsgo.MsgIdHdr))
}

func TestPublisher_BreakerOpens(t *testing.T) {
	boom := errors.New("nats down")
	rec := &recordingPublisher{err: boom}
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "publisher-test",
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})
	pub := NewPublisher(rec, "t", cb)
	ctx := context.Background()

	errorsBefore := testutil.ToFloat64(metrics.EventBusPublishFailures.WithLabelValues("error"))
	openBefore := testutil.ToFloat64(metrics.EventBusPublishFailures.WithLabelValues("circuit_open"))

	for i := 0; i < 2; i++ {
		err := pub.PublishEventIngested(ctx, sampleEvent())
		assert.ErrorIs(t, err, boom)
	}

	err := pub.PublishEventIngested(ctx, sampleEvent())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	assert.Equal(t, errorsBefore+2, testutil.ToFloat64(metrics.EventBusPublishFailures.WithLabelValues("error")))
	assert.Equal(t, openBefore+1, testutil.ToFloat64(metrics.EventBusPublishFailures.WithLabelValues("circuit_open")))
}

func TestPublisher_Close(t *testing.T) {
	rec := &recordingPublisher{}
	pub := NewPublisher(rec, "t", nil)

	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())
	assert.Equal(t, 1, rec.closed)

	err := pub.PublishEventIngested(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, ErrPublisherClosed)
	assert.Empty(t, rec.messages)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "circuit_open", failureReason(gobreaker.ErrOpenState))
	assert.Equal(t, "error", failureReason(errors.New("other")))
}
