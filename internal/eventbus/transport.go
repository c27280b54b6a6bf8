// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package eventbus

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/leadflow/internal/config"
)

// SubscriberFactory creates a fresh subscriber. The Watermill router closes
// its subscribers when it stops, so every consumer run needs a new one.
type SubscriberFactory func() (message.Subscriber, error)

// Transport is a publisher plus a way to subscribe to the same topic.
type Transport struct {
	Publisher     message.Publisher
	NewSubscriber SubscriberFactory
	close         func() error
}

// Close releases resources shared by the publisher and subscribers.
func (t *Transport) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}

// NewTransport builds the transport selected by cfg.Driver.
func NewTransport(cfg config.EventBusConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	switch cfg.Driver {
	case config.BusDriverNATS:
		return newNATSTransport(cfg, logger)
	case config.BusDriverMemory, "":
		return newMemoryTransport(logger), nil
	default:
		return nil, fmt.Errorf("unknown event bus driver %q", cfg.Driver)
	}
}

// newMemoryTransport shares one in-process GoChannel. Subscribers handed to
// routers ignore Close so a restarting consumer does not tear down the
// publisher side; the channel itself is closed by Transport.Close.
func newMemoryTransport(logger watermill.LoggerAdapter) *Transport {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)

	return &Transport{
		Publisher: nopClosePublisher{pubSub},
		NewSubscriber: func() (message.Subscriber, error) {
			return nopCloseSubscriber{pubSub}, nil
		},
		close: pubSub.Close,
	}
}

// newNATSTransport uses core NATS subjects rather than JetStream: cache
// invalidation is fire-and-forget and every instance must see every message.
func newNATSTransport(cfg config.EventBusConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	natsOpts := natsOptions(cfg, logger)

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	subscribersCount := 1
	if cfg.QueueGroup != "" {
		subscribersCount = 2
	}

	newSubscriber := func() (message.Subscriber, error) {
		sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
			URL:              cfg.NATSURL,
			QueueGroupPrefix: cfg.QueueGroup,
			SubscribersCount: subscribersCount,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     10 * time.Second,
			NatsOptions:      natsOpts,
			Unmarshaler:      &wmNats.NATSMarshaler{},
			JetStream:        wmNats.JetStreamConfig{Disabled: true},
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create watermill subscriber: %w", err)
		}
		return sub, nil
	}

	return &Transport{
		Publisher:     pub,
		NewSubscriber: newSubscriber,
	}, nil
}

func natsOptions(cfg config.EventBusConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	reconnectWait := cfg.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}

	return []natsgo.Option{
		natsgo.Name("leadflow"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
		natsgo.ErrorHandler(func(nc *natsgo.Conn, sub *natsgo.Subscription, err error) {
			fields := watermill.LogFields{}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			logger.Error("NATS error", err, fields)
		}),
	}
}

type nopCloseSubscriber struct {
	message.Subscriber
}

func (nopCloseSubscriber) Close() error { return nil }

type nopClosePublisher struct {
	message.Publisher
}

func (nopClosePublisher) Close() error { return nil }
