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
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// NewRouter creates a Watermill Router with recovery and retry middleware.
func NewRouter(cfg RouterConfig, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	return router, nil
}

// Consumer runs one consumer handler on a topic as a supervised service.
// Each Serve call builds a new subscriber and router, so suture can restart
// it after a failure.
type Consumer struct {
	name          string
	topic         string
	newSubscriber SubscriberFactory
	handler       message.NoPublishHandlerFunc
	config        RouterConfig
	logger        watermill.LoggerAdapter

	readyOnce sync.Once
	ready     chan struct{}
}

// NewConsumer creates a consumer service.
func NewConsumer(name, topic string, newSubscriber SubscriberFactory, handler message.NoPublishHandlerFunc, logger watermill.LoggerAdapter) *Consumer {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Consumer{
		name:          name,
		topic:         topic,
		newSubscriber: newSubscriber,
		handler:       handler,
		config:        DefaultRouterConfig(),
		logger:        logger,
		ready:         make(chan struct{}),
	}
}

// Serve implements suture.Service. It blocks until ctx is canceled.
func (c *Consumer) Serve(ctx context.Context) error {
	sub, err := c.newSubscriber()
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	router, err := NewRouter(c.config, c.logger)
	if err != nil {
		_ = sub.Close()
		return err
	}
	router.AddConsumerHandler(c.name, c.topic, sub, c.handler)

	go func() {
		select {
		case <-router.Running():
			c.readyOnce.Do(func() { close(c.ready) })
		case <-ctx.Done():
		}
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("%s router: %w", c.name, err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return errors.New(c.name + " router stopped unexpectedly")
}

// Ready is closed once the first router run has subscribed.
func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

// String implements fmt.Stringer for suture logs.
func (c *Consumer) String() string {
	return c.name
}
