// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

//go:build integration

package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/leadflow/internal/cache"
	"github.com/tomtom215/leadflow/internal/config"
	"github.com/tomtom215/leadflow/internal/testinfra"
)

func TestBus_NATSFanOut(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	natsC, err := testinfra.NewNATSContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { testinfra.CleanupContainer(t, ctx, natsC) })

	cfg := config.EventBusConfig{
		Enabled:       true,
		Driver:        config.BusDriverNATS,
		NATSURL:       natsC.URL,
		Topic:         "analytics.events.ingested",
		MaxReconnects: 5,
		ReconnectWait: 100 * time.Millisecond,
	}

	// Two instances, each with its own report cache.
	reportsA := cache.New(time.Minute)
	reportsB := cache.New(time.Minute)

	busA, err := New(cfg, reportsA)
	require.NoError(t, err)
	defer busA.Close()
	busB, err := New(cfg, reportsB)
	require.NoError(t, err)
	defer busB.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = busA.Consumer.Serve(runCtx) }()
	go func() { _ = busB.Consumer.Serve(runCtx) }()

	for _, c := range []*Consumer{busA.Consumer, busB.Consumer} {
		select {
		case <-c.Ready():
		case <-time.After(30 * time.Second):
			t.Fatal("consumer did not start")
		}
	}

	reportsA.Set("booking", "stale")
	reportsB.Set("booking", "stale")

	require.NoError(t, busA.Publisher.PublishEventIngested(ctx, sampleEvent()))

	assert.Eventually(t, func() bool {
		return reportsA.Len() == 0 && reportsB.Len() == 0
	}, 10*time.Second, 50*time.Millisecond, "every instance should drop its cache")
}
