// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UptimeService keeps a gauge set to the seconds since start.
type UptimeService struct {
	gauge    prometheus.Gauge
	start    time.Time
	interval time.Duration
	now      func() time.Time
}

// NewUptimeService reports into gauge every interval (default 15s).
func NewUptimeService(gauge prometheus.Gauge, start time.Time, interval time.Duration) *UptimeService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &UptimeService{
		gauge:    gauge,
		start:    start,
		interval: interval,
		now:      time.Now,
	}
}

// Serve implements suture.Service.
func (u *UptimeService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.report()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			u.report()
		}
	}
}

func (u *UptimeService) report() {
	u.gauge.Set(u.now().Sub(u.start).Seconds())
}

func (u *UptimeService) String() string {
	return "uptime-reporter"
}
