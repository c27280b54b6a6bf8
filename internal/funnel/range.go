// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package funnel

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRange is returned by ParseRange for unparseable or inverted
// bounds and for ranges wider than the configured maximum.
var ErrInvalidRange = errors.New("invalid date range")

const dateLayout = "2006-01-02"

// Range is a half-open time interval [From, To) in UTC.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// RangeOptions bounds ParseRange.
type RangeOptions struct {
	// DefaultDays is used when from is empty: from = to - DefaultDays.
	DefaultDays int
	// MaxDays rejects wider ranges; 0 disables the check.
	MaxDays int
}

// ParseRange parses report bounds. Each bound is either a calendar date
// (YYYY-MM-DD, UTC) or an RFC 3339 timestamp. A date used as the upper
// bound is inclusive, so to=2026-03-31 ends at 2026-04-01T00:00:00Z. An
// empty to means now.
func ParseRange(from, to string, now time.Time, opts RangeOptions) (Range, error) {
	var r Range

	if strings.TrimSpace(to) == "" {
		r.To = now.UTC()
	} else {
		t, isDate, err := parseBound(to)
		if err != nil {
			return Range{}, fmt.Errorf("%w: to: %v", ErrInvalidRange, err)
		}
		if isDate {
			t = t.AddDate(0, 0, 1)
		}
		r.To = t
	}

	if strings.TrimSpace(from) == "" {
		days := opts.DefaultDays
		if days <= 0 {
			days = 30
		}
		r.From = r.To.AddDate(0, 0, -days)
	} else {
		t, _, err := parseBound(from)
		if err != nil {
			return Range{}, fmt.Errorf("%w: from: %v", ErrInvalidRange, err)
		}
		r.From = t
	}

	if !r.From.Before(r.To) {
		return Range{}, fmt.Errorf("%w: from must be before to", ErrInvalidRange)
	}
	if opts.MaxDays > 0 && r.To.Sub(r.From) > time.Duration(opts.MaxDays)*24*time.Hour {
		return Range{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidRange, opts.MaxDays)
	}
	return r, nil
}

func parseBound(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", s)
	}
	return t.UTC(), false, nil
}
