// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

// Package privacy is the single gate that keeps personal data out of the
// analytics store.
//
// Validate checks an event's name and source against the taxonomy and walks
// its properties tree looking for forbidden keys, email addresses, phone
// numbers and oversized strings. It collects every violation instead of
// stopping at the first one, and it never rewrites the payload: a payload
// with any violation is rejected as a whole.
package privacy

import (
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/tomtom215/leadflow/internal/payload"
	"github.com/tomtom215/leadflow/internal/taxonomy"
)

// MaxDepth bounds how deeply properties may nest.
const MaxDepth = 32

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)

	// Eight or more digits, optionally separated by spaces, dashes, dots or
	// parentheses, with an optional leading plus.
	phonePattern = regexp.MustCompile(`\+?\d(?:[\s\-().]*\d){7,}`)
)

// Result is the outcome of Validate.
type Result struct {
	Valid      bool
	Violations []Violation
}

// Validate checks eventName and source against the allow-lists and scans
// properties. properties must be an object or null.
func Validate(eventName, source string, properties payload.Value) Result {
	var out []Violation

	if !taxonomy.IsKnownEvent(eventName) {
		out = append(out, Violation{Field: FieldEventName, Path: eventName, Kind: KindUnknownEvent})
	}
	if !taxonomy.IsKnownSource(source) {
		out = append(out, Violation{Field: FieldSource, Path: source, Kind: KindUnknownSource})
	}
	out = append(out, ValidateProperties(properties)...)

	return Result{Valid: len(out) == 0, Violations: out}
}

// ValidateProperties walks a properties tree and returns every violation in
// a deterministic order. A nil slice means the tree is clean.
func ValidateProperties(properties payload.Value) []Violation {
	switch properties.Kind() {
	case payload.Null:
		return nil
	case payload.Object:
	default:
		return []Violation{{Field: FieldProperties, Kind: KindInvalidType}}
	}

	w := walker{}
	w.object("", properties, 1)
	return w.violations
}

type walker struct {
	violations []Violation
}

func (w *walker) add(path string, kind Kind) {
	w.violations = append(w.violations, Violation{Field: FieldProperties, Path: path, Kind: kind})
}

func (w *walker) object(path string, v payload.Value, depth int) {
	for _, f := range v.Fields() {
		child := join(path, f.Key)
		if taxonomy.IsForbiddenKey(f.Key) {
			w.add(child, KindForbiddenKey)
			continue
		}
		w.value(child, f.Key, f.Value, depth)
	}
}

// value checks one node. key is the nearest enclosing object key, which
// decides whether string pattern scanning applies.
func (w *walker) value(path, key string, v payload.Value, depth int) {
	switch v.Kind() {
	case payload.Object, payload.Array:
		if depth >= MaxDepth {
			w.add(path, KindMaxDepth)
			return
		}
		if v.Kind() == payload.Object {
			w.object(path, v, depth+1)
			return
		}
		for i, item := range v.Items() {
			w.value(join(path, strconv.Itoa(i)), key, item, depth+1)
		}
	case payload.String:
		s, _ := v.Str()
		w.scanString(path, key, s)
	}
}

func (w *walker) scanString(path, key, s string) {
	if !taxonomy.IsSafeKey(key) {
		if emailPattern.MatchString(s) {
			w.add(path, KindEmail)
		}
		if phonePattern.MatchString(s) {
			w.add(path, KindPhone)
		}
	}
	if utf8.RuneCountInString(s) > taxonomy.MaxStringLength {
		w.add(path, KindTextLength)
	}
}

func join(path, seg string) string {
	if path == "" {
		return seg
	}
	return path + "." + seg
}
