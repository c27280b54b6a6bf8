// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package logging

import "strings"

// SanitizeID masks a correlation identifier, keeping the first and last four
// characters. Short values are fully masked.
//
//	SanitizeID("anon-3f2a9c1d7e") // "anon...1d7e"
func SanitizeID(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 12 {
		return "***"
	}
	return id[:4] + "..." + id[len(id)-4:]
}

// SanitizeValue strips control characters and truncates values that come
// from request input before they are logged.
func SanitizeValue(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(' ')
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return truncateString(b.String(), 200)
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
