// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package taxonomy

import "strings"

// forbiddenKeys are identity-bearing or free-text property names. Any
// property with one of these keys is rejected whatever its value.
var forbiddenKeys = map[string]struct{}{
	"email":         {},
	"phone":         {},
	"name":          {},
	"first_name":    {},
	"last_name":     {},
	"address":       {},
	"tg_id":         {},
	"telegram_id":   {},
	"passport":      {},
	"inn":           {},
	"text":          {},
	"message":       {},
	"content":       {},
	"body":          {},
	"payload":       {},
	"diary_text":    {},
	"answer":        {},
	"question_text": {},
	"intake_text":   {},
	"note":          {},
}

// IsForbiddenKey reports whether key is on the deny-list, case-insensitively.
func IsForbiddenKey(key string) bool {
	_, ok := forbiddenKeys[strings.ToLower(key)]
	return ok
}

var (
	safeKeySuffixes = []string{"_id", "_slug", "_at", "_at_utc"}
	safeKeyExact    = map[string]struct{}{"id": {}, "slug": {}, "token": {}, "key": {}}
)

// IsSafeKey reports whether string values under key skip PII pattern
// scanning. Length limits still apply to safe keys.
func IsSafeKey(key string) bool {
	k := strings.ToLower(key)
	if _, ok := safeKeyExact[k]; ok {
		return true
	}
	for _, suffix := range safeKeySuffixes {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	return false
}
