// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package privacy

// Kind names the rule a Violation broke.
type Kind string

// Violation kinds.
const (
	KindForbiddenKey  Kind = "forbidden_key"
	KindEmail         Kind = "email"
	KindPhone         Kind = "phone"
	KindTextLength    Kind = "text_length"
	KindMaxDepth      Kind = "max_depth"
	KindInvalidType   Kind = "invalid_type"
	KindUnknownEvent  Kind = "unknown_event"
	KindUnknownSource Kind = "unknown_source"
)

// Top-level request fields a Violation can point at.
const (
	FieldProperties = "properties"
	FieldEventName  = "event_name"
	FieldSource     = "source"
)

// Violation is one rejected element of a payload.
type Violation struct {
	Field string `json:"field"`
	Path  string `json:"path,omitempty"`
	Kind  Kind   `json:"kind"`
}

// String renders field:path:kind, for example properties:contact.email:forbidden_key.
func (v Violation) String() string {
	if v.Path == "" {
		return v.Field + ":" + string(v.Kind)
	}
	return v.Field + ":" + v.Path + ":" + string(v.Kind)
}

// Strings renders a list of violations.
func Strings(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
