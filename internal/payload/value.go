// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

// Package payload models event properties as a JSON-like tagged variant.
//
// A Value is exactly one of null, bool, number, string, array or object.
// Object fields are kept sorted by key so that every walk over a Value is
// deterministic. Numbers keep their literal text and are never converted
// to float64 on the way in.
package payload

import (
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

// Value kinds. The zero Kind is Null.
const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is an immutable JSON-like tree. The zero Value is null.
type Value struct {
	kind   Kind
	b      bool
	s      string // string contents, or the number literal
	items  []Value
	fields []Field
}

// Field is one key of an object.
type Field struct {
	Key   string
	Value Value
}

// NullValue returns null.
func NullValue() Value { return Value{} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// NumberValue wraps a JSON number literal such as "3" or "-1.5e3".
func NumberValue(literal string) Value { return Value{kind: Number, s: literal} }

// IntValue wraps an integer.
func IntValue(n int64) Value { return Value{kind: Number, s: strconv.FormatInt(n, 10)} }

// ArrayValue wraps items.
func ArrayValue(items ...Value) Value {
	return Value{kind: Array, items: items}
}

// ObjectValue builds an object from fields. Fields are sorted by key; on a
// duplicate key the last one wins.
func ObjectValue(fields ...Field) Value {
	byKey := make(map[string]int, len(fields))
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if i, ok := byKey[f.Key]; ok {
			out[i] = f
			continue
		}
		byKey[f.Key] = len(out)
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return Value{kind: Object, fields: out}
}

// Map builds an object from a Go map.
//
//	payload.Map(map[string]payload.Value{"run_id": payload.StringValue("run-1")})
func Map(m map[string]Value) Value {
	fields := make([]Field, 0, len(m))
	for k, v := range m {
		fields = append(fields, Field{Key: k, Value: v})
	}
	return ObjectValue(fields...)
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == Null }

// Bool returns the boolean and whether v is a bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == Bool }

// Str returns the string and whether v is a string.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// NumberLiteral returns the literal text of a number, or "".
func (v Value) NumberLiteral() string {
	if v.kind != Number {
		return ""
	}
	return v.s
}

// Int returns an integer view of v. Integral numbers and strings holding a
// base-10 integer both qualify, so "2" and 2 read the same.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case Number:
		if n, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Text returns a string view of scalars: strings as-is, numbers as their
// literal, bools as true/false. Other kinds return false.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case String, Number:
		return v.s, true
	case Bool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Items returns array elements; nil for other kinds.
func (v Value) Items() []Value { return v.items }

// Fields returns object fields sorted by key; nil for other kinds.
func (v Value) Fields() []Field { return v.fields }

// Len returns the number of array items or object fields.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.fields)
	default:
		return 0
	}
}

// Get looks up key in an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	i := sort.Search(len(v.fields), func(i int) bool { return v.fields[i].Key >= key })
	if i < len(v.fields) && v.fields[i].Key == key {
		return v.fields[i].Value, true
	}
	return Value{}, false
}

// StringField returns the string stored under key, or "" when it is absent
// or not a string.
func (v Value) StringField(key string) string {
	f, ok := v.Get(key)
	if !ok {
		return ""
	}
	s, _ := f.Str()
	return s
}
