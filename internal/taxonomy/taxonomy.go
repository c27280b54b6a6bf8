// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

// Package taxonomy holds the closed sets the ingestion pipeline is checked
// against: event names, sources, forbidden and safe property keys, the
// contact-producing events, the booking funnel steps, and lead source and
// status rules.
//
// Every set is a typed constant list plus a lookup map built once at init,
// so the validator and the resolver never compare against scattered string
// literals.
package taxonomy

// DefaultSchemaVersion is the payload schema version accepted when the
// configuration does not override it.
const DefaultSchemaVersion = "1"

// MaxStringLength is the longest string value accepted anywhere in
// properties, counted in runes.
const MaxStringLength = 400

// EventName is a member of the event allow-list.
type EventName string

// Event allow-list, version 1.
const (
	EventPageView          EventName = "page_view"
	EventCTAClick          EventName = "cta_click"
	EventCTATelegramClick  EventName = "cta_tg_click"
	EventTGSubscribed      EventName = "tg_subscribe_confirmed"
	EventTGBotStarted      EventName = "tg_bot_started"
	EventServiceSelected   EventName = "service_selected"
	EventBookingStart      EventName = "booking_start"
	EventBookingSlot       EventName = "booking_slot_selected"
	EventBookingPaid       EventName = "booking_paid"
	EventBookingConfirmed  EventName = "booking_confirmed"
	EventBookingCancelled  EventName = "booking_cancelled"
	EventPaymentStarted    EventName = "payment_started"
	EventPaymentSucceeded  EventName = "payment_succeeded"
	EventPaymentFailed     EventName = "payment_failed"
	EventQuizStart         EventName = "start_quiz"
	EventQuizQuestion      EventName = "quiz_question_completed"
	EventQuizComplete      EventName = "complete_quiz"
	EventQuizAbandoned     EventName = "quiz_abandoned"
	EventThermometerStart  EventName = "thermometer_start"
	EventThermometerDone   EventName = "thermometer_complete"
	EventNavigatorStart    EventName = "navigator_start"
	EventNavigatorStep     EventName = "navigator_step_completed"
	EventNavigatorComplete EventName = "navigator_completed"
	EventWaitlistSubmitted EventName = "waitlist_submitted"
	EventQuestionSubmitted EventName = "question_submitted"
	EventResourceView      EventName = "resource_view"
	EventResourceDownload  EventName = "resource_download"
)

// events is the allow-list. The value is true for contact-producing events,
// the ones that create or update a Lead.
var events = map[EventName]bool{
	EventPageView:          false,
	EventCTAClick:          false,
	EventCTATelegramClick:  true,
	EventTGSubscribed:      true,
	EventTGBotStarted:      true,
	EventServiceSelected:   true,
	EventBookingStart:      true,
	EventBookingSlot:       true,
	EventBookingPaid:       true,
	EventBookingConfirmed:  true,
	EventBookingCancelled:  true,
	EventPaymentStarted:    true,
	EventPaymentSucceeded:  true,
	EventPaymentFailed:     true,
	EventQuizStart:         true,
	EventQuizQuestion:      true,
	EventQuizComplete:      true,
	EventQuizAbandoned:     true,
	EventThermometerStart:  true,
	EventThermometerDone:   true,
	EventNavigatorStart:    true,
	EventNavigatorStep:     true,
	EventNavigatorComplete: true,
	EventWaitlistSubmitted: true,
	EventQuestionSubmitted: true,
	EventResourceView:      false,
	EventResourceDownload:  false,
}

// IsKnownEvent reports whether name is in the allow-list.
func IsKnownEvent(name string) bool {
	_, ok := events[EventName(name)]
	return ok
}

// IsContactProducing reports whether name creates or updates a Lead.
// Unknown names are never contact-producing.
func IsContactProducing(name string) bool {
	return events[EventName(name)]
}

// EventNames returns the allow-list. Order is unspecified.
func EventNames() []EventName {
	out := make([]EventName, 0, len(events))
	for n := range events {
		out = append(out, n)
	}
	return out
}

// Source identifies the emitter of an event.
type Source string

// Allowed event sources.
const (
	SourceWeb      Source = "web"
	SourceBackend  Source = "backend"
	SourceTelegram Source = "telegram"
	SourceAdmin    Source = "admin"
)

var sources = map[Source]struct{}{
	SourceWeb:      {},
	SourceBackend:  {},
	SourceTelegram: {},
	SourceAdmin:    {},
}

// IsKnownSource reports whether s is an allowed source.
func IsKnownSource(s string) bool {
	_, ok := sources[Source(s)]
	return ok
}

// BookingFunnelSteps is the fixed order of the booking funnel.
var BookingFunnelSteps = []EventName{
	EventBookingStart,
	EventBookingSlot,
	EventBookingPaid,
	EventBookingConfirmed,
}

// InteractiveEvents are the events read by the quiz and navigator breakdowns.
var InteractiveEvents = []EventName{
	EventQuizStart,
	EventQuizQuestion,
	EventQuizComplete,
	EventQuizAbandoned,
	EventNavigatorStart,
	EventNavigatorStep,
	EventNavigatorComplete,
}

// Strings converts a list of event names for query building.
func Strings(names []EventName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
