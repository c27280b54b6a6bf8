// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package taxonomy

import "strings"

// LeadSource is the funnel entry channel stamped on a new Lead.
type LeadSource string

// Lead sources.
const (
	LeadSourceBooking  LeadSource = "booking"
	LeadSourceQuiz     LeadSource = "quiz"
	LeadSourceWaitlist LeadSource = "waitlist"
	LeadSourceQuestion LeadSource = "question"
	LeadSourceTelegram LeadSource = "telegram"
)

// InferLeadSource maps an event to the source of a Lead it creates. Rules
// are checked in order and the first match wins.
func InferLeadSource(eventName, source string) LeadSource {
	name := strings.ToLower(eventName)
	switch {
	case strings.HasPrefix(name, "tg_"), name == string(EventCTATelegramClick), Source(source) == SourceTelegram:
		return LeadSourceTelegram
	case strings.Contains(name, "quiz"), strings.Contains(name, "navigator"), strings.Contains(name, "thermometer"):
		return LeadSourceQuiz
	case strings.HasPrefix(name, "waitlist"):
		return LeadSourceWaitlist
	case name == string(EventQuestionSubmitted):
		return LeadSourceQuestion
	case strings.HasPrefix(name, "booking"), strings.HasPrefix(name, "payment"), name == string(EventServiceSelected):
		return LeadSourceBooking
	default:
		return LeadSourceBooking
	}
}

// LeadStatus is a ranked lifecycle stage. A Lead's stored status only
// moves forward.
type LeadStatus string

// Lead statuses, lowest rank first.
const (
	LeadStatusNew            LeadStatus = "new"
	LeadStatusEngaged        LeadStatus = "engaged"
	LeadStatusBookingStarted LeadStatus = "booking_started"
	LeadStatusPaid           LeadStatus = "paid"
	LeadStatusConfirmed      LeadStatus = "confirmed"
)

var statusRank = map[LeadStatus]int{
	LeadStatusNew:            0,
	LeadStatusEngaged:        1,
	LeadStatusBookingStarted: 2,
	LeadStatusPaid:           3,
	LeadStatusConfirmed:      4,
}

// Rank returns the position of s; unknown statuses rank below new.
func (s LeadStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

var eventStatus = map[EventName]LeadStatus{
	EventBookingStart:      LeadStatusBookingStarted,
	EventBookingSlot:       LeadStatusBookingStarted,
	EventServiceSelected:   LeadStatusBookingStarted,
	EventPaymentStarted:    LeadStatusBookingStarted,
	EventBookingPaid:       LeadStatusPaid,
	EventPaymentSucceeded:  LeadStatusPaid,
	EventBookingConfirmed:  LeadStatusConfirmed,
	EventQuizComplete:      LeadStatusEngaged,
	EventNavigatorComplete: LeadStatusEngaged,
	EventThermometerDone:   LeadStatusEngaged,
	EventWaitlistSubmitted: LeadStatusEngaged,
	EventQuestionSubmitted: LeadStatusEngaged,
	EventTGSubscribed:      LeadStatusEngaged,
}

// StatusForEvent returns the status an event implies.
func StatusForEvent(eventName string) LeadStatus {
	if s, ok := eventStatus[EventName(eventName)]; ok {
		return s
	}
	return LeadStatusNew
}

// AdvanceStatus returns the higher-ranked of current and next.
func AdvanceStatus(current, next LeadStatus) LeadStatus {
	if next.Rank() > current.Rank() {
		return next
	}
	return current
}
