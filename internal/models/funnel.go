// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package models

import "time"

// FunnelStep is the number of distinct participants that reached a step.
type FunnelStep struct {
	Event string `json:"event"`
	Count int    `json:"count"`
}

// FunnelConversion is count(To)/count(From), 0 when count(From) is 0.
type FunnelConversion struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// BookingFunnelReport lists every booking step in declared order, zero
// counts included, and one conversion per consecutive pair.
type BookingFunnelReport struct {
	From        time.Time          `json:"from"`
	To          time.Time          `json:"to"`
	ServiceSlug string             `json:"service_slug,omitempty"`
	Steps       []FunnelStep       `json:"steps"`
	Conversion  []FunnelConversion `json:"conversion"`
}

// QuizQuestionStat counts distinct runs that completed a question index.
type QuizQuestionStat struct {
	QuestionIndex int64 `json:"question_index"`
	Runs          int   `json:"runs"`
}

// QuizAbandonment counts quiz_abandoned events at a question index.
type QuizAbandonment struct {
	QuestionIndex int64 `json:"question_index"`
	Count         int   `json:"count"`
}

// QuizBreakdown is the interactive funnel of one quiz.
type QuizBreakdown struct {
	QuizSlug       string             `json:"quiz_slug"`
	Starts         int                `json:"starts"`
	Completes      int                `json:"completes"`
	CompletionRate float64            `json:"completion_rate"`
	Questions      []QuizQuestionStat `json:"questions"`
	Abandonments   []QuizAbandonment  `json:"abandonments"`
}

// NavigatorChoice counts completions of a step with a given choice.
type NavigatorChoice struct {
	ChoiceID string `json:"choice_id"`
	Count    int    `json:"count"`
}

// NavigatorStep totals navigator_step_completed events at one step index.
type NavigatorStep struct {
	StepIndex int64             `json:"step_index"`
	Total     int               `json:"total"`
	Choices   []NavigatorChoice `json:"choices"`
}

// NavigatorBreakdown is the interactive funnel of one navigator.
type NavigatorBreakdown struct {
	NavigatorSlug string          `json:"navigator_slug"`
	Starts        int             `json:"starts"`
	Completes     int             `json:"completes"`
	Steps         []NavigatorStep `json:"steps"`
}

// InteractiveFunnelReport groups quiz and navigator breakdowns, each sorted
// by slug.
type InteractiveFunnelReport struct {
	From       time.Time            `json:"from"`
	To         time.Time            `json:"to"`
	Quizzes    []QuizBreakdown      `json:"quizzes"`
	Navigators []NavigatorBreakdown `json:"navigators"`
}
