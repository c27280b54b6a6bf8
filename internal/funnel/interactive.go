// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package funnel

import (
	"sort"

	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/payload"
	"github.com/tomtom215/leadflow/internal/taxonomy"
)

// Property keys read by the interactive breakdowns.
const (
	QuizSlugKey            = "quiz_slug"
	NavigatorSlugKey       = "navigator_slug"
	RunIDKey               = "run_id"
	QuestionIndexKey       = "question_index"
	AbandonedAtQuestionKey = "abandoned_at_question"
	StepIndexKey           = "step_index"
	ChoiceIDKey            = "choice_id"
)

type stringSet map[string]struct{}

func (s stringSet) add(v string) { s[v] = struct{}{} }

type quizAcc struct {
	starts       stringSet
	completes    stringSet
	questions    map[int64]stringSet
	abandonments map[int64]int
}

type navigatorAcc struct {
	starts    stringSet
	completes stringSet
	// events without a run_id each count once
	anonStarts    int
	anonCompletes int
	steps         map[int64]*navigatorStepAcc
}

type navigatorStepAcc struct {
	total   int
	choices map[string]int
}

// Interactive builds the per-quiz and per-navigator breakdowns. Both slices
// are sorted by slug and never nil.
func Interactive(events []models.AnalyticsEvent) ([]models.QuizBreakdown, []models.NavigatorBreakdown) {
	quizzes := make(map[string]*quizAcc)
	navigators := make(map[string]*navigatorAcc)

	quiz := func(slug string) *quizAcc {
		q, ok := quizzes[slug]
		if !ok {
			q = &quizAcc{
				starts:       stringSet{},
				completes:    stringSet{},
				questions:    make(map[int64]stringSet),
				abandonments: make(map[int64]int),
			}
			quizzes[slug] = q
		}
		return q
	}
	navigator := func(slug string) *navigatorAcc {
		n, ok := navigators[slug]
		if !ok {
			n = &navigatorAcc{
				starts:    stringSet{},
				completes: stringSet{},
				steps:     make(map[int64]*navigatorStepAcc),
			}
			navigators[slug] = n
		}
		return n
	}

	for i := range events {
		e := &events[i]
		props := e.Properties

		switch taxonomy.EventName(e.EventName) {
		case taxonomy.EventQuizStart, taxonomy.EventQuizComplete, taxonomy.EventQuizQuestion, taxonomy.EventQuizAbandoned:
			slug := text(props, QuizSlugKey)
			if slug == "" {
				continue
			}
			accumulateQuiz(quiz(slug), taxonomy.EventName(e.EventName), props)

		case taxonomy.EventNavigatorStart, taxonomy.EventNavigatorStep, taxonomy.EventNavigatorComplete:
			slug := text(props, NavigatorSlugKey)
			if slug == "" {
				continue
			}
			accumulateNavigator(navigator(slug), taxonomy.EventName(e.EventName), props)
		}
	}

	return quizBreakdowns(quizzes), navigatorBreakdowns(navigators)
}

func accumulateQuiz(q *quizAcc, name taxonomy.EventName, props payload.Value) {
	runID := text(props, RunIDKey)

	switch name {
	case taxonomy.EventQuizStart:
		if runID != "" {
			q.starts.add(runID)
		}
	case taxonomy.EventQuizComplete:
		if runID != "" {
			q.completes.add(runID)
		}
	case taxonomy.EventQuizQuestion:
		idx, ok := integer(props, QuestionIndexKey)
		if !ok || runID == "" {
			return
		}
		runs, ok := q.questions[idx]
		if !ok {
			runs = stringSet{}
			q.questions[idx] = runs
		}
		runs.add(runID)
	case taxonomy.EventQuizAbandoned:
		if idx, ok := integer(props, AbandonedAtQuestionKey); ok {
			q.abandonments[idx]++
		}
	}
}

func accumulateNavigator(n *navigatorAcc, name taxonomy.EventName, props payload.Value) {
	runID := text(props, RunIDKey)

	switch name {
	case taxonomy.EventNavigatorStart:
		if runID == "" {
			n.anonStarts++
		} else {
			n.starts.add(runID)
		}
	case taxonomy.EventNavigatorComplete:
		if runID == "" {
			n.anonCompletes++
		} else {
			n.completes.add(runID)
		}
	case taxonomy.EventNavigatorStep:
		idx, ok := integer(props, StepIndexKey)
		if !ok {
			return
		}
		step, ok := n.steps[idx]
		if !ok {
			step = &navigatorStepAcc{choices: make(map[string]int)}
			n.steps[idx] = step
		}
		step.total++
		if choice := text(props, ChoiceIDKey); choice != "" {
			step.choices[choice]++
		}
	}
}

func quizBreakdowns(quizzes map[string]*quizAcc) []models.QuizBreakdown {
	out := make([]models.QuizBreakdown, 0, len(quizzes))
	for _, slug := range sortedKeys(quizzes) {
		q := quizzes[slug]

		questions := make([]models.QuizQuestionStat, 0, len(q.questions))
		for _, idx := range sortedIndexes(q.questions) {
			questions = append(questions, models.QuizQuestionStat{QuestionIndex: idx, Runs: len(q.questions[idx])})
		}

		abandonments := make([]models.QuizAbandonment, 0, len(q.abandonments))
		for _, idx := range sortedIndexes(q.abandonments) {
			abandonments = append(abandonments, models.QuizAbandonment{QuestionIndex: idx, Count: q.abandonments[idx]})
		}

		out = append(out, models.QuizBreakdown{
			QuizSlug:       slug,
			Starts:         len(q.starts),
			Completes:      len(q.completes),
			CompletionRate: Rate(len(q.completes), len(q.starts)),
			Questions:      questions,
			Abandonments:   abandonments,
		})
	}
	return out
}

func navigatorBreakdowns(navigators map[string]*navigatorAcc) []models.NavigatorBreakdown {
	out := make([]models.NavigatorBreakdown, 0, len(navigators))
	for _, slug := range sortedKeys(navigators) {
		n := navigators[slug]

		steps := make([]models.NavigatorStep, 0, len(n.steps))
		for _, idx := range sortedIndexes(n.steps) {
			acc := n.steps[idx]
			choices := make([]models.NavigatorChoice, 0, len(acc.choices))
			for _, id := range sortedKeys(acc.choices) {
				choices = append(choices, models.NavigatorChoice{ChoiceID: id, Count: acc.choices[id]})
			}
			steps = append(steps, models.NavigatorStep{StepIndex: idx, Total: acc.total, Choices: choices})
		}

		out = append(out, models.NavigatorBreakdown{
			NavigatorSlug: slug,
			Starts:        len(n.starts) + n.anonStarts,
			Completes:     len(n.completes) + n.anonCompletes,
			Steps:         steps,
		})
	}
	return out
}

// text reads a scalar property as a string. Numeric ids such as run_id: 42
// are accepted.
func text(props payload.Value, key string) string {
	v, ok := props.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.Text()
	return s
}

// integer reads a JSON number or a numeric string.
func integer(props payload.Value, key string) (int64, bool) {
	v, ok := props.Get(key)
	if !ok {
		return 0, false
	}
	return v.Int()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIndexes[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
