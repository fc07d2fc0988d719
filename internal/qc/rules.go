// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/exam-engine/pkg/types"
)

const (
	maxStemWords   = 35
	maxChoiceWords = 20
)

// bannedPhrases never belong in a stem or choice; they are the filler
// formulations the generator's early templates used to fall back on.
var bannedPhrases = []string{
	"follow kentucky guidelines for",
	"there are no specific rules for",
	"wait for other drivers to decide about",
	"ignore the",
	"use personal judgment rather than following official guidelines",
	"the procedure varies by county and is not standardized",
	"there is no official procedure outlined in the",
}

// genericAnswers are filler texts that must never be the correct
// choice. They are fine as distractors.
var genericAnswers = []string{
	"all of the above",
	"none of the above",
	"option not mentioned in the manual",
	"it depends on the situation",
	"follow the applicable guidelines",
}

var pageCitation = regexp.MustCompile(`page \d+`)

// rule is one ordered quality check. check returns an empty string on
// pass or the rejection reason; the first failing rule decides.
type rule struct {
	name  string
	check func(q *types.Question) string
}

var rules = []rule{
	{"schema", checkSchema},
	{"banned-phrase", checkBannedPhrases},
	{"stem-length", checkStemLength},
	{"choice-length", checkChoiceLength},
	{"page-citation", checkPageCitation},
	{"generic-answer", checkGenericAnswer},
}

// evaluate runs the ordered rule set and returns the first rejection
// reason, or an empty string when the question passes.
func evaluate(q *types.Question) string {
	for _, r := range rules {
		if reason := r.check(q); reason != "" {
			return fmt.Sprintf("%s: %s", r.name, reason)
		}
	}
	return ""
}

func checkSchema(q *types.Question) string {
	if strings.TrimSpace(q.QuestionText) == "" {
		return "empty stem"
	}
	if q.SectionID == "" {
		return "missing section reference"
	}
	if q.PageRef < 1 {
		return fmt.Sprintf("pageRef %d out of range", q.PageRef)
	}
	if len(q.Choices) != len(types.ChoiceLabels) {
		return fmt.Sprintf("%d choices, want %d", len(q.Choices), len(types.ChoiceLabels))
	}
	correct := 0
	for i, c := range q.Choices {
		if c.Label != types.ChoiceLabels[i] {
			return fmt.Sprintf("choice %d labeled %q, want %q", i, c.Label, types.ChoiceLabels[i])
		}
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Sprintf("choice %s is empty", c.Label)
		}
		if c.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Sprintf("%d correct choices, want exactly 1", correct)
	}
	if q.RequiresImage != (q.Kind == types.KindImage) {
		return "requiresImage inconsistent with kind"
	}
	return ""
}

func checkBannedPhrases(q *types.Question) string {
	stem := strings.ToLower(q.QuestionText)
	for _, phrase := range bannedPhrases {
		if strings.Contains(stem, phrase) {
			return fmt.Sprintf("stem contains %q", phrase)
		}
		for _, c := range q.Choices {
			if strings.Contains(strings.ToLower(c.Text), phrase) {
				return fmt.Sprintf("choice %s contains %q", c.Label, phrase)
			}
		}
	}
	return ""
}

func checkStemLength(q *types.Question) string {
	if n := len(strings.Fields(q.QuestionText)); n > maxStemWords {
		return fmt.Sprintf("stem is %d words, limit %d", n, maxStemWords)
	}
	return ""
}

func checkChoiceLength(q *types.Question) string {
	for _, c := range q.Choices {
		if n := len(strings.Fields(c.Text)); n > maxChoiceWords {
			return fmt.Sprintf("choice %s is %d words, limit %d", c.Label, n, maxChoiceWords)
		}
	}
	return ""
}

func checkPageCitation(q *types.Question) string {
	if !pageCitation.MatchString(strings.ToLower(q.Explanation)) {
		return "explanation cites no page number"
	}
	return ""
}

func checkGenericAnswer(q *types.Question) string {
	correct := q.Correct()
	if correct == nil {
		return "no correct choice"
	}
	text := strings.ToLower(correct.Text)
	for _, g := range genericAnswers {
		if strings.Contains(text, g) {
			return fmt.Sprintf("correct choice is filler: %q", g)
		}
	}
	return ""
}
