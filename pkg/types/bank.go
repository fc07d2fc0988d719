// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the exam-engine
// pipeline: extracted pages, the section tree, questions, banks, and
// the report artifacts derived from them.
package types

import "math"

// Difficulty grades a question. The bank targets a fixed global
// distribution of 50% easy, 35% medium, 15% hard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the difficulty buckets in steering order: when two
// buckets are equally under target the earlier one wins.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ratio targets for the difficulty distribution.
const (
	RatioEasy   = 0.50
	RatioMedium = 0.35
	RatioHard   = 0.15
)

// DifficultyTargets returns the per-bucket question counts for a bank of
// size n. Counts are rounded; easy absorbs any rounding remainder so the
// buckets always sum to n.
func DifficultyTargets(n int) map[Difficulty]int {
	targets := map[Difficulty]int{
		DifficultyEasy:   int(math.Round(float64(n) * RatioEasy)),
		DifficultyMedium: int(math.Round(float64(n) * RatioMedium)),
		DifficultyHard:   int(math.Round(float64(n) * RatioHard)),
	}
	sum := targets[DifficultyEasy] + targets[DifficultyMedium] + targets[DifficultyHard]
	targets[DifficultyEasy] += n - sum
	return targets
}

// QuestionKind identifies how a question is constructed.
type QuestionKind string

const (
	KindFact        QuestionKind = "fact"
	KindScenario    QuestionKind = "scenario"
	KindCalculation QuestionKind = "calculation"
	KindImage       QuestionKind = "image"
)

// ChoiceLabel is a choice letter. Every question carries exactly the
// labels A through D, each once.
type ChoiceLabel string

const (
	LabelA ChoiceLabel = "A"
	LabelB ChoiceLabel = "B"
	LabelC ChoiceLabel = "C"
	LabelD ChoiceLabel = "D"
)

// ChoiceLabels lists the labels in order.
var ChoiceLabels = []ChoiceLabel{LabelA, LabelB, LabelC, LabelD}

// Choice is one of a question's four answer options.
type Choice struct {
	Label     ChoiceLabel `json:"label" yaml:"label"`
	Text      string      `json:"text" yaml:"text"`
	IsCorrect bool        `json:"isCorrect" yaml:"isCorrect"`
}

// Question is a single multiple-choice exam item. Exactly one choice is
// correct; PageRef falls within the cited section's page range;
// RequiresImage is true iff Kind is image.
type Question struct {
	// QuestionID is sequential and zero-padded (e.g. "KDM-00042").
	QuestionID string `json:"questionID" yaml:"questionID"`

	// SectionID references the leaf section the question was drawn from.
	SectionID string `json:"sectionID" yaml:"sectionID"`

	Difficulty Difficulty   `json:"difficulty" yaml:"difficulty"`
	Kind       QuestionKind `json:"kind" yaml:"kind"`

	// QuestionText is the stem, at most 35 words after quality control.
	QuestionText string `json:"questionText" yaml:"questionText"`

	// Choices holds the four options in label order A-D.
	Choices []Choice `json:"choices" yaml:"choices"`

	// Explanation restates the source fact and always cites the page.
	Explanation string `json:"explanation" yaml:"explanation"`

	// PageRef is the manual page the question is grounded on.
	PageRef int `json:"pageRef" yaml:"pageRef"`

	Tags []string `json:"tags" yaml:"tags"`

	RequiresImage bool   `json:"requiresImage" yaml:"requiresImage"`
	ImagePrompt   string `json:"imagePrompt,omitempty" yaml:"imagePrompt,omitempty"`

	// SourceUnit is the factual unit the question was derived from. It
	// feeds the regeneration avoid set and never reaches the artifacts.
	SourceUnit string `json:"-" yaml:"-"`
}

// Correct returns the question's correct choice, or nil if the question
// is malformed.
func (q *Question) Correct() *Choice {
	for i := range q.Choices {
		if q.Choices[i].IsCorrect {
			return &q.Choices[i]
		}
	}
	return nil
}

// TestBank is the ordered question sequence. Aggregates are recomputed
// on demand so they can never drift from the questions themselves.
type TestBank struct {
	Questions []Question `json:"questions" yaml:"questions"`
}

// DifficultyCounts returns the number of questions per difficulty.
func (b *TestBank) DifficultyCounts() map[Difficulty]int {
	counts := make(map[Difficulty]int, len(Difficulties))
	for i := range b.Questions {
		counts[b.Questions[i].Difficulty]++
	}
	return counts
}

// SectionCounts returns the number of questions per section ID.
func (b *TestBank) SectionCounts() map[string]int {
	counts := make(map[string]int)
	for i := range b.Questions {
		counts[b.Questions[i].SectionID]++
	}
	return counts
}

// Lookup returns the index of the question with the given ID, or -1.
func (b *TestBank) Lookup(questionID string) int {
	for i := range b.Questions {
		if b.Questions[i].QuestionID == questionID {
			return i
		}
	}
	return -1
}
