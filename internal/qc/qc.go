// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package qc reviews an assembled bank against an ordered rule set,
// regenerates failing questions in place, and reconciles the global
// difficulty ratios afterwards. The bank never shrinks: items that
// exhaust their regeneration attempts stay, flagged unresolved.
package qc

import (
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/exam-engine/internal/synth"
	"github.com/pdiddy/exam-engine/pkg/types"
)

const (
	defaultMaxAttempts    = 3
	defaultRatioTolerance = 1
)

// Review applies the rule set to every question. Failing questions go
// back to the synthesizer with the same section, difficulty, and kind
// plus an avoid set covering the rejected material; the replacement
// keeps the original QuestionID and position.
func Review(bank types.TestBank, s *synth.Synthesizer, cfg types.QCConfig, w io.Writer) (types.TestBank, types.QCReport, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RatioTolerance <= 0 {
		cfg.RatioTolerance = defaultRatioTolerance
	}

	var report types.QCReport
	for i := range bank.Questions {
		q := &bank.Questions[i]
		reason := evaluate(q)
		if reason == "" {
			continue
		}

		avoid := map[string]bool{}
		if q.SourceUnit != "" {
			avoid[q.SourceUnit] = true
		}

		resolved := false
		for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
			replacement, err := s.Synthesize(synth.Request{
				SectionID:  q.SectionID,
				Difficulty: q.Difficulty,
				Kind:       q.Kind,
				Avoid:      avoid,
			})
			if err != nil {
				// Out of material for this section; further attempts
				// cannot produce different input.
				break
			}
			if replacement.SourceUnit != "" {
				avoid[replacement.SourceUnit] = true
			}
			if evaluate(&replacement) != "" {
				continue
			}
			replacement.QuestionID = q.QuestionID
			*q = replacement
			report.Regenerated++
			resolved = true
			break
		}
		if !resolved {
			fmt.Fprintf(w, "unresolved %s: %s\n", q.QuestionID, reason)
			report.Unresolved = append(report.Unresolved, types.UnresolvedItem{
				QuestionID: q.QuestionID,
				Reason:     reason,
			})
		}
	}

	report.Relabeled = reconcile(&bank, cfg.RatioTolerance)
	report.Passed = len(bank.Questions) - len(report.Unresolved)
	report.FinalRatios = bank.DifficultyCounts()

	fmt.Fprintf(w, "reviewed %d questions: %d passed, %d regenerated, %d unresolved, %d relabeled\n",
		len(bank.Questions), report.Passed, report.Regenerated, len(report.Unresolved), report.Relabeled)
	return bank, report, nil
}

// reconcile restores the difficulty split after in-place repairs by
// relabeling borderline items. Eligible items are fact questions
// without images that pass every rule; their stems do not encode the
// difficulty, so only the label moves. Items are relabeled in ascending
// QuestionID order from the most-over bucket to the most-under bucket
// until every bucket is within tolerance or no eligible item remains.
// The bank size never changes.
func reconcile(bank *types.TestBank, tolerance int) int {
	targets := types.DifficultyTargets(len(bank.Questions))
	relabeled := 0

	for {
		counts := bank.DifficultyCounts()
		over, under := types.Difficulty(""), types.Difficulty("")
		overBy, underBy := 0, 0
		violation := false
		for _, d := range types.Difficulties {
			diff := counts[d] - targets[d]
			if diff > overBy {
				over, overBy = d, diff
			}
			if diff < underBy {
				under, underBy = d, diff
			}
			if diff > tolerance || diff < -tolerance {
				violation = true
			}
		}
		if !violation || over == "" || under == "" {
			return relabeled
		}

		idx := eligibleIndices(bank, over)
		if len(idx) == 0 {
			return relabeled
		}
		bank.Questions[idx[0]].Difficulty = under
		relabeled++
	}
}

// eligibleIndices lists relabel candidates in the given bucket, in
// ascending QuestionID order.
func eligibleIndices(bank *types.TestBank, d types.Difficulty) []int {
	var idx []int
	for i := range bank.Questions {
		q := &bank.Questions[i]
		if q.Difficulty == d && q.Kind == types.KindFact && !q.RequiresImage && evaluate(q) == "" {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		return bank.Questions[idx[a]].QuestionID < bank.Questions[idx[b]].QuestionID
	})
	return idx
}
