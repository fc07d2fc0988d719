// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats derives human-readable summary figures from a question
// bank and renders the stats.txt artifact.
package stats

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/exam-engine/internal/bankstore"
	"github.com/pdiddy/exam-engine/pkg/types"
)

// Compute derives summary figures from a bank and its coverage report.
// Hardest section is the one with the highest weighted difficulty score
// (hard counts 1, medium 0.5, easy 0, averaged over the section's
// questions); thinnest is the section with the fewest questions. Ties
// break on section ID so the output is stable.
func Compute(bank types.TestBank, coverage types.CoverageReport) types.Stats {
	s := types.Stats{
		TotalQuestions:   len(bank.Questions),
		DifficultyCounts: bank.DifficultyCounts(),
		CoveragePercent:  coverage.CoveragePercent,
	}
	if len(bank.Questions) == 0 {
		return s
	}

	words := 0
	scores := make(map[string]float64)
	counts := bank.SectionCounts()
	for _, q := range bank.Questions {
		words += len(strings.Fields(q.QuestionText))
		switch q.Difficulty {
		case types.DifficultyHard:
			scores[q.SectionID] += 1.0
		case types.DifficultyMedium:
			scores[q.SectionID] += 0.5
		}
	}
	s.AvgWordsPerStem = float64(words) / float64(len(bank.Questions))

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	s.ThinnestCount = -1
	for _, id := range ids {
		score := scores[id] / float64(counts[id])
		if score > s.HardestScore || s.HardestSection == "" {
			s.HardestSection, s.HardestScore = id, score
		}
		if counts[id] < s.ThinnestCount || s.ThinnestCount < 0 {
			s.ThinnestSection, s.ThinnestCount = id, counts[id]
		}
	}
	return s
}

// Render writes the stats summary in its flat text layout.
func Render(w io.Writer, s types.Stats) {
	total := s.TotalQuestions
	pct := func(d types.Difficulty) float64 {
		if total == 0 {
			return 0
		}
		return float64(s.DifficultyCounts[d]) / float64(total) * 100
	}

	fmt.Fprintf(w, "Total Questions: %d\n", total)
	fmt.Fprintf(w, "Average Words per Question: %.1f\n", s.AvgWordsPerStem)
	fmt.Fprintf(w, "Difficulty Distribution: %.1f%% Easy, %.1f%% Medium, %.1f%% Hard\n",
		pct(types.DifficultyEasy), pct(types.DifficultyMedium), pct(types.DifficultyHard))
	fmt.Fprintf(w, "Hardest Section: %s (difficulty score: %.1f)\n", s.HardestSection, s.HardestScore)
	fmt.Fprintf(w, "Thinnest Section: %s (%d questions)\n", s.ThinnestSection, s.ThinnestCount)
	fmt.Fprintf(w, "Coverage: %.1f%% of leaf sections\n", s.CoveragePercent)
}

// Write renders the summary to outputDir/stats.txt.
func Write(outputDir string, s types.Stats) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outputDir, bankstore.StatsFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	Render(f, s)
	return nil
}

// Preview prints count random questions with the correct choice marked,
// for a quick human read of the bank. The same seed yields the same
// selection.
func Preview(w io.Writer, bank types.TestBank, count int, seed uint64) {
	picked := make([]types.Question, len(bank.Questions))
	copy(picked, bank.Questions)

	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if count > len(picked) {
		count = len(picked)
	}

	for i, q := range picked[:count] {
		fmt.Fprintf(w, "Q%d (%s) - %s\n", i+1, q.Difficulty, q.QuestionText)
		for _, c := range q.Choices {
			mark := ""
			if c.IsCorrect {
				mark = " *"
			}
			fmt.Fprintf(w, "%s. %s%s\n", c.Label, c.Text, mark)
		}
		tag := ""
		if len(q.Tags) > 0 {
			tag = q.Tags[0]
		}
		fmt.Fprintf(w, "Pg %d | Tags: %s\n\n", q.PageRef, tag)
	}
}
