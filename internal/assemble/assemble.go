// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble builds the raw test bank: a coverage floor for every
// leaf section, then the remaining budget distributed by section size
// while steering difficulties toward the 50/35/15 split.
package assemble

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/exam-engine/internal/synth"
	"github.com/pdiddy/exam-engine/pkg/types"
)

const (
	defaultTargetCount   = 400
	defaultCoverageFloor = 1
)

// Assemble generates the raw bank in one pass. The result is within
// [target - len(leaves), target] questions: sections that exhaust their
// material shrink the bank only when no other section can absorb the
// shortfall, and that is surfaced in the coverage report, never hidden.
func Assemble(tree *types.SectionTree, s *synth.Synthesizer, cfg types.AssemblyConfig, w io.Writer) (types.TestBank, types.CoverageReport, error) {
	if cfg.TargetCount <= 0 {
		cfg.TargetCount = defaultTargetCount
	}
	if cfg.CoverageFloor <= 0 {
		cfg.CoverageFloor = defaultCoverageFloor
	}

	leaves := tree.Leaves()
	if len(leaves) == 0 {
		return types.TestBank{}, types.CoverageReport{}, fmt.Errorf("section tree has no leaves")
	}

	a := &assembly{
		synth:     s,
		targets:   types.DifficultyTargets(cfg.TargetCount),
		counts:    make(map[types.Difficulty]int),
		exhausted: make(map[string]bool),
	}

	// Floor pass: every leaf gets its minimum before any budget math.
	for _, leaf := range leaves {
		for i := 0; i < cfg.CoverageFloor; i++ {
			if !a.generate(leaf.ID) {
				break
			}
		}
	}

	// Budget pass: the remainder goes out proportionally to text size.
	remaining := cfg.TargetCount - len(a.bank.Questions)
	if remaining > 0 {
		alloc := allocate(leaves, remaining)
		for i, leaf := range leaves {
			shortfall := 0
			for n := 0; n < alloc[i]; n++ {
				if !a.generate(leaf.ID) {
					shortfall = alloc[i] - n
					break
				}
			}
			if shortfall > 0 {
				a.redistribute(leaf, leaves, shortfall)
			}
		}
	}

	for i := range a.bank.Questions {
		a.bank.Questions[i].QuestionID = s.FormatID(i + 1)
	}

	report := Coverage(a.bank, tree, cfg.CoverageFloor)
	report.Adjustments = a.adjustments
	fmt.Fprintf(w, "assembled %d questions across %d sections (%d gaps, %d reallocations)\n",
		len(a.bank.Questions), len(leaves), len(report.Gaps), len(report.Adjustments))
	return a.bank, report, nil
}

// assembly is the in-progress bank plus difficulty-steering state.
type assembly struct {
	synth   *synth.Synthesizer
	bank    types.TestBank
	targets map[types.Difficulty]int
	counts  map[types.Difficulty]int

	exhausted   map[string]bool
	adjustments []types.Adjustment
}

// generate adds one question for the section, steering difficulty to
// the bucket furthest under target. Returns false once the section's
// material is exhausted; any other synthesis error also stops the
// section, since retrying the same input cannot change the outcome.
func (a *assembly) generate(sectionID string) bool {
	if a.exhausted[sectionID] {
		return false
	}
	difficulty := a.nextDifficulty()
	q, err := a.synth.Synthesize(synth.Request{
		SectionID:  sectionID,
		Difficulty: difficulty,
		Kind:       a.synth.PickKind(sectionID),
	})
	if err != nil {
		if errors.Is(err, synth.ErrInsufficientMaterial) {
			a.exhausted[sectionID] = true
		}
		return false
	}
	a.bank.Questions = append(a.bank.Questions, q)
	a.counts[difficulty]++
	return true
}

// nextDifficulty picks the bucket furthest below its target. Ties
// resolve easy before medium before hard, which keeps assembly stable;
// once every target is met the overflow lands on easy.
func (a *assembly) nextDifficulty() types.Difficulty {
	best := types.DifficultyEasy
	bestDeficit := 0
	for _, d := range types.Difficulties {
		if deficit := a.targets[d] - a.counts[d]; deficit > bestDeficit {
			best = d
			bestDeficit = deficit
		}
	}
	return best
}

// redistribute moves a section's unmet allocation to the next-largest
// sections by text length, recording each move.
func (a *assembly) redistribute(from *types.Section, leaves []*types.Section, shortfall int) {
	ordered := make([]*types.Section, 0, len(leaves))
	for _, leaf := range leaves {
		if leaf.ID != from.ID && !a.exhausted[leaf.ID] {
			ordered = append(ordered, leaf)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Text) > len(ordered[j].Text)
	})

	for _, leaf := range ordered {
		moved := 0
		for shortfall > 0 && a.generate(leaf.ID) {
			shortfall--
			moved++
		}
		if moved > 0 {
			a.adjustments = append(a.adjustments, types.Adjustment{From: from.ID, To: leaf.ID, Count: moved})
		}
		if shortfall == 0 {
			return
		}
	}
	// No section could absorb the rest; the bank comes up short and the
	// coverage report carries the evidence.
}

// allocate splits the budget across leaves proportionally to text
// length, handing the rounding remainder out round-robin in section
// order.
func allocate(leaves []*types.Section, budget int) []int {
	totalLen := 0
	for _, leaf := range leaves {
		totalLen += len(leaf.Text)
	}
	alloc := make([]int, len(leaves))
	if totalLen == 0 {
		totalLen = 1
	}

	assigned := 0
	for i, leaf := range leaves {
		alloc[i] = budget * len(leaf.Text) / totalLen
		assigned += alloc[i]
	}
	for i := 0; assigned < budget; i = (i + 1) % len(leaves) {
		alloc[i]++
		assigned++
	}
	return alloc
}

// Coverage computes the per-section coverage report for any bank over
// the tree's leaves, with counts rolled up per top-level chapter. QC
// reuses it to snapshot coverage after its repairs.
func Coverage(bank types.TestBank, tree *types.SectionTree, floor int) types.CoverageReport {
	leaves := tree.Leaves()
	rep := types.CoverageReport{
		Sections:      make(map[string]types.SectionCoverage, len(leaves)),
		TotalSections: len(leaves),
	}

	perSection := bank.SectionCounts()
	covered := 0
	for _, leaf := range leaves {
		sc := types.SectionCoverage{
			SectionID:           leaf.ID,
			Title:               leaf.Title,
			Count:               perSection[leaf.ID],
			DifficultyBreakdown: make(map[types.Difficulty]int),
		}
		for i := range bank.Questions {
			if bank.Questions[i].SectionID == leaf.ID {
				sc.DifficultyBreakdown[bank.Questions[i].Difficulty]++
			}
		}
		rep.Sections[leaf.ID] = sc

		switch {
		case sc.Count >= floor:
			rep.SectionsMeetingFloor++
			covered++
		case sc.Count > 0:
			covered++
		default:
			rep.Gaps = append(rep.Gaps, leaf.ID)
		}
	}
	if len(leaves) > 0 {
		rep.CoveragePercent = 100 * float64(covered) / float64(len(leaves))
	}

	// Chapter rollups. A leaf with no parent is its own chapter.
	rep.Chapters = make(map[string]types.SectionCoverage)
	for _, leaf := range leaves {
		chID := leaf.Parent
		if chID == "" {
			chID = leaf.ID
		}
		ch, ok := rep.Chapters[chID]
		if !ok {
			ch = types.SectionCoverage{
				SectionID:           chID,
				DifficultyBreakdown: make(map[types.Difficulty]int),
			}
			if sec, err := tree.Lookup(chID); err == nil {
				ch.Title = sec.Title
			}
		}
		sc := rep.Sections[leaf.ID]
		ch.Count += sc.Count
		for d, n := range sc.DifficultyBreakdown {
			ch.DifficultyBreakdown[d] += n
		}
		rep.Chapters[chID] = ch
	}
	return rep
}
