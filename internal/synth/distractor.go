// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"strconv"
	"strings"

	"github.com/pdiddy/exam-engine/pkg/types"
)

// Qualifier swap table for the driving domain. Ordered so candidate
// generation is deterministic for a given seed.
var qualifierSwaps = []struct {
	from string
	to   string
}{
	{"left", "right"},
	{"right", "left"},
	{"must", "may"},
	{"always", "only sometimes"},
	{"never", "always"},
	{"stop", "slow down"},
	{"yield", "proceed"},
	{"before", "after"},
	{"behind", "in front of"},
	{"feet", "yards"},
	{"seconds", "minutes"},
	{"red", "yellow"},
	{"solid", "broken"},
	{"oncoming", "following"},
}

var negations = []string{"not", "never"}

// Last-resort distractor texts, used when the unit offers nothing to
// perturb.
var fallbackDistractors = []string{
	"Only when a police officer directs you to do so",
	"Only between sunset and sunrise",
	"Only on roads with two or more lanes in each direction",
	"Only when no other traffic is present",
}

// Numeric deltas per difficulty: easy distractors drift far from the
// true value, hard distractors sit close to it.
var (
	easyDeltas = []int{-10, -5, 5, 10, 15}
	hardDeltas = []int{-2, -1, 1, 2, 5}
)

// distractors derives three incorrect choices from the correct one:
// numeric jitter when the text carries a number, qualifier swaps from
// the domain table, and a negated variant. Hard questions get
// semantically closer perturbations than easy ones.
func (s *Synthesizer) distractors(correct string, diff types.Difficulty) []string {
	var candidates []string

	if m := firstNumber.FindString(correct); m != "" {
		deltas := easyDeltas
		if diff == types.DifficultyHard {
			deltas = hardDeltas
		}
		n, _ := strconv.Atoi(m)
		start := s.rng.IntN(len(deltas))
		for i := range deltas {
			jittered := n + deltas[(start+i)%len(deltas)]
			if jittered > 0 && jittered != n {
				candidates = append(candidates, strings.Replace(correct, m, strconv.Itoa(jittered), 1))
			}
			if len(candidates) == 2 {
				break
			}
		}
	}

	for _, swap := range qualifierSwaps {
		if swapped, ok := swapWord(correct, swap.from, swap.to); ok {
			candidates = append(candidates, swapped)
		}
		if len(candidates) >= 4 {
			break
		}
	}

	if neg, ok := negate(correct, negations[s.rng.IntN(len(negations))]); ok {
		candidates = append(candidates, neg)
	}

	// Fill from the fallback pool, rotated by the seed so banks with
	// different seeds do not share fallback ordering.
	offset := s.rng.IntN(len(fallbackDistractors))
	for i := range fallbackDistractors {
		candidates = append(candidates, fallbackDistractors[(offset+i)%len(fallbackDistractors)])
	}

	return pickDistinct(candidates, correct, 3)
}

// swapWord replaces the first whole-word occurrence of from with to,
// case-insensitively.
func swapWord(text, from, to string) (string, bool) {
	words := strings.Fields(text)
	for i, w := range words {
		stripped := strings.ToLower(strings.Trim(w, ".,;:"))
		if stripped == from {
			words[i] = strings.Replace(w, w[:len(stripped)], to, 1)
			return strings.Join(words, " "), true
		}
	}
	return "", false
}

// negate inserts a negation near the head of the sentence, mirroring
// how plausible-but-wrong rule statements usually read.
func negate(text, neg string) (string, bool) {
	words := strings.Fields(text)
	if len(words) < 4 {
		return "", false
	}
	for _, w := range words {
		for _, existing := range negations {
			if strings.EqualFold(strings.Trim(w, ".,;:"), existing) {
				return "", false
			}
		}
	}
	pos := len(words) / 3
	if pos > 2 {
		pos = 2
	}
	out := make([]string, 0, len(words)+1)
	out = append(out, words[:pos+1]...)
	out = append(out, neg)
	out = append(out, words[pos+1:]...)
	return strings.Join(out, " "), true
}

// pickDistinct returns the first n candidates that differ from the
// correct choice and from each other.
func pickDistinct(candidates []string, correct string, n int) []string {
	seen := map[string]bool{correct: true}
	var out []string
	for _, c := range candidates {
		c = clampWords(c, maxChoiceWords)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out
}
