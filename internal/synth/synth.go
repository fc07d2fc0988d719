// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth generates multiple-choice questions from section text.
// All randomness flows from one seeded source, so the same seed and
// section tree produce identical questions.
package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/pdiddy/exam-engine/pkg/types"
)

// ErrInsufficientMaterial reports that a section's remaining unused
// text cannot support a new distinguishable question. Callers reduce
// the section's allocation or accept under-coverage; the condition is
// never fatal.
var ErrInsufficientMaterial = errors.New("insufficient material")

const (
	defaultReuseLimit = 1

	// Factual-unit length window, in characters.
	minUnitLen = 30
	maxUnitLen = 150

	maxStemWords   = 35
	maxChoiceWords = 20
)

// Request asks for one question. Avoid lists factual units that must
// not back the result, used during quality-control regeneration.
type Request struct {
	SectionID  string
	Difficulty types.Difficulty
	Kind       types.QuestionKind
	Avoid      map[string]bool
}

// Synthesizer builds questions from a section tree. Not safe for
// concurrent use; the pipeline synthesizes from a single goroutine so
// output order stays deterministic.
type Synthesizer struct {
	tree *types.SectionTree
	rng  *rand.Rand
	cfg  types.SynthesisConfig

	// used counts questions per factual unit per section, enforcing the
	// reuse cap.
	used map[string]map[string]int
}

// New returns a Synthesizer drawing from the given tree. cfg.Seed
// drives every random decision.
func New(tree *types.SectionTree, cfg types.SynthesisConfig) *Synthesizer {
	if cfg.UnitReuseLimit <= 0 {
		cfg.UnitReuseLimit = defaultReuseLimit
	}
	return &Synthesizer{
		tree: tree,
		rng:  rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)),
		cfg:  cfg,
		used: make(map[string]map[string]int),
	}
}

// Synthesize produces one question for the requested section,
// difficulty, and kind. The QuestionID is left empty; the assembler
// assigns IDs once the final bank order is known.
func (s *Synthesizer) Synthesize(req Request) (types.Question, error) {
	sec, err := s.tree.Lookup(req.SectionID)
	if err != nil {
		return types.Question{}, err
	}

	unit, page, err := s.pickUnit(sec, req.Avoid)
	if err != nil {
		return types.Question{}, err
	}

	var stem, correct, prompt, explBody string
	var distractors []string
	if req.Kind == types.KindCalculation {
		stem, correct, distractors, explBody = s.calculation(unit, req.Difficulty)
	} else {
		correct = clampWords(unit, maxChoiceWords)
		stem, prompt = s.compose(req, unit)
		distractors = s.distractors(correct, req.Difficulty)
		explBody = strings.TrimRight(correct, ".")
	}

	q := types.Question{
		SectionID:     req.SectionID,
		Difficulty:    req.Difficulty,
		Kind:          req.Kind,
		QuestionText:  clampWords(stem, maxStemWords),
		Choices:       s.shuffleChoices(correct, distractors),
		Explanation:   fmt.Sprintf("According to the driver's manual on page %d, %s.", page, explBody),
		PageRef:       page,
		Tags:          deriveTags(sec.Title, stem, unit),
		RequiresImage: req.Kind == types.KindImage,
		SourceUnit:    unit,
	}
	if q.RequiresImage {
		q.ImagePrompt = prompt
	}
	return q, nil
}

// PickKind chooses a question kind suited to the section's content:
// sign sections lean toward image questions, numeric text toward
// calculations, the rest split between scenario and fact. The draw
// comes from the synthesizer's seeded source.
func (s *Synthesizer) PickKind(sectionID string) types.QuestionKind {
	sec, err := s.tree.Lookup(sectionID)
	if err != nil {
		return types.KindFact
	}
	switch {
	case strings.Contains(strings.ToLower(sec.Title), "sign") && s.rng.Float64() < 0.7:
		return types.KindImage
	case firstNumber.MatchString(sec.Text) && s.rng.Float64() < 0.3:
		return types.KindCalculation
	case s.rng.Float64() < 0.4:
		return types.KindScenario
	default:
		return types.KindFact
	}
}

// FormatID renders the nth question ID ("KDM-00042").
func (s *Synthesizer) FormatID(n int) string {
	prefix := s.cfg.QuestionIDPrefix
	if prefix == "" {
		prefix = "KDM"
	}
	return fmt.Sprintf("%s-%05d", prefix, n)
}

// pickUnit selects an unused factual unit from the section and charges
// it against the reuse cap. The returned page is the unit's position
// mapped into the section's page range.
func (s *Synthesizer) pickUnit(sec *types.Section, avoid map[string]bool) (string, int, error) {
	units := splitUnits(sec.Text)
	if len(units) == 0 {
		return "", 0, fmt.Errorf("%w: section %s has no usable text", ErrInsufficientMaterial, sec.ID)
	}

	counts := s.used[sec.ID]
	if counts == nil {
		counts = make(map[string]int)
		s.used[sec.ID] = counts
	}

	var candidates []int
	for i, u := range units {
		if avoid[u] || counts[u] >= s.cfg.UnitReuseLimit {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return "", 0, fmt.Errorf("%w: section %s exhausted its factual units", ErrInsufficientMaterial, sec.ID)
	}

	idx := candidates[s.rng.IntN(len(candidates))]
	unit := units[idx]
	counts[unit]++
	return unit, pageFor(sec, idx, len(units)), nil
}

// splitUnits breaks section text into factual units: sentences inside
// the length window, in document order.
func splitUnits(text string) []string {
	var units []string
	for _, raw := range splitSentences(text) {
		u := strings.TrimSpace(raw)
		if len(u) >= minUnitLen && len(u) <= maxUnitLen {
			units = append(units, u)
		}
	}
	return units
}

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

func splitSentences(text string) []string {
	return sentenceEnd.Split(strings.ReplaceAll(text, "\n", " "), -1)
}

// pageFor maps a unit's position in the section text onto the section's
// page range. Section text does not record per-page offsets, so pages
// are attributed proportionally; the result always falls inside the
// range.
func pageFor(sec *types.Section, idx, total int) int {
	first, last := sec.PageRange[0], sec.PageRange[1]
	if total <= 1 || last <= first {
		return first
	}
	return first + idx*(last-first+1)/total
}

// shuffleChoices randomizes choice order and assigns labels A-D.
func (s *Synthesizer) shuffleChoices(correct string, distractors []string) []types.Choice {
	texts := append([]string{correct}, distractors...)
	correctIdx := 0
	s.rng.Shuffle(len(texts), func(i, j int) {
		texts[i], texts[j] = texts[j], texts[i]
		switch correctIdx {
		case i:
			correctIdx = j
		case j:
			correctIdx = i
		}
	})

	choices := make([]types.Choice, len(texts))
	for i, text := range texts {
		choices[i] = types.Choice{
			Label:     types.ChoiceLabels[i],
			Text:      text,
			IsCorrect: i == correctIdx,
		}
	}
	return choices
}

// clampWords truncates s to at most n words.
func clampWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
