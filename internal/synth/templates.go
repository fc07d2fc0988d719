// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/exam-engine/pkg/types"
)

// Stem templates per question kind. Difficulty is realized by stem
// complexity: easy stems ask for a single fact, medium stems ask for
// the correct description, hard stems add a qualifying condition.
var (
	factEasy = []string{
		"What does the driver's manual state about %s?",
		"According to the driver's manual, what is true of %s?",
	}
	factMedium = []string{
		"Which of the following correctly describes %s?",
		"What is the rule regarding %s?",
	}
	factHard = []string{
		"Which statement about %s is accurate %s?",
		"What does the manual require regarding %s %s?",
	}

	scenarioEasy = []string{
		"You are driving and must deal with %s. What should you do?",
		"While driving, you encounter %s. What is the correct action?",
	}
	scenarioHard = []string{
		"You are driving %s and must deal with %s. What should you do?",
		"While driving %s, you encounter %s. What is the safest action?",
	}

	imageStems = []string{
		"What does this road sign indicate?",
		"Which of the following best describes the meaning of this traffic sign?",
		"When you see this sign, you should observe which rule?",
	}

	// Conditions appended to hard stems.
	hardConditions = []string{
		"at night",
		"in heavy rain",
		"near a school zone",
		"in dense fog",
		"on a two-lane highway",
	}
)

// Sign vocabulary for image prompts. Keyword matches against the
// factual unit pick the sign; otherwise the draw is random.
var signPrompts = []struct {
	keyword string
	sign    string
}{
	{"stop", "STOP sign"},
	{"yield", "YIELD sign"},
	{"speed", "Speed Limit sign"},
	{"school", "School Zone sign"},
	{"railroad", "Railroad Crossing sign"},
	{"merge", "Merge sign"},
	{"u-turn", "No U-Turn sign"},
	{"wrong way", "Wrong Way sign"},
	{"enter", "Do Not Enter sign"},
}

// compose builds the stem (and image prompt for image questions) for
// fact, scenario, and image kinds.
func (s *Synthesizer) compose(req Request, unit string) (stem, prompt string) {
	topic := topicOf(unit)

	switch req.Kind {
	case types.KindScenario:
		if req.Difficulty == types.DifficultyHard {
			tmpl := scenarioHard[s.rng.IntN(len(scenarioHard))]
			cond := hardConditions[s.rng.IntN(len(hardConditions))]
			return fmt.Sprintf(tmpl, cond, topic), ""
		}
		tmpl := scenarioEasy[s.rng.IntN(len(scenarioEasy))]
		return fmt.Sprintf(tmpl, topic), ""

	case types.KindImage:
		stem = imageStems[s.rng.IntN(len(imageStems))]
		return stem, s.imagePrompt(unit)

	default:
		switch req.Difficulty {
		case types.DifficultyHard:
			tmpl := factHard[s.rng.IntN(len(factHard))]
			cond := hardConditions[s.rng.IntN(len(hardConditions))]
			return fmt.Sprintf(tmpl, topic, cond), ""
		case types.DifficultyMedium:
			return fmt.Sprintf(factMedium[s.rng.IntN(len(factMedium))], topic), ""
		default:
			return fmt.Sprintf(factEasy[s.rng.IntN(len(factEasy))], topic), ""
		}
	}
}

func (s *Synthesizer) imagePrompt(unit string) string {
	lower := strings.ToLower(unit)
	for _, sp := range signPrompts {
		if strings.Contains(lower, sp.keyword) {
			return "An image of a " + sp.sign
		}
	}
	return "An image of a " + signPrompts[s.rng.IntN(len(signPrompts))].sign
}

// Stopping-distance rule of thumb: thinking distance of 1.1 feet per
// mph plus braking distance of speed squared over twenty.
func stoppingFeet(mph int) (total, braking, thinking int) {
	braking = mph * mph / 20
	thinking = mph * 11 / 10
	return braking + thinking, braking, thinking
}

var calcSpeeds = []int{25, 35, 45, 55, 65, 70}

var firstNumber = regexp.MustCompile(`\d+`)

// calculation builds a computed-value question. The correct choice is
// the stopping-distance estimate; distractors are off-by-variable
// errors (dropped formula term, wrong divisor, unit mismatch).
func (s *Synthesizer) calculation(unit string, diff types.Difficulty) (stem, correct string, distractors []string, explBody string) {
	mph := 0
	if m := firstNumber.FindString(unit); m != "" {
		if v, err := strconv.Atoi(m); err == nil && v >= 10 && v <= 80 {
			mph = v
		}
	}
	if mph == 0 {
		mph = calcSpeeds[s.rng.IntN(len(calcSpeeds))]
	}

	total, braking, thinking := stoppingFeet(mph)

	stem = fmt.Sprintf("A vehicle is traveling at %d mph. Using the manual's rule of thumb, what is its total stopping distance?", mph)
	if diff == types.DifficultyHard {
		stem = fmt.Sprintf("A vehicle is traveling at %d mph on a wet road at night. Using the manual's rule of thumb, what is its total stopping distance?", mph)
	}

	correct = fmt.Sprintf("About %d feet", total)
	if braking == thinking {
		// Near 22 mph the two formula terms coincide; use a wrong
		// divisor instead of a duplicate choice.
		braking = mph*mph/10 + thinking
	}
	distractors = []string{
		fmt.Sprintf("About %d feet", braking),
		fmt.Sprintf("About %d feet", thinking),
		fmt.Sprintf("About %d meters", total),
	}
	explBody = fmt.Sprintf("the total stopping distance at %d mph is about %d feet (%d feet of reaction travel plus %d feet of braking)", mph, total, thinking, braking)
	return stem, correct, distractors, explBody
}

// topicOf extracts a short topic phrase from the head of a factual
// unit.
func topicOf(unit string) string {
	words := strings.Fields(unit)
	n := len(words)
	if n > 6 {
		n = 6
	}
	topic := strings.Join(words[:n], " ")
	topic = strings.TrimRight(topic, ",;:")
	if topic == "" {
		return "this rule"
	}
	// Lowercase the leading word unless it looks like a proper noun or
	// acronym.
	first := words[0]
	if len(first) > 1 && first == strings.ToUpper(first[:1])+strings.ToLower(first[1:]) {
		topic = strings.ToLower(first[:1]) + topic[1:]
	}
	return topic
}
