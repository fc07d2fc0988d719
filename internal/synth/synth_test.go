package synth

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/exam-engine/pkg/types"
)

func testTree() *types.SectionTree {
	return &types.SectionTree{Sections: []types.Section{
		{
			ID: "SharingTheRoad", Title: "SHARING THE ROAD", Level: 1,
			PageRange: [2]int{10, 12},
			Children:  []string{"SharingTheRoad.LargeTrucks"},
		},
		{
			ID: "SharingTheRoad.LargeTrucks", Title: "Large Trucks", Level: 2,
			PageRange: [2]int{10, 12}, Parent: "SharingTheRoad",
			Text: strings.Join([]string{
				"Trucks need much longer distances to stop than passenger cars do.",
				"Stay at least 20 feet behind a truck when following it uphill.",
				"Never linger beside a truck where the driver cannot see you.",
				"Pass a truck quickly on the left side and return once you can see its cab.",
			}, " "),
		},
		{
			ID: "Speed", Title: "SPEED AND STOPPING", Level: 1,
			PageRange: [2]int{20, 20},
			Text:      "At 55 mph a car travels a long distance before it can stop completely.",
		},
	}}
}

func newTestSynth(seed uint64) *Synthesizer {
	return New(testTree(), types.SynthesisConfig{Seed: seed, UnitReuseLimit: 4})
}

func TestSynthesizeShape(t *testing.T) {
	kinds := []types.QuestionKind{types.KindFact, types.KindScenario, types.KindImage, types.KindCalculation}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			s := newTestSynth(7)
			q, err := s.Synthesize(Request{
				SectionID:  "SharingTheRoad.LargeTrucks",
				Difficulty: types.DifficultyMedium,
				Kind:       kind,
			})
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}

			if len(q.Choices) != 4 {
				t.Fatalf("got %d choices, want 4", len(q.Choices))
			}
			correct := 0
			for i, c := range q.Choices {
				if c.Label != types.ChoiceLabels[i] {
					t.Errorf("choice %d label = %q, want %q", i, c.Label, types.ChoiceLabels[i])
				}
				if c.IsCorrect {
					correct++
				}
				if n := len(strings.Fields(c.Text)); n > 20 {
					t.Errorf("choice %q is %d words", c.Text, n)
				}
			}
			if correct != 1 {
				t.Errorf("got %d correct choices, want exactly 1", correct)
			}

			if n := len(strings.Fields(q.QuestionText)); n == 0 || n > 35 {
				t.Errorf("stem word count %d out of bounds: %q", n, q.QuestionText)
			}
			if q.PageRef < 10 || q.PageRef > 12 {
				t.Errorf("pageRef %d outside section range", q.PageRef)
			}
			if !strings.Contains(q.Explanation, "page ") {
				t.Errorf("explanation lacks a page citation: %q", q.Explanation)
			}
			if len(q.Tags) == 0 {
				t.Error("question has no tags")
			}
			if q.SourceUnit == "" {
				t.Error("source unit not recorded")
			}
			if q.RequiresImage != (kind == types.KindImage) {
				t.Errorf("requiresImage = %v for kind %s", q.RequiresImage, kind)
			}
			if kind == types.KindImage && !strings.HasPrefix(q.ImagePrompt, "An image of") {
				t.Errorf("image prompt = %q", q.ImagePrompt)
			}
		})
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	req := Request{
		SectionID:  "SharingTheRoad.LargeTrucks",
		Difficulty: types.DifficultyHard,
		Kind:       types.KindFact,
	}
	a, err := newTestSynth(42).Synthesize(req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newTestSynth(42).Synthesize(req)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced different questions:\n%+v\n%+v", a, b)
	}
}

func TestSynthesizeCalculation(t *testing.T) {
	s := newTestSynth(3)
	q, err := s.Synthesize(Request{
		SectionID:  "Speed",
		Difficulty: types.DifficultyMedium,
		Kind:       types.KindCalculation,
	})
	if err != nil {
		t.Fatal(err)
	}

	// 55 mph: 3025/20 = 151 feet braking + 60 feet reaction = 211.
	if q.Correct().Text != "About 211 feet" {
		t.Errorf("correct choice = %q, want the computed stopping distance", q.Correct().Text)
	}
	var sawUnitMismatch bool
	for _, c := range q.Choices {
		if c.Text == "About 211 meters" {
			sawUnitMismatch = c.IsCorrect == false
		}
	}
	if !sawUnitMismatch {
		t.Error("expected a unit-mismatch distractor")
	}
	if !strings.Contains(q.QuestionText, "55 mph") {
		t.Errorf("stem does not cite the speed: %q", q.QuestionText)
	}
}

func TestStoppingFeet(t *testing.T) {
	tests := []struct {
		mph, total, braking, thinking int
	}{
		{25, 58, 31, 27},
		{55, 211, 151, 60},
		{70, 322, 245, 77},
	}
	for _, tt := range tests {
		total, braking, thinking := stoppingFeet(tt.mph)
		if total != tt.total || braking != tt.braking || thinking != tt.thinking {
			t.Errorf("stoppingFeet(%d) = %d/%d/%d, want %d/%d/%d",
				tt.mph, total, braking, thinking, tt.total, tt.braking, tt.thinking)
		}
	}
}

func TestSynthesizeAvoidSetExhaustsMaterial(t *testing.T) {
	s := newTestSynth(1)
	avoid := make(map[string]bool)
	for _, u := range splitUnits(testTree().Sections[1].Text) {
		avoid[u] = true
	}
	_, err := s.Synthesize(Request{
		SectionID:  "SharingTheRoad.LargeTrucks",
		Difficulty: types.DifficultyEasy,
		Kind:       types.KindFact,
		Avoid:      avoid,
	})
	if !errors.Is(err, ErrInsufficientMaterial) {
		t.Errorf("err = %v, want ErrInsufficientMaterial", err)
	}
}

func TestSynthesizeReuseLimit(t *testing.T) {
	tree := &types.SectionTree{Sections: []types.Section{{
		ID: "Stops", Title: "Stops", Level: 1, PageRange: [2]int{1, 1},
		Text: "Always stop completely at a marked stop sign. Yield to pedestrians in the crosswalk at all times.",
	}}}
	s := New(tree, types.SynthesisConfig{Seed: 9})

	req := Request{SectionID: "Stops", Difficulty: types.DifficultyEasy, Kind: types.KindFact}
	for i := 0; i < 2; i++ {
		if _, err := s.Synthesize(req); err != nil {
			t.Fatalf("question %d: %v", i+1, err)
		}
	}
	if _, err := s.Synthesize(req); !errors.Is(err, ErrInsufficientMaterial) {
		t.Errorf("third draw err = %v, want ErrInsufficientMaterial", err)
	}
}

func TestSynthesizeUnknownSection(t *testing.T) {
	if _, err := newTestSynth(1).Synthesize(Request{SectionID: "Nope"}); err == nil {
		t.Error("unknown section should fail")
	}
}

func TestSplitUnits(t *testing.T) {
	text := "Tiny. Always stop completely before the white line at any marked intersection! " +
		strings.Repeat("x", 200) + ". Yield to traffic already in the circle?"
	units := splitUnits(text)
	want := []string{
		"Always stop completely before the white line at any marked intersection",
		"Yield to traffic already in the circle",
	}
	if !reflect.DeepEqual(units, want) {
		t.Errorf("splitUnits = %q, want %q", units, want)
	}
}

func TestDistractorsDistinct(t *testing.T) {
	s := newTestSynth(11)
	for _, diff := range types.Difficulties {
		correct := "Stay at least 20 feet behind the vehicle ahead"
		ds := s.distractors(correct, diff)
		if len(ds) != 3 {
			t.Fatalf("%s: got %d distractors, want 3", diff, len(ds))
		}
		seen := map[string]bool{correct: true}
		for _, d := range ds {
			if seen[d] {
				t.Errorf("%s: duplicate distractor %q", diff, d)
			}
			seen[d] = true
		}
	}
}

func TestDeriveTags(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  string
	}{
		{"from title", "PARKING RULES", "anything at all here", "parking"},
		{"from body", "General", "never drive after drinking alcohol", "alcohol"},
		{"speed keyword", "General", "the speed limit is 55 mph here", "speed"},
		{"fallback", "General", "nothing matches this text", fallbackTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := deriveTags(tt.title, tt.body, "")
			if len(tags) == 0 || tags[0] != tt.want {
				t.Errorf("deriveTags = %v, want first tag %q", tags, tt.want)
			}
		})
	}
}

func TestTopicOf(t *testing.T) {
	got := topicOf("Trucks need much longer distances to stop than cars")
	if got != "trucks need much longer distances to" {
		t.Errorf("topicOf = %q", got)
	}
	if topicOf("") != "this rule" {
		t.Errorf("empty unit should fall back, got %q", topicOf(""))
	}
}
