package qc

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/exam-engine/internal/assemble"
	"github.com/pdiddy/exam-engine/internal/synth"
	"github.com/pdiddy/exam-engine/pkg/types"
)

func passing(id string, diff types.Difficulty) types.Question {
	return types.Question{
		QuestionID: id, SectionID: "Rules", Difficulty: diff, Kind: types.KindFact,
		QuestionText: "What does the driver's manual state about following distances?",
		Choices: []types.Choice{
			{Label: types.LabelA, Text: "Keep at least three seconds behind", IsCorrect: true},
			{Label: types.LabelB, Text: "Keep one second behind"},
			{Label: types.LabelC, Text: "Follow as closely as you like"},
			{Label: types.LabelD, Text: "Only trucks need a following distance"},
		},
		Explanation: "According to the driver's manual on page 12, keep at least three seconds behind.",
		PageRef:     12,
		Tags:        []string{"general"},
	}
}

func TestEvaluateRuleOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *types.Question)
		want   string // prefix of the rejection reason; empty = pass
	}{
		{"clean", func(q *types.Question) {}, ""},
		{"missing choice", func(q *types.Question) { q.Choices = q.Choices[:3] }, "schema"},
		{"two correct", func(q *types.Question) { q.Choices[1].IsCorrect = true }, "schema"},
		{"label out of order", func(q *types.Question) { q.Choices[2].Label = types.LabelD }, "schema"},
		{"zero page", func(q *types.Question) { q.PageRef = 0 }, "schema"},
		{"banned phrase in stem", func(q *types.Question) {
			q.QuestionText = "Should you ignore the posted speed limit here?"
		}, "banned-phrase"},
		{"banned phrase in choice", func(q *types.Question) {
			q.Choices[2].Text = "There are no specific rules for this case"
		}, "banned-phrase"},
		{"long stem", func(q *types.Question) {
			q.QuestionText = strings.TrimSpace(strings.Repeat("word ", 40)) + "?"
		}, "stem-length"},
		{"long choice", func(q *types.Question) {
			q.Choices[3].Text = strings.TrimSpace(strings.Repeat("word ", 21))
		}, "choice-length"},
		{"no citation", func(q *types.Question) {
			q.Explanation = "Because the manual says so."
		}, "page-citation"},
		{"generic correct choice", func(q *types.Question) {
			q.Choices[0].Text = "None of the above"
		}, "generic-answer"},
		{"banned phrase beats length", func(q *types.Question) {
			q.QuestionText = "Ignore the " + strings.TrimSpace(strings.Repeat("word ", 40))
		}, "banned-phrase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := passing("KDM-00001", types.DifficultyEasy)
			tt.mutate(&q)
			reason := evaluate(&q)
			if tt.want == "" {
				if reason != "" {
					t.Errorf("evaluate = %q, want pass", reason)
				}
				return
			}
			if !strings.HasPrefix(reason, tt.want) {
				t.Errorf("evaluate = %q, want %s rejection", reason, tt.want)
			}
		})
	}
}

func reviewTree() *types.SectionTree {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Road rule number %d requires drivers to remain careful at all times. ", i+1)
	}
	return &types.SectionTree{Sections: []types.Section{
		{ID: "Rules", Title: "RULES OF THE ROAD", Level: 1, PageRange: [2]int{1, 10}, Text: b.String()},
		{ID: "Empty", Title: "EMPTY", Level: 1, PageRange: [2]int{11, 11}, Text: ""},
	}}
}

func TestReviewRegeneratesInPlace(t *testing.T) {
	s := synth.New(reviewTree(), types.SynthesisConfig{Seed: 21, UnitReuseLimit: 2})

	bad := passing("KDM-00002", types.DifficultyMedium)
	bad.QuestionText = strings.TrimSpace(strings.Repeat("word ", 40)) + "?"
	bank := types.TestBank{Questions: []types.Question{
		passing("KDM-00001", types.DifficultyEasy),
		bad,
		passing("KDM-00003", types.DifficultyEasy),
	}}

	enhanced, report, err := Review(bank, s, types.QCConfig{}, &strings.Builder{})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}

	if report.Regenerated != 1 {
		t.Fatalf("regenerated = %d, want 1", report.Regenerated)
	}
	if len(report.Unresolved) != 0 {
		t.Fatalf("unexpected unresolved items: %+v", report.Unresolved)
	}
	if len(enhanced.Questions) != 3 {
		t.Fatalf("bank size changed to %d", len(enhanced.Questions))
	}

	got := enhanced.Questions[1]
	if got.QuestionID != "KDM-00002" {
		t.Errorf("replacement ID = %q, want the original", got.QuestionID)
	}
	if got.Difficulty != types.DifficultyMedium || got.Kind != types.KindFact {
		t.Errorf("replacement changed identity: %s/%s", got.Difficulty, got.Kind)
	}
	if reason := evaluate(&got); reason != "" {
		t.Errorf("replacement still failing: %s", reason)
	}
	if report.Passed != 3 {
		t.Errorf("passed = %d, want 3", report.Passed)
	}
}

func TestReviewMissingCitationRegenerated(t *testing.T) {
	s := synth.New(reviewTree(), types.SynthesisConfig{Seed: 8, UnitReuseLimit: 2})

	bad := passing("KDM-00001", types.DifficultyEasy)
	bad.Explanation = "Because the manual says so."
	bank := types.TestBank{Questions: []types.Question{bad}}

	enhanced, report, err := Review(bank, s, types.QCConfig{}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Regenerated != 1 {
		t.Fatalf("regenerated = %d, want 1", report.Regenerated)
	}
	if !pageCitation.MatchString(strings.ToLower(enhanced.Questions[0].Explanation)) {
		t.Errorf("replacement explanation still lacks a citation: %q", enhanced.Questions[0].Explanation)
	}
}

func TestReviewRetainsUnresolved(t *testing.T) {
	s := synth.New(reviewTree(), types.SynthesisConfig{Seed: 4})

	bad := passing("KDM-00001", types.DifficultyEasy)
	bad.SectionID = "Empty"
	bad.Explanation = "No citation here."
	bank := types.TestBank{Questions: []types.Question{bad}}

	enhanced, report, err := Review(bank, s, types.QCConfig{MaxAttempts: 3}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}

	if len(enhanced.Questions) != 1 {
		t.Fatal("unresolved item was removed from the bank")
	}
	if report.Regenerated != 0 {
		t.Errorf("regenerated = %d, want 0", report.Regenerated)
	}
	if report.UnresolvedCount() != 1 {
		t.Fatalf("unresolved = %d, want 1", report.UnresolvedCount())
	}
	item := report.Unresolved[0]
	if item.QuestionID != "KDM-00001" || !strings.HasPrefix(item.Reason, "page-citation") {
		t.Errorf("unresolved item = %+v", item)
	}
	if report.Passed != 0 {
		t.Errorf("passed = %d, want 0", report.Passed)
	}
}

func TestReviewIdempotent(t *testing.T) {
	tree := reviewTree()
	s := synth.New(tree, types.SynthesisConfig{Seed: 33, UnitReuseLimit: 4})
	bank, _, err := assemble.Assemble(tree, s, types.AssemblyConfig{TargetCount: 8, CoverageFloor: 1}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}

	first, firstReport, err := Review(bank, s, types.QCConfig{}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}
	second, secondReport, err := Review(first, s, types.QCConfig{}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}

	if secondReport.Regenerated != 0 {
		t.Errorf("second pass regenerated %d items, want 0", secondReport.Regenerated)
	}
	if secondReport.Relabeled != 0 {
		t.Errorf("second pass relabeled %d items, want 0", secondReport.Relabeled)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("second pass changed the bank")
	}
	if firstReport.Passed != len(first.Questions) {
		t.Errorf("first pass: %d/%d passed", firstReport.Passed, len(first.Questions))
	}
}

func TestReconcileRelabelsDeterministically(t *testing.T) {
	// Ten questions: 8 easy, 2 medium, 0 hard against targets 4/4/2.
	bank := types.TestBank{}
	for i := 1; i <= 8; i++ {
		bank.Questions = append(bank.Questions, passing(fmt.Sprintf("KDM-%05d", i), types.DifficultyEasy))
	}
	for i := 9; i <= 10; i++ {
		bank.Questions = append(bank.Questions, passing(fmt.Sprintf("KDM-%05d", i), types.DifficultyMedium))
	}

	relabeled := reconcile(&bank, 1)
	if relabeled != 3 {
		t.Fatalf("relabeled = %d, want 3", relabeled)
	}
	if len(bank.Questions) != 10 {
		t.Fatal("reconciliation changed bank size")
	}

	counts := bank.DifficultyCounts()
	want := map[types.Difficulty]int{
		types.DifficultyEasy:   5,
		types.DifficultyMedium: 4,
		types.DifficultyHard:   1,
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("counts after reconcile = %v, want %v", counts, want)
	}

	// Lowest IDs move first, always out of the most-over bucket.
	if bank.Questions[0].Difficulty == types.DifficultyEasy {
		t.Error("KDM-00001 should have been relabeled first")
	}
	if bank.Questions[7].Difficulty != types.DifficultyEasy {
		t.Error("high-ID easy questions should be untouched")
	}
}

func TestReconcileSkipsIneligibleItems(t *testing.T) {
	// All over-bucket items are scenario questions; nothing may move.
	bank := types.TestBank{}
	for i := 1; i <= 6; i++ {
		q := passing(fmt.Sprintf("KDM-%05d", i), types.DifficultyEasy)
		q.Kind = types.KindScenario
		bank.Questions = append(bank.Questions, q)
	}

	if relabeled := reconcile(&bank, 1); relabeled != 0 {
		t.Errorf("relabeled = %d, want 0 with no eligible items", relabeled)
	}
}
