package assemble

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/exam-engine/internal/synth"
	"github.com/pdiddy/exam-engine/pkg/types"
)

func richText(prefix string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s rule number %d requires drivers to remain careful at all times. ", prefix, i+1)
	}
	return b.String()
}

func richTree() *types.SectionTree {
	return &types.SectionTree{Sections: []types.Section{
		{ID: "Signals", Title: "SIGNALS", Level: 1, PageRange: [2]int{1, 4},
			Text: richText("Signal", 12)},
		{ID: "Parking", Title: "PARKING", Level: 1, PageRange: [2]int{5, 8},
			Text: richText("Parking", 12)},
		{ID: "Weather", Title: "DRIVING IN BAD WEATHER", Level: 1, PageRange: [2]int{9, 12},
			Text: richText("Weather", 12)},
	}}
}

func newSynth(tree *types.SectionTree, reuse int) *synth.Synthesizer {
	return synth.New(tree, types.SynthesisConfig{Seed: 5, UnitReuseLimit: reuse})
}

func TestAssembleMeetsTargets(t *testing.T) {
	tree := richTree()
	bank, report, err := Assemble(tree, newSynth(tree, 4),
		types.AssemblyConfig{TargetCount: 20, CoverageFloor: 1}, &strings.Builder{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(bank.Questions) != 20 {
		t.Fatalf("got %d questions, want 20", len(bank.Questions))
	}

	want := types.DifficultyTargets(20)
	if got := bank.DifficultyCounts(); !reflect.DeepEqual(got, want) {
		t.Errorf("difficulty counts = %v, want %v", got, want)
	}

	for i, q := range bank.Questions {
		wantID := fmt.Sprintf("KDM-%05d", i+1)
		if q.QuestionID != wantID {
			t.Errorf("question %d ID = %q, want %q", i, q.QuestionID, wantID)
		}
	}

	perSection := bank.SectionCounts()
	for _, leaf := range tree.Leaves() {
		if perSection[leaf.ID] == 0 {
			t.Errorf("leaf %s has no questions", leaf.ID)
		}
	}

	if report.TotalSections != 3 || report.SectionsMeetingFloor != 3 {
		t.Errorf("report floor counts = %d/%d, want 3/3",
			report.SectionsMeetingFloor, report.TotalSections)
	}
	if report.CoveragePercent != 100 {
		t.Errorf("coverage = %.1f, want 100", report.CoveragePercent)
	}
	if len(report.Gaps) != 0 {
		t.Errorf("unexpected gaps: %v", report.Gaps)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	cfg := types.AssemblyConfig{TargetCount: 15, CoverageFloor: 1}
	treeA := richTree()
	bankA, _, err := Assemble(treeA, newSynth(treeA, 4), cfg, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}
	treeB := richTree()
	bankB, _, err := Assemble(treeB, newSynth(treeB, 4), cfg, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(bankA, bankB) {
		t.Error("same seed and tree produced different banks")
	}
}

func TestAssembleSingleSection(t *testing.T) {
	tree := &types.SectionTree{Sections: []types.Section{
		{ID: "Rules", Title: "RULES OF THE ROAD", Level: 1, PageRange: [2]int{1, 10},
			Text: richText("Road", 10)},
	}}
	bank, report, err := Assemble(tree, newSynth(tree, 2),
		types.AssemblyConfig{TargetCount: 5, CoverageFloor: 1}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}

	if len(bank.Questions) != 5 {
		t.Fatalf("got %d questions, want 5", len(bank.Questions))
	}
	for _, q := range bank.Questions {
		if q.SectionID != "Rules" {
			t.Errorf("question %s cites %q", q.QuestionID, q.SectionID)
		}
	}
	counts := bank.DifficultyCounts()
	if counts[types.DifficultyEasy] < counts[types.DifficultyMedium] ||
		counts[types.DifficultyMedium] < counts[types.DifficultyHard] {
		t.Errorf("difficulty histogram not steered toward 50/35/15: %v", counts)
	}
	if counts[types.DifficultyHard] > 1 {
		t.Errorf("hard count = %d, want at most 1 for a 5-question bank", counts[types.DifficultyHard])
	}
	if report.SectionsMeetingFloor != 1 || report.TotalSections != 1 {
		t.Errorf("floor counts = %d/%d, want 1/1", report.SectionsMeetingFloor, report.TotalSections)
	}
}

func TestAssembleThinMaterialTerminates(t *testing.T) {
	tree := &types.SectionTree{Sections: []types.Section{
		{ID: "A", Title: "ALPHA", Level: 1, PageRange: [2]int{1, 1}, Text: richText("Alpha", 2)},
		{ID: "B", Title: "BRAVO", Level: 1, PageRange: [2]int{2, 2}, Text: richText("Bravo", 2)},
	}}
	bank, report, err := Assemble(tree, newSynth(tree, 1),
		types.AssemblyConfig{TargetCount: 16, CoverageFloor: 1}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}

	// Four units total: the run must stop there and say so, not loop.
	if len(bank.Questions) != 4 {
		t.Errorf("got %d questions, want 4 from 4 available units", len(bank.Questions))
	}
	if report.SectionsMeetingFloor != 2 {
		t.Errorf("both sections should still meet the floor, got %d", report.SectionsMeetingFloor)
	}
}

func TestAssembleRedistributesShortfall(t *testing.T) {
	// Thin's long sentences give it a third of the budget but only two
	// usable units, forcing a reallocation to Rich.
	thinText := "Thin section rule number one requires every driver to remain fully alert and extremely careful through the entire length of this long sentence. " +
		"Thin section rule number two requires every driver to remain fully alert and extremely careful through the entire length of this long sentence."
	tree := &types.SectionTree{Sections: []types.Section{
		{ID: "Thin", Title: "THIN", Level: 1, PageRange: [2]int{1, 1}, Text: thinText},
		{ID: "Rich", Title: "RICH", Level: 1, PageRange: [2]int{2, 9}, Text: richText("Rich", 16)},
	}}
	bank, report, err := Assemble(tree, newSynth(tree, 1),
		types.AssemblyConfig{TargetCount: 12, CoverageFloor: 1}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}

	if len(bank.Questions) != 12 {
		t.Fatalf("got %d questions, want 12", len(bank.Questions))
	}
	var moved int
	for _, adj := range report.Adjustments {
		if adj.From != "Thin" || adj.To != "Rich" {
			t.Errorf("unexpected adjustment %+v", adj)
		}
		moved += adj.Count
	}
	if moved == 0 {
		t.Error("expected the thin section's shortfall to be reallocated")
	}
	if got := bank.SectionCounts()["Thin"]; got != 2 {
		t.Errorf("thin section has %d questions, want its 2 units", got)
	}
}

func TestAssembleRecordsGaps(t *testing.T) {
	tree := &types.SectionTree{Sections: []types.Section{
		{ID: "Empty", Title: "EMPTY", Level: 1, PageRange: [2]int{1, 1}, Text: ""},
		{ID: "Rich", Title: "RICH", Level: 1, PageRange: [2]int{2, 5}, Text: richText("Rich", 10)},
	}}
	_, report, err := Assemble(tree, newSynth(tree, 2),
		types.AssemblyConfig{TargetCount: 6, CoverageFloor: 1}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Gaps) != 1 || report.Gaps[0] != "Empty" {
		t.Errorf("gaps = %v, want [Empty]", report.Gaps)
	}
	if report.CoveragePercent != 50 {
		t.Errorf("coverage = %.1f, want 50", report.CoveragePercent)
	}
}

func TestCoverageChapterRollup(t *testing.T) {
	tree := &types.SectionTree{Sections: []types.Section{
		{ID: "Sharing", Title: "SHARING THE ROAD", Level: 1, PageRange: [2]int{1, 4},
			Children: []string{"Sharing.Trucks", "Sharing.Bikes"}},
		{ID: "Sharing.Trucks", Title: "Large Trucks", Level: 2, Parent: "Sharing",
			PageRange: [2]int{1, 2}, Text: richText("Truck", 6)},
		{ID: "Sharing.Bikes", Title: "Bicycles", Level: 2, Parent: "Sharing",
			PageRange: [2]int{3, 4}, Text: richText("Bike", 6)},
	}}
	bank, report, err := Assemble(tree, newSynth(tree, 2),
		types.AssemblyConfig{TargetCount: 8, CoverageFloor: 1}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}

	ch, ok := report.Chapters["Sharing"]
	if !ok {
		t.Fatalf("no chapter rollup, got %v", report.Chapters)
	}
	if ch.Count != len(bank.Questions) {
		t.Errorf("chapter count = %d, want %d", ch.Count, len(bank.Questions))
	}
	if ch.Title != "SHARING THE ROAD" {
		t.Errorf("chapter title = %q", ch.Title)
	}
	if !reflect.DeepEqual(ch.DifficultyBreakdown, bank.DifficultyCounts()) {
		t.Errorf("chapter breakdown = %v, want %v", ch.DifficultyBreakdown, bank.DifficultyCounts())
	}
}

func TestAllocate(t *testing.T) {
	leaves := []*types.Section{
		{ID: "a", Text: strings.Repeat("x", 600)},
		{ID: "b", Text: strings.Repeat("x", 300)},
		{ID: "c", Text: strings.Repeat("x", 100)},
	}
	got := allocate(leaves, 11)
	want := []int{7, 3, 1}
	// 6/3/1 proportional, remainder of one goes to the first section.
	if !reflect.DeepEqual(got, want) {
		t.Errorf("allocate = %v, want %v", got, want)
	}

	total := 0
	for _, n := range got {
		total += n
	}
	if total != 11 {
		t.Errorf("allocation sums to %d, want 11", total)
	}
}
