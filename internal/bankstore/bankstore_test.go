// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bankstore

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/exam-engine/pkg/types"
)

// --- test helpers ---

func testQuestion(id, sectionID string, diff types.Difficulty, stem string) types.Question {
	return types.Question{
		QuestionID: id, SectionID: sectionID, Difficulty: diff, Kind: types.KindFact,
		QuestionText: stem,
		Choices: []types.Choice{
			{Label: types.LabelA, Text: "The correct answer", IsCorrect: true},
			{Label: types.LabelB, Text: "A wrong answer"},
			{Label: types.LabelC, Text: "Another wrong answer"},
			{Label: types.LabelD, Text: "A third wrong answer"},
		},
		Explanation: "According to the driver's manual on page 7, the correct answer.",
		PageRef:     7,
		Tags:        []string{"parking"},
		SourceUnit:  "never stored",
	}
}

func testBank() types.TestBank {
	return types.TestBank{Questions: []types.Question{
		testQuestion("KDM-00001", "Parking", types.DifficultyEasy,
			"What is the rule regarding parking near a fire hydrant?"),
		testQuestion("KDM-00002", "Parking", types.DifficultyMedium,
			"Which of the following correctly describes parallel parking?"),
		testQuestion("KDM-00003", "Signals", types.DifficultyHard,
			"What does a flashing yellow light require at night?"),
	}}
}

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	outputDir := t.TempDir()

	if err := WriteBank(outputDir, EnhancedBankFile, testBank()); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(types.BankStoreConfig{OutputDir: outputDir, MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, filepath.Join(outputDir, EnhancedBankFile)
}

func TestWriteAndLoadBank(t *testing.T) {
	dir := t.TempDir()
	if err := WriteBank(dir, BankFile, testBank()); err != nil {
		t.Fatalf("WriteBank: %v", err)
	}

	loaded, err := LoadBank(filepath.Join(dir, BankFile))
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if len(loaded.Questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(loaded.Questions))
	}

	q := loaded.Questions[0]
	if q.SourceUnit != "" {
		t.Error("source unit leaked into the JSON artifact")
	}
	if q.Explanation == "" || q.Correct() == nil {
		t.Errorf("artifact lost answer fields: %+v", q)
	}
}

func TestIndexSkipsUnchangedBank(t *testing.T) {
	store, bankPath := testStore(t)
	ctx := context.Background()

	var buf strings.Builder
	summary, err := store.Index(ctx, bankPath, &buf)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if summary.Indexed != 3 || summary.Skipped {
		t.Errorf("first index = %+v, want 3 indexed", summary)
	}

	summary, err = store.Index(ctx, bankPath, &buf)
	if err != nil {
		t.Fatalf("re-Index: %v", err)
	}
	if !summary.Skipped {
		t.Error("unchanged bank file should be skipped")
	}
	if !strings.Contains(buf.String(), "skipped") {
		t.Errorf("progress output missing skip line: %s", buf.String())
	}
}

func TestRetrieve(t *testing.T) {
	store, bankPath := testStore(t)
	ctx := context.Background()
	if _, err := store.Index(ctx, bankPath, &strings.Builder{}); err != nil {
		t.Fatal(err)
	}

	t.Run("full text", func(t *testing.T) {
		results, err := store.Retrieve(ctx, QueryOptions{Query: "hydrant"})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].QuestionID != "KDM-00001" {
			t.Errorf("results = %+v, want only the hydrant question", results)
		}
		if results[0].Correct() == nil {
			t.Error("retrieve should return the full question, answers included")
		}
	})

	t.Run("section filter", func(t *testing.T) {
		results, err := store.Retrieve(ctx, QueryOptions{SectionID: "Parking"})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 2 {
			t.Errorf("got %d results, want 2", len(results))
		}
	})

	t.Run("difficulty filter", func(t *testing.T) {
		results, err := store.Retrieve(ctx, QueryOptions{Difficulty: types.DifficultyHard})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].QuestionID != "KDM-00003" {
			t.Errorf("results = %+v, want only the hard question", results)
		}
	})

	t.Run("tag filter", func(t *testing.T) {
		results, err := store.Retrieve(ctx, QueryOptions{Tags: []string{"parking"}})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 3 {
			t.Errorf("got %d results, want 3", len(results))
		}
	})

	t.Run("max results", func(t *testing.T) {
		results, err := store.Retrieve(ctx, QueryOptions{MaxResults: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 {
			t.Errorf("got %d results, want 1", len(results))
		}
	})
}

func TestSampleWithholdsAnswers(t *testing.T) {
	store, bankPath := testStore(t)
	ctx := context.Background()
	if _, err := store.Index(ctx, bankPath, &strings.Builder{}); err != nil {
		t.Fatal(err)
	}

	sampled, err := store.Sample(ctx, 2, 99)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(sampled) != 2 {
		t.Fatalf("got %d questions, want 2", len(sampled))
	}
	for _, sq := range sampled {
		if len(sq.Choices) != 4 {
			t.Errorf("%s has %d choices", sq.QuestionID, len(sq.Choices))
		}
		if sq.QuestionText == "" || sq.PageRef == 0 {
			t.Errorf("%s lost exam-facing fields: %+v", sq.QuestionID, sq)
		}
	}

	again, err := store.Sample(ctx, 2, 99)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sampled, again) {
		t.Error("same seed should produce the same sample")
	}

	all, err := store.Sample(ctx, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("oversized count should return the whole bank, got %d", len(all))
	}
}
