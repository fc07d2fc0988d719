// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bankstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/exam-engine/pkg/types"
)

// Flat-file artifact names under the output directory.
const (
	BankFile           = "test_bank.json"
	EnhancedBankFile   = "enhanced_test_bank.json"
	CoverageReportFile = "coverage_report.json"
	QCReportFile       = "qc_report.json"
	StatsFile          = "stats.txt"
)

// WriteBank saves the bank as a JSON array of questions. The file is a
// checkpoint: it is complete, valid JSON even when a later stage never
// runs.
func WriteBank(outputDir, name string, bank types.TestBank) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outputDir, err)
	}

	questions := bank.Questions
	if questions == nil {
		questions = []types.Question{}
	}
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bank: %w", err)
	}
	return os.WriteFile(filepath.Join(outputDir, name), data, 0o644)
}

// LoadBank reads a bank artifact written by WriteBank.
func LoadBank(path string) (types.TestBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.TestBank{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var questions []types.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return types.TestBank{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return types.TestBank{Questions: questions}, nil
}

// WriteReport saves a report artifact (coverage or QC) as indented
// JSON.
func WriteReport(outputDir, name string, report any) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outputDir, err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	return os.WriteFile(filepath.Join(outputDir, name), data, 0o644)
}
