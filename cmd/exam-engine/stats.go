// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-engine/internal/bankstore"
	"github.com/pdiddy/exam-engine/internal/stats"
	"github.com/pdiddy/exam-engine/pkg/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the enhanced bank and write stats.txt",
	Long: `Stats derives summary figures from the enhanced bank (total questions,
average stem length, difficulty distribution, hardest and thinnest
sections, coverage) and writes output/stats.txt.

With --preview N it also prints N random questions with the correct
choice marked, for a quick human read.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("output-dir", "output", "directory for bank artifacts")
	statsCmd.Flags().Int("preview", 0, "print N random questions with answers marked")
	statsCmd.Flags().Uint64("seed", 123, "random seed for the preview selection")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	preview, _ := cmd.Flags().GetInt("preview")
	seed, _ := cmd.Flags().GetUint64("seed")

	bank, err := bankstore.LoadBank(filepath.Join(outputDir, bankstore.EnhancedBankFile))
	if err != nil {
		return err
	}
	coverage, err := loadCoverage(filepath.Join(outputDir, bankstore.CoverageReportFile))
	if err != nil {
		return err
	}

	if err := statsStage(bank, coverage, outputDir); err != nil {
		return err
	}

	if preview > 0 {
		stats.Preview(os.Stdout, bank, preview, seed)
	}
	return nil
}

// statsStage computes and writes the summary, echoing it to stdout.
// Shared with the run command.
func statsStage(bank types.TestBank, coverage types.CoverageReport, outputDir string) error {
	s := stats.Compute(bank, coverage)
	if err := stats.Write(outputDir, s); err != nil {
		return err
	}
	stats.Render(os.Stdout, s)
	return nil
}

func loadCoverage(path string) (types.CoverageReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.CoverageReport{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var report types.CoverageReport
	if err := json.Unmarshal(data, &report); err != nil {
		return types.CoverageReport{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return report, nil
}
