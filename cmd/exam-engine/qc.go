// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-engine/internal/assemble"
	"github.com/pdiddy/exam-engine/internal/bankstore"
	"github.com/pdiddy/exam-engine/internal/qc"
	"github.com/pdiddy/exam-engine/internal/segment"
	"github.com/pdiddy/exam-engine/internal/synth"
	"github.com/pdiddy/exam-engine/pkg/types"
)

var qcCmd = &cobra.Command{
	Use:   "qc",
	Short: "Review the raw bank and write the enhanced bank",
	Long: `QC runs the ordered rule set over output/test_bank.json, regenerates
failing items from fresh source units (bounded attempts), reconciles the
difficulty ratios, and writes output/enhanced_test_bank.json plus
output/qc_report.json. Items that still fail are retained and listed in
the report.`,
	RunE: runQC,
}

func init() {
	qcCmd.Flags().String("manual-dir", "manual", "base directory for manual artifacts")
	qcCmd.Flags().String("output-dir", "output", "directory for bank artifacts")
	qcCmd.Flags().Int("max-attempts", 0, "regeneration attempts per failing item (default 3)")
	qcCmd.Flags().Int("tolerance", 0, "allowed per-bucket drift from the difficulty targets (default 1)")
	qcCmd.Flags().Uint64("seed", 0, "random seed for regeneration draws (0 = time-based, printed to stderr)")
	qcCmd.Flags().Int("reuse-limit", 0, "times one factual unit may back a question (default 1)")
	qcCmd.Flags().String("id-prefix", "", "question ID prefix (default KDM)")

	rootCmd.AddCommand(qcCmd)
}

func runQC(cmd *cobra.Command, args []string) error {
	manualDir, _ := cmd.Flags().GetString("manual-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	attempts, _ := cmd.Flags().GetInt("max-attempts")
	tolerance, _ := cmd.Flags().GetInt("tolerance")

	tree, err := segment.LoadSections(manualDir)
	if err != nil {
		return err
	}

	bank, err := bankstore.LoadBank(filepath.Join(outputDir, bankstore.BankFile))
	if err != nil {
		return err
	}

	s := synth.New(&tree, synthesisConfigFromFlags(cmd))
	qcCfg := types.QCConfig{MaxAttempts: attempts, RatioTolerance: tolerance, OutputDir: outputDir}
	_, _, err = qcStage(&tree, bank, s, qcCfg)
	return err
}

// qcStage reviews a bank, snapshots final coverage, and writes the
// enhanced artifacts. Shared with the run command.
func qcStage(tree *types.SectionTree, bank types.TestBank, s *synth.Synthesizer, cfg types.QCConfig) (types.TestBank, types.QCReport, error) {
	enhanced, report, err := qc.Review(bank, s, cfg, os.Stdout)
	if err != nil {
		return types.TestBank{}, types.QCReport{}, err
	}
	report.FinalCoverage = assemble.Coverage(enhanced, tree, 1)

	if err := bankstore.WriteBank(cfg.OutputDir, bankstore.EnhancedBankFile, enhanced); err != nil {
		return types.TestBank{}, types.QCReport{}, err
	}
	if err := bankstore.WriteReport(cfg.OutputDir, bankstore.QCReportFile, report); err != nil {
		return types.TestBank{}, types.QCReport{}, err
	}

	fmt.Fprintf(os.Stdout, "qc passed %d, regenerated %d, relabeled %d, unresolved %d\n",
		report.Passed, report.Regenerated, report.Relabeled, report.UnresolvedCount())
	return enhanced, report, nil
}
