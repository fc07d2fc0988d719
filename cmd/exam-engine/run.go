// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-engine/internal/bankstore"
	"github.com/pdiddy/exam-engine/internal/synth"
	"github.com/pdiddy/exam-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <manual.pdf>",
	Short: "Run the whole pipeline: extract, segment, generate, qc, stats, index",
	Long: `Run executes every pipeline stage in order against the given manual
PDF: page extraction, section segmentation, question synthesis and
assembly, quality control, the stats summary, and the SQLite index.
One seed drives every random draw, so the same PDF and seed produce an
identical bank.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("manual-dir", "manual", "base directory for manual artifacts")
	runCmd.Flags().String("output-dir", "output", "directory for bank artifacts")

	// Extraction.
	runCmd.Flags().Int("min-text-chars", 0, "native text density threshold before OCR fallback (default 100)")
	runCmd.Flags().Bool("extract-images", false, "record image references for sign-identification questions")
	runCmd.Flags().String("ocr-backend", "exec", "OCR backend: exec or http")
	runCmd.Flags().String("ocr-endpoint", "", "OCR service URL for the http backend")
	runCmd.Flags().String("ocr-api-key", "", "OCR service API key (default: .secrets/ocr-api-key)")
	runCmd.Flags().Duration("ocr-timeout", 0, "per-page OCR timeout (default 30s)")
	runCmd.Flags().Int("ocr-workers", 0, "OCR worker pool size (default 4)")

	// Segmentation.
	runCmd.Flags().Int("max-heading-len", 0, "longest line still considered a heading (default 60)")

	// Synthesis and assembly.
	runCmd.Flags().Uint64("seed", 0, "random seed for every random draw (0 = time-based, printed to stderr)")
	runCmd.Flags().Int("reuse-limit", 0, "times one factual unit may back a question (default 1)")
	runCmd.Flags().String("id-prefix", "", "question ID prefix (default KDM)")
	runCmd.Flags().Int("target", 0, "target bank size (default 400)")
	runCmd.Flags().Int("floor", 0, "minimum questions per leaf section (default 1)")

	// QC.
	runCmd.Flags().Int("max-attempts", 0, "regeneration attempts per failing item (default 3)")
	runCmd.Flags().Int("tolerance", 0, "allowed per-bucket drift from the difficulty targets (default 1)")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	manualDir, _ := cmd.Flags().GetString("manual-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	maxLen, _ := cmd.Flags().GetInt("max-heading-len")
	target, _ := cmd.Flags().GetInt("target")
	floor, _ := cmd.Flags().GetInt("floor")
	attempts, _ := cmd.Flags().GetInt("max-attempts")
	tolerance, _ := cmd.Flags().GetInt("tolerance")

	if err := extractStage(ctx, args[0], extractionConfigFromFlags(cmd)); err != nil {
		return err
	}

	tree, err := segmentStage(types.SegmentConfig{ManualDir: manualDir, MaxHeadingLen: maxLen})
	if err != nil {
		return err
	}

	// One synthesizer carries the random stream through assembly and QC.
	s := synth.New(&tree, synthesisConfigFromFlags(cmd))

	asmCfg := types.AssemblyConfig{TargetCount: target, CoverageFloor: floor, OutputDir: outputDir}
	bank, _, err := generateStage(&tree, s, asmCfg)
	if err != nil {
		return err
	}

	qcCfg := types.QCConfig{MaxAttempts: attempts, RatioTolerance: tolerance, OutputDir: outputDir}
	enhanced, report, err := qcStage(&tree, bank, s, qcCfg)
	if err != nil {
		return err
	}

	if err := statsStage(enhanced, report.FinalCoverage, outputDir); err != nil {
		return err
	}

	store, err := bankstore.NewStore(types.BankStoreConfig{OutputDir: outputDir})
	if err != nil {
		return err
	}
	defer store.Close()

	bankPath := filepath.Join(outputDir, bankstore.EnhancedBankFile)
	_, err = store.Index(ctx, bankPath, os.Stdout)
	return err
}
