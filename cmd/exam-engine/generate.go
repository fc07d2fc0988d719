// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-engine/internal/assemble"
	"github.com/pdiddy/exam-engine/internal/bankstore"
	"github.com/pdiddy/exam-engine/internal/segment"
	"github.com/pdiddy/exam-engine/internal/synth"
	"github.com/pdiddy/exam-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Synthesize questions and assemble the raw bank",
	Long: `Generate reads the section tree, synthesizes questions per leaf section,
and assembles a bank that meets the coverage floor and steers toward the
50/35/15 difficulty split. The same seed over the same sections yields
an identical bank. Writes output/test_bank.json and
output/coverage_report.json.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("manual-dir", "manual", "base directory for manual artifacts")
	generateCmd.Flags().String("output-dir", "output", "directory for bank artifacts")
	generateCmd.Flags().Int("target", 0, "target bank size (default 400)")
	generateCmd.Flags().Int("floor", 0, "minimum questions per leaf section (default 1)")
	generateCmd.Flags().Uint64("seed", 0, "random seed for deterministic synthesis (0 = time-based, printed to stderr)")
	generateCmd.Flags().Int("reuse-limit", 0, "times one factual unit may back a question (default 1)")
	generateCmd.Flags().String("id-prefix", "", "question ID prefix (default KDM)")

	rootCmd.AddCommand(generateCmd)
}

func synthesisConfigFromFlags(cmd *cobra.Command) types.SynthesisConfig {
	seed, _ := cmd.Flags().GetUint64("seed")
	reuse, _ := cmd.Flags().GetInt("reuse-limit")
	prefix, _ := cmd.Flags().GetString("id-prefix")

	return types.SynthesisConfig{
		Seed:             resolveSeed(seed),
		UnitReuseLimit:   reuse,
		QuestionIDPrefix: prefix,
	}
}

// resolveSeed substitutes a time-based seed for zero and announces it,
// so an unseeded run can still be reproduced afterwards.
func resolveSeed(seed uint64) uint64 {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		fmt.Fprintf(os.Stderr, "seed %d\n", seed)
	}
	return seed
}

func runGenerate(cmd *cobra.Command, args []string) error {
	manualDir, _ := cmd.Flags().GetString("manual-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	target, _ := cmd.Flags().GetInt("target")
	floor, _ := cmd.Flags().GetInt("floor")

	tree, err := segment.LoadSections(manualDir)
	if err != nil {
		return err
	}

	synCfg := synthesisConfigFromFlags(cmd)
	asmCfg := types.AssemblyConfig{TargetCount: target, CoverageFloor: floor, OutputDir: outputDir}
	_, _, err = generateStage(&tree, synth.New(&tree, synCfg), asmCfg)
	return err
}

// generateStage assembles the raw bank and writes its artifacts.
// Shared with the run command.
func generateStage(tree *types.SectionTree, s *synth.Synthesizer, asmCfg types.AssemblyConfig) (types.TestBank, types.CoverageReport, error) {
	bank, coverage, err := assemble.Assemble(tree, s, asmCfg, os.Stdout)
	if err != nil {
		return types.TestBank{}, types.CoverageReport{}, err
	}

	if err := bankstore.WriteBank(asmCfg.OutputDir, bankstore.BankFile, bank); err != nil {
		return types.TestBank{}, types.CoverageReport{}, err
	}
	if err := bankstore.WriteReport(asmCfg.OutputDir, bankstore.CoverageReportFile, coverage); err != nil {
		return types.TestBank{}, types.CoverageReport{}, err
	}
	return bank, coverage, nil
}
