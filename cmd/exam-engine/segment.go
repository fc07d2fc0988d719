// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-engine/internal/extract"
	"github.com/pdiddy/exam-engine/internal/segment"
	"github.com/pdiddy/exam-engine/pkg/types"
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Build the section tree from extracted pages",
	Long: `Segment reads <manual-dir>/extracted/pages.yaml, applies the heading
grammar to split the document into chapters and subsections, and writes
the section tree to <manual-dir>/sections.yaml. Text before the first
recognized heading lands in a synthetic Introduction section.`,
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().String("manual-dir", "manual", "base directory for manual artifacts")
	segmentCmd.Flags().Int("max-heading-len", 0, "longest line still considered a heading (default 60)")

	rootCmd.AddCommand(segmentCmd)
}

func runSegment(cmd *cobra.Command, args []string) error {
	manualDir, _ := cmd.Flags().GetString("manual-dir")
	maxLen, _ := cmd.Flags().GetInt("max-heading-len")

	cfg := types.SegmentConfig{ManualDir: manualDir, MaxHeadingLen: maxLen}
	_, err := segmentStage(cfg)
	return err
}

// segmentStage loads pages, segments them, and persists the tree.
// Shared with the run command.
func segmentStage(cfg types.SegmentConfig) (types.SectionTree, error) {
	pages, err := extract.LoadPages(cfg.ManualDir)
	if err != nil {
		return types.SectionTree{}, err
	}

	tree, err := segment.Segment(pages, cfg, os.Stdout)
	if err != nil {
		return types.SectionTree{}, err
	}

	if err := segment.WriteSections(cfg.ManualDir, tree); err != nil {
		return types.SectionTree{}, err
	}

	fmt.Fprintf(os.Stdout, "segmented %d sections (%d leaves)\n",
		len(tree.Sections), len(tree.Leaves()))
	return tree, nil
}
