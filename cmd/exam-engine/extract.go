// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-engine/internal/extract"
	"github.com/pdiddy/exam-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <manual.pdf>",
	Short: "Extract page text from the manual PDF",
	Long: `Extract reads the manual PDF page by page. Native text extraction runs
first; pages below the density threshold fall back to the OCR backend.
Pages that fail both paths are kept with empty text and flagged. The
result is written to <manual-dir>/extracted/pages.yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("manual-dir", "manual", "base directory for manual artifacts (contains extracted/)")
	extractCmd.Flags().Int("min-text-chars", 0, "native text density threshold before OCR fallback (default 100)")
	extractCmd.Flags().Bool("extract-images", false, "record image references for sign-identification questions")
	extractCmd.Flags().String("ocr-backend", "exec", "OCR backend: exec or http")
	extractCmd.Flags().String("ocr-endpoint", "", "OCR service URL for the http backend")
	extractCmd.Flags().String("ocr-api-key", "", "OCR service API key (default: .secrets/ocr-api-key)")
	extractCmd.Flags().Duration("ocr-timeout", 0, "per-page OCR timeout (default 30s)")
	extractCmd.Flags().Int("ocr-workers", 0, "OCR worker pool size (default 4)")

	rootCmd.AddCommand(extractCmd)
}

func extractionConfigFromFlags(cmd *cobra.Command) types.ExtractionConfig {
	manualDir, _ := cmd.Flags().GetString("manual-dir")
	minChars, _ := cmd.Flags().GetInt("min-text-chars")
	images, _ := cmd.Flags().GetBool("extract-images")
	backend, _ := cmd.Flags().GetString("ocr-backend")
	endpoint, _ := cmd.Flags().GetString("ocr-endpoint")
	apiKey, _ := cmd.Flags().GetString("ocr-api-key")
	timeout, _ := cmd.Flags().GetDuration("ocr-timeout")
	workers, _ := cmd.Flags().GetInt("ocr-workers")

	return types.ExtractionConfig{
		ManualDir:        manualDir,
		MinTextChars:     minChars,
		ExtractImages:    images,
		OCRBackend:       types.OCRBackendKind(backend),
		OCREndpoint:      endpoint,
		OCRAPIKey:        secretDefault("ocr-api-key", apiKey),
		OCRTimeout:       timeout,
		MaxConcurrentOCR: workers,
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := extractionConfigFromFlags(cmd)
	return extractStage(context.Background(), args[0], cfg)
}

// extractStage runs extraction end to end: backend selection, page
// extraction, artifact write. Shared with the run command.
func extractStage(ctx context.Context, pdfPath string, cfg types.ExtractionConfig) error {
	if cfg.OCRTimeout == 0 {
		cfg.OCRTimeout = 30 * time.Second
	}

	ocr, err := extract.NewOCRBackend(pdfPath, cfg)
	if err != nil {
		return err
	}

	pages, summary, err := extract.ExtractPages(ctx, pdfPath, ocr, cfg, os.Stdout)
	if err != nil {
		return err
	}

	if err := extract.WritePages(cfg.ManualDir, pdfPath, pages); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "extracted %d pages (%d native, %d ocr, %d failed)\n",
		summary.Total(), summary.Native, summary.OCR, summary.Failed)
	return nil
}
