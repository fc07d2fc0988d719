// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pdiddy/exam-engine/internal/httputil"
	"github.com/pdiddy/exam-engine/pkg/types"
)

// OCRBackend recognizes the text of a single page. Implementations are
// black boxes; the extractor only cares that they return text or fail
// within the configured timeout.
type OCRBackend interface {
	Recognize(ctx context.Context, page int) (string, error)
}

// NewOCRBackend builds the backend selected by the configuration.
func NewOCRBackend(pdfPath string, cfg types.ExtractionConfig) (OCRBackend, error) {
	switch cfg.OCRBackend {
	case types.OCRHTTP:
		if cfg.OCREndpoint == "" {
			return nil, fmt.Errorf("ocr backend http requires an endpoint")
		}
		return &HTTPBackend{
			PDFPath:  pdfPath,
			Endpoint: cfg.OCREndpoint,
			APIKey:   cfg.OCRAPIKey,
			Client:   &http.Client{Timeout: cfg.OCRTimeout},
		}, nil
	case types.OCRExec, "":
		return &ExecBackend{PDFPath: pdfPath}, nil
	default:
		return nil, fmt.Errorf("unknown ocr backend %q: use exec or http", cfg.OCRBackend)
	}
}

// ExecBackend renders a page with pdftoppm and recognizes it with
// tesseract. Both tools must be on PATH.
type ExecBackend struct {
	PDFPath string
}

// Recognize rasterizes the page to a temporary PNG and runs tesseract
// over it.
func (b *ExecBackend) Recognize(ctx context.Context, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "exam-engine-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	render := exec.CommandContext(ctx, "pdftoppm",
		"-f", strconv.Itoa(page), "-l", strconv.Itoa(page),
		"-r", "200", "-png", b.PDFPath, prefix)
	if out, err := render.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftoppm page %d: %w: %s", page, err, out)
	}

	// pdftoppm names output page-N.png with N zero-padded to the
	// document's page-count width; glob rather than guess.
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm page %d produced no image", page)
	}

	recognize := exec.CommandContext(ctx, "tesseract", matches[0], "stdout")
	out, err := recognize.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract page %d: %w", page, err)
	}
	return string(out), nil
}

// HTTPBackend posts the document to a remote OCR service that renders
// and recognizes the requested page.
type HTTPBackend struct {
	PDFPath  string
	Endpoint string
	APIKey   string
	Client   *http.Client

	once    sync.Once
	pdfData []byte
	loadErr error
}

// ocrResponse is the service's reply for one page.
type ocrResponse struct {
	Text string `json:"text"`
}

// Recognize uploads the document bytes with the page number and returns
// the recognized text. Rate-limit and warm-up responses are retried
// with backoff.
func (b *HTTPBackend) Recognize(ctx context.Context, page int) (string, error) {
	b.once.Do(func() {
		b.pdfData, b.loadErr = os.ReadFile(b.PDFPath)
	})
	if b.loadErr != nil {
		return "", fmt.Errorf("reading %s: %w", b.PDFPath, b.loadErr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoint, bytes.NewReader(b.pdfData))
	if err != nil {
		return "", fmt.Errorf("building OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("X-Page", strconv.Itoa(page))
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling OCR service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("OCR service returned %d for page %d: %s", resp.StatusCode, page, body)
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding OCR response for page %d: %w", page, err)
	}
	return parsed.Text, nil
}
