// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns the manual's pages into a sequence of
// PageContent records, falling back to OCR on pages where native text
// extraction comes up short.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/pdiddy/exam-engine/pkg/types"
)

// ErrNoText means no page in the document yielded any text through
// either path. This is the only condition that aborts the pipeline.
var ErrNoText = errors.New("document extraction produced no text on any page")

const (
	defaultMinTextChars     = 100
	defaultMaxConcurrentOCR = 4
)

// Summary holds counts from an extraction run.
type Summary struct {
	Native int
	OCR    int
	Failed int
}

// Total returns the number of pages processed.
func (s Summary) Total() int {
	return s.Native + s.OCR + s.Failed
}

// HasFailures reports whether any pages failed both extraction paths.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// ExtractPages produces one PageContent per physical page, in page
// order. Native extraction runs first; pages below the density
// threshold go through the OCR backend in a bounded worker pool. A page
// that fails both paths is retained with empty text and flagged, never
// fatal on its own.
func ExtractPages(ctx context.Context, pdfPath string, ocr OCRBackend, cfg types.ExtractionConfig, w io.Writer) ([]types.PageContent, Summary, error) {
	minChars := cfg.MinTextChars
	if minChars <= 0 {
		minChars = defaultMinTextChars
	}
	poolSize := cfg.MaxConcurrentOCR
	if poolSize <= 0 {
		poolSize = defaultMaxConcurrentOCR
	}

	f, reader, err := pdflib.Open(pdfPath)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]types.PageContent, numPages)
	var needOCR []int

	for i := 1; i <= numPages; i++ {
		pc := types.PageContent{PageNumber: i, Method: types.MethodNative}

		page := reader.Page(i)
		if !page.V.IsNull() {
			pc.Text = nativeText(page)
			if cfg.ExtractImages {
				pc.Images = imageRefs(page, i)
			}
		}

		if len(pc.Text) < minChars {
			needOCR = append(needOCR, i)
		} else {
			fmt.Fprintf(w, "extracted page %d (native)\n", i)
		}
		pages[i-1] = pc
	}

	runOCR(ctx, ocr, cfg, pages, needOCR, poolSize, w)

	var summary Summary
	for i := range pages {
		switch {
		case pages[i].Failed:
			summary.Failed++
		case pages[i].Method == types.MethodOCR:
			summary.OCR++
		default:
			summary.Native++
		}
	}

	if summary.Native+summary.OCR == 0 {
		return nil, summary, ErrNoText
	}
	return pages, summary, nil
}

// runOCR sends the listed pages through the OCR backend with bounded
// concurrency. Results land back in the pages slice by index, so page
// order is already settled when the pool drains.
func runOCR(ctx context.Context, ocr OCRBackend, cfg types.ExtractionConfig, pages []types.PageContent, pageNums []int, poolSize int, w io.Writer) {
	if len(pageNums) == 0 {
		return
	}
	sort.Ints(pageNums)

	type ocrResult struct {
		page int
		text string
		err  error
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, poolSize)
	results := make(chan ocrResult, len(pageNums))

	for _, n := range pageNums {
		wg.Add(1)
		sem <- struct{}{}
		go func(n int) {
			defer wg.Done()
			defer func() { <-sem }()

			callCtx := ctx
			if cfg.OCRTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, cfg.OCRTimeout)
				defer cancel()
			}

			text, err := ocr.Recognize(callCtx, n)
			results <- ocrResult{page: n, text: text, err: err}
		}(n)
	}

	wg.Wait()
	close(results)

	for r := range results {
		pc := &pages[r.page-1]
		if r.err != nil || len(r.text) == 0 {
			// Keep whatever thin native text was there; a page with no
			// text at all is flagged and excluded from section
			// aggregation.
			if len(pc.Text) == 0 {
				pc.Failed = true
				fmt.Fprintf(w, "failed  page %d: %v\n", r.page, r.err)
			} else {
				fmt.Fprintf(w, "extracted page %d (native, thin)\n", r.page)
			}
			continue
		}
		if len(r.text) > len(pc.Text) {
			pc.Text = r.text
			pc.Method = types.MethodOCR
		}
		fmt.Fprintf(w, "extracted page %d (ocr)\n", r.page)
	}
}

// nativeText reads the page's plain text, treating parser errors as an
// empty page so the OCR path can take over.
func nativeText(page pdflib.Page) string {
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// imageRefs scans the page's XObject resources for image dictionaries
// and records their dimensions without decoding pixel data. Placement
// is not available from the resource dictionary alone, so bounds are
// [0, 0, w, h].
func imageRefs(page pdflib.Page, pageNum int) []types.ImageRef {
	var refs []types.ImageRef

	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return nil
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() {
		return nil
	}

	for _, name := range xobjects.Keys() {
		obj := xobjects.Key(name)
		if obj.IsNull() || obj.Key("Subtype").Name() != "Image" {
			continue
		}
		width := float64(obj.Key("Width").Int64())
		height := float64(obj.Key("Height").Int64())
		refs = append(refs, types.ImageRef{
			PageNumber: pageNum,
			Bounds:     [4]float64{0, 0, width, height},
		})
	}
	return refs
}
