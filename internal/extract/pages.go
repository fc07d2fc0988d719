// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/exam-engine/pkg/types"
)

const (
	extractedDir = "extracted"
	pagesFile    = "pages.yaml"
)

// pagesArtifact is the on-disk shape of the extraction checkpoint.
type pagesArtifact struct {
	Source string              `yaml:"source"`
	Pages  []types.PageContent `yaml:"pages"`
}

// WritePages saves the extracted pages to manualDir/extracted/pages.yaml
// so segmentation can run without re-reading the PDF.
func WritePages(manualDir, source string, pages []types.PageContent) error {
	dir := filepath.Join(manualDir, extractedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	data, err := yaml.Marshal(pagesArtifact{Source: source, Pages: pages})
	if err != nil {
		return fmt.Errorf("marshaling pages: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, pagesFile), data, 0o644)
}

// LoadPages reads a previously written extraction checkpoint.
func LoadPages(manualDir string) ([]types.PageContent, error) {
	path := filepath.Join(manualDir, extractedDir, pagesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var artifact pagesArtifact
	if err := yaml.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return artifact.Pages, nil
}
