// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/exam-engine/pkg/types"
)

const sectionsFile = "sections.yaml"

// WriteSections saves the section tree to manualDir/sections.yaml so
// synthesis can run without re-segmenting.
func WriteSections(manualDir string, tree types.SectionTree) error {
	if err := os.MkdirAll(manualDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", manualDir, err)
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshaling sections: %w", err)
	}
	return os.WriteFile(filepath.Join(manualDir, sectionsFile), data, 0o644)
}

// LoadSections reads a previously written section tree.
func LoadSections(manualDir string) (types.SectionTree, error) {
	path := filepath.Join(manualDir, sectionsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return types.SectionTree{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var tree types.SectionTree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return types.SectionTree{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tree, nil
}
