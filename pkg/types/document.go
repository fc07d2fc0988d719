// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ExtractionMethod records how a page's text was obtained.
type ExtractionMethod string

const (
	MethodNative ExtractionMethod = "native"
	MethodOCR    ExtractionMethod = "ocr"
)

// ImageRef locates an image on a page without decoding pixel data.
// Bounds is [x0, y0, x1, y1] in page coordinates; pages whose image
// dictionaries carry no placement information report [0, 0, w, h].
type ImageRef struct {
	// PageNumber is the 1-based page the image appears on.
	PageNumber int `json:"page_number" yaml:"page_number"`

	// Bounds is the image rectangle.
	Bounds [4]float64 `json:"bounds" yaml:"bounds"`
}

// PageContent holds the extracted text and images for one physical page.
// Immutable once produced; exactly one per page of the source document.
type PageContent struct {
	// PageNumber is the 1-based page number.
	PageNumber int `json:"page_number" yaml:"page_number"`

	// Text is the extracted page text. Empty when Failed is true.
	Text string `json:"text" yaml:"text"`

	// Images lists images found on the page.
	Images []ImageRef `json:"images,omitempty" yaml:"images,omitempty"`

	// Method records whether native extraction or OCR produced the text.
	Method ExtractionMethod `json:"method" yaml:"method"`

	// Failed marks a page unreadable by both the native and OCR paths.
	// Failed pages stay in the sequence but contribute no section text.
	Failed bool `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Section is a node in the document's section tree. Parent and Children
// hold section IDs rather than live pointers so the tree stays a strict
// hierarchy with path-based lookup.
type Section struct {
	// ID is the dotted section path (e.g. "RulesOfTheRoad.RightOfWay").
	// Unique and stable for a given document revision.
	ID string `json:"id" yaml:"id"`

	// Title is the heading text the section was opened with.
	Title string `json:"title" yaml:"title"`

	// Level is 1 for chapters and 2 for subsections.
	Level int `json:"level" yaml:"level"`

	// PageRange is the inclusive [first, last] page span. A heading that
	// splits a page mid-way makes that page the last of one section and
	// the first of the next.
	PageRange [2]int `json:"page_range" yaml:"page_range"`

	// Text is the concatenated content of the section's pages. Only
	// leaves carry text.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Parent is the parent section ID, empty for top-level sections.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Children lists child section IDs in document order.
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsLeaf reports whether the section has no children. Leaves are the
// unit against which question coverage is enforced.
func (s *Section) IsLeaf() bool {
	return len(s.Children) == 0
}

// ContainsPage reports whether page falls inside the section's page range.
func (s *Section) ContainsPage(page int) bool {
	return page >= s.PageRange[0] && page <= s.PageRange[1]
}

// SectionTree is the ordered set of sections built by the segmenter,
// read-only after construction.
type SectionTree struct {
	// Sections lists all sections in document order, chapters before
	// their subsections.
	Sections []Section `json:"sections" yaml:"sections"`
}

// Lookup returns the section with the given ID, or an error if the path
// does not exist.
func (t *SectionTree) Lookup(id string) (*Section, error) {
	for i := range t.Sections {
		if t.Sections[i].ID == id {
			return &t.Sections[i], nil
		}
	}
	return nil, fmt.Errorf("section %q not found", id)
}

// Leaves returns the leaf sections in document order.
func (t *SectionTree) Leaves() []*Section {
	var leaves []*Section
	for i := range t.Sections {
		if t.Sections[i].IsLeaf() {
			leaves = append(leaves, &t.Sections[i])
		}
	}
	return leaves
}
