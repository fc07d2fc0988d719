// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment builds the section tree for an extracted document.
// Heading-like lines open sections according to a configurable grammar;
// everything between two headings accumulates into the open leaf.
package segment

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pdiddy/exam-engine/pkg/types"
)

// Synthetic section titles for content the grammar does not claim.
const (
	introTitle    = "Introduction"
	overviewTitle = "Overview"
)

// draft is a section under construction. Chapters collect direct lines
// until their first subsection opens; those lines then move into a
// synthetic Overview leaf so only leaves carry text.
type draft struct {
	title     string
	level     int
	firstPage int
	lastPage  int
	lines     []string
	leaves    []*draft
}

func (d *draft) append(line string, page int) {
	d.lines = append(d.lines, line)
	if page > d.lastPage {
		d.lastPage = page
	}
}

// Segment scans the ordered page sequence and produces the section
// tree. A heading detected mid-page closes the open leaf at that line,
// so one page can contribute text to two sections. Content before the
// first heading lands in a synthetic Introduction section; failed pages
// stay inside page ranges but contribute no text.
func Segment(pages []types.PageContent, cfg types.SegmentConfig, w io.Writer) (types.SectionTree, error) {
	g, err := compileGrammar(cfg)
	if err != nil {
		return types.SectionTree{}, err
	}

	var chapters []*draft
	var chapter, leaf *draft

	openChapter := func(title string, page int) {
		chapter = &draft{title: title, level: 1, firstPage: page, lastPage: page}
		chapters = append(chapters, chapter)
		leaf = nil
	}
	openLeaf := func(title string, page int) {
		if len(chapter.lines) > 0 && len(chapter.leaves) == 0 {
			// Chapter text that precedes the first subsection becomes
			// its own leaf rather than being orphaned on the chapter.
			chapter.leaves = append(chapter.leaves, &draft{
				title:     overviewTitle,
				level:     2,
				firstPage: chapter.firstPage,
				lastPage:  chapter.lastPage,
				lines:     chapter.lines,
			})
			chapter.lines = nil
		}
		leaf = &draft{title: title, level: 2, firstPage: page, lastPage: page}
		chapter.leaves = append(chapter.leaves, leaf)
	}

	for _, pc := range pages {
		if pc.Failed {
			continue
		}
		page := pc.PageNumber
		for _, raw := range strings.Split(pc.Text, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}

			title, level, isHeading := g.match(line)
			switch {
			case isHeading && level == 1:
				openChapter(title, page)
			case isHeading && level == 2:
				if chapter == nil {
					// Subsection heading with no chapter above it is
					// promoted so the tree never starts below level 1.
					openChapter(title, page)
					continue
				}
				openLeaf(title, page)
			case leaf != nil:
				leaf.append(line, page)
				if page > chapter.lastPage {
					chapter.lastPage = page
				}
			case chapter != nil:
				chapter.append(line, page)
			default:
				openChapter(introTitle, page)
				chapter.append(line, page)
			}
		}
	}

	tree := buildTree(chapters, w)
	if len(tree.Sections) == 0 {
		return types.SectionTree{}, fmt.Errorf("no sections detected: document yielded no usable text")
	}
	return tree, nil
}

// buildTree assigns deterministic IDs and flattens drafts into the
// final tree, dropping headings that accumulated no text.
func buildTree(chapters []*draft, w io.Writer) types.SectionTree {
	var tree types.SectionTree
	seen := make(map[string]int)

	for _, ch := range chapters {
		if len(ch.leaves) == 0 && len(ch.lines) == 0 {
			continue
		}
		chID := uniqueID(seen, "", ch.title)
		sec := types.Section{
			ID:        chID,
			Title:     ch.title,
			Level:     1,
			PageRange: [2]int{ch.firstPage, ch.lastPage},
		}

		if len(ch.leaves) == 0 {
			// Childless chapter is itself a leaf.
			sec.Text = strings.Join(ch.lines, "\n")
			tree.Sections = append(tree.Sections, sec)
			fmt.Fprintf(w, "section %-40s pages %d-%d\n", chID, sec.PageRange[0], sec.PageRange[1])
			continue
		}

		chIdx := len(tree.Sections)
		tree.Sections = append(tree.Sections, sec)
		for _, lf := range ch.leaves {
			if len(lf.lines) == 0 {
				continue
			}
			leafID := uniqueID(seen, chID, lf.title)
			tree.Sections = append(tree.Sections, types.Section{
				ID:        leafID,
				Title:     lf.title,
				Level:     2,
				PageRange: [2]int{lf.firstPage, lf.lastPage},
				Text:      strings.Join(lf.lines, "\n"),
				Parent:    chID,
			})
			tree.Sections[chIdx].Children = append(tree.Sections[chIdx].Children, leafID)
			fmt.Fprintf(w, "section %-40s pages %d-%d\n", leafID, lf.firstPage, lf.lastPage)
		}
		if len(tree.Sections[chIdx].Children) == 0 {
			// Every leaf turned out empty; drop the chapter node too.
			tree.Sections = tree.Sections[:chIdx]
		}
	}
	return tree
}

// uniqueID builds the dotted section path from the title. The same
// heading sequence always yields the same IDs; repeated titles get a
// numeric suffix.
func uniqueID(seen map[string]int, parent, title string) string {
	seg := pathSegment(title)
	if seg == "" {
		seg = "Section"
	}
	id := seg
	if parent != "" {
		id = parent + "." + seg
	}
	seen[id]++
	if n := seen[id]; n > 1 {
		id = fmt.Sprintf("%s%d", id, n)
	}
	return id
}

// pathSegment turns a heading into a CamelCase alphanumeric path
// component ("RULES OF THE ROAD" -> "RulesOfTheRoad").
func pathSegment(title string) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
