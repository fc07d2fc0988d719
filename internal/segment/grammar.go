// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/exam-engine/pkg/types"
)

const defaultMaxHeadingLen = 60

// DefaultHeadingRules is the heading grammar validated against US
// driver's-manual formatting. Documents with other conventions should
// supply their own rules; the grammar is configuration, not a universal
// heuristic.
var DefaultHeadingRules = []types.HeadingRule{
	// "CHAPTER 3: Rules of the Road" and variants.
	{Pattern: `^CHAPTER\s+\d+[:.\s]`, Level: 1},
	// ALL-CAPS chapter banners ("SHARING THE ROAD").
	{Pattern: `^[A-Z][A-Z0-9 ,&'/-]{3,}$`, Level: 1},
	// Numbered subsections ("3.2 Right of Way").
	{Pattern: `^\d+(\.\d+)*\s+\S`, Level: 2},
	// Short title-case lines with no terminal punctuation.
	{Pattern: `^[A-Z][a-z0-9'-]*(\s+([A-Z][a-z0-9'-]*|of|the|and|or|to|a|an|in|on|at|for|with)){0,7}$`, Level: 2},
}

// grammar is a compiled heading rule set.
type grammar struct {
	rules  []compiledRule
	maxLen int
}

type compiledRule struct {
	re    *regexp.Regexp
	level int
}

func compileGrammar(cfg types.SegmentConfig) (*grammar, error) {
	rules := cfg.HeadingRules
	if len(rules) == 0 {
		rules = DefaultHeadingRules
	}
	maxLen := cfg.MaxHeadingLen
	if maxLen <= 0 {
		maxLen = defaultMaxHeadingLen
	}

	g := &grammar{maxLen: maxLen}
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling heading pattern %q: %w", r.Pattern, err)
		}
		if r.Level != 1 && r.Level != 2 {
			return nil, fmt.Errorf("heading pattern %q: level must be 1 or 2, got %d", r.Pattern, r.Level)
		}
		g.rules = append(g.rules, compiledRule{re: re, level: r.Level})
	}
	return g, nil
}

// match classifies a line. Rules are tried in order; the first hit wins,
// so chapter patterns must precede subsection patterns that would also
// match.
func (g *grammar) match(line string) (title string, level int, ok bool) {
	line = strings.TrimSpace(line)
	if len(line) < 4 || len(line) > g.maxLen {
		return "", 0, false
	}
	for _, r := range g.rules {
		if r.re.MatchString(line) {
			return line, r.level, true
		}
	}
	return "", 0, false
}
