// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SectionCoverage summarizes the questions allocated to one section.
type SectionCoverage struct {
	SectionID string `json:"sectionID" yaml:"sectionID"`
	Title     string `json:"title" yaml:"title"`
	Count     int    `json:"count" yaml:"count"`

	// DifficultyBreakdown maps difficulty to question count.
	DifficultyBreakdown map[Difficulty]int `json:"difficultyBreakdown" yaml:"difficultyBreakdown"`
}

// Adjustment records a budget reallocation from a section that ran out of
// usable material to the next-largest section.
type Adjustment struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Count int    `json:"count" yaml:"count"`
}

// CoverageReport is a derived view over a bank snapshot: per-section
// counts, the sections that failed to meet the coverage floor, and the
// reallocations the assembler performed.
type CoverageReport struct {
	Sections map[string]SectionCoverage `json:"sections" yaml:"sections"`

	// Chapters rolls leaf counts up to their top-level chapter.
	Chapters map[string]SectionCoverage `json:"chapters,omitempty" yaml:"chapters,omitempty"`

	TotalSections        int `json:"totalSections" yaml:"totalSections"`
	SectionsMeetingFloor int `json:"sectionsMeetingFloor" yaml:"sectionsMeetingFloor"`

	// Gaps lists leaf sections that ended with zero questions even at
	// the coverage floor.
	Gaps []string `json:"gaps,omitempty" yaml:"gaps,omitempty"`

	Adjustments []Adjustment `json:"adjustments,omitempty" yaml:"adjustments,omitempty"`

	// CoveragePercent is the share of leaf sections with at least one
	// question.
	CoveragePercent float64 `json:"coveragePercent" yaml:"coveragePercent"`
}

// UnresolvedItem identifies a question that exhausted its regeneration
// attempts. The item stays in the bank; removal would break the
// count/ratio/coverage guarantees the assembler established.
type UnresolvedItem struct {
	QuestionID string `json:"questionID" yaml:"questionID"`
	Reason     string `json:"reason" yaml:"reason"`
}

// QCReport summarizes a quality-control run over a bank.
type QCReport struct {
	Passed      int `json:"passed" yaml:"passed"`
	Regenerated int `json:"regenerated" yaml:"regenerated"`

	Unresolved []UnresolvedItem `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`

	// Relabeled counts difficulty swaps made by the reconciliation pass.
	Relabeled int `json:"relabeled" yaml:"relabeled"`

	FinalRatios   map[Difficulty]int `json:"finalRatios" yaml:"finalRatios"`
	FinalCoverage CoverageReport     `json:"finalCoverage" yaml:"finalCoverage"`
}

// UnresolvedCount returns the number of unresolved items.
func (r *QCReport) UnresolvedCount() int {
	return len(r.Unresolved)
}

// Stats holds the human-readable summary figures derived from a bank.
type Stats struct {
	TotalQuestions     int                `json:"totalQuestions" yaml:"totalQuestions"`
	AvgWordsPerStem    float64            `json:"avgWordsPerStem" yaml:"avgWordsPerStem"`
	DifficultyCounts   map[Difficulty]int `json:"difficultyCounts" yaml:"difficultyCounts"`
	CoveragePercent    float64            `json:"coveragePercent" yaml:"coveragePercent"`
	HardestSection     string             `json:"hardestSection" yaml:"hardestSection"`
	HardestScore       float64            `json:"hardestScore" yaml:"hardestScore"`
	ThinnestSection    string             `json:"thinnestSection" yaml:"thinnestSection"`
	ThinnestCount      int                `json:"thinnestCount" yaml:"thinnestCount"`
}
