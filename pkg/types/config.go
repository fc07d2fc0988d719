// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// OCRBackendKind identifies the OCR fallback implementation.
type OCRBackendKind string

const (
	OCRExec OCRBackendKind = "exec"
	OCRHTTP OCRBackendKind = "http"
)

// ExtractionConfig holds settings for the page extraction stage.
type ExtractionConfig struct {
	// ManualDir is the base directory for manual artifacts
	// (contains extracted/).
	ManualDir string `json:"manual_dir" yaml:"manual_dir"`

	// MinTextChars is the native-extraction density threshold. A page
	// whose native text is shorter falls back to OCR (default 100).
	MinTextChars int `json:"min_text_chars" yaml:"min_text_chars"`

	// ExtractImages controls whether image references are recorded.
	ExtractImages bool `json:"extract_images" yaml:"extract_images"`

	// OCRBackend selects the OCR implementation: exec or http.
	OCRBackend OCRBackendKind `json:"ocr_backend" yaml:"ocr_backend"`

	// OCREndpoint is the OCR service URL for the http backend.
	OCREndpoint string `json:"ocr_endpoint,omitempty" yaml:"ocr_endpoint,omitempty"`

	// OCRAPIKey authenticates against the OCR service.
	OCRAPIKey string `json:"ocr_api_key,omitempty" yaml:"ocr_api_key,omitempty"`

	// OCRTimeout bounds one OCR call; an overrun counts as an
	// extraction failure for that page, not a pipeline fault
	// (default 30s).
	OCRTimeout time.Duration `json:"ocr_timeout" yaml:"ocr_timeout"`

	// MaxConcurrentOCR bounds the OCR worker pool (default 4).
	MaxConcurrentOCR int `json:"max_concurrent_ocr" yaml:"max_concurrent_ocr"`
}

// HeadingRule is one pattern of the configurable heading grammar.
type HeadingRule struct {
	// Pattern is a regular expression matched against trimmed lines.
	Pattern string `json:"pattern" yaml:"pattern"`

	// Level is the section level a match opens: 1 chapter, 2 subsection.
	Level int `json:"level" yaml:"level"`
}

// SegmentConfig holds settings for the section segmentation stage.
type SegmentConfig struct {
	ManualDir string `json:"manual_dir" yaml:"manual_dir"`

	// HeadingRules is the heading grammar. Empty uses the default
	// grammar tuned for the reference manual; documents with other
	// formatting conventions should supply their own.
	HeadingRules []HeadingRule `json:"heading_rules,omitempty" yaml:"heading_rules,omitempty"`

	// MaxHeadingLen is the longest line still considered a heading
	// candidate (default 60).
	MaxHeadingLen int `json:"max_heading_len" yaml:"max_heading_len"`
}

// SynthesisConfig holds settings for question synthesis.
type SynthesisConfig struct {
	// Seed drives every random draw: unit selection, distractor
	// construction, choice shuffling. The same seed and document yield
	// an identical bank.
	Seed uint64 `json:"seed" yaml:"seed"`

	// UnitReuseLimit caps how often one factual unit may back a
	// question within a section (default 1).
	UnitReuseLimit int `json:"unit_reuse_limit" yaml:"unit_reuse_limit"`

	// QuestionIDPrefix prefixes generated question IDs (default "KDM").
	QuestionIDPrefix string `json:"question_id_prefix" yaml:"question_id_prefix"`
}

// AssemblyConfig holds settings for bank assembly.
type AssemblyConfig struct {
	// TargetCount is the requested bank size N (default 400).
	TargetCount int `json:"target_count" yaml:"target_count"`

	// CoverageFloor is the minimum question count per leaf section
	// before the remaining budget is distributed (default 1).
	CoverageFloor int `json:"coverage_floor" yaml:"coverage_floor"`

	// OutputDir is the directory for bank artifacts (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// QCConfig holds settings for the quality-control stage.
type QCConfig struct {
	// MaxAttempts bounds regeneration attempts per failing item
	// (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RatioTolerance is the allowed per-bucket drift from the difficulty
	// targets before reconciliation relabels items (default 1).
	RatioTolerance int `json:"ratio_tolerance" yaml:"ratio_tolerance"`

	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// BankStoreConfig holds settings for the SQLite bank index.
type BankStoreConfig struct {
	// OutputDir is the base directory containing index/bank.db.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MaxResults is the default cap on retrieve results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Segment    SegmentConfig    `json:"segment" yaml:"segment"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis"`
	Assembly   AssemblyConfig   `json:"assembly" yaml:"assembly"`
	QC         QCConfig         `json:"qc" yaml:"qc"`
	BankStore  BankStoreConfig  `json:"bank_store" yaml:"bank_store"`
}
