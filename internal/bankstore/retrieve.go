// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bankstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pdiddy/exam-engine/pkg/types"
)

// QueryOptions holds parameters for bank index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string, matched against stems
	// and explanations.
	Query string

	// SectionID filters by source section.
	SectionID string

	// Difficulty filters by difficulty bucket.
	Difficulty types.Difficulty

	// Tags filters by one or more tags with AND semantics.
	Tags []string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Retrieve queries the bank index with optional full-text search and
// structured filters. Full-text results are ranked by relevance;
// structured-only queries come back in question ID order.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.Question, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT q.id, q.section_id, q.difficulty, q.kind, q.stem, q.choices,
				q.explanation, q.page, q.tags, q.requires_image, q.image_prompt
			FROM questions_fts
			JOIN questions q ON q.rowid = questions_fts.rowid
			WHERE questions_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT q.id, q.section_id, q.difficulty, q.kind, q.stem, q.choices,
				q.explanation, q.page, q.tags, q.requires_image, q.image_prompt
			FROM questions q
			WHERE 1=1`)
	}

	if opts.SectionID != "" {
		qb.WriteString(` AND q.section_id = ?`)
		args = append(args, opts.SectionID)
	}
	if opts.Difficulty != "" {
		qb.WriteString(` AND q.difficulty = ?`)
		args = append(args, string(opts.Difficulty))
	}
	for _, tag := range opts.Tags {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(q.tags) WHERE value = ?)`)
		args = append(args, tag)
	}

	if useFTS {
		qb.WriteString(` ORDER BY questions_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY q.id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying bank index: %w", err)
	}
	defer rows.Close()

	var results []types.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, q)
	}
	return results, rows.Err()
}

// SampledChoice is a choice with the correctness flag withheld.
type SampledChoice struct {
	Label types.ChoiceLabel `json:"label"`
	Text  string            `json:"text"`
}

// SampledQuestion is a question as served to exam takers: the
// explanation and the isCorrect flags are stripped, everything else
// matches the enhanced bank schema.
type SampledQuestion struct {
	QuestionID    string             `json:"questionID"`
	SectionID     string             `json:"sectionID"`
	Difficulty    types.Difficulty   `json:"difficulty"`
	Kind          types.QuestionKind `json:"kind"`
	QuestionText  string             `json:"questionText"`
	Choices       []SampledChoice    `json:"choices"`
	PageRef       int                `json:"pageRef"`
	Tags          []string           `json:"tags"`
	RequiresImage bool               `json:"requiresImage"`
	ImagePrompt   string             `json:"imagePrompt,omitempty"`
}

// Sample returns count random questions with the answer-reveal fields
// withheld. The same seed over the same index yields the same subset in
// the same order.
func (s *Store) Sample(ctx context.Context, count int, seed uint64) ([]SampledQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.section_id, q.difficulty, q.kind, q.stem, q.choices,
			q.explanation, q.page, q.tags, q.requires_image, q.image_prompt
		FROM questions q ORDER BY q.id`)
	if err != nil {
		return nil, fmt.Errorf("querying bank index: %w", err)
	}
	defer rows.Close()

	var all []types.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if count > len(all) {
		count = len(all)
	}

	sampled := make([]SampledQuestion, 0, count)
	for _, q := range all[:count] {
		sq := SampledQuestion{
			QuestionID:    q.QuestionID,
			SectionID:     q.SectionID,
			Difficulty:    q.Difficulty,
			Kind:          q.Kind,
			QuestionText:  q.QuestionText,
			PageRef:       q.PageRef,
			Tags:          q.Tags,
			RequiresImage: q.RequiresImage,
			ImagePrompt:   q.ImagePrompt,
		}
		for _, c := range q.Choices {
			sq.Choices = append(sq.Choices, SampledChoice{Label: c.Label, Text: c.Text})
		}
		sampled = append(sampled, sq)
	}
	return sampled, nil
}

func scanQuestion(rows *sql.Rows) (types.Question, error) {
	var (
		q           types.Question
		difficulty  string
		kind        string
		choicesJSON string
		tagsJSON    sql.NullString
		imagePrompt sql.NullString
	)
	if err := rows.Scan(
		&q.QuestionID, &q.SectionID, &difficulty, &kind, &q.QuestionText,
		&choicesJSON, &q.Explanation, &q.PageRef, &tagsJSON,
		&q.RequiresImage, &imagePrompt,
	); err != nil {
		return types.Question{}, fmt.Errorf("scanning row: %w", err)
	}

	q.Difficulty = types.Difficulty(difficulty)
	q.Kind = types.QuestionKind(kind)
	if err := json.Unmarshal([]byte(choicesJSON), &q.Choices); err != nil {
		return types.Question{}, fmt.Errorf("parsing choices for %s: %w", q.QuestionID, err)
	}
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &q.Tags)
	}
	if imagePrompt.Valid {
		q.ImagePrompt = imagePrompt.String
	}
	return q, nil
}
