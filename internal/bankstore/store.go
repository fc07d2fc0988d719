// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bankstore persists the enhanced bank: flat JSON artifacts for
// the pipeline checkpoints and a SQLite index with full-text search for
// browsing and sampling.
package bankstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/exam-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "bank.db"

	defaultMaxResults = 20
)

// Store manages the bank index SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the bank index at outputDir/index/bank.db,
// creating the schema if it does not exist.
func NewStore(cfg types.BankStoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.OutputDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			section_id TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			kind TEXT NOT NULL,
			stem TEXT NOT NULL,
			choices TEXT NOT NULL,
			explanation TEXT NOT NULL,
			page INTEGER,
			tags TEXT,
			requires_image INTEGER,
			image_prompt TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_section ON questions(section_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_difficulty ON questions(difficulty)`,
		`CREATE TABLE IF NOT EXISTS store_status (
			bank_file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='questions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE questions_fts USING fts5(stem, explanation, content=questions, content_rowid=rowid)`,
			`CREATE TRIGGER questions_ai AFTER INSERT ON questions BEGIN
				INSERT INTO questions_fts(rowid, stem, explanation) VALUES (new.rowid, new.stem, new.explanation);
			END`,
			`CREATE TRIGGER questions_ad AFTER DELETE ON questions BEGIN
				INSERT INTO questions_fts(questions_fts, rowid, stem, explanation) VALUES('delete', old.rowid, old.stem, old.explanation);
			END`,
			`CREATE TRIGGER questions_au AFTER UPDATE ON questions BEGIN
				INSERT INTO questions_fts(questions_fts, rowid, stem, explanation) VALUES('delete', old.rowid, old.stem, old.explanation);
				INSERT INTO questions_fts(rowid, stem, explanation) VALUES (new.rowid, new.stem, new.explanation);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IndexSummary holds counts from a bank indexing run.
type IndexSummary struct {
	Indexed int
	Skipped bool
}

// Index loads the bank artifact at bankPath into the database. An
// unchanged file (by modification time) is skipped; a changed one
// replaces the previous index contents.
func (s *Store) Index(ctx context.Context, bankPath string, w io.Writer) (IndexSummary, error) {
	info, err := os.Stat(bankPath)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("reading bank file: %w", err)
	}
	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

	var storedModTime string
	err = s.db.QueryRowContext(ctx,
		`SELECT file_mod_time FROM store_status WHERE bank_file = ?`, bankPath,
	).Scan(&storedModTime)
	if err == nil && storedModTime == modTime {
		fmt.Fprintf(w, "skipped %s (unchanged)\n", bankPath)
		return IndexSummary{Skipped: true}, nil
	}

	bank, err := LoadBank(bankPath)
	if err != nil {
		return IndexSummary{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return IndexSummary{}, fmt.Errorf("clearing old questions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO questions (id, section_id, difficulty, kind, stem, choices, explanation, page, tags, requires_image, image_prompt)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range bank.Questions {
		q := &bank.Questions[i]
		choicesJSON, _ := json.Marshal(q.Choices)
		tagsJSON, _ := json.Marshal(q.Tags)
		_, err := stmt.ExecContext(ctx,
			q.QuestionID, q.SectionID, string(q.Difficulty), string(q.Kind),
			q.QuestionText, string(choicesJSON), q.Explanation, q.PageRef,
			string(tagsJSON), q.RequiresImage, q.ImagePrompt,
		)
		if err != nil {
			return IndexSummary{}, fmt.Errorf("inserting question %s: %w", q.QuestionID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO store_status (bank_file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(bank_file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		bankPath, modTime,
	)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("updating store status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return IndexSummary{}, fmt.Errorf("committing: %w", err)
	}

	fmt.Fprintf(w, "indexed %d questions from %s\n", len(bank.Questions), bankPath)
	return IndexSummary{Indexed: len(bank.Questions)}, nil
}
