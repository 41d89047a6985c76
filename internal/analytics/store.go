// Package analytics persists flattened analysis results in SQLite and
// serves the dashboard's aggregate queries.
package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stitchlabs/promptdash/models"
)

// Store is a SQLite-backed analytics store.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the analytics database at dbPath. Pass
// ":memory:" for an ephemeral store in tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create analytics directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates the analyses table and its indexes if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'human',
		source_agent TEXT,
		target_agent TEXT,
		project_id TEXT,
		original_prompt TEXT NOT NULL,
		rewritten_prompt TEXT,
		overall_score INTEGER NOT NULL DEFAULT 0,
		clarity INTEGER NOT NULL DEFAULT 0,
		token_efficiency INTEGER NOT NULL DEFAULT 0,
		goal_alignment INTEGER NOT NULL DEFAULT 0,
		structure INTEGER NOT NULL DEFAULT 0,
		vagueness_index INTEGER NOT NULL DEFAULT 0,
		mistake_count INTEGER NOT NULL DEFAULT 0,
		mistakes_json TEXT,
		original_tokens INTEGER NOT NULL DEFAULT 0,
		rewritten_tokens INTEGER NOT NULL DEFAULT 0,
		token_savings_percent REAL NOT NULL DEFAULT 0.0,
		rewrite_used INTEGER,
		full_result_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_timestamp ON analyses(timestamp);
	CREATE INDEX IF NOT EXISTS idx_project ON analyses(project_id);
	CREATE INDEX IF NOT EXISTS idx_source ON analyses(source_agent);
	`

	_, err := s.db.Exec(schema)
	return err
}

// nullable maps an empty string to SQL NULL so dashboards can filter on
// presence rather than empty strings.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// StoreResult flattens and inserts an analysis result, returning the row id.
func (s *Store) StoreResult(result models.AnalysisResult) (int64, error) {
	mistakesJSON, err := json.Marshal(result.Mistakes)
	if err != nil {
		return 0, fmt.Errorf("marshal mistakes: %w", err)
	}
	fullJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO analyses (
			timestamp, mode, source_agent, target_agent, project_id,
			original_prompt, rewritten_prompt,
			overall_score, clarity, token_efficiency, goal_alignment,
			structure, vagueness_index,
			mistake_count, mistakes_json,
			original_tokens, rewritten_tokens, token_savings_percent,
			full_result_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Metadata.Timestamp.UTC().Format(time.RFC3339),
		result.Metadata.Mode(),
		nullable(result.Metadata.SourceAgent),
		nullable(result.Metadata.TargetAgent),
		nullable(result.Metadata.ProjectID),
		result.OriginalPrompt,
		result.RewrittenPrompt,
		result.OverallScore,
		result.Scores.Clarity.Score,
		result.Scores.TokenEfficiency.Score,
		result.Scores.GoalAlignment.Score,
		result.Scores.Structure.Score,
		result.Scores.VaguenessIndex.Score,
		len(result.Mistakes),
		string(mistakesJSON),
		result.TokenComparison.OriginalTokens,
		result.TokenComparison.RewrittenTokens,
		result.TokenComparison.SavingsPercent,
		string(fullJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}

	return res.LastInsertId()
}

// MarkRewriteUsed records whether the user chose the rewritten prompt.
func (s *Store) MarkRewriteUsed(analysisID int64, used bool) error {
	v := 0
	if used {
		v = 1
	}
	res, err := s.db.Exec("UPDATE analyses SET rewrite_used = ? WHERE id = ?", v, analysisID)
	if err != nil {
		return fmt.Errorf("mark rewrite used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("analysis %d not found", analysisID)
	}
	return nil
}
