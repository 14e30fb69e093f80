// Package store persists findings and case states per proceeding. The
// pipeline treats it as an opaque key-value collaborator keyed by
// proceeding id and rule id.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/auditstack/gst-return-scrutiny/dto"
)

const schema = `
CREATE TABLE IF NOT EXISTS cases (
	proceeding_id TEXT PRIMARY KEY,
	state         TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS findings (
	proceeding_id TEXT NOT NULL,
	rule_id       TEXT NOT NULL,
	payload       TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	PRIMARY KEY (proceeding_id, rule_id)
);`

// Store is a sqlite-backed findings store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open findings store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize findings store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CaseState returns the persisted lifecycle state of a proceeding; ok is
// false when the proceeding has never been seen.
func (s *Store) CaseState(ctx context.Context, proceedingID string) (dto.CaseState, bool, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM cases WHERE proceeding_id = ?`, proceedingID).Scan(&state)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load case state: %w", err)
	}
	return dto.CaseState(state), true, nil
}

// SaveCaseState upserts the lifecycle state of a proceeding.
func (s *Store) SaveCaseState(ctx context.Context, proceedingID string, state dto.CaseState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cases (proceeding_id, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(proceeding_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		proceedingID, string(state), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save case state: %w", err)
	}
	return nil
}

// SaveFindings upserts the findings of one evaluation run; re-running a
// proceeding overwrites per rule id, it never appends duplicates.
func (s *Store) SaveFindings(ctx context.Context, proceedingID string, findings []dto.Finding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save findings: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, f := range findings {
		payload, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encode finding %s: %w", f.RuleID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO findings (proceeding_id, rule_id, payload, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(proceeding_id, rule_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
			proceedingID, f.RuleID, string(payload), now); err != nil {
			return fmt.Errorf("save finding %s: %w", f.RuleID, err)
		}
	}
	return tx.Commit()
}

// Findings returns the persisted findings of a proceeding ordered by rule
// id, for re-displaying a previously analyzed case.
func (s *Store) Findings(ctx context.Context, proceedingID string) ([]dto.Finding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM findings WHERE proceeding_id = ? ORDER BY rule_id`, proceedingID)
	if err != nil {
		return nil, fmt.Errorf("load findings: %w", err)
	}
	defer rows.Close()

	var findings []dto.Finding
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		var f dto.Finding
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			return nil, fmt.Errorf("decode finding: %w", err)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}
