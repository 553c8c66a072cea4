// Package history persists run results in a local sqlite database.
package history

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"screenpilot/internal/engine"
	"screenpilot/internal/errors"
)

// Record is one persisted run.
type Record struct {
	RunID       string           `json:"run_id"`
	Status      string           `json:"status"`
	Steps       int              `json:"steps"`
	FailedIndex int              `json:"failed_index"`
	Started     time.Time        `json:"started"`
	Finished    time.Time        `json:"finished"`
	Outcomes    []engine.Outcome `json:"outcomes"`
}

// Store writes and reads run records.
type Store struct {
	db *sql.DB
}

// Open creates the store, initialising the schema if needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "open history database")
	}

	schema := `CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		steps INTEGER NOT NULL,
		failed_index INTEGER NOT NULL,
		started DATETIME NOT NULL,
		finished DATETIME NOT NULL,
		outcomes TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.Internal, "create history schema")
	}
	return &Store{db: db}, nil
}

// Save stores one run result. Outcomes are serialized as JSON; the row is
// the unit of query, not individual outcomes.
func (s *Store) Save(result engine.Result) error {
	outcomes, err := json.Marshal(result.Outcomes)
	if err != nil {
		return errors.Wrap(err, errors.Internal, "encode outcomes")
	}
	query := `INSERT INTO runs (run_id, status, steps, failed_index, started, finished, outcomes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.Exec(query, result.RunID, string(result.Status), len(result.Outcomes),
		result.FailedIndex, result.Started.UTC(), result.Finished.UTC(), string(outcomes))
	if err != nil {
		return errors.Wrap(err, errors.Internal, "insert run record")
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT run_id, status, steps, failed_index, started, finished, outcomes
		FROM runs ORDER BY started DESC LIMIT ?`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "query run history")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var outcomes string
		if err := rows.Scan(&r.RunID, &r.Status, &r.Steps, &r.FailedIndex, &r.Started, &r.Finished, &outcomes); err != nil {
			return nil, errors.Wrap(err, errors.Internal, "scan run record")
		}
		if err := json.Unmarshal([]byte(outcomes), &r.Outcomes); err != nil {
			return nil, errors.Wrap(err, errors.Internal, "decode outcomes")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Get returns one run by id.
func (s *Store) Get(runID string) (Record, error) {
	query := `SELECT run_id, status, steps, failed_index, started, finished, outcomes
		FROM runs WHERE run_id = ?`
	var r Record
	var outcomes string
	err := s.db.QueryRow(query, runID).Scan(&r.RunID, &r.Status, &r.Steps, &r.FailedIndex, &r.Started, &r.Finished, &outcomes)
	if err == sql.ErrNoRows {
		return Record{}, errors.Newf(errors.NotFound, "no run %q", runID)
	}
	if err != nil {
		return Record{}, errors.Wrap(err, errors.Internal, "query run record")
	}
	if err := json.Unmarshal([]byte(outcomes), &r.Outcomes); err != nil {
		return Record{}, errors.Wrap(err, errors.Internal, "decode outcomes")
	}
	return r, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
