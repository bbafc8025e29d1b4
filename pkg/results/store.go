// Package results persists batch runs, per-file summaries, normalized records
// and validation failures in a SQLite database.
package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/icdnorm/pkg/pipeline"
	"github.com/bastiangx/icdnorm/pkg/record"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	started_at    INTEGER NOT NULL,
	dict_id       TEXT NOT NULL DEFAULT '',
	dict_version  TEXT NOT NULL DEFAULT '',
	experimental  INTEGER NOT NULL DEFAULT 0,
	chain_split   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS files (
	run_id      TEXT NOT NULL,
	name        TEXT NOT NULL,
	path        TEXT NOT NULL,
	total       INTEGER NOT NULL,
	correct     INTEGER NOT NULL,
	exact       INTEGER NOT NULL,
	dirty       INTEGER NOT NULL,
	elapsed_ms  INTEGER NOT NULL,
	error       TEXT,
	PRIMARY KEY (run_id, path),
	UNIQUE (run_id, name)
);
CREATE TABLE IF NOT EXISTS records (
	run_id     TEXT NOT NULL,
	file       TEXT NOT NULL,
	serial     INTEGER NOT NULL,
	number     INTEGER NOT NULL,
	correct    INTEGER NOT NULL,
	identical  INTEGER NOT NULL,
	export     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS records_run ON records (run_id, file, serial);
CREATE TABLE IF NOT EXISTS errors (
	run_id    TEXT NOT NULL,
	file      TEXT NOT NULL,
	serial    INTEGER NOT NULL,
	category  TEXT NOT NULL,
	inputs    TEXT NOT NULL,
	results   TEXT NOT NULL,
	targets   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS errors_run ON errors (run_id, file);
`

// Run describes one batch invocation.
type Run struct {
	ID           string
	StartedAt    time.Time
	DictID       string
	DictVersion  string
	Experimental bool
	ChainSplit   bool
}

// NewRunID returns a sortable id for a run started at t.
func NewRunID(t time.Time) string {
	return t.Format("20060102-150405.000")
}

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create results schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records a new run.
func (s *Store) BeginRun(r Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, dict_id, dict_version, experimental, chain_split) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.Unix(), r.DictID, r.DictVersion, r.Experimental, r.ChainSplit,
	)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", r.ID, err)
	}
	return nil
}

// SaveFile stores the summary, the records and the failures of one file in a
// single transaction. Records are keyed by the file name, so a second file
// with a name or path already stored in the run is rejected.
func (s *Store) SaveFile(runID string, res pipeline.FileResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save %s: %w", res.Name, err)
	}
	defer tx.Rollback()

	var errText *string
	if res.Err != nil {
		msg := res.Err.Error()
		errText = &msg
	}
	_, err = tx.Exec(
		`INSERT INTO files (run_id, name, path, total, correct, exact, dirty, elapsed_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Name, res.Path, res.Stats.Total, res.Stats.Correct, res.Stats.Exact, res.Stats.Dirty,
		res.Elapsed.Milliseconds(), errText,
	)
	if err != nil {
		return fmt.Errorf("save %s summary: %w", res.Name, err)
	}

	insert, err := tx.Prepare(`INSERT INTO records (run_id, file, serial, number, correct, identical, export)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save %s records: %w", res.Name, err)
	}
	defer insert.Close()

	var failures []record.ErrorRow
	for _, rec := range res.Records {
		export, err := json.Marshal(rec.ForJSON())
		if err != nil {
			return fmt.Errorf("encode record %d: %w", rec.Serial, err)
		}
		if _, err := insert.Exec(runID, res.Name, rec.Serial, rec.Number, rec.IsCorrect(), rec.IsIdentical(), string(export)); err != nil {
			return fmt.Errorf("save record %d: %w", rec.Serial, err)
		}
		failures = append(failures, rec.Errors()...)
	}
	if err := saveErrors(tx, runID, res.Name, failures); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveErrors stores validation failures of a file.
func (s *Store) SaveErrors(runID, file string, rows []record.ErrorRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save %s errors: %w", file, err)
	}
	defer tx.Rollback()
	if err := saveErrors(tx, runID, file, rows); err != nil {
		return err
	}
	return tx.Commit()
}

func saveErrors(tx *sql.Tx, runID, file string, rows []record.ErrorRow) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO errors (run_id, file, serial, category, inputs, results, targets)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save %s errors: %w", file, err)
	}
	defer stmt.Close()
	for _, row := range rows {
		inputs, _ := json.Marshal(row.Inputs)
		results, _ := json.Marshal(row.Results)
		targets, _ := json.Marshal(row.Targets)
		if _, err := stmt.Exec(runID, file, row.Serial, row.Category.String(), string(inputs), string(results), string(targets)); err != nil {
			return fmt.Errorf("save error row %d: %w", row.Serial, err)
		}
	}
	return nil
}

// Summaries returns the per-file stats of a run ordered by file name. Files
// that failed to load are left out.
func (s *Store) Summaries(runID string) ([]record.Stats, error) {
	rows, err := s.db.Query(`SELECT name, total, correct, exact, dirty FROM files
		WHERE run_id = ? AND error IS NULL ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []record.Stats
	for rows.Next() {
		var st record.Stats
		if err := rows.Scan(&st.Name, &st.Total, &st.Correct, &st.Exact, &st.Dirty); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Errors returns the stored failures of one file in serial order.
func (s *Store) Errors(runID, file string) ([]record.ErrorRow, error) {
	rows, err := s.db.Query(`SELECT serial, category, inputs, results, targets FROM errors
		WHERE run_id = ? AND file = ? ORDER BY serial, rowid`, runID, file)
	if err != nil {
		return nil, fmt.Errorf("list errors: %w", err)
	}
	defer rows.Close()

	var out []record.ErrorRow
	for rows.Next() {
		var row record.ErrorRow
		var category, inputs, results, targets string
		if err := rows.Scan(&row.Serial, &category, &inputs, &results, &targets); err != nil {
			return nil, fmt.Errorf("scan error row: %w", err)
		}
		row.Category, _ = record.ParseCategory(category)
		if err := decodeLists(&row, inputs, results, targets); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func decodeLists(row *record.ErrorRow, inputs, results, targets string) error {
	for _, f := range []struct {
		src string
		dst *[]string
	}{{inputs, &row.Inputs}, {results, &row.Results}, {targets, &row.Targets}} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return fmt.Errorf("decode error row %d: %w", row.Serial, err)
		}
	}
	return nil
}

// ExportJSON writes every record of a run as a JSON array in file and serial order.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	rows, err := s.db.Query(`SELECT export FROM records WHERE run_id = ? ORDER BY file, serial, rowid`, runID)
	if err != nil {
		return fmt.Errorf("export run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var export string
		if err := rows.Scan(&export); err != nil {
			return fmt.Errorf("scan record: %w", err)
		}
		out = append(out, json.RawMessage(export))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if out == nil {
		out = []json.RawMessage{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
