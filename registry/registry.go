// registry
/*
Copyright 2021 Bruce Golden and Matt Spangler

Permission is hereby granted, free of charge, to any person obtaining a copy of
this software and associated documentation files (the "Software"), to deal in
the Software without restriction, including without limitation the rights to
use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
of the Software, and to permit persons to whom the Software is furnished to do
so, subject to the following conditions:
The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/
// Package registry persists experiments and their runs in SQLite so that an
// experiment can be found again by ID or by name after it was submitted.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fe-examples/malSweep/provenance"
)

var ErrNotFound = errors.New("registry: not found")

// Status of a run.
type Status string

const (
	Created   Status = "Created"
	Running   Status = "Running"
	Succeeded Status = "Succeeded"
	Failed    Status = "Failed"
)

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool { return s == Succeeded || s == Failed }

type Experiment struct {
	ID      string
	Name    string
	Backend string
	Dir     string
	JobID   string
	Created time.Time
}

type Run struct {
	ID           string
	ExperimentID string
	Index        int
	Dir          string
	Tags         provenance.Tags
	Status       Status
}

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	backend TEXT NOT NULL,
	dir     TEXT NOT NULL,
	job_id  TEXT NOT NULL DEFAULT '',
	created INTEGER NOT NULL -- unix nanoseconds
);
CREATE INDEX IF NOT EXISTS experiments_name ON experiments (name, created);
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	experiment TEXT NOT NULL REFERENCES experiments (id),
	idx        INTEGER NOT NULL,
	dir        TEXT NOT NULL,
	tags       TEXT NOT NULL,
	status     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_experiment ON runs (experiment, idx);
`

type Registry struct {
	db *sql.DB
}

// Open opens or creates the registry database at path.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure registry: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

func (r *Registry) Close() error { return r.db.Close() }

// NewID returns a fresh experiment or run identifier.
func NewID() string { return uuid.NewString() }

// CreateExperiment stores e, assigning an ID and creation time when unset.
func (r *Registry) CreateExperiment(ctx context.Context, e *Experiment) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.Created.IsZero() {
		e.Created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO experiments (id, name, backend, dir, job_id, created) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Backend, e.Dir, e.JobID, e.Created.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store experiment %s: %w", e.Name, err)
	}
	return nil
}

func (r *Registry) SetJobID(ctx context.Context, experimentID, jobID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE experiments SET job_id = ? WHERE id = ?`, jobID, experimentID)
	return err
}

// AddRuns stores runs in one transaction.
func (r *Registry) AddRuns(ctx context.Context, runs []Run) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO runs (id, experiment, idx, dir, tags, status) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, run := range runs {
		tags, err := json.Marshal(run.Tags)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, run.ID, run.ExperimentID, run.Index, run.Dir, string(tags), string(run.Status)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to store run %s: %w", run.ID, err)
		}
	}
	return tx.Commit()
}

func (r *Registry) SetStatus(ctx context.Context, runID string, s Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE id = ?`, string(s), runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return nil
}

func (r *Registry) Experiment(ctx context.Context, id string) (Experiment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, backend, dir, job_id, created FROM experiments WHERE id = ?`, id)
	return scanExperiment(row, id)
}

// Latest returns the most recently created experiment called name.
func (r *Registry) Latest(ctx context.Context, name string) (Experiment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, backend, dir, job_id, created FROM experiments WHERE name = ? ORDER BY created DESC, rowid DESC LIMIT 1`, name)
	return scanExperiment(row, name)
}

func scanExperiment(row *sql.Row, what string) (Experiment, error) {
	var e Experiment
	var created int64
	if err := row.Scan(&e.ID, &e.Name, &e.Backend, &e.Dir, &e.JobID, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Experiment{}, fmt.Errorf("%w: experiment %s", ErrNotFound, what)
		}
		return Experiment{}, err
	}
	e.Created = time.Unix(0, created).UTC()
	return e, nil
}

// Runs returns the runs of an experiment in sweep order.
func (r *Registry) Runs(ctx context.Context, experimentID string) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, experiment, idx, dir, tags, status FROM runs WHERE experiment = ? ORDER BY idx`, experimentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var tags, status string
		if err := rows.Scan(&run.ID, &run.ExperimentID, &run.Index, &run.Dir, &tags, &status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &run.Tags); err != nil {
			return nil, fmt.Errorf("run %s: bad tags: %w", run.ID, err)
		}
		run.Status = Status(status)
		out = append(out, run)
	}
	return out, rows.Err()
}
