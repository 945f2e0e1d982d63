// manager
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
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fe-examples/malSweep/artifact"
	"github.com/fe-examples/malSweep/logger"
	"github.com/fe-examples/malSweep/table"
)

// Manager runs analyzers over the runs of one experiment and writes their
// tables to {WorkingDir}/{Experiment}/{table}.csv.
type Manager struct {
	WorkingDir string
	Experiment string
	Source     artifact.Source
	Workers    int
	Log        *zap.Logger
}

// Output describes one finalized table.
type Output struct {
	Table   string
	Path    string
	Rows    int
	Runs    int
	Skipped int
	Result  *table.Table
}

// Analyze runs every analyzer in turn. An analyzer that selected no data
// logs a warning and writes nothing; it is left out of the outputs.
func (m *Manager) Analyze(ctx context.Context, runs []Run, analyzers ...Analyzer) ([]Output, error) {
	var outs []Output
	for _, a := range analyzers {
		selected, skipped, err := m.selectAll(ctx, runs, a)
		if err != nil {
			return outs, fmt.Errorf("%s: %w", a.Name(), err)
		}
		combined := Combine(selected)
		if combined == nil {
			logger.OrNop(m.Log).Warn("No data have been returned", zap.String("analyzer", a.Name()), zap.Int("skipped", skipped))
			continue
		}
		out, err := m.Finalize(a, combined)
		if err != nil {
			return outs, fmt.Errorf("%s: %w", a.Name(), err)
		}
		out.Runs = len(selected)
		out.Skipped = skipped
		outs = append(outs, out)
	}
	return outs, nil
}

func (m *Manager) source() artifact.Source {
	if m.Source == nil {
		return artifact.Reader{}
	}
	return m.Source
}

// selectAll runs Select for every run concurrently. Results keep run order;
// skipped runs are dropped.
func (m *Manager) selectAll(ctx context.Context, runs []Run, a Analyzer) ([]*table.Table, int, error) {
	results := make([]*table.Table, len(runs))
	workers := m.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range runs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := m.Select(a, runs[i])
			if err != nil {
				return err
			}
			results[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var selected []*table.Table
	skipped := 0
	for _, t := range results {
		if t == nil {
			skipped++
			continue
		}
		selected = append(selected, t)
	}
	return selected, skipped, nil
}

// Select reads the artifacts of run and returns its tagged table. It returns
// nil without error when an artifact is missing and the analyzer filters on
// existence.
func (m *Manager) Select(a Analyzer, run Run) (*table.Table, error) {
	opts := a.Config()
	src := m.source()
	arts := make(map[string]*artifact.Artifact, len(a.Artifacts()))
	for _, name := range a.Artifacts() {
		if opts.FilterExists && !src.Exists(run.Dir, name) {
			logger.OrNop(m.Log).Debug("skipping run", zap.String("run", run.ID), zap.String("missing", name))
			return nil, nil
		}
		art, err := src.Read(run.Dir, name)
		if err != nil {
			if opts.FilterExists && errors.Is(err, artifact.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		arts[name] = art
	}

	t, err := a.Select(arts)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", run.ID, err)
	}
	if err := attachTags(t, run, opts.SweepVariables, opts.RetainSeed); err != nil {
		return nil, err
	}
	return t, nil
}

// attachTags keys t by the listed sweep variables of run, or by all its tags
// when none are listed. The seed is left off unless retained, so replicates
// fall into one group.
func attachTags(t *table.Table, run Run, vars []string, retainSeed bool) error {
	tags := run.Tags
	if !retainSeed {
		tags = tags.Without(SeedTag)
	}
	if len(vars) == 0 {
		for _, tag := range tags {
			t.SetKey(tag.Key, tag.Value.String())
		}
		return nil
	}
	for _, k := range vars {
		if !run.Tags.Has(k) {
			return fmt.Errorf("run %s has no tag %s", run.ID, k)
		}
		if v, ok := tags.Get(k); ok {
			t.SetKey(k, v.String())
		}
	}
	return nil
}

// Combine stacks the per-run tables with a union of their columns. It
// returns nil when there is nothing to combine.
func Combine(selected []*table.Table) *table.Table {
	if len(selected) == 0 {
		return nil
	}
	return table.Concat(selected...)
}

// Finalize groups the combined table by the analyzer keys and every tag
// column, reduces the channels and writes the table.
func (m *Manager) Finalize(a Analyzer, combined *table.Table) (Output, error) {
	by := a.GroupKeys()
	inBy := map[string]bool{}
	for _, k := range by {
		inBy[k] = true
	}
	for _, k := range combined.Keys() {
		if inBy[k] {
			continue
		}
		by = append(by, k)
		inBy[k] = true
	}

	result, err := combined.GroupBy(by, a.Reducers(), table.Mean)
	if err != nil {
		return Output{}, err
	}

	dir := filepath.Join(m.WorkingDir, m.Experiment)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Output{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, a.Name()+".csv")
	if err := result.WriteFile(path); err != nil {
		return Output{}, err
	}
	logger.OrNop(m.Log).Info("wrote table", zap.String("table", a.Name()), zap.String("path", path), zap.Int("rows", result.Len()))
	return Output{Table: a.Name(), Path: path, Rows: result.Len(), Result: result}, nil
}
