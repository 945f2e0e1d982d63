// analyzer
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
// Package analyzer turns the output artifacts of many simulation runs into
// tidy tables. Every analyzer runs three stages in order: Select reads one
// run's artifacts into a table tagged with the run's provenance, Combine
// stacks the per-run tables, and Finalize groups, reduces and writes the
// result as CSV.
package analyzer

import (
	"github.com/fe-examples/malSweep/artifact"
	"github.com/fe-examples/malSweep/provenance"
	"github.com/fe-examples/malSweep/sweep"
	"github.com/fe-examples/malSweep/table"
)

// SeedTag is the provenance tag identifying the replicate of a run.
const SeedTag = sweep.SeedKey

// Run is one finished simulation as seen by the analyzers.
type Run struct {
	ID   string
	Dir  string
	Tags provenance.Tags
}

// Options are shared by all analyzers.
type Options struct {
	StartYear int

	// SweepVariables are the tags attached to every row. When empty all of
	// the run's tags are attached.
	SweepVariables []string

	// FilterExists skips runs whose artifacts are missing instead of failing.
	FilterExists bool

	// RetainSeed keeps the seed tag as a grouping key in Finalize.
	RetainSeed bool
}

func (o Options) Config() Options { return o }

type Analyzer interface {
	// Name is the output table name.
	Name() string
	Artifacts() []string
	// Select builds the table of one run from its artifacts, keyed by
	// artifact name. Provenance columns are added by the Manager.
	Select(arts map[string]*artifact.Artifact) (*table.Table, error)
	// GroupKeys are the time and analyzer keys Finalize groups by, ahead of
	// the provenance tags.
	GroupKeys() []string
	// Reducers maps channels to their reducer; unlisted channels use Mean.
	Reducers() map[string]table.Reducer
	Config() Options
}
