// registry_test
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
package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fe-examples/malSweep/provenance"
)

func openTemp(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExperimentRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := openTemp(t)

	e := &Experiment{Name: "FE_example_w3b", Backend: "local", Dir: "/tmp/exp"}
	require.NoError(t, r.CreateExperiment(ctx, e))
	require.NotEmpty(t, e.ID)

	runs := []Run{
		{ID: NewID(), ExperimentID: e.ID, Index: 1, Dir: "/tmp/exp/b", Tags: provenance.Of("smc_coverage", 1, "Run_Number", 1), Status: Created},
		{ID: NewID(), ExperimentID: e.ID, Index: 0, Dir: "/tmp/exp/a", Tags: provenance.Of("smc_coverage", 0.5, "Run_Number", 0), Status: Created},
	}
	require.NoError(t, r.AddRuns(ctx, runs))
	require.NoError(t, r.SetStatus(ctx, runs[0].ID, Succeeded))
	require.NoError(t, r.SetJobID(ctx, e.ID, "12345"))

	got, err := r.Experiment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345", got.JobID)
	assert.True(t, got.Created.Equal(e.Created))

	back, err := r.Runs(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, 0, back[0].Index)
	assert.Equal(t, Succeeded, back[1].Status)
	assert.True(t, back[1].Tags.Equal(runs[0].Tags))
	assert.Equal(t, []string{"smc_coverage", "Run_Number"}, back[0].Tags.Keys())
}

func TestLatestByName(t *testing.T) {
	ctx := context.Background()
	r := openTemp(t)

	old := &Experiment{Name: "burnin", Backend: "slurm", Created: time.Now().Add(-time.Hour).UTC()}
	require.NoError(t, r.CreateExperiment(ctx, old))
	recent := &Experiment{Name: "burnin", Backend: "slurm"}
	require.NoError(t, r.CreateExperiment(ctx, recent))

	got, err := r.Latest(ctx, "burnin")
	require.NoError(t, err)
	assert.Equal(t, recent.ID, got.ID)

	_, err = r.Latest(ctx, "pickup")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = r.Experiment(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(r.SetStatus(ctx, "nope", Failed), ErrNotFound))
}

func TestLatestWithinOneSecond(t *testing.T) {
	ctx := context.Background()
	r := openTemp(t)

	sec := time.Date(2022, 3, 1, 12, 0, 5, 0, time.UTC)
	ids := map[time.Duration]string{}
	for _, off := range []time.Duration{500 * time.Millisecond, 0, 120 * time.Millisecond, 100 * time.Millisecond} {
		e := &Experiment{Name: "burnin", Backend: "local", Created: sec.Add(off)}
		require.NoError(t, r.CreateExperiment(ctx, e))
		ids[off] = e.ID
	}

	got, err := r.Latest(ctx, "burnin")
	require.NoError(t, err)
	assert.Equal(t, ids[500*time.Millisecond], got.ID)
	assert.True(t, got.Created.Equal(sec.Add(500*time.Millisecond)))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, Running.Terminal())
	assert.True(t, Failed.Terminal())
}
