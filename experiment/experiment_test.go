// experiment_test
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
package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fe-examples/malSweep/backend"
	"github.com/fe-examples/malSweep/provenance"
	"github.com/fe-examples/malSweep/registry"
	"github.com/fe-examples/malSweep/sweep"
	"github.com/fe-examples/malSweep/table"
)

const hjsonSettings = `
{
  # bednet coverage sweep
  name: FE_example_w4
  workingDir: out
  startYear: 2020
  replicates: 2
  params: {
    Simulation_Duration: 3
  }
  campaign: [
    { mutator: "case_management", args: { cm_cov_U5: 0.6 } }
  ]
  sweep: [
    { name: "itn_coverage", mutator: "itn", param: "coverage", values: [0, 0.5], args: { start: 1 } }
  ]
  analyzers: [
    { kind: "inset_chart", channels: ["PfHRP2 Prevalence"], sweepVariables: ["itn_coverage"] }
  ]
}
`

const yamlSettings = `
name: FE_example_w4
workingDir: out
startYear: 2020
replicates: 2
params:
  Simulation_Duration: 3
campaign:
  - mutator: case_management
    args: {cm_cov_U5: 0.6}
sweep:
  - name: itn_coverage
    mutator: itn
    param: coverage
    values: [0, 0.5]
    args: {start: 1}
analyzers:
  - kind: inset_chart
    channels: ["PfHRP2 Prevalence"]
    sweepVariables: [itn_coverage]
`

func writeSettings(t *testing.T, name, body string) *Settings {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	s, err := Load(path)
	require.NoError(t, err)
	s.WorkingDir = filepath.Join(filepath.Dir(path), s.WorkingDir)
	return s
}

func TestLoadHjsonAndYAMLAgree(t *testing.T) {
	h := writeSettings(t, "exp.hjson", hjsonSettings)
	y := writeSettings(t, "exp.yaml", yamlSettings)

	for _, s := range []*Settings{h, y} {
		assert.Equal(t, "FE_example_w4", s.Name)
		assert.Equal(t, 2, s.Replicates)
		assert.Equal(t, "local", s.Backend.Kind)
		require.Len(t, s.Sweep, 1)
		assert.Equal(t, "coverage", s.Sweep[0].Param)
		assert.Len(t, s.Sweep[0].Values, 2)
		assert.Equal(t, []string{"itn_coverage"}, s.Analyzers[0].SweepVariables)
	}
}

func TestLoadRejectsUnknownNames(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"mutator.hjson":  `{name: "x", campaign: [{mutator: "bednets"}]}`,
		"analyzer.hjson": `{name: "x", analyzers: [{kind: "vector_species"}]}`,
		"noname.hjson":   `{replicates: 2}`,
		"u5.hjson":       `{name: "x", startYear: 2020, analyzers: [{kind: "monthly_u5"}]}`,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestComposeAppliesCampaignAndSweep(t *testing.T) {
	r := &Runner{Settings: writeSettings(t, "exp.hjson", hjsonSettings)}
	insts, err := r.Compose(context.Background())
	require.NoError(t, err)
	require.Len(t, insts, 4)

	var fps []string
	for _, inst := range insts {
		fps = append(fps, inst.Tags.Fingerprint())
		events, err := inst.Config.List("Campaign_Events")
		require.NoError(t, err)
		// three case management events and three ITN age bands
		assert.Len(t, events, 6)
	}
	assert.Equal(t, []string{
		"itn_coverage=0;itn_start=1;Run_Number=0",
		"itn_coverage=0;itn_start=1;Run_Number=1",
		"itn_coverage=0.5;itn_start=1;Run_Number=0",
		"itn_coverage=0.5;itn_start=1;Run_Number=1",
	}, fps)
}

// stubBackend writes an InsetChart for every run instead of simulating.
// Prevalence is the run's ITN coverage plus a tenth of its seed.
type stubBackend struct {
	root string
	fail bool
	runs []backend.Run
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Submit(ctx context.Context, name string, insts []sweep.Instance) (*backend.Experiment, error) {
	exp := &backend.Experiment{ID: "exp-1", Name: name, Dir: b.root}
	for _, inst := range insts {
		dir := filepath.Join(b.root, fmt.Sprint(inst.Index))
		if err := os.MkdirAll(filepath.Join(dir, "output"), 0755); err != nil {
			return nil, err
		}
		cov, _ := inst.Tags.Get("itn_coverage")
		c, _ := cov.Float64()
		v := c + 0.1*float64(inst.Seed)
		doc := map[string]interface{}{
			"Header": map[string]interface{}{},
			"Channels": map[string]interface{}{
				"PfHRP2 Prevalence": map[string]interface{}{"Data": []float64{v, v, v}},
			},
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, "output", "InsetChart.json"), raw, 0644); err != nil {
			return nil, err
		}
		status := registry.Succeeded
		if b.fail && inst.Index == 1 {
			status = registry.Failed
		}
		b.runs = append(b.runs, backend.Run{ID: fmt.Sprint("run-", inst.Index), Index: inst.Index, Dir: dir, Tags: inst.Tags, Status: status})
	}
	exp.Runs = b.runs
	return exp, nil
}

func (b *stubBackend) WaitUntilTerminal(ctx context.Context, exp *backend.Experiment) (backend.Result, error) {
	res := backend.Result{Total: len(b.runs)}
	for _, r := range b.runs {
		if r.Status == registry.Failed {
			res.Failed = append(res.Failed, r)
		}
	}
	return res, nil
}

func (b *stubBackend) ListRuns(ctx context.Context, exp *backend.Experiment) ([]backend.Run, error) {
	return b.runs, nil
}

func TestRunAveragesReplicates(t *testing.T) {
	s := writeSettings(t, "exp.hjson", hjsonSettings)
	s.Plots = []PlotSettings{{Table: "All_Age_InsetChart", X: "Time", Channels: []string{"PfHRP2 Prevalence"}, GroupBy: []string{"itn_coverage"}}}
	r := &Runner{Settings: s, Backend: &stubBackend{root: t.TempDir()}}

	_, outs, err := r.Run(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, 4, outs[0].Runs)

	got, err := table.ReadFile(filepath.Join(s.OutputDir(), "All_Age_InsetChart.csv"), "Time", "Day", "Month", "Year", "date", "itn_coverage")
	require.NoError(t, err)
	require.Equal(t, 6, got.Len())
	assert.NotContains(t, got.Keys(), "Run_Number")
	for i := 0; i < got.Len(); i++ {
		want := 0.05
		if got.Key(i, "itn_coverage") == "0.5" {
			want = 0.55
		}
		assert.InDelta(t, want, got.Value(i, "PfHRP2 Prevalence"), 1e-12)
	}
	assert.Equal(t, []string{"0", "0", "1", "1", "2", "2"}, got.KeyColumn("Time"))
	_, err = os.Stat(filepath.Join(s.OutputDir(), "All_Age_InsetChart.png"))
	assert.NoError(t, err)
}

func TestRunStopsOnFailedRuns(t *testing.T) {
	s := writeSettings(t, "exp.hjson", hjsonSettings)
	r := &Runner{Settings: s, Backend: &stubBackend{root: t.TempDir(), fail: true}}

	exp, outs, err := r.Run(context.Background(), true)
	assert.True(t, errors.Is(err, ErrRunsFailed))
	assert.NotNil(t, exp)
	assert.Empty(t, outs)
	_, err = os.Stat(filepath.Join(s.OutputDir(), "All_Age_InsetChart.csv"))
	assert.True(t, os.IsNotExist(err))
}

// queueBackend holds queued commands instead of handing them to a scheduler.
type queueBackend struct {
	stubBackend
	queued []string
}

func (b *queueBackend) SubmitDependent(ctx context.Context, exp *backend.Experiment, command string) (string, error) {
	b.queued = append(b.queued, command)
	return "43", nil
}

func TestQueueHoldsAnalysisBehindRuns(t *testing.T) {
	s := writeSettings(t, "exp.hjson", hjsonSettings)
	b := &queueBackend{stubBackend: stubBackend{root: t.TempDir()}}
	r := &Runner{Settings: s, Backend: b}

	exp, job, err := r.Queue(context.Background(), func(exp *backend.Experiment) string {
		return "analyze run --id " + exp.ID
	})
	require.NoError(t, err)
	assert.Equal(t, "43", job)
	assert.Equal(t, []string{"analyze run --id exp-1"}, b.queued)
	assert.Len(t, exp.Runs, 4)
	_, err = os.Stat(filepath.Join(s.OutputDir(), "All_Age_InsetChart.csv"))
	assert.True(t, os.IsNotExist(err), "analysis is left to the queued job")

	plain := &stubBackend{root: t.TempDir()}
	r.Backend = plain
	_, _, err = r.Queue(context.Background(), func(*backend.Experiment) string { return "" })
	assert.Error(t, err)
	assert.Empty(t, plain.runs, "nothing is submitted without a scheduler")
}

func TestPickupSweepsBurninRuns(t *testing.T) {
	ctx := context.Background()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	defer reg.Close()

	burnin := &registry.Experiment{Name: "burnin", Backend: "slurm"}
	require.NoError(t, reg.CreateExperiment(ctx, burnin))
	require.NoError(t, reg.AddRuns(ctx, []registry.Run{
		{ID: "a", ExperimentID: burnin.ID, Index: 0, Dir: "/runs/a", Tags: provenance.Of("Run_Number", 0), Status: registry.Succeeded},
		{ID: "b", ExperimentID: burnin.ID, Index: 1, Dir: "/runs/b", Tags: provenance.Of("Run_Number", 1), Status: registry.Succeeded},
	}))

	s := &Settings{Name: "pickup", Replicates: 1, Pickup: &Pickup{Experiment: "burnin", Day: 18250}}
	require.NoError(t, s.Validate())
	r := &Runner{Settings: s, Registry: reg}
	insts, err := r.Compose(ctx)
	require.NoError(t, err)
	require.Len(t, insts, 2)

	path, err := insts[1].Config.Text("Serialized_Population_Path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/runs/b", "output"), path)
	assert.Equal(t, "Serialized_Population_Path=/runs/b/output;pickup_day=18250;Run_Number=0", insts[1].Tags.Fingerprint())

	r.Registry = nil
	_, err = r.Compose(ctx)
	assert.Error(t, err)
}

func TestNewBackend(t *testing.T) {
	s := &Settings{Name: "x", WorkingDir: "out", Backend: BackendSettings{Kind: "slurm", PollSeconds: 5}}
	b, err := NewBackend(s, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "slurm", b.Name())
	_, ok := b.(backend.Dependent)
	assert.True(t, ok, "slurm queues analysis jobs")

	s.Backend.Kind = "cloud"
	_, err = NewBackend(s, nil, nil)
	assert.Error(t, err)
}

func TestAnalyzerKinds(t *testing.T) {
	for kind, name := range map[string]string{
		"monthly_agebin":        "Agebin_PfPR_ClinicalIncidence_monthly",
		"monthly_treated_cases": "Treated_Cases_monthly",
		"monthly_u5":            "U5_PfPR_ClinicalIncidence",
		"annual_agebin":         "Agebin_PfPR_ClinicalIncidence_annual",
	} {
		a, err := AnalyzerSettings{Kind: kind, EndYear: 2024}.Build(2022)
		require.NoError(t, err, kind)
		assert.Equal(t, name, a.Name())
	}

	_, err := AnalyzerSettings{Kind: "monthly_agebin", EndYear: 2022}.Build(2022)
	assert.Error(t, err)
}
