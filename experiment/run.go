// run
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
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fe-examples/malSweep/analyzer"
	"github.com/fe-examples/malSweep/artifact"
	"github.com/fe-examples/malSweep/backend"
	"github.com/fe-examples/malSweep/campaign"
	"github.com/fe-examples/malSweep/logger"
	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/plotting"
	"github.com/fe-examples/malSweep/registry"
	"github.com/fe-examples/malSweep/sweep"
)

// ErrRunsFailed is returned when an experiment finished with failed runs.
var ErrRunsFailed = errors.New("experiment: runs failed")

// PickupAxis is the sweep axis added for a burn-in pick-up.
const PickupAxis = "Serialized_Population_Path"

// Runner carries one experiment from its settings to its result tables.
type Runner struct {
	Settings *Settings
	Backend  backend.Backend
	Registry *registry.Registry // needed for pick-ups and re-analysis
	Source   artifact.Source    // filesystem when nil
	Log      *zap.Logger
}

// NewBackend builds the backend named in the settings.
func NewBackend(s *Settings, reg *registry.Registry, log *zap.Logger) (backend.Backend, error) {
	b := s.Backend
	root := b.Root
	if root == "" {
		root = filepath.Join(s.WorkingDir, "experiments")
	}
	switch b.Kind {
	case "local":
		return &backend.Local{Root: root, Simulator: b.Simulator, Args: b.Args, Workers: b.Workers, Registry: reg, Log: log}, nil
	case "slurm":
		return &backend.Slurm{
			Root: root, Simulator: b.Simulator, Args: b.Args,
			Account: b.Account, Partition: b.Partition, Time: b.Time, MemoryGB: b.MemoryGB,
			PollInterval: b.pollInterval(), Registry: reg, Log: log,
		}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", b.Kind)
}

// BaseConfig loads the base parameter file, sets Params on it and applies
// the campaign steps in order.
func (r *Runner) BaseConfig() (*params.Record, error) {
	s := r.Settings
	base := params.New()
	if s.Base != "" {
		var err error
		if base, err = params.Load(s.resolve(s.Base)); err != nil {
			return nil, err
		}
	}
	base.Update(s.Params)
	for _, st := range s.Campaign {
		m, err := campaign.Lookup(st.Mutator)
		if err != nil {
			return nil, err
		}
		tags, err := sweep.Apply(base, m, sweep.Args(st.Args))
		if err != nil {
			return nil, fmt.Errorf("campaign %s: %w", st.Mutator, err)
		}
		logger.OrNop(r.Log).Debug("applied", zap.String("mutator", st.Mutator), zap.Stringer("tags", tags))
	}
	return base, nil
}

// Axes turns the sweep settings into sweep axes. A pick-up adds a first
// axis over the output directories of the burn-in runs.
func (r *Runner) Axes(ctx context.Context) ([]sweep.Axis, error) {
	s := r.Settings
	var axes []sweep.Axis
	if s.Pickup != nil {
		a, err := r.pickupAxis(ctx)
		if err != nil {
			return nil, err
		}
		axes = append(axes, a)
	}
	for _, a := range s.Sweep {
		axis := sweep.Axis{Name: a.Name, Values: a.Values, Param: a.Param, Fixed: sweep.Args(a.Args)}
		if a.Mutator != "" {
			m, err := campaign.Lookup(a.Mutator)
			if err != nil {
				return nil, err
			}
			axis.Mutator = m
		}
		axes = append(axes, axis)
	}
	return axes, nil
}

func (r *Runner) pickupAxis(ctx context.Context) (sweep.Axis, error) {
	p := r.Settings.Pickup
	if r.Registry == nil {
		return sweep.Axis{}, errors.New("pick-up needs a registry")
	}
	burnin, err := r.Registry.Experiment(ctx, p.Experiment)
	if errors.Is(err, registry.ErrNotFound) {
		burnin, err = r.Registry.Latest(ctx, p.Experiment)
	}
	if err != nil {
		return sweep.Axis{}, fmt.Errorf("burn-in %s: %w", p.Experiment, err)
	}
	runs, err := r.Registry.Runs(ctx, burnin.ID)
	if err != nil {
		return sweep.Axis{}, err
	}
	if len(runs) == 0 {
		return sweep.Axis{}, fmt.Errorf("burn-in %s has no runs", p.Experiment)
	}
	values := make([]interface{}, len(runs))
	for i, run := range runs {
		values[i] = filepath.Join(run.Dir, "output")
	}
	return sweep.Axis{
		Name:    PickupAxis,
		Values:  values,
		Mutator: campaign.SerializedPickup,
		Param:   "path",
		Fixed:   sweep.Args{"day": p.Day},
	}, nil
}

// Compose expands the experiment into its tagged run configurations.
func (r *Runner) Compose(ctx context.Context) ([]sweep.Instance, error) {
	base, err := r.BaseConfig()
	if err != nil {
		return nil, err
	}
	axes, err := r.Axes(ctx)
	if err != nil {
		return nil, err
	}
	return sweep.Expand(base, axes, r.Settings.Replicates)
}

// Run composes, submits and waits for the experiment, then analyzes it.
// Analysis is skipped when analyze is false. Failed runs stop the
// experiment before analysis with ErrRunsFailed.
func (r *Runner) Run(ctx context.Context, analyze bool) (*backend.Experiment, []analyzer.Output, error) {
	log := logger.OrNop(r.Log)
	insts, err := r.Compose(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Composed experiment", zap.String("name", r.Settings.Name), zap.Int("runs", len(insts)))

	exp, err := r.Backend.Submit(ctx, r.Settings.Name, insts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to submit %s: %w", r.Settings.Name, err)
	}
	res, err := r.Backend.WaitUntilTerminal(ctx, exp)
	if err != nil {
		return exp, nil, err
	}
	if !res.Succeeded() {
		log.Error("Experiment failed", zap.String("experiment", exp.ID), zap.Strings("failed", res.FailedIDs()))
		return exp, nil, fmt.Errorf("%w: %s", ErrRunsFailed, res)
	}
	log.Info("Experiment succeeded", zap.String("experiment", exp.ID), zap.Int("runs", res.Total))
	if !analyze {
		return exp, nil, nil
	}
	outs, err := r.Analyze(ctx, exp)
	return exp, outs, err
}

// Queue composes and submits the experiment, then queues the analysis as a
// scheduler job that starts once every run succeeded. command builds the
// analysis command line of the submitted experiment. Queue returns without
// waiting for the runs and fails before submitting when the backend cannot
// hold jobs.
func (r *Runner) Queue(ctx context.Context, command func(exp *backend.Experiment) string) (*backend.Experiment, string, error) {
	dep, ok := r.Backend.(backend.Dependent)
	if !ok {
		return nil, "", fmt.Errorf("backend %s cannot queue dependent jobs", r.Backend.Name())
	}
	insts, err := r.Compose(ctx)
	if err != nil {
		return nil, "", err
	}
	exp, err := dep.Submit(ctx, r.Settings.Name, insts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to submit %s: %w", r.Settings.Name, err)
	}
	job, err := dep.SubmitDependent(ctx, exp, command(exp))
	if err != nil {
		return exp, "", fmt.Errorf("failed to queue analysis of %s: %w", exp.ID, err)
	}
	logger.OrNop(r.Log).Info("Queued analysis",
		zap.String("experiment", exp.ID), zap.String("after", exp.JobID), zap.String("job", job))
	return exp, job, nil
}

// Analyze runs the configured analyzers over the runs of exp and draws the
// configured plots.
func (r *Runner) Analyze(ctx context.Context, exp *backend.Experiment) ([]analyzer.Output, error) {
	s := r.Settings
	handles, err := r.Backend.ListRuns(ctx, exp)
	if err != nil {
		return nil, err
	}
	runs := make([]analyzer.Run, len(handles))
	for i, h := range handles {
		runs[i] = analyzer.Run{ID: h.ID, Dir: h.Dir, Tags: h.Tags}
	}
	analyzers := make([]analyzer.Analyzer, 0, len(s.Analyzers))
	for _, a := range s.Analyzers {
		built, err := a.Build(s.StartYear)
		if err != nil {
			return nil, err
		}
		analyzers = append(analyzers, built)
	}
	m := &analyzer.Manager{WorkingDir: s.WorkingDir, Experiment: s.Name, Source: r.Source, Log: r.Log}
	outs, err := m.Analyze(ctx, runs, analyzers...)
	if err != nil {
		return outs, err
	}
	return outs, r.Plot(outs)
}

// Plot draws every configured plot whose table was written.
func (r *Runner) Plot(outs []analyzer.Output) error {
	byTable := map[string]analyzer.Output{}
	for _, o := range outs {
		byTable[o.Table] = o
	}
	for _, p := range r.Settings.Plots {
		o, ok := byTable[p.Table]
		if !ok {
			logger.OrNop(r.Log).Warn("No table to plot", zap.String("table", p.Table))
			continue
		}
		path := filepath.Join(r.Settings.OutputDir(), p.Table+".png")
		if err := plotting.Channels(o.Result, p.X, p.Channels, p.GroupBy, p.Table, path); err != nil {
			return fmt.Errorf("plot %s: %w", p.Table, err)
		}
	}
	return nil
}
