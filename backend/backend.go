// backend
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
// Package backend submits the configurations of an experiment to something
// that can run the simulator, waits for them to finish and reports where each
// run left its output.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/provenance"
	"github.com/fe-examples/malSweep/registry"
	"github.com/fe-examples/malSweep/sweep"
)

// Files written to every run directory.
const (
	ConfigFile   = "config.json"
	CampaignFile = "campaign.json"
	ReportsFile  = "custom_reports.json"
	TagsFile     = "tags.json"
	OverlayFile  = "demographics_overlay.json"
)

type Backend interface {
	Name() string
	Submit(ctx context.Context, name string, instances []sweep.Instance) (*Experiment, error)
	// WaitUntilTerminal blocks until every run has succeeded or failed.
	WaitUntilTerminal(ctx context.Context, exp *Experiment) (Result, error)
	ListRuns(ctx context.Context, exp *Experiment) ([]Run, error)
}

// Dependent is a Backend whose scheduler can hold a command until every run
// of an experiment succeeded.
type Dependent interface {
	Backend
	SubmitDependent(ctx context.Context, exp *Experiment, command string) (string, error)
}

type Experiment struct {
	ID    string
	Name  string
	Dir   string
	JobID string // scheduler job, empty for local runs
	Runs  []Run
}

// Run is the execution handle of one configuration.
type Run struct {
	ID     string
	Index  int
	Dir    string
	Tags   provenance.Tags
	Status registry.Status
}

// Result summarizes a finished experiment.
type Result struct {
	Total  int
	Failed []Run
}

// Succeeded is true when at least one run was submitted and none failed.
func (r Result) Succeeded() bool { return r.Total > 0 && len(r.Failed) == 0 }

func (r Result) FailedIDs() []string {
	ids := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ID
	}
	return ids
}

func (r Result) String() string {
	if len(r.Failed) == 0 {
		return fmt.Sprintf("%d of %d runs succeeded", r.Total, r.Total)
	}
	return fmt.Sprintf("%d of %d runs failed: %s", len(r.Failed), r.Total, strings.Join(r.FailedIDs(), ", "))
}

func resultOf(runs []Run) Result {
	res := Result{Total: len(runs)}
	for _, r := range runs {
		if r.Status != registry.Succeeded {
			res.Failed = append(res.Failed, r)
		}
	}
	return res
}

// prepare creates {root}/{expID}/{runID} for every instance and writes the
// simulator inputs and the run's tags into it.
func prepare(root, name string, instances []sweep.Instance) (*Experiment, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	exp := &Experiment{ID: registry.NewID(), Name: name}
	exp.Dir = filepath.Join(root, exp.ID)
	for _, inst := range instances {
		run := Run{
			ID:     registry.NewID(),
			Index:  inst.Index,
			Tags:   inst.Tags,
			Status: registry.Created,
		}
		run.Dir = filepath.Join(exp.Dir, run.ID)
		if err := os.MkdirAll(filepath.Join(run.Dir, "output"), 0755); err != nil {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
		if err := WriteInputs(run.Dir, inst.Config); err != nil {
			return nil, fmt.Errorf("run %d: %w", inst.Index, err)
		}
		b, err := json.MarshalIndent(inst.Tags, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(run.Dir, TagsFile), b, 0644); err != nil {
			return nil, err
		}
		exp.Runs = append(exp.Runs, run)
	}
	return exp, nil
}

// WriteInputs splits a configuration into the files the simulator reads: the
// parameters, the campaign events, the custom reports and, when one was
// built, the demographics overlay.
func WriteInputs(dir string, cfg *params.Record) error {
	cfg = cfg.Clone()

	campaign := params.New()
	events, err := listOrEmpty(cfg, "Campaign_Events")
	if err != nil {
		return err
	}
	campaign.Set("Events", events)
	campaign.Set("Use_Defaults", 1)
	cfg.Delete("Campaign_Events")

	reports := params.New()
	custom, err := listOrEmpty(cfg, "Custom_Reports")
	if err != nil {
		return err
	}
	reports.Set("Reports", custom)
	reports.Set("Use_Defaults", 1)
	cfg.Delete("Custom_Reports")

	files := map[string]*params.Record{CampaignFile: campaign, ReportsFile: reports}
	if v, ok := cfg.Get("Demographics_Overlay"); ok {
		overlay, isRecord := v.(*params.Record)
		if !isRecord {
			return &params.ContractError{Key: "Demographics_Overlay", Want: "an object", Got: v}
		}
		if !overlay.Has("Nodes") {
			overlay.Set("Nodes", []interface{}{})
		}
		files[OverlayFile] = overlay
		cfg.Delete("Demographics_Overlay")
		if err := cfg.AppendList("Demographics_Filenames", filepath.Join(dir, OverlayFile)); err != nil {
			return err
		}
	}

	cfg.Set("Campaign_Filename", CampaignFile)
	cfg.Set("Custom_Reports_Filename", ReportsFile)
	wrapped := params.New()
	wrapped.Set("parameters", cfg)
	files[ConfigFile] = wrapped

	for file, rec := range files {
		if err := rec.Save(filepath.Join(dir, file)); err != nil {
			return fmt.Errorf("failed to write %s: %w", file, err)
		}
	}
	return nil
}

func listOrEmpty(rec *params.Record, key string) ([]interface{}, error) {
	if !rec.Has(key) {
		return []interface{}{}, nil
	}
	return rec.List(key)
}

// ReadTags loads the tags written for a run.
func ReadTags(dir string) (provenance.Tags, error) {
	b, err := os.ReadFile(filepath.Join(dir, TagsFile))
	if err != nil {
		return nil, err
	}
	var tags provenance.Tags
	if err := json.Unmarshal(b, &tags); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, TagsFile), err)
	}
	return tags, nil
}

// record stores the experiment and its runs when a registry is configured.
func record(ctx context.Context, reg *registry.Registry, backendName string, exp *Experiment) error {
	if reg == nil {
		return nil
	}
	e := &registry.Experiment{ID: exp.ID, Name: exp.Name, Backend: backendName, Dir: exp.Dir, JobID: exp.JobID}
	if err := reg.CreateExperiment(ctx, e); err != nil {
		return err
	}
	runs := make([]registry.Run, len(exp.Runs))
	for i, r := range exp.Runs {
		runs[i] = registry.Run{ID: r.ID, ExperimentID: exp.ID, Index: r.Index, Dir: r.Dir, Tags: r.Tags, Status: r.Status}
	}
	return reg.AddRuns(ctx, runs)
}

// Load rebuilds an experiment handle from the registry.
func Load(ctx context.Context, reg *registry.Registry, e registry.Experiment) (*Experiment, error) {
	runs, err := reg.Runs(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	exp := &Experiment{ID: e.ID, Name: e.Name, Dir: e.Dir, JobID: e.JobID}
	for _, r := range runs {
		exp.Runs = append(exp.Runs, Run{ID: r.ID, Index: r.Index, Dir: r.Dir, Tags: r.Tags, Status: r.Status})
	}
	return exp, nil
}
