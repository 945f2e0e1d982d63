// settings
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
// Package experiment reads an experiment file and carries it through
// composition, submission, waiting and analysis.
package experiment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hjson/hjson-go"
	"gopkg.in/yaml.v3"

	"github.com/fe-examples/malSweep/analyzer"
	"github.com/fe-examples/malSweep/campaign"
	"github.com/fe-examples/malSweep/sweep"
)

// Settings describe one experiment.
type Settings struct {
	Name       string `json:"name" yaml:"name"`
	WorkingDir string `json:"workingDir" yaml:"workingDir"`
	StartYear  int    `json:"startYear" yaml:"startYear"`
	Replicates int    `json:"replicates" yaml:"replicates"`

	// Base is a parameter file, relative to the experiment file. Params
	// are set on top of it.
	Base   string                 `json:"base" yaml:"base"`
	Params map[string]interface{} `json:"params" yaml:"params"`

	// Campaign is applied in order to the base configuration of every run.
	Campaign []Step         `json:"campaign" yaml:"campaign"`
	Sweep    []AxisSettings `json:"sweep" yaml:"sweep"`
	Pickup   *Pickup        `json:"pickup" yaml:"pickup"`

	Backend   BackendSettings    `json:"backend" yaml:"backend"`
	Analyzers []AnalyzerSettings `json:"analyzers" yaml:"analyzers"`
	Plots     []PlotSettings     `json:"plots" yaml:"plots"`

	dir string
}

// Step names a mutator and its arguments.
type Step struct {
	Mutator string                 `json:"mutator" yaml:"mutator"`
	Args    map[string]interface{} `json:"args" yaml:"args"`
}

type AxisSettings struct {
	Name    string                 `json:"name" yaml:"name"`
	Values  []interface{}          `json:"values" yaml:"values"`
	Mutator string                 `json:"mutator" yaml:"mutator"` // set_param when empty
	Param   string                 `json:"param" yaml:"param"`
	Args    map[string]interface{} `json:"args" yaml:"args"`
}

// Pickup starts every run from the serialized state of a burn-in
// experiment, one sweep value per burn-in run.
type Pickup struct {
	Experiment string `json:"experiment" yaml:"experiment"` // ID or name; a name picks the latest
	Day        int    `json:"day" yaml:"day"`
}

type BackendSettings struct {
	Kind      string   `json:"kind" yaml:"kind"` // local or slurm
	Root      string   `json:"root" yaml:"root"`
	Simulator string   `json:"simulator" yaml:"simulator"`
	Args      []string `json:"args" yaml:"args"`
	Workers   int      `json:"workers" yaml:"workers"`

	Account     string `json:"account" yaml:"account"`
	Partition   string `json:"partition" yaml:"partition"`
	Time        string `json:"time" yaml:"time"`
	MemoryGB    int    `json:"memoryGB" yaml:"memoryGB"`
	PollSeconds int    `json:"pollSeconds" yaml:"pollSeconds"`
}

func (b BackendSettings) pollInterval() time.Duration {
	return time.Duration(b.PollSeconds) * time.Second
}

type AnalyzerSettings struct {
	Kind           string   `json:"kind" yaml:"kind"`
	SweepVariables []string `json:"sweepVariables" yaml:"sweepVariables"`
	FilterExists   bool     `json:"filterExists" yaml:"filterExists"`
	RetainSeed     bool     `json:"retainSeed" yaml:"retainSeed"`

	Channels     []string `json:"channels" yaml:"channels"`
	SumChannels  []string `json:"sumChannels" yaml:"sumChannels"`
	MeanChannels []string `json:"meanChannels" yaml:"meanChannels"`
	Events       []string `json:"events" yaml:"events"`
	Description  string   `json:"description" yaml:"description"`
	EndYear      int      `json:"endYear" yaml:"endYear"`
	IP           string   `json:"ip" yaml:"ip"`
}

type PlotSettings struct {
	Table    string   `json:"table" yaml:"table"`
	X        string   `json:"x" yaml:"x"`
	Channels []string `json:"channels" yaml:"channels"`
	GroupBy  []string `json:"groupBy" yaml:"groupBy"`
}

// Load reads an experiment file. Files ending in .yaml or .yml are YAML,
// everything else is hjson (which includes plain JSON).
func Load(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open experiment file %s: %w", path, err)
	}
	var s Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		// hjson decodes into generic values; the json tags do the rest
		var raw map[string]interface{}
		if err := hjson.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hjson %s: %w", path, err)
		}
		j, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(j, &s); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}
	s.dir = filepath.Dir(path)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Validate fills defaults and checks that every named mutator and
// analyzer exists.
func (s *Settings) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("experiment has no name")
	}
	if s.WorkingDir == "" {
		s.WorkingDir = "simulation_outputs"
	}
	if s.Replicates == 0 {
		s.Replicates = 1
	}
	if s.Replicates < 0 {
		return sweep.ErrNoReplicates
	}
	if s.Backend.Kind == "" {
		s.Backend.Kind = "local"
	}
	for _, st := range s.Campaign {
		if _, err := campaign.Lookup(st.Mutator); err != nil {
			return err
		}
	}
	for _, a := range s.Sweep {
		if a.Mutator == "" {
			continue
		}
		if _, err := campaign.Lookup(a.Mutator); err != nil {
			return fmt.Errorf("axis %s: %w", a.Name, err)
		}
	}
	for _, a := range s.Analyzers {
		if _, err := a.Build(s.StartYear); err != nil {
			return err
		}
	}
	return nil
}

// resolve interprets path relative to the experiment file.
func (s *Settings) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// OutputDir is where analyzer tables and plots are written.
func (s *Settings) OutputDir() string {
	return filepath.Join(s.WorkingDir, s.Name)
}

// Build returns the analyzer the settings describe.
func (a AnalyzerSettings) Build(startYear int) (analyzer.Analyzer, error) {
	opts := analyzer.Options{
		StartYear:      startYear,
		SweepVariables: a.SweepVariables,
		FilterExists:   a.FilterExists,
		RetainSeed:     a.RetainSeed,
	}
	switch a.Kind {
	case "inset_chart":
		return &analyzer.InsetChart{Options: opts, Channels: a.Channels, SumChannels: a.SumChannels}, nil
	case "monthly_inset_chart":
		return &analyzer.MonthlyInsetChart{Options: opts, SumChannels: a.SumChannels, MeanChannels: a.MeanChannels}, nil
	case "annual_agebin":
		return &analyzer.AnnualAgebinPfPR{Options: opts, Description: a.Description}, nil
	case "monthly_u5":
		if a.EndYear <= startYear {
			return nil, fmt.Errorf("analyzer monthly_u5: endYear %d must be after startYear %d", a.EndYear, startYear)
		}
		return &analyzer.MonthlyPfPRU5{Options: opts, EndYear: a.EndYear, IP: a.IP}, nil
	case "monthly_agebin":
		if a.EndYear <= startYear {
			return nil, fmt.Errorf("analyzer monthly_agebin: endYear %d must be after startYear %d", a.EndYear, startYear)
		}
		return &analyzer.MonthlyAgebinPfPR{Options: opts, EndYear: a.EndYear, Description: a.Description}, nil
	case "monthly_treated_cases":
		return &analyzer.MonthlyTreatedCases{Options: opts, EndYear: a.EndYear, Channels: a.Channels}, nil
	case "received_campaign":
		return &analyzer.ReceivedCampaign{Options: opts, Events: a.Events}, nil
	case "individual_events":
		return &analyzer.IndividualEvents{Options: opts, Events: a.Events}, nil
	}
	return nil, fmt.Errorf("unknown analyzer %q", a.Kind)
}
