// slurm
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
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fe-examples/malSweep/logger"
	"github.com/fe-examples/malSweep/registry"
	"github.com/fe-examples/malSweep/sweep"
)

// StatusFile is written into each run directory by the array job.
const StatusFile = "status"

var sbatchJob = regexp.MustCompile(`Submitted batch job (\d+)`)

// Submitter runs sbatch with args from dir and returns its standard output.
type Submitter func(ctx context.Context, dir string, args ...string) (string, error)

// Sbatch is the Submitter used when none is configured.
func Sbatch(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "sbatch", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("sbatch: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// Accounting runs sacct for a job and returns its "JobID State" lines.
type Accounting func(ctx context.Context, jobID string) (string, error)

// Sacct is the Accounting used when none is configured.
func Sacct(ctx context.Context, jobID string) (string, error) {
	cmd := exec.CommandContext(ctx, "sacct", "-j", jobID, "-n", "-X", "-o", "JobID,State")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("sacct: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// scheduler states of a task that will not run again
var endedStates = map[string]bool{
	"COMPLETED": true, "FAILED": true, "TIMEOUT": true, "CANCELLED": true,
	"OUT_OF_MEMORY": true, "NODE_FAIL": true, "PREEMPTED": true, "BOOT_FAIL": true, "DEADLINE": true,
}

// ParseAccounting returns the state of every ended task of job, keyed by
// array index. Job steps and pending index ranges are skipped.
func ParseAccounting(job, out string) map[int]string {
	ended := map[int]string{}
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if len(f) < 2 || strings.Contains(f[0], ".") {
			continue
		}
		idx := strings.TrimPrefix(f[0], job+"_")
		if idx == f[0] {
			continue
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			continue
		}
		if state := strings.TrimSuffix(f[1], "+"); endedStates[state] {
			ended[i] = state
		}
	}
	return ended
}

// Slurm submits an experiment as one SLURM array job, one task per run.
type Slurm struct {
	Root      string
	Simulator string
	Args      []string

	Account      string
	Partition    string
	Time         string // walltime, default 02:00:00
	MemoryGB     int    // default 8
	Nodes        int    // default 1
	TasksPerNode int    // default 1

	PollInterval time.Duration // default 30s
	Submitter    Submitter
	Accounting   Accounting
	Registry     *registry.Registry
	Log          *zap.Logger
}

func (s *Slurm) Name() string { return "slurm" }

func (s *Slurm) submitter() Submitter {
	if s.Submitter == nil {
		return Sbatch
	}
	return s.Submitter
}

func (s *Slurm) accounting() Accounting {
	if s.Accounting == nil {
		return Sacct
	}
	return s.Accounting
}

// Header is the #SBATCH preamble of a job script. An array job writes one
// log pair per task.
func (s *Slurm) Header(jobName, walltime string, memG int, array string) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "#SBATCH -A %s\n", s.Account)
	fmt.Fprintf(&b, "#SBATCH -p %s\n", s.Partition)
	fmt.Fprintf(&b, "#SBATCH -t %s\n", walltime)
	fmt.Fprintf(&b, "#SBATCH -N %d\n", orDefault(s.Nodes, 1))
	fmt.Fprintf(&b, "#SBATCH --ntasks-per-node=%d\n", orDefault(s.TasksPerNode, 1))
	fmt.Fprintf(&b, "#SBATCH --mem=%dG\n", memG)
	fmt.Fprintf(&b, "#SBATCH --job-name=%q\n", jobName)
	if array != "" {
		fmt.Fprintf(&b, "#SBATCH --array=%s\n", array)
		b.WriteString("#SBATCH --error=log/slurm_%A_%a.err\n")
		b.WriteString("#SBATCH --output=log/slurm_%A_%a.out\n")
	} else {
		fmt.Fprintf(&b, "#SBATCH --error=log/%s.%%j.err\n", jobName)
		fmt.Fprintf(&b, "#SBATCH --output=log/%s.%%j.out\n", jobName)
	}
	return b.String()
}

func (s *Slurm) walltime() string {
	if s.Time == "" {
		return "02:00:00"
	}
	return s.Time
}

func orDefault(v, def int) int {
	if v < 1 {
		return def
	}
	return v
}

// ArrayScript is the job script that runs task i in the i-th run directory.
func (s *Slurm) ArrayScript(exp *Experiment) string {
	var b strings.Builder
	b.WriteString(s.Header(exp.Name, s.walltime(), orDefault(s.MemoryGB, 8), fmt.Sprintf("0-%d", len(exp.Runs)-1)))
	b.WriteString("\nRUNS=(\n")
	for _, r := range exp.Runs {
		fmt.Fprintf(&b, "  %s\n", ShellQuote(r.Dir))
	}
	b.WriteString(")\n")
	b.WriteString("cd \"${RUNS[$SLURM_ARRAY_TASK_ID]}\" || exit 1\n")
	fmt.Fprintf(&b, "echo %s > %s\n", registry.Running, StatusFile)
	args := []string{ShellQuote(s.Simulator)}
	for _, a := range s.args() {
		args = append(args, ShellQuote(a))
	}
	fmt.Fprintf(&b, "if %s > stdout.txt 2> stderr.txt; then\n", strings.Join(args, " "))
	fmt.Fprintf(&b, "  echo %s > %s\n", registry.Succeeded, StatusFile)
	b.WriteString("else\n")
	fmt.Fprintf(&b, "  echo %s > %s\n  exit 1\n", registry.Failed, StatusFile)
	b.WriteString("fi\n")
	return b.String()
}

func (s *Slurm) args() []string {
	if len(s.Args) == 0 {
		return []string{"-C", ConfigFile}
	}
	return s.Args
}

// ShellQuote quotes v as one word for bash.
func ShellQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

// ParseJobID extracts the job ID from sbatch output.
func ParseJobID(out string) (string, error) {
	m := sbatchJob.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("unexpected sbatch output %q", strings.TrimSpace(out))
	}
	return m[1], nil
}

// Submit writes the run directories and the array script, then submits it.
func (s *Slurm) Submit(ctx context.Context, name string, instances []sweep.Instance) (*Experiment, error) {
	if len(instances) == 0 {
		return nil, errors.New("slurm backend: nothing to submit")
	}
	exp, err := prepare(s.Root, name, instances)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(exp.Dir, "log"), 0755); err != nil {
		return nil, err
	}
	script := filepath.Join(exp.Dir, "run_simulations.sh")
	if err := os.WriteFile(script, []byte(s.ArrayScript(exp)), 0755); err != nil {
		return nil, err
	}
	out, err := s.submitter()(ctx, exp.Dir, script)
	if err != nil {
		return nil, err
	}
	if exp.JobID, err = ParseJobID(out); err != nil {
		return nil, err
	}
	if err := record(ctx, s.Registry, s.Name(), exp); err != nil {
		return nil, err
	}
	logger.OrNop(s.Log).Info("Submitted array job",
		zap.String("experiment", exp.ID), zap.String("job", exp.JobID), zap.Int("runs", len(exp.Runs)))
	return exp, nil
}

// SubmitDependent submits command as a job that starts once the
// experiment's array job completed successfully, and returns its job ID.
func (s *Slurm) SubmitDependent(ctx context.Context, exp *Experiment, command string) (string, error) {
	if exp.JobID == "" {
		return "", errors.New("slurm backend: experiment has no job")
	}
	name := "analyze_" + exp.ID
	script := filepath.Join(exp.Dir, "run_analyzer_"+exp.ID+".sh")
	body := s.Header(name, "04:00:00", 80, "") + "\n" + command + "\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		return "", err
	}
	out, err := s.submitter()(ctx, exp.Dir, "--dependency=afterok:"+exp.JobID, script)
	if err != nil {
		return "", err
	}
	return ParseJobID(out)
}

// ListRuns reads the status file of every run. A task the scheduler
// reports as ended without a terminal status file was killed and is Failed.
func (s *Slurm) ListRuns(ctx context.Context, exp *Experiment) ([]Run, error) {
	runs := make([]Run, len(exp.Runs))
	pending := false
	for i, r := range exp.Runs {
		b, err := os.ReadFile(filepath.Join(r.Dir, StatusFile))
		switch {
		case errors.Is(err, os.ErrNotExist):
			r.Status = registry.Created
		case err != nil:
			return nil, err
		default:
			r.Status = registry.Status(strings.TrimSpace(string(b)))
		}
		pending = pending || !r.Status.Terminal()
		runs[i] = r
	}
	if !pending || exp.JobID == "" {
		return runs, nil
	}

	out, err := s.accounting()(ctx, exp.JobID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.OrNop(s.Log).Warn("Failed to query scheduler", zap.String("job", exp.JobID), zap.Error(err))
		return runs, nil
	}
	for i, state := range ParseAccounting(exp.JobID, out) {
		if i < len(runs) && !runs[i].Status.Terminal() {
			logger.OrNop(s.Log).Warn("Task ended without status",
				zap.String("run", runs[i].ID), zap.Int("task", i), zap.String("state", state))
			runs[i].Status = registry.Failed
		}
	}
	return runs, nil
}

// WaitUntilTerminal polls the status files until every run is terminal.
func (s *Slurm) WaitUntilTerminal(ctx context.Context, exp *Experiment) (Result, error) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seen := map[string]registry.Status{}
	for {
		runs, err := s.ListRuns(ctx, exp)
		if err != nil {
			return Result{}, err
		}
		done := 0
		for _, r := range runs {
			if seen[r.ID] != r.Status {
				seen[r.ID] = r.Status
				if s.Registry != nil {
					if err := s.Registry.SetStatus(ctx, r.ID, r.Status); err != nil {
						logger.OrNop(s.Log).Warn("Failed to record run status", zap.String("run", r.ID), zap.Error(err))
					}
				}
			}
			if r.Status.Terminal() {
				done++
			}
		}
		if done == len(runs) {
			return resultOf(runs), nil
		}
		logger.OrNop(s.Log).Debug("Waiting for runs", zap.String("job", exp.JobID), zap.Int("done", done), zap.Int("runs", len(runs)))

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
