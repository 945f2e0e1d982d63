// local
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
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/zap"

	"github.com/fe-examples/malSweep/logger"
	"github.com/fe-examples/malSweep/registry"
	"github.com/fe-examples/malSweep/sweep"
)

// Local runs the simulator as child processes of this one, at most Workers
// at a time.
type Local struct {
	Root      string
	Simulator string
	Args      []string // default: -C config.json
	Workers   int      // default: runtime.NumCPU()
	Registry  *registry.Registry
	Log       *zap.Logger

	mu   sync.Mutex
	jobs map[string]*localJob
}

type localJob struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status map[string]registry.Status
}

func (l *Local) Name() string { return "local" }

func (l *Local) args() []string {
	if len(l.Args) == 0 {
		return []string{"-C", ConfigFile}
	}
	return l.Args
}

// Submit prepares the run directories and starts the simulations. It
// returns without waiting for them.
func (l *Local) Submit(ctx context.Context, name string, instances []sweep.Instance) (*Experiment, error) {
	if l.Simulator == "" {
		return nil, errors.New("local backend: no simulator configured")
	}
	exp, err := prepare(l.Root, name, instances)
	if err != nil {
		return nil, err
	}
	if err := record(ctx, l.Registry, l.Name(), exp); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	job := &localJob{cancel: cancel, done: make(chan struct{}), status: map[string]registry.Status{}}
	for _, r := range exp.Runs {
		job.status[r.ID] = registry.Created
	}
	l.mu.Lock()
	if l.jobs == nil {
		l.jobs = map[string]*localJob{}
	}
	l.jobs[exp.ID] = job
	l.mu.Unlock()

	logger.OrNop(l.Log).Info("Submitted experiment",
		zap.String("experiment", exp.ID), zap.String("name", name), zap.Int("runs", len(exp.Runs)))
	go l.launch(runCtx, job, exp.Runs)
	return exp, nil
}

func (l *Local) launch(ctx context.Context, job *localJob, runs []Run) {
	defer close(job.done)

	workers := l.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	start := time.Now()
	swg := sizedwaitgroup.New(workers)
	for _, r := range runs {
		swg.Add()
		go func(r Run) {
			defer swg.Done()
			l.setStatus(job, r.ID, registry.Running)
			s := registry.Succeeded
			if err := l.runOne(ctx, r); err != nil {
				logger.OrNop(l.Log).Warn("Simulation failed", zap.String("run", r.ID), zap.Int("index", r.Index), zap.Error(err))
				s = registry.Failed
			}
			l.setStatus(job, r.ID, s)
		}(r)
	}
	swg.Wait()
	logger.OrNop(l.Log).Info("Simulations finished",
		zap.Int("runs", len(runs)), zap.Duration("elapsed", time.Since(start)), zap.Int("workers", workers))
}

func (l *Local) runOne(ctx context.Context, r Run) error {
	stdout, err := os.Create(filepath.Join(r.Dir, "stdout.txt"))
	if err != nil {
		return err
	}
	defer stdout.Close()
	stderr, err := os.Create(filepath.Join(r.Dir, "stderr.txt"))
	if err != nil {
		return err
	}
	defer stderr.Close()

	cmd := exec.CommandContext(ctx, l.Simulator, l.args()...)
	cmd.Dir = r.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", l.Simulator, err)
	}
	return nil
}

func (l *Local) setStatus(job *localJob, id string, s registry.Status) {
	job.mu.Lock()
	job.status[id] = s
	job.mu.Unlock()
	if l.Registry != nil {
		if err := l.Registry.SetStatus(context.Background(), id, s); err != nil {
			logger.OrNop(l.Log).Warn("Failed to record run status", zap.String("run", id), zap.Error(err))
		}
	}
}

func (l *Local) job(id string) *localJob {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jobs[id]
}

// WaitUntilTerminal waits for the experiment's processes. Cancelling ctx
// kills the remaining simulations and returns ctx.Err().
func (l *Local) WaitUntilTerminal(ctx context.Context, exp *Experiment) (Result, error) {
	job := l.job(exp.ID)
	if job == nil {
		// submitted by another process: the registry is all there is
		runs, err := l.ListRuns(ctx, exp)
		if err != nil {
			return Result{}, err
		}
		return resultOf(runs), nil
	}
	select {
	case <-job.done:
	case <-ctx.Done():
		job.cancel()
		<-job.done
		return Result{}, ctx.Err()
	}
	job.cancel()

	runs, err := l.ListRuns(ctx, exp)
	if err != nil {
		return Result{}, err
	}
	return resultOf(runs), nil
}

func (l *Local) ListRuns(ctx context.Context, exp *Experiment) ([]Run, error) {
	job := l.job(exp.ID)
	if job == nil {
		if l.Registry == nil {
			return exp.Runs, nil
		}
		loaded, err := Load(ctx, l.Registry, registry.Experiment{ID: exp.ID, Name: exp.Name, Dir: exp.Dir})
		if err != nil {
			return nil, err
		}
		return loaded.Runs, nil
	}
	runs := make([]Run, len(exp.Runs))
	job.mu.Lock()
	for i, r := range exp.Runs {
		r.Status = job.status[r.ID]
		runs[i] = r
	}
	job.mu.Unlock()
	return runs, nil
}
