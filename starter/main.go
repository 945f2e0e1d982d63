// starter project main.go
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
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fe-examples/malSweep/analyzer"
	"github.com/fe-examples/malSweep/backend"
	"github.com/fe-examples/malSweep/experiment"
	"github.com/fe-examples/malSweep/logger"
	"github.com/fe-examples/malSweep/registry"
)

var version string = "0.3.0"

var (
	experimentFile string
	outputMode     string
	registryPath   string
	skipAnalysis   bool
	onCluster      bool
	analyzeBin     string

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "starter",
	Short:         "Compose, run and analyze a simulation sweep",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an experiment end to end",
	Long: `Expands the experiment file into one configuration per sweep value and
replicate, submits them to the configured backend, waits for every run and
writes the analyzer tables to {workingDir}/{name}/.`,
	RunE: runExperiment,
}

func init() {
	runCmd.Flags().StringVarP(&experimentFile, "experiment", "e", "", "experiment file, hjson or yaml (required)")
	runCmd.Flags().StringVar(&outputMode, "output-mode", logger.Verbose, "'verbose' or 'quiet'")
	runCmd.Flags().StringVar(&registryPath, "registry", "", "experiment registry (default {workingDir}/registry.db)")
	runCmd.Flags().BoolVar(&skipAnalysis, "skip-analysis", false, "stop once the simulations finished")
	runCmd.Flags().BoolVar(&onCluster, "analyze-on-cluster", false, "queue the analysis as a job after the simulations instead of waiting (slurm)")
	runCmd.Flags().StringVar(&analyzeBin, "analyze-bin", "analyze", "analyze command run by the queued job")
	_ = runCmd.MarkFlagRequired("experiment")
	rootCmd.AddCommand(runCmd)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	settings, err := experiment.Load(experimentFile)
	if err != nil {
		return err
	}
	log, err = logger.New(logger.Options{Mode: outputMode, Dir: settings.OutputDir(), Name: "starter." + settings.Name})
	if err != nil {
		return err
	}
	defer log.Sync()

	if registryPath == "" {
		registryPath = filepath.Join(settings.WorkingDir, "registry.db")
	}
	if err := os.MkdirAll(filepath.Dir(registryPath), 0755); err != nil {
		return err
	}
	reg, err := registry.Open(registryPath)
	if err != nil {
		return err
	}
	defer reg.Close()

	b, err := experiment.NewBackend(settings, reg, log)
	if err != nil {
		return err
	}
	runner := &experiment.Runner{Settings: settings, Backend: b, Registry: reg, Log: log}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if onCluster && !skipAnalysis {
		exp, job, err := runner.Queue(ctx, func(exp *backend.Experiment) string {
			return analyzeCommand(exp.ID)
		})
		if err != nil {
			return err
		}
		if outputMode == logger.Verbose {
			fmt.Printf("\n\tExperiment %s: simulations in job %s, analysis in job %s\n\n", exp.ID, exp.JobID, job)
		}
		return nil
	}

	exp, outs, err := runner.Run(ctx, !skipAnalysis)
	if err != nil {
		return err
	}
	if outputMode == logger.Verbose {
		publish(exp.ID, outs)
	}
	return nil
}

// analyzeCommand is the command line of the queued analysis job
func analyzeCommand(id string) string {
	abs := func(p string) string {
		if a, err := filepath.Abs(p); err == nil {
			return a
		}
		return p
	}
	args := []string{analyzeBin, "run",
		"--experiment", abs(experimentFile),
		"--registry", abs(registryPath),
		"--id", id,
		"--output-mode", logger.Quiet,
	}
	for i, a := range args {
		args[i] = backend.ShellQuote(a)
	}
	return strings.Join(args, " ")
}

// publish writes a table of the analyzer outputs to the screen
func publish(id string, outs []analyzer.Output) {
	fmt.Printf("\n\tExperiment %s\n\n", id)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tTable\tRows\tRuns\tSkipped\tFile")
	for _, o := range outs {
		fmt.Fprintf(w, "\t%s\t%d\t%d\t%d\t%s\n", o.Table, o.Rows, o.Runs, o.Skipped, o.Path)
	}
	w.Flush()
	fmt.Println()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Fatal(log, outputMode, "starter failed", err)
	}
}
