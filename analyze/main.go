// analyze project main.go
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
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fe-examples/malSweep/analyzer"
	"github.com/fe-examples/malSweep/backend"
	"github.com/fe-examples/malSweep/experiment"
	"github.com/fe-examples/malSweep/logger"
	"github.com/fe-examples/malSweep/registry"
	"github.com/fe-examples/malSweep/scoring"
	"github.com/fe-examples/malSweep/table"
)

var (
	experimentFile string
	outputMode     string
	registryPath   string
	experimentID   string
	plot           bool

	simTable  string
	observed  string
	variables []string
	extraKeys []string

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "analyze",
	Short:         "Analyze, plot and score a finished experiment",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logger.New(logger.Options{Mode: outputMode, Name: "analyze"})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the experiment's analyzers over a finished experiment",
	RunE:  analyzeExperiment,
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score sweep values against survey prevalence",
	Long: `Reads the monthly under-five prevalence table of an experiment, written with
retainSeed so that replicates are kept apart, and a survey CSV with the
columns year, month, DHS_n and DHS_pos. Writes the mean log-likelihood of
every combination of the --variable tags to {workingDir}/{name}/scores.csv.`,
	RunE: scoreExperiment,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&experimentFile, "experiment", "e", "", "experiment file, hjson or yaml (required)")
	rootCmd.PersistentFlags().StringVar(&outputMode, "output-mode", logger.Verbose, "'verbose' or 'quiet'")
	_ = rootCmd.MarkPersistentFlagRequired("experiment")

	runCmd.Flags().StringVar(&registryPath, "registry", "", "experiment registry (default {workingDir}/registry.db)")
	runCmd.Flags().StringVar(&experimentID, "id", "", "experiment ID (default: latest experiment with the file's name)")
	runCmd.Flags().BoolVar(&plot, "plot", true, "draw the plots named in the experiment file")

	scoreCmd.Flags().StringVar(&simTable, "table", "U5_PfPR_ClinicalIncidence", "simulated table name")
	scoreCmd.Flags().StringVar(&observed, "observed", "", "survey CSV (required)")
	scoreCmd.Flags().StringSliceVar(&variables, "variable", nil, "sweep tags to score by (required)")
	scoreCmd.Flags().StringSliceVar(&extraKeys, "key", nil, "further non-numeric columns of the simulated table")
	_ = scoreCmd.MarkFlagRequired("observed")
	_ = scoreCmd.MarkFlagRequired("variable")

	rootCmd.AddCommand(runCmd, scoreCmd)
}

func analyzeExperiment(cmd *cobra.Command, args []string) error {
	settings, err := experiment.Load(experimentFile)
	if err != nil {
		return err
	}
	if !plot {
		settings.Plots = nil
	}
	if registryPath == "" {
		registryPath = filepath.Join(settings.WorkingDir, "registry.db")
	}
	reg, err := registry.Open(registryPath)
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx := cmd.Context()
	var found registry.Experiment
	if experimentID != "" {
		found, err = reg.Experiment(ctx, experimentID)
	} else {
		found, err = reg.Latest(ctx, settings.Name)
	}
	if err != nil {
		return err
	}
	exp, err := backend.Load(ctx, reg, found)
	if err != nil {
		return err
	}
	b, err := experiment.NewBackend(settings, reg, log)
	if err != nil {
		return err
	}
	runner := &experiment.Runner{Settings: settings, Backend: b, Registry: reg, Log: log}
	outs, err := runner.Analyze(ctx, exp)
	if err != nil {
		return err
	}
	if len(outs) == 0 {
		return errors.New("no table was written")
	}
	for _, o := range outs {
		log.Info("Analyzed", zap.String("experiment", exp.ID), zap.String("table", o.Table), zap.Int("rows", o.Rows))
	}
	return nil
}

func scoreExperiment(cmd *cobra.Command, args []string) error {
	settings, err := experiment.Load(experimentFile)
	if err != nil {
		return err
	}
	keys := append([]string{"year", "month", analyzer.SeedTag}, variables...)
	keys = append(keys, extraKeys...)
	sim, err := table.ReadFile(filepath.Join(settings.OutputDir(), simTable+".csv"), keys...)
	if err != nil {
		return err
	}
	obs, err := table.ReadFile(observed, "year", "month")
	if err != nil {
		return err
	}
	scores, err := scoring.Score(sim, obs, variables, analyzer.SeedTag)
	if err != nil {
		return err
	}
	path := filepath.Join(settings.OutputDir(), "scores.csv")
	if err := scores.WriteFile(path); err != nil {
		return err
	}
	best := scoring.Best(scores)
	if best < 0 {
		return errors.New("nothing was scored")
	}
	fields := []zap.Field{zap.String("path", path), zap.Float64("ll", scores.Value(best, scoring.LogLike))}
	for _, v := range variables {
		fields = append(fields, zap.String(v, scores.Key(best, v)))
	}
	log.Info("Best fit", fields...)
	if outputMode == logger.Verbose {
		fmt.Printf("\n\tBest fit (mean log-likelihood %.2f):", scores.Value(best, scoring.LogLike))
		for _, v := range variables {
			fmt.Printf(" %s=%s", v, scores.Key(best, v))
		}
		fmt.Println()
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Fatal(log, outputMode, "analyze failed", err)
	}
}
