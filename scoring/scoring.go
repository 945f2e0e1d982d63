// scoring
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
// Package scoring ranks sweep candidates by how well their simulated
// prevalence reproduces survey data.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mathext"

	"github.com/fe-examples/malSweep/table"
)

// Column names of the simulated and observed tables.
const (
	Prevalence = "PfPR U5"
	Population = "Pop U5"
	Observed   = "DHS_n"
	Positive   = "DHS_pos"
	LogLike    = "ll"
)

// BetaBinomial is the log-likelihood of observing nPos positives among nObs
// people given that a simulation of simN people produced simPos positives,
// with a uniform prior on the prevalence.
func BetaBinomial(nObs, nPos, simN, simPos float64) float64 {
	return lgamma(nObs+1) - lgamma(nPos+1) - lgamma(nObs-nPos+1) +
		mathext.Lbeta(nPos+simPos+1, nObs-nPos+simN-simPos+1) -
		mathext.Lbeta(simPos+1, simN-simPos+1)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// Score sums the log-likelihood of the observed year/month rows for every
// simulated run, then averages over the replicates of each combination of
// the by tags. Observations without a simulated month are skipped. The
// result is keyed by the by tags, sorted, with one channel "ll".
func Score(sim, observed *table.Table, by []string, seedKey string) (*table.Table, error) {
	for _, k := range []string{"year", "month"} {
		if !sim.HasKey(k) || !observed.HasKey(k) {
			return nil, fmt.Errorf("scoring: both tables need a %s key", k)
		}
	}
	for _, c := range []string{Prevalence, Population} {
		if !sim.HasChannel(c) {
			return nil, fmt.Errorf("scoring: simulated table has no %q channel", c)
		}
	}
	for _, c := range []string{Observed, Positive} {
		if !observed.HasChannel(c) {
			return nil, fmt.Errorf("scoring: observed table has no %q channel", c)
		}
	}
	for _, k := range by {
		if !sim.HasKey(k) {
			return nil, fmt.Errorf("scoring: simulated table has no %q column", k)
		}
	}
	if len(by) == 0 {
		return nil, errors.New("scoring: nothing to score by")
	}

	type obs struct{ n, pos float64 }
	data := map[string]obs{}
	for i := 0; i < observed.Len(); i++ {
		data[monthKey(observed, i)] = obs{observed.Value(i, Observed), observed.Value(i, Positive)}
	}

	runKeys := append([]string(nil), by...)
	if seedKey != "" && sim.HasKey(seedKey) {
		runKeys = append(runKeys, seedKey)
	}
	perRun := table.New(runKeys, []string{LogLike})
	index := map[string]int{}
	var ll []float64
	for i := 0; i < sim.Len(); i++ {
		kv := make([]string, len(runKeys))
		for j, k := range runKeys {
			kv[j] = sim.Key(i, k)
		}
		id := strings.Join(kv, "\x00")
		row, ok := index[id]
		if !ok {
			row = len(ll)
			index[id] = row
			ll = append(ll, 0)
			if err := perRun.Append(kv, []float64{0}); err != nil {
				return nil, err
			}
		}
		o, ok := data[monthKey(sim, i)]
		if !ok {
			continue
		}
		pop := sim.Value(i, Population)
		pos := math.Round(sim.Value(i, Prevalence) * pop)
		ll[row] += BetaBinomial(o.n, o.pos, pop, pos)
	}
	if err := perRun.SetChannel(LogLike, ll); err != nil {
		return nil, err
	}
	return perRun.GroupBy(by, nil, table.Mean)
}

// monthKey reads year and month as numbers where possible so that "03" in
// survey data matches "3" in simulated output.
func monthKey(t *table.Table, i int) string {
	return number(t.Key(i, "year")) + "-" + number(t.Key(i, "month"))
}

func number(s string) string {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return s
}

// Best is the row of scores with the highest log-likelihood, -1 when empty.
func Best(scores *table.Table) int {
	best := -1
	for i := 0; i < scores.Len(); i++ {
		if best < 0 || scores.Value(i, LogLike) > scores.Value(best, LogLike) {
			best = i
		}
	}
	return best
}
