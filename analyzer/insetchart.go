// insetchart
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
package analyzer

import (
	"strconv"

	"github.com/fe-examples/malSweep/artifact"
	"github.com/fe-examples/malSweep/table"
)

// Default channels of the InsetChart analyzers.
var (
	DefaultInsetChannels = []string{"Statistical Population", "New Clinical Cases", "Adult Vectors", "Infected"}
	MonthlySumChannels   = []string{"New Clinical Cases", "New Severe Cases"}
	MonthlyMeanChannels  = []string{"Statistical Population", "PfHRP2 Prevalence"}
)

// InsetChart writes the daily values of selected InsetChart channels.
// Channels absent from a run are left out of its table and read as 0 after
// Combine.
type InsetChart struct {
	Options
	Channels []string
	// SumChannels are reduced with Sum in Finalize, the rest with Mean.
	SumChannels []string
}

func (a *InsetChart) Name() string { return "All_Age_InsetChart" }

func (a *InsetChart) Artifacts() []string { return []string{artifact.InsetChart} }

func (a *InsetChart) GroupKeys() []string { return []string{"Time", "Day", "Month", "Year", "date"} }

func (a *InsetChart) Reducers() map[string]table.Reducer { return sumReducers(a.SumChannels) }

func (a *InsetChart) channels() []string {
	if len(a.Channels) == 0 {
		return DefaultInsetChannels
	}
	return a.Channels
}

func (a *InsetChart) Select(arts map[string]*artifact.Artifact) (*table.Table, error) {
	r, err := arts[artifact.InsetChart].ChannelReport()
	if err != nil {
		return nil, err
	}
	var present []string
	for _, c := range a.channels() {
		if _, ok := r.Channels[c]; ok {
			present = append(present, c)
		}
	}
	t := table.New(a.GroupKeys(), present)
	n := r.Len()
	vals := make([]float64, len(present))
	for day := 0; day < n; day++ {
		doy, month, year := DayFields(day, a.StartYear)
		for j, c := range present {
			vals[j] = at(r.Channels[c], day)
		}
		keys := []string{itoa(day), itoa(doy), itoa(month), itoa(year), Date(year, month)}
		if err := t.Append(keys, vals); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MonthlyInsetChart aggregates InsetChart channels per calendar month of
// each run: counts are summed and levels averaged. Count channels missing
// from a run are 0.
type MonthlyInsetChart struct {
	Options
	SumChannels  []string
	MeanChannels []string
}

func (a *MonthlyInsetChart) Name() string { return "All_Age_Monthly_Cases" }

func (a *MonthlyInsetChart) Artifacts() []string { return []string{artifact.InsetChart} }

func (a *MonthlyInsetChart) GroupKeys() []string { return []string{"date", "Year", "Month"} }

func (a *MonthlyInsetChart) sums() []string {
	if len(a.SumChannels) == 0 {
		return MonthlySumChannels
	}
	return a.SumChannels
}

func (a *MonthlyInsetChart) means() []string {
	if len(a.MeanChannels) == 0 {
		return MonthlyMeanChannels
	}
	return a.MeanChannels
}

func (a *MonthlyInsetChart) Reducers() map[string]table.Reducer { return sumReducers(a.sums()) }

func (a *MonthlyInsetChart) Select(arts map[string]*artifact.Artifact) (*table.Table, error) {
	r, err := arts[artifact.InsetChart].ChannelReport()
	if err != nil {
		return nil, err
	}
	daily, err := dailyTable(r, a.StartYear, append(append([]string{}, a.means()...), a.sums()...))
	if err != nil {
		return nil, err
	}
	for _, c := range a.sums() {
		daily.EnsureChannel(c)
	}
	return daily.GroupBy(a.GroupKeys(), a.Reducers(), table.Mean)
}

// dailyTable keys the channels of a report by date, Year and Month. Absent
// channels are skipped.
func dailyTable(r *artifact.ChannelReport, startYear int, channels []string) (*table.Table, error) {
	var present []string
	for _, c := range channels {
		if _, ok := r.Channels[c]; ok {
			present = append(present, c)
		}
	}
	t := table.New([]string{"date", "Year", "Month"}, present)
	vals := make([]float64, len(present))
	for day := 0; day < r.Len(); day++ {
		_, month, year := DayFields(day, startYear)
		for j, c := range present {
			vals[j] = at(r.Channels[c], day)
		}
		if err := t.Append([]string{Date(year, month), itoa(year), itoa(month)}, vals); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func sumReducers(channels []string) map[string]table.Reducer {
	m := make(map[string]table.Reducer, len(channels))
	for _, c := range channels {
		m[c] = table.Sum
	}
	return m
}

func at(x []float64, i int) float64 {
	if i < len(x) {
		return x[i]
	}
	return 0
}

func itoa(i int) string { return strconv.Itoa(i) }
