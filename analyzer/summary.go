// summary
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
	"fmt"
	"strconv"

	"github.com/fe-examples/malSweep/artifact"
	"github.com/fe-examples/malSweep/table"
)

// summaryChannels pairs summary report channels with output columns.
var summaryChannels = []struct {
	report, column string
}{
	{artifact.PfPRByAgeBin, "PfPR"},
	{artifact.ClinicalByAgeBin, "Cases"},
	{artifact.SevereByAgeBin, "Severe cases"},
	{artifact.PopulationByAgeBin, "Pop"},
}

// AnnualAgebinPfPR reads an annual summary report with several age bins and
// writes prevalence, incidence and population per year and age bin.
type AnnualAgebinPfPR struct {
	Options
	// Description of the summary report, Annual_Agebin by default.
	Description string
}

func (a *AnnualAgebinPfPR) Name() string { return "Agebin_PfPR_ClinicalIncidence_annual" }

func (a *AnnualAgebinPfPR) report() string {
	if a.Description == "" {
		return artifact.SummaryReportName("Annual_Agebin")
	}
	return artifact.SummaryReportName(a.Description)
}

func (a *AnnualAgebinPfPR) Artifacts() []string { return []string{a.report()} }

func (a *AnnualAgebinPfPR) GroupKeys() []string { return []string{"year", "agebin"} }

func (a *AnnualAgebinPfPR) Reducers() map[string]table.Reducer { return nil }

func (a *AnnualAgebinPfPR) Select(arts map[string]*artifact.Artifact) (*table.Table, error) {
	s, err := arts[a.report()].SummaryReport()
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(summaryChannels))
	for i, c := range summaryChannels {
		cols[i] = c.column
	}
	t := table.New(a.GroupKeys(), cols)
	for bin, age := range s.AgeBins {
		series := make([][]float64, len(summaryChannels))
		for i, c := range summaryChannels {
			if series[i], err = s.Column(c.report, bin); err != nil {
				return nil, err
			}
		}
		for period := range series[0] {
			vals := make([]float64, len(series))
			for i := range series {
				vals[i] = at(series[i], period)
			}
			keys := []string{itoa(a.StartYear + period), strconv.FormatFloat(age, 'f', -1, 64)}
			if err := t.Append(keys, vals); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// U5Bin is the age bin index of children under five in the monthly reports,
// whose bins are [0.25, 5, 120].
const U5Bin = 1

// MonthlyPfPRU5 reads one monthly summary report per year and writes the
// under-five prevalence, incidence and population of its first twelve
// reporting periods. IP selects the reports filtered on an individual
// property, for example "_accesslow".
type MonthlyPfPRU5 struct {
	Options
	EndYear int // exclusive
	IP      string
}

func (a *MonthlyPfPRU5) Name() string { return fmt.Sprintf("U5%s_PfPR_ClinicalIncidence", a.IP) }

func (a *MonthlyPfPRU5) reportFor(year int) string {
	return artifact.SummaryReportName(fmt.Sprintf("Monthly_U5%s_%d", a.IP, year))
}

func (a *MonthlyPfPRU5) Artifacts() []string {
	var names []string
	for y := a.StartYear; y < a.EndYear; y++ {
		names = append(names, a.reportFor(y))
	}
	return names
}

func (a *MonthlyPfPRU5) GroupKeys() []string { return []string{"year", "month"} }

func (a *MonthlyPfPRU5) Reducers() map[string]table.Reducer { return nil }

func (a *MonthlyPfPRU5) Select(arts map[string]*artifact.Artifact) (*table.Table, error) {
	cols := make([]string, len(summaryChannels))
	for i, c := range summaryChannels {
		cols[i] = c.column + " U5"
	}
	t := table.New(a.GroupKeys(), cols)
	for y := a.StartYear; y < a.EndYear; y++ {
		s, err := arts[a.reportFor(y)].SummaryReport()
		if err != nil {
			return nil, err
		}
		series := make([][]float64, len(summaryChannels))
		for i, c := range summaryChannels {
			if series[i], err = s.Column(c.report, U5Bin); err != nil {
				return nil, err
			}
		}
		for month := 1; month <= 12; month++ {
			if month > len(series[0]) {
				break
			}
			vals := make([]float64, len(series))
			for i := range series {
				vals[i] = at(series[i], month-1)
			}
			if err := t.Append([]string{itoa(y), itoa(month)}, vals); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// MonthlyAgebinPfPR reads one monthly summary report with several age bins
// per year and writes prevalence, incidence and population per month and age
// bin for the first twelve reporting periods of each year.
type MonthlyAgebinPfPR struct {
	Options
	EndYear int // exclusive
	// Description prefix of the yearly reports, Monthly_Agebin by default.
	Description string
}

func (a *MonthlyAgebinPfPR) Name() string { return "Agebin_PfPR_ClinicalIncidence_monthly" }

func (a *MonthlyAgebinPfPR) reportFor(year int) string {
	d := a.Description
	if d == "" {
		d = "Monthly_Agebin"
	}
	return artifact.SummaryReportName(fmt.Sprintf("%s_%d", d, year))
}

func (a *MonthlyAgebinPfPR) Artifacts() []string {
	var names []string
	for y := a.StartYear; y < a.EndYear; y++ {
		names = append(names, a.reportFor(y))
	}
	return names
}

func (a *MonthlyAgebinPfPR) GroupKeys() []string { return []string{"year", "month", "agebin"} }

func (a *MonthlyAgebinPfPR) Reducers() map[string]table.Reducer { return nil }

func (a *MonthlyAgebinPfPR) Select(arts map[string]*artifact.Artifact) (*table.Table, error) {
	cols := make([]string, len(summaryChannels))
	for i, c := range summaryChannels {
		cols[i] = c.column
	}
	t := table.New(a.GroupKeys(), cols)
	for y := a.StartYear; y < a.EndYear; y++ {
		s, err := arts[a.reportFor(y)].SummaryReport()
		if err != nil {
			return nil, err
		}
		for bin, age := range s.AgeBins {
			series := make([][]float64, len(summaryChannels))
			for i, c := range summaryChannels {
				if series[i], err = s.Column(c.report, bin); err != nil {
					return nil, err
				}
			}
			for month := 1; month <= 12 && month <= len(series[0]); month++ {
				vals := make([]float64, len(series))
				for i := range series {
					vals[i] = at(series[i], month-1)
				}
				keys := []string{itoa(y), itoa(month), strconv.FormatFloat(age, 'f', -1, 64)}
				if err := t.Append(keys, vals); err != nil {
					return nil, err
				}
			}
		}
	}
	return t, nil
}
