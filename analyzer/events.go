// events
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
	"strings"

	"github.com/fe-examples/malSweep/artifact"
	"github.com/fe-examples/malSweep/table"
)

// PopulationChannel is the InsetChart channel used as coverage denominator.
const PopulationChannel = "Statistical Population"

// CoverageChannel names the coverage derived from an event channel:
// Received_ITN gives ITN_Coverage.
func CoverageChannel(event string) string {
	return strings.TrimPrefix(event, "Received_") + "_Coverage"
}

// DeriveCoverage joins event counts onto population on the period keys and
// adds events/population for every event. Event channels missing from the
// event table are filled with 0 before the join, periods without an event row
// count 0 events, and a zero population gives 0.
func DeriveCoverage(pop, events *table.Table, on []string, names []string) (*table.Table, error) {
	for _, e := range names {
		events.EnsureChannel(e)
	}
	joined, err := table.LeftJoin(pop, events, on)
	if err != nil {
		return nil, err
	}
	denom := joined.Column(PopulationChannel)
	if denom == nil {
		return nil, fmt.Errorf("population table has no %s channel", PopulationChannel)
	}
	for _, e := range names {
		num := joined.Column(e)
		cov := make([]float64, len(num))
		for i := range num {
			if denom[i] != 0 {
				cov[i] = num[i] / denom[i]
			}
		}
		if err := joined.SetChannel(CoverageChannel(e), cov); err != nil {
			return nil, err
		}
	}
	return joined, nil
}

// ReceivedCampaign counts campaign events per month from the event counter
// report and derives the coverage of each event from the mean population of
// the month.
type ReceivedCampaign struct {
	Options
	Events []string
}

func (a *ReceivedCampaign) Name() string { return "Event_Count" }

func (a *ReceivedCampaign) Artifacts() []string {
	return []string{artifact.EventCounter, artifact.InsetChart}
}

func (a *ReceivedCampaign) GroupKeys() []string { return []string{"date", "Year", "Month"} }

func (a *ReceivedCampaign) Reducers() map[string]table.Reducer { return sumReducers(a.Events) }

func (a *ReceivedCampaign) Select(arts map[string]*artifact.Artifact) (*table.Table, error) {
	counter, err := arts[artifact.EventCounter].ChannelReport()
	if err != nil {
		return nil, err
	}
	inset, err := arts[artifact.InsetChart].ChannelReport()
	if err != nil {
		return nil, err
	}

	daily, err := dailyTable(counter, a.StartYear, a.Events)
	if err != nil {
		return nil, err
	}
	for _, e := range a.Events {
		daily.EnsureChannel(e)
	}
	events, err := daily.GroupBy(a.GroupKeys(), a.Reducers(), table.Sum)
	if err != nil {
		return nil, err
	}

	popDaily, err := dailyTable(inset, a.StartYear, []string{PopulationChannel})
	if err != nil {
		return nil, err
	}
	popDaily.EnsureChannel(PopulationChannel)
	pop, err := popDaily.GroupBy(a.GroupKeys(), nil, table.Mean)
	if err != nil {
		return nil, err
	}
	return DeriveCoverage(pop, events, a.GroupKeys(), a.Events)
}

// IndividualEvents counts the events of the event recorder per year, month,
// event name and recorded individual property.
type IndividualEvents struct {
	Options
	// Events restricts the count to these event names when set.
	Events []string
}

func (a *IndividualEvents) Name() string { return "IndividualEvents_all_years" }

func (a *IndividualEvents) Artifacts() []string { return []string{artifact.EventRecorder} }

func (a *IndividualEvents) GroupKeys() []string { return []string{"Year", "Month", "Event_Name"} }

func (a *IndividualEvents) Reducers() map[string]table.Reducer {
	return map[string]table.Reducer{"Count": table.Sum}
}

func (a *IndividualEvents) Select(arts map[string]*artifact.Artifact) (*table.Table, error) {
	l, err := arts[artifact.EventRecorder].EventLog()
	if err != nil {
		return nil, err
	}
	keep := map[string]bool{}
	for _, e := range a.Events {
		keep[e] = true
	}
	props := l.Properties()
	keys := append(a.GroupKeys(), props...)
	raw := table.New(keys, []string{"Count", "Age"})

	tc, ec, ac := l.Col(artifact.ColTime), l.Col(artifact.ColEvent), l.Col(artifact.ColAge)
	for i, rec := range l.Rows {
		name := rec[ec]
		if len(keep) > 0 && !keep[name] {
			continue
		}
		tf, err := strconv.ParseFloat(rec[tc], 64)
		if err != nil {
			return nil, fmt.Errorf("event recorder line %d: %w", i+2, err)
		}
		_, month, year := DayFields(int(tf), a.StartYear)
		kv := []string{itoa(year), itoa(month), name}
		for _, p := range props {
			kv = append(kv, rec[l.Col(p)])
		}
		age := 0.0
		if ac >= 0 {
			if age, err = strconv.ParseFloat(rec[ac], 64); err != nil {
				return nil, fmt.Errorf("event recorder line %d: %w", i+2, err)
			}
		}
		if err := raw.Append(kv, []float64{1, age}); err != nil {
			return nil, err
		}
	}
	return raw.GroupBy(keys, a.Reducers(), table.Mean)
}

// TreatmentChannels are the case management events counted by
// MonthlyTreatedCases when none are configured.
var TreatmentChannels = []string{"Received_Treatment", "Received_Severe_Treatment"}

// caseChannels are the InsetChart incidence channels reported next to the
// treatments.
var caseChannels = []string{"New Clinical Cases", "New Severe Cases"}

// MonthlyTreatedCases counts treatments per month from the event counter
// report next to the clinical and severe cases and the mean population of
// the month from the InsetChart, for the years StartYear to EndYear.
type MonthlyTreatedCases struct {
	Options
	EndYear  int // exclusive, 0 for every simulated year
	Channels []string
}

func (a *MonthlyTreatedCases) Name() string { return "Treated_Cases_monthly" }

func (a *MonthlyTreatedCases) Artifacts() []string {
	return []string{artifact.EventCounter, artifact.InsetChart}
}

func (a *MonthlyTreatedCases) GroupKeys() []string { return []string{"date", "Year", "Month"} }

func (a *MonthlyTreatedCases) channels() []string {
	if len(a.Channels) == 0 {
		return TreatmentChannels
	}
	return a.Channels
}

func (a *MonthlyTreatedCases) Reducers() map[string]table.Reducer {
	return sumReducers(append(append([]string{}, a.channels()...), caseChannels...))
}

func (a *MonthlyTreatedCases) Select(arts map[string]*artifact.Artifact) (*table.Table, error) {
	counter, err := arts[artifact.EventCounter].ChannelReport()
	if err != nil {
		return nil, err
	}
	inset, err := arts[artifact.InsetChart].ChannelReport()
	if err != nil {
		return nil, err
	}

	daily, err := dailyTable(counter, a.StartYear, a.channels())
	if err != nil {
		return nil, err
	}
	for _, c := range a.channels() {
		daily.EnsureChannel(c)
	}
	treated, err := daily.GroupBy(a.GroupKeys(), sumReducers(a.channels()), table.Sum)
	if err != nil {
		return nil, err
	}

	insetDaily, err := dailyTable(inset, a.StartYear, append([]string{PopulationChannel}, caseChannels...))
	if err != nil {
		return nil, err
	}
	insetDaily.EnsureChannel(PopulationChannel)
	for _, c := range caseChannels {
		insetDaily.EnsureChannel(c)
	}
	cases, err := insetDaily.GroupBy(a.GroupKeys(), sumReducers(caseChannels), table.Mean)
	if err != nil {
		return nil, err
	}

	joined, err := table.LeftJoin(cases, treated, a.GroupKeys())
	if err != nil {
		return nil, err
	}
	if a.EndYear == 0 {
		return joined, nil
	}
	return joined.Filter(func(row int) bool {
		y, err := strconv.Atoi(joined.Key(row, "Year"))
		return err == nil && y >= a.StartYear && y < a.EndYear
	}), nil
}
