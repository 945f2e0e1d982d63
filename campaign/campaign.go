// campaign
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
// Package campaign holds the intervention and report mutators an experiment
// file can name. Each mutator appends a campaign event or report block to the
// configuration and returns the tags that describe it.
package campaign

import (
	"fmt"
	"sort"

	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/sweep"
)

// Configuration keys written by the mutators.
const (
	CampaignEvents   = "Campaign_Events"
	IndividualEvents = "Custom_Individual_Events"
	RecorderEvents   = "Report_Event_Recorder_Events"
	CustomReports    = "Custom_Reports"
)

var mutators = map[string]sweep.Mutator{
	"set_param":            sweep.SetParam,
	"case_management":      CaseManagement,
	"itn":                  ITN,
	"itn_age_season":       ITNAgeSeason,
	"input_eir":            InputEIR,
	"individual_property":  IndividualProperty,
	"irs":                  IRS,
	"smc":                  SMC,
	"rtss":                 RTSS,
	"larval_habitat":       LarvalHabitat,
	"serialize":            Serialize,
	"serialized_pickup":    SerializedPickup,
	"summary_report":       SummaryReport,
	"event_counter_report": EventCounterReport,
	"event_recorder":       EventRecorder,
}

// Lookup resolves a mutator by the name used in experiment files.
func Lookup(name string) (sweep.Mutator, error) {
	m, ok := mutators[name]
	if !ok {
		return nil, fmt.Errorf("campaign: unknown mutator %q (known: %v)", name, Names())
	}
	return m, nil
}

func Names() []string {
	names := make([]string, 0, len(mutators))
	for n := range mutators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TrackEvents registers event names with the simulator and the event
// recorder. Names are appended as given.
func TrackEvents(rec *params.Record, events ...string) error {
	items := make([]interface{}, len(events))
	for i, e := range events {
		items[i] = e
	}
	if err := rec.AppendList(IndividualEvents, items...); err != nil {
		return err
	}
	return rec.AppendList(RecorderEvents, items...)
}

// SplitAccess divides a population level coverage between the low and high
// access halves of the population: the high access group is covered first.
func SplitAccess(level float64) (low, high float64) {
	if level >= 0.5 {
		return (level - 0.5) / (1 - 0.5), 1
	}
	return 0, level / 0.5
}

type ageBand struct {
	coverage float64
	min, max float64
}

// distribute builds one distribution event per age band.
func distribute(start float64, bands []ageBand, reps, between float64, restrict string, intervention *params.Record) []*params.Record {
	var out []*params.Record
	for _, b := range bands {
		coord := params.New()
		coord.Set("class", "StandardInterventionDistributionEventCoordinator")
		coord.Set("Demographic_Coverage", b.coverage)
		coord.Set("Number_Repetitions", reps)
		coord.Set("Timesteps_Between_Repetitions", between)
		coord.Set("Target_Demographic", "ExplicitAgeRanges")
		coord.Set("Target_Age_Min", b.min)
		coord.Set("Target_Age_Max", b.max)
		if restrict != "" {
			coord.Set("Property_Restrictions", []interface{}{"Access:" + restrict})
		}
		coord.Set("Intervention_Config", intervention.Clone())

		ev := params.New()
		ev.Set("class", "CampaignEvent")
		ev.Set("Start_Day", start)
		ev.Set("Nodeset_Config", map[string]interface{}{"class": "NodeSetAll"})
		ev.Set("Event_Coordinator_Config", coord)
		out = append(out, ev)
	}
	return out
}

func addEvents(rec *params.Record, events []*params.Record) error {
	items := make([]interface{}, len(events))
	for i, e := range events {
		items[i] = e
	}
	return rec.AppendList(CampaignEvents, items...)
}

func waning(class string, initial, decay float64, box float64) *params.Record {
	w := params.New()
	w.Set("class", class)
	w.Set("Initial_Effect", initial)
	if box > 0 {
		w.Set("Box_Duration", box)
	}
	w.Set("Decay_Time_Constant", decay)
	return w
}
