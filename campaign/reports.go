// reports
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
package campaign

import (
	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/provenance"
	"github.com/fe-examples/malSweep/sweep"
)

// SummaryReport adds a malaria summary report. The simulator writes it to
// MalariaSummaryReport_<description>.json.
//
// Args: description (required), start (1), interval (365), duration (365),
// age_bins ([0.25 5 120]), ip_filter ("").
func SummaryReport(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	desc, err := text(args, "description", "")
	if err != nil {
		return nil, err
	}
	if desc == "" {
		return nil, &params.ContractError{Key: "description", Want: "a string", Got: args["description"]}
	}
	start, err := number(args, "start", 1)
	if err != nil {
		return nil, err
	}
	interval, err := number(args, "interval", 365)
	if err != nil {
		return nil, err
	}
	duration, err := number(args, "duration", 365)
	if err != nil {
		return nil, err
	}
	bins, err := numbers(args, "age_bins", []float64{0.25, 5, 120})
	if err != nil {
		return nil, err
	}
	ip, err := text(args, "ip_filter", "")
	if err != nil {
		return nil, err
	}

	r := params.New()
	r.Set("class", "MalariaSummaryReport")
	r.Set("Filename_Suffix", desc)
	r.Set("Start_Day", start)
	r.Set("Reporting_Interval", interval)
	r.Set("Duration_Days", duration)
	r.Set("Age_Bins", bins)
	r.Set("Individual_Property_Filter", ip)
	if err := rec.AppendList(CustomReports, r); err != nil {
		return nil, err
	}
	return provenance.Tags{}, nil
}

// EventCounterReport counts events per day. Without an events list it counts
// the events registered so far.
//
// Args: events, start (0), duration (10000).
func EventCounterReport(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	events, err := strs(args, "events")
	if err != nil {
		return nil, err
	}
	var list []interface{}
	if events == nil {
		if list, err = rec.List(RecorderEvents); err != nil {
			return nil, err
		}
	} else {
		for _, e := range events {
			list = append(list, e)
		}
	}
	start, err := number(args, "start", 0)
	if err != nil {
		return nil, err
	}
	duration, err := number(args, "duration", 10000)
	if err != nil {
		return nil, err
	}

	r := params.New()
	r.Set("class", "ReportEventCounter")
	r.Set("Event_Trigger_List", append([]interface{}{}, list...))
	r.Set("Start_Day", start)
	r.Set("Duration_Days", duration)
	if err := rec.AppendList(CustomReports, r); err != nil {
		return nil, err
	}
	return provenance.Tags{}, nil
}

// EventRecorder turns on the individual event recorder. Extra events are
// registered like those of the interventions.
//
// Args: events, individual_properties.
func EventRecorder(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	events, err := strs(args, "events")
	if err != nil {
		return nil, err
	}
	props, err := strs(args, "individual_properties")
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		if err := TrackEvents(rec, events...); err != nil {
			return nil, err
		}
	} else if err := rec.AppendList(RecorderEvents); err != nil {
		return nil, err
	}
	ip := make([]interface{}, len(props))
	for i, p := range props {
		ip[i] = p
	}
	rec.Set("Report_Event_Recorder", 1)
	rec.Set("Report_Event_Recorder_Individual_Properties", ip)
	rec.Set("Report_Event_Recorder_Ignore_Events_In_List", 0)
	return provenance.Tags{}, nil
}
