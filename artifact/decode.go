// decode
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
package artifact

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ChannelReport is a daily time series report such as InsetChart.json or
// ReportEventCounter.json. Data[i] is the value on simulation day i.
type ChannelReport struct {
	Header   map[string]interface{}
	Channels map[string][]float64
	Units    map[string]string
}

type channelJSON struct {
	Header   map[string]interface{} `json:"Header"`
	Channels map[string]struct {
		Data  []float64 `json:"Data"`
		Units string    `json:"Units"`
	} `json:"Channels"`
}

// Names returns the channel names in sorted order.
func (r *ChannelReport) Names() []string {
	names := make([]string, 0, len(r.Channels))
	for n := range r.Channels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len is the length of the longest channel.
func (r *ChannelReport) Len() int {
	n := 0
	for _, d := range r.Channels {
		if len(d) > n {
			n = len(d)
		}
	}
	return n
}

func (a *Artifact) ChannelReport() (*ChannelReport, error) {
	var cj channelJSON
	if err := json.Unmarshal(a.Raw, &cj); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", a.Path, err)
	}
	if cj.Channels == nil {
		return nil, fmt.Errorf("failed to decode %s: no Channels", a.Path)
	}
	r := &ChannelReport{
		Header:   cj.Header,
		Channels: make(map[string][]float64, len(cj.Channels)),
		Units:    make(map[string]string, len(cj.Channels)),
	}
	for name, ch := range cj.Channels {
		r.Channels[name] = ch.Data
		r.Units[name] = ch.Units
	}
	return r, nil
}

// SummaryReport is a malaria summary report. ByAgeBin[channel][period][bin]
// holds one row per reporting interval and one column per age bin.
type SummaryReport struct {
	AgeBins           []float64
	ReportingInterval float64
	ByAgeBin          map[string][][]float64
	ByTime            map[string][]float64
}

type summaryJSON struct {
	Metadata struct {
		AgeBins           []float64 `json:"Age Bins"`
		ReportingInterval float64   `json:"Reporting_Interval"`
	} `json:"Metadata"`
	DataByTimeAndAgeBins map[string][][]float64 `json:"DataByTimeAndAgeBins"`
	DataByTime           map[string][]float64   `json:"DataByTime"`
}

// Channels of a summary report used by the analyzers.
const (
	PfPRByAgeBin       = "PfPR by Age Bin"
	ClinicalByAgeBin   = "Annual Clinical Incidence by Age Bin"
	SevereByAgeBin     = "Annual Severe Incidence by Age Bin"
	PopulationByAgeBin = "Average Population by Age Bin"
)

func (a *Artifact) SummaryReport() (*SummaryReport, error) {
	var sj summaryJSON
	if err := json.Unmarshal(a.Raw, &sj); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", a.Path, err)
	}
	if sj.DataByTimeAndAgeBins == nil {
		return nil, fmt.Errorf("failed to decode %s: no DataByTimeAndAgeBins", a.Path)
	}
	return &SummaryReport{
		AgeBins:           sj.Metadata.AgeBins,
		ReportingInterval: sj.Metadata.ReportingInterval,
		ByAgeBin:          sj.DataByTimeAndAgeBins,
		ByTime:            sj.DataByTime,
	}, nil
}

// Column returns the values of one age bin for every reporting period.
func (s *SummaryReport) Column(channel string, bin int) ([]float64, error) {
	rows, ok := s.ByAgeBin[channel]
	if !ok {
		return nil, fmt.Errorf("summary report has no channel %q", channel)
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if bin >= len(row) {
			return nil, fmt.Errorf("summary report channel %q: period %d has %d age bins, want index %d", channel, i, len(row), bin)
		}
		out[i] = row[bin]
	}
	return out, nil
}

// EventLog is the individual event recorder output, one row per event.
type EventLog struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Event recorder columns always present.
const (
	ColTime       = "Time"
	ColNode       = "Node_ID"
	ColEvent      = "Event_Name"
	ColIndividual = "Individual_ID"
	ColAge        = "Age"
	ColGender     = "Gender"
)

func (a *Artifact) EventLog() (*EventLog, error) {
	cr := csv.NewReader(bytes.NewReader(a.Raw))
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", a.Path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("failed to decode %s: empty file", a.Path)
	}
	l := &EventLog{Header: records[0], Rows: records[1:], index: make(map[string]int)}
	for i, h := range l.Header {
		l.index[strings.TrimSpace(h)] = i
	}
	for _, c := range []string{ColTime, ColEvent} {
		if _, ok := l.index[c]; !ok {
			return nil, fmt.Errorf("failed to decode %s: no %s column", a.Path, c)
		}
	}
	return l, nil
}

// Col returns the index of a column, or -1.
func (l *EventLog) Col(name string) int {
	if i, ok := l.index[name]; ok {
		return i
	}
	return -1
}

// Properties returns the columns that are neither the fixed recorder columns
// nor empty, in file order. These are the individual properties recorded.
func (l *EventLog) Properties() []string {
	fixed := map[string]bool{ColTime: true, ColNode: true, ColEvent: true, ColIndividual: true, ColAge: true, ColGender: true, "Infected": true, "Infectiousness": true}
	var out []string
	for _, h := range l.Header {
		h = strings.TrimSpace(h)
		if h != "" && !fixed[h] {
			out = append(out, h)
		}
	}
	return out
}
