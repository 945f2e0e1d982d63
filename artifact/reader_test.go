// reader_test
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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestReadNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := Reader{}.Read(dir, InsetChart)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, Reader{}.Exists(dir, InsetChart))
}

func TestChannelReport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, InsetChart, `{
  "Header": {"Timesteps": 3},
  "Channels": {
    "Statistical Population": {"Data": [100, 101, 102], "Units": ""},
    "New Clinical Cases": {"Data": [0, 2, 1], "Units": ""}
  }
}`)
	require.True(t, Reader{}.Exists(dir, InsetChart))

	a, err := Reader{}.Read(dir, InsetChart)
	require.NoError(t, err)
	r, err := a.ChannelReport()
	require.NoError(t, err)
	assert.Equal(t, []string{"New Clinical Cases", "Statistical Population"}, r.Names())
	assert.Equal(t, []float64{0, 2, 1}, r.Channels["New Clinical Cases"])
	assert.Equal(t, 3, r.Len())
}

func TestChannelReportRejectsOtherJSON(t *testing.T) {
	a := &Artifact{Path: "x.json", Raw: []byte(`{"Metadata": {}}`)}
	_, err := a.ChannelReport()
	assert.Error(t, err)
}

func TestSummaryReportColumn(t *testing.T) {
	a := &Artifact{Path: "s.json", Raw: []byte(`{
  "Metadata": {"Age Bins": [0.25, 5, 120], "Reporting_Interval": 30},
  "DataByTimeAndAgeBins": {
    "PfPR by Age Bin": [[0.1, 0.2, 0.3], [0.15, 0.25, 0.35]],
    "Average Population by Age Bin": [[10, 90, 400], [11, 91, 401]]
  }
}`)}
	s, err := a.SummaryReport()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 5, 120}, s.AgeBins)
	assert.Equal(t, 30.0, s.ReportingInterval)

	u5, err := s.Column(PfPRByAgeBin, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.25}, u5)

	_, err = s.Column(SevereByAgeBin, 1)
	assert.Error(t, err)
	_, err = s.Column(PfPRByAgeBin, 3)
	assert.Error(t, err)
}

func TestEventLog(t *testing.T) {
	a := &Artifact{Path: "e.csv", Raw: []byte("Time,Node_ID,Event_Name,Individual_ID,Age,Gender,Infected,Infectiousness,Access\n" +
		"1,1,Received_ITN,17,3650.5,F,0,0,Low\n" +
		"40,1,Received_Treatment,18,200,M,1,0.2,High\n")}
	l, err := a.EventLog()
	require.NoError(t, err)
	require.Len(t, l.Rows, 2)
	assert.Equal(t, 2, l.Col(ColEvent))
	assert.Equal(t, -1, l.Col("Home"))
	assert.Equal(t, []string{"Access"}, l.Properties())

	_, err = (&Artifact{Path: "bad.csv", Raw: []byte("a,b\n1,2\n")}).EventLog()
	assert.Error(t, err)
}
