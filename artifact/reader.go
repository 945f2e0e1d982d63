// reader
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
// Package artifact reads the files a simulation run writes to its output
// directory. Artifacts are read whole and never modified.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Names of the artifacts the analyzers consume, relative to a run directory.
const (
	InsetChart    = "output/InsetChart.json"
	EventCounter  = "output/ReportEventCounter.json"
	EventRecorder = "output/ReportEventRecorder.csv"
)

// SummaryReportName is the artifact written by a summary report with the
// given description.
func SummaryReportName(description string) string {
	return "output/MalariaSummaryReport_" + description + ".json"
}

var ErrNotFound = errors.New("artifact not found")

// Source reads the artifacts of a run directory.
type Source interface {
	Read(dir, name string) (*Artifact, error)
	Exists(dir, name string) bool
}

// Reader reads artifacts from the local filesystem.
type Reader struct{}

func (Reader) Read(dir, name string) (*Artifact, error) {
	path := filepath.Join(dir, filepath.FromSlash(name))
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &Artifact{Name: name, Path: path, Raw: b}, nil
}

func (Reader) Exists(dir, name string) bool {
	fi, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
	return err == nil && !fi.IsDir()
}

// Artifact is one output file held in memory.
type Artifact struct {
	Name string
	Path string
	Raw  []byte
}
