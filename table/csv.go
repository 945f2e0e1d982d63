// csv
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
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteCSV writes a header line of key then channel columns followed by one
// line per row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append(t.Keys(), t.channels...)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for _, r := range t.rows {
		copy(rec, r.keys)
		for j, v := range r.values {
			rec[len(r.keys)+j] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, replacing any existing file.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV reads a table with a header line. Columns named in keys are key
// columns; every other column must be numeric.
func ReadCSV(r io.Reader, keys ...string) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table: no header")
	}
	isKey := map[string]bool{}
	for _, k := range keys {
		isKey[k] = true
	}
	header := records[0]
	var keyCols, chanCols []int
	var keyNames, chanNames []string
	for i, h := range header {
		if isKey[h] {
			keyCols = append(keyCols, i)
			keyNames = append(keyNames, h)
		} else {
			chanCols = append(chanCols, i)
			chanNames = append(chanNames, h)
		}
	}
	t := New(keyNames, chanNames)
	for line, rec := range records[1:] {
		kv := make([]string, len(keyCols))
		for i, c := range keyCols {
			kv[i] = rec[c]
		}
		vals := make([]float64, len(chanCols))
		for i, c := range chanCols {
			if rec[c] == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[c], 64)
			if err != nil {
				return nil, fmt.Errorf("table: line %d column %s: %w", line+2, header[c], err)
			}
			vals[i] = v
		}
		if err := t.Append(kv, vals); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ReadFile reads a CSV file written by WriteFile.
func ReadFile(path string, keys ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, keys...)
}
