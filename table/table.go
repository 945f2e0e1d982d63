// table
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
// Package table is a small tidy-table type: string key columns identify a
// row (time, age bin, event, provenance tags) and float channel columns hold
// the measurements.
package table

import (
	"fmt"
	"sort"
	"strconv"
)

type Table struct {
	keys     []string
	channels []string
	keyIdx   map[string]int
	chanIdx  map[string]int
	rows     []row
}

type row struct {
	keys   []string
	values []float64
}

func New(keys, channels []string) *Table {
	t := &Table{keyIdx: map[string]int{}, chanIdx: map[string]int{}}
	for _, k := range keys {
		t.addKeyColumn(k, "")
	}
	for _, c := range channels {
		t.addChannelColumn(c, 0)
	}
	return t
}

func (t *Table) addKeyColumn(name, fill string) int {
	if i, ok := t.keyIdx[name]; ok {
		return i
	}
	t.keyIdx[name] = len(t.keys)
	t.keys = append(t.keys, name)
	for i := range t.rows {
		t.rows[i].keys = append(t.rows[i].keys, fill)
	}
	return len(t.keys) - 1
}

func (t *Table) addChannelColumn(name string, fill float64) int {
	if i, ok := t.chanIdx[name]; ok {
		return i
	}
	t.chanIdx[name] = len(t.channels)
	t.channels = append(t.channels, name)
	for i := range t.rows {
		t.rows[i].values = append(t.rows[i].values, fill)
	}
	return len(t.channels) - 1
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Keys() []string { return append([]string(nil), t.keys...) }

func (t *Table) Channels() []string { return append([]string(nil), t.channels...) }

func (t *Table) HasKey(name string) bool {
	_, ok := t.keyIdx[name]
	return ok
}

func (t *Table) HasChannel(name string) bool {
	_, ok := t.chanIdx[name]
	return ok
}

// Append adds a row. keys and values follow the column order of the table.
func (t *Table) Append(keys []string, values []float64) error {
	if len(keys) != len(t.keys) || len(values) != len(t.channels) {
		return fmt.Errorf("table: row has %d keys and %d values, table has %d and %d",
			len(keys), len(values), len(t.keys), len(t.channels))
	}
	t.rows = append(t.rows, row{
		keys:   append([]string(nil), keys...),
		values: append([]float64(nil), values...),
	})
	return nil
}

// Key returns the key cell of row i.
func (t *Table) Key(i int, name string) string {
	j, ok := t.keyIdx[name]
	if !ok {
		return ""
	}
	return t.rows[i].keys[j]
}

// Value returns the channel cell of row i, 0 when the channel is absent.
func (t *Table) Value(i int, name string) float64 {
	j, ok := t.chanIdx[name]
	if !ok {
		return 0
	}
	return t.rows[i].values[j]
}

func (t *Table) Column(name string) []float64 {
	j, ok := t.chanIdx[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(t.rows))
	for i := range t.rows {
		out[i] = t.rows[i].values[j]
	}
	return out
}

func (t *Table) KeyColumn(name string) []string {
	j, ok := t.keyIdx[name]
	if !ok {
		return nil
	}
	out := make([]string, len(t.rows))
	for i := range t.rows {
		out[i] = t.rows[i].keys[j]
	}
	return out
}

// SetKey sets key column name to value on every row, adding the column if
// needed.
func (t *Table) SetKey(name, value string) {
	j := t.addKeyColumn(name, value)
	for i := range t.rows {
		t.rows[i].keys[j] = value
	}
}

// SetChannel sets channel name from values, one per row.
func (t *Table) SetChannel(name string, values []float64) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("table: channel %s has %d values for %d rows", name, len(values), len(t.rows))
	}
	j := t.addChannelColumn(name, 0)
	for i := range t.rows {
		t.rows[i].values[j] = values[i]
	}
	return nil
}

// EnsureChannel adds channel name filled with 0 when absent.
func (t *Table) EnsureChannel(name string) {
	t.addChannelColumn(name, 0)
}

// Rename renames a key or channel column.
func (t *Table) Rename(from, to string) error {
	if from == to {
		return nil
	}
	if t.HasKey(to) || t.HasChannel(to) {
		return fmt.Errorf("table: column %s already exists", to)
	}
	if j, ok := t.keyIdx[from]; ok {
		delete(t.keyIdx, from)
		t.keyIdx[to] = j
		t.keys[j] = to
		return nil
	}
	if j, ok := t.chanIdx[from]; ok {
		delete(t.chanIdx, from)
		t.chanIdx[to] = j
		t.channels[j] = to
		return nil
	}
	return fmt.Errorf("table: no column %s", from)
}

// Filter returns the rows for which keep is true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := New(t.keys, t.channels)
	for i, r := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, row{
				keys:   append([]string(nil), r.keys...),
				values: append([]float64(nil), r.values...),
			})
		}
	}
	return out
}

// Sort orders rows by the given key columns. Cells that parse as numbers sort
// numerically and before non-numeric cells.
func (t *Table) Sort(by ...string) {
	idx := make([]int, 0, len(by))
	for _, k := range by {
		if j, ok := t.keyIdx[k]; ok {
			idx = append(idx, j)
		}
	}
	sort.SliceStable(t.rows, func(a, b int) bool {
		for _, j := range idx {
			if c := compareCells(t.rows[a].keys[j], t.rows[b].keys[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareCells(a, b string) int {
	fa, ea := strconv.ParseFloat(a, 64)
	fb, eb := strconv.ParseFloat(b, 64)
	switch {
	case ea == nil && eb == nil:
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
		return 0
	case ea == nil:
		return -1
	case eb == nil:
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Concat stacks tables. Key and channel columns are the union of the inputs
// in first-seen order; a key missing from a table is "" and a missing channel
// is 0.
func Concat(tables ...*Table) *Table {
	out := New(nil, nil)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, k := range t.keys {
			out.addKeyColumn(k, "")
		}
		for _, c := range t.channels {
			out.addChannelColumn(c, 0)
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, r := range t.rows {
			nr := row{keys: make([]string, len(out.keys)), values: make([]float64, len(out.channels))}
			for j, k := range t.keys {
				nr.keys[out.keyIdx[k]] = r.keys[j]
			}
			for j, c := range t.channels {
				nr.values[out.chanIdx[c]] = r.values[j]
			}
			out.rows = append(out.rows, nr)
		}
	}
	return out
}
