// reduce
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
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reducer collapses the values of one channel within a group.
type Reducer func(x []float64) float64

// Sum is the reducer for counts.
func Sum(x []float64) float64 { return floats.Sum(x) }

// Mean is the reducer for levels such as population or prevalence.
func Mean(x []float64) float64 { return stat.Mean(x, nil) }

// ReducerByName maps "sum" and "mean" to their reducers.
func ReducerByName(name string) (Reducer, error) {
	switch strings.ToLower(name) {
	case "sum":
		return Sum, nil
	case "mean", "":
		return Mean, nil
	}
	return nil, fmt.Errorf("table: unknown reducer %q", name)
}

// GroupBy groups rows by the named key columns and reduces every channel
// with reducers[channel], or def when the channel has none. Key columns not
// named are dropped. Rows of the result are sorted by the group keys.
func (t *Table) GroupBy(by []string, reducers map[string]Reducer, def Reducer) (*Table, error) {
	idx := make([]int, len(by))
	for i, k := range by {
		j, ok := t.keyIdx[k]
		if !ok {
			return nil, fmt.Errorf("table: no key column %s to group by", k)
		}
		idx[i] = j
	}
	red := make([]Reducer, len(t.channels))
	for j, c := range t.channels {
		r := reducers[c]
		if r == nil {
			r = def
		}
		if r == nil {
			return nil, fmt.Errorf("table: no reducer for channel %s", c)
		}
		red[j] = r
	}

	type group struct {
		keys   []string
		values [][]float64
	}
	var order []string
	groups := map[string]*group{}
	for _, r := range t.rows {
		keys := make([]string, len(idx))
		for i, j := range idx {
			keys[i] = r.keys[j]
		}
		id := strings.Join(keys, "\x1f")
		g, ok := groups[id]
		if !ok {
			g = &group{keys: keys, values: make([][]float64, len(t.channels))}
			groups[id] = g
			order = append(order, id)
		}
		for j, v := range r.values {
			g.values[j] = append(g.values[j], v)
		}
	}

	out := New(by, t.channels)
	for _, id := range order {
		g := groups[id]
		vals := make([]float64, len(t.channels))
		for j := range vals {
			vals[j] = red[j](g.values[j])
		}
		if err := out.Append(g.keys, vals); err != nil {
			return nil, err
		}
	}
	out.Sort(by...)
	return out, nil
}

// LeftJoin adds the channels of right to t, matching rows on the named key
// columns. Rows of t without a match get 0. right must hold at most one row
// per key.
func LeftJoin(t, right *Table, on []string) (*Table, error) {
	for _, k := range on {
		if !t.HasKey(k) || !right.HasKey(k) {
			return nil, fmt.Errorf("table: join key %s missing", k)
		}
	}
	lookup := map[string]int{}
	for i := range right.rows {
		id := joinID(right, i, on)
		if _, dup := lookup[id]; dup {
			return nil, fmt.Errorf("table: right side of join has duplicate key %q", id)
		}
		lookup[id] = i
	}

	out := Concat(t)
	var added []string
	for _, c := range right.channels {
		if !out.HasChannel(c) {
			out.addChannelColumn(c, 0)
			added = append(added, c)
		}
	}
	for i := range out.rows {
		ri, ok := lookup[joinID(out, i, on)]
		if !ok {
			continue
		}
		for _, c := range added {
			out.rows[i].values[out.chanIdx[c]] = right.Value(ri, c)
		}
	}
	return out, nil
}

func joinID(t *Table, i int, on []string) string {
	parts := make([]string, len(on))
	for j, k := range on {
		parts[j] = t.Key(i, k)
	}
	return strings.Join(parts, "\x1f")
}
