// record
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
// Package params holds the configuration record handed to the simulator: an
// ordered mapping of parameter names to values that intervention mutators
// edit in place before a run is submitted.
package params

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// ContractError reports a parameter holding a value of the wrong shape for
// the operation asked of it. It is a programming error in the experiment
// definition and is never coerced away.
type ContractError struct {
	Key  string
	Want string
	Got  interface{}
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("parameter %q: expected %s, found %T", e.Key, e.Want, e.Got)
}

// Record is an ordered parameter mapping. Nested objects are Records, lists
// are []interface{}.
type Record struct {
	keys []string
	vals map[string]interface{}
}

func New() *Record {
	return &Record{vals: make(map[string]interface{})}
}

// FromMap builds a record from a decoded map. Go maps carry no order, so the
// keys are inserted sorted.
func FromMap(m map[string]interface{}) *Record {
	r := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Set(k, m[k])
	}
	return r
}

func (r *Record) Len() int { return len(r.keys) }

// Keys returns the parameter names in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Record) Get(key string) (interface{}, bool) {
	v, ok := r.vals[key]
	return v, ok
}

func (r *Record) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Set overwrites key, keeping its original position if it already exists.
func (r *Record) Set(key string, v interface{}) {
	if r.vals == nil {
		r.vals = make(map[string]interface{})
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = normalize(v)
}

func (r *Record) Delete(key string) {
	if _, ok := r.vals[key]; !ok {
		return
	}
	delete(r.vals, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Update merges the pairs of m into r, overwriting existing scalars. New keys
// are appended in sorted order.
func (r *Record) Update(m map[string]interface{}) {
	r.Merge(FromMap(m))
}

// Merge copies every parameter of o into r in o's order.
func (r *Record) Merge(o *Record) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		r.Set(k, cloneValue(o.vals[k]))
	}
}

// AppendList concatenates items onto the list held by key, creating the list
// when the key is absent. Duplicates are kept.
func (r *Record) AppendList(key string, items ...interface{}) error {
	cur, ok := r.vals[key]
	if !ok {
		r.Set(key, append([]interface{}{}, items...))
		return nil
	}
	list, isList := cur.([]interface{})
	if !isList {
		return &ContractError{Key: key, Want: "a list", Got: cur}
	}
	for _, it := range items {
		list = append(list, normalize(it))
	}
	r.vals[key] = list
	return nil
}

// List returns the list held by key, or nil when absent.
func (r *Record) List(key string) ([]interface{}, error) {
	cur, ok := r.vals[key]
	if !ok {
		return nil, nil
	}
	list, isList := cur.([]interface{})
	if !isList {
		return nil, &ContractError{Key: key, Want: "a list", Got: cur}
	}
	return list, nil
}

// Number returns a numeric parameter.
func (r *Record) Number(key string) (float64, error) {
	cur, ok := r.vals[key]
	if !ok {
		return 0, fmt.Errorf("parameter %q: not set", key)
	}
	switch t := cur.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	}
	return 0, &ContractError{Key: key, Want: "a number", Got: cur}
}

func (r *Record) Text(key string) (string, error) {
	cur, ok := r.vals[key]
	if !ok {
		return "", fmt.Errorf("parameter %q: not set", key)
	}
	s, isString := cur.(string)
	if !isString {
		return "", &ContractError{Key: key, Want: "a string", Got: cur}
	}
	return s, nil
}

// Child returns the nested record held by key, creating it when absent.
func (r *Record) Child(key string) (*Record, error) {
	cur, ok := r.vals[key]
	if !ok {
		n := New()
		r.Set(key, n)
		return n, nil
	}
	n, isRecord := cur.(*Record)
	if !isRecord {
		return nil, &ContractError{Key: key, Want: "an object", Got: cur}
	}
	return n, nil
}

// Clone returns a deep copy; no list or nested record is shared with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := &Record{keys: make([]string, len(r.keys)), vals: make(map[string]interface{}, len(r.vals))}
	copy(c.keys, r.keys)
	for k, v := range r.vals {
		c.vals[k] = cloneValue(v)
	}
	return c
}

// Map converts the record into plain maps and slices.
func (r *Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.vals))
	for k, v := range r.vals {
		m[k] = plain(v)
	}
	return m
}

// Equal reports structural equality including key order.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if !reflect.DeepEqual(r.keys, o.keys) && !(len(r.keys) == 0 && len(o.keys) == 0) {
		return false
	}
	for k, v := range r.vals {
		if !equalValue(v, o.vals[k]) {
			return false
		}
	}
	return true
}

func equalValue(a, b interface{}) bool {
	switch at := a.(type) {
	case *Record:
		bt, ok := b.(*Record)
		return ok && at.Equal(bt)
	case []interface{}:
		bt, ok := b.([]interface{})
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !equalValue(at[i], bt[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case *Record:
		return t
	case map[string]interface{}:
		return FromMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = FromMap(t[i])
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	case []float64:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	case []int:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = float64(t[i])
		}
		return out
	case int:
		return float64(t)
	}
	return v
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case *Record:
		return t.Clone()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	}
	return v
}

func plain(v interface{}) interface{} {
	switch t := v.(type) {
	case *Record:
		return t.Map()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	}
	return v
}

// MarshalJSON writes the parameters in record order.
func (r *Record) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range r.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}
