// tags
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
// Package provenance holds the tag sets that record which parameter choices
// produced a simulation run. Tags are resolved once, when a run is described,
// and are carried unchanged to the analyzers that regroup the run's outputs.
package provenance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindBool
)

// Value is a scalar tag value. Composite values are stringified when the
// tag is created so that the tag set stays comparable.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Float(f float64) Value { return Value{kind: KindFloat, num: f} }
func Int(i int) Value       { return Value{kind: KindInt, num: float64(i)} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNumeric() bool { return v.kind == KindFloat || v.kind == KindInt }

// ValueOf converts a parameter value into a tag value. Numbers keep their
// numeric kind; maps, slices and other composites are JSON encoded.
func ValueOf(x interface{}) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(t), nil
	case int32:
		return Int(int(t)), nil
	case int64:
		return Int(int(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case fmt.Stringer:
		return String(t.String()), nil
	case nil:
		return String(""), nil
	}
	b, err := json.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("tag value %v: %w", x, err)
	}
	return String(string(b)), nil
}

// Float64 returns the numeric value and whether the tag is numeric.
func (v Value) Float64() (float64, bool) {
	if v.IsNumeric() {
		return v.num, true
	}
	return 0, false
}

// String formats the value the way it appears in output tables.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(int64(v.num), 10)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	}
	return v.str
}

// Equal compares values; integer and float tags holding the same number are
// equal, since JSON round trips do not preserve the distinction.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		return v.num == o.num
	}
	return v.kind == o.kind && v.num == o.num && v.str == o.str && v.b == o.b
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindFloat, KindInt:
		return []byte(v.String()), nil
	case KindBool:
		return json.Marshal(v.b)
	}
	return json.Marshal(v.str)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var x interface{}
	d := json.NewDecoder(strings.NewReader(string(b)))
	d.UseNumber()
	if err := d.Decode(&x); err != nil {
		return err
	}
	switch t := x.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			*v = Int(int(i))
			return nil
		}
		f, err := t.Float64()
		if err != nil {
			return err
		}
		*v = Float(f)
	case bool:
		*v = Bool(t)
	case string:
		*v = String(t)
	default:
		*v = String(string(b))
	}
	return nil
}

type Tag struct {
	Key   string
	Value Value
}

// Tags is an ordered tag set. Keys are unique; setting an existing key
// replaces its value in place.
type Tags []Tag

// Of builds a tag set from key/value pairs, panicking on malformed input.
// It is meant for literals in mutators and tests.
func Of(kv ...interface{}) Tags {
	if len(kv)%2 != 0 {
		panic("provenance.Of: odd number of arguments")
	}
	var t Tags
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("provenance.Of: key %v is not a string", kv[i]))
		}
		v, err := ValueOf(kv[i+1])
		if err != nil {
			panic(err)
		}
		t = t.With(k, v)
	}
	return t
}

func (t Tags) index(key string) int {
	for i := range t {
		if t[i].Key == key {
			return i
		}
	}
	return -1
}

// With returns a copy of t with key set to v.
func (t Tags) With(key string, v Value) Tags {
	out := make(Tags, len(t), len(t)+1)
	copy(out, t)
	if i := out.index(key); i >= 0 {
		out[i].Value = v
		return out
	}
	return append(out, Tag{Key: key, Value: v})
}

// Merge returns t with every tag of o applied in o's order.
func (t Tags) Merge(o Tags) Tags {
	out := t
	for _, tag := range o {
		out = out.With(tag.Key, tag.Value)
	}
	if out == nil {
		return Tags{}
	}
	return out
}

func (t Tags) Get(key string) (Value, bool) {
	if i := t.index(key); i >= 0 {
		return t[i].Value, true
	}
	return Value{}, false
}

func (t Tags) Has(key string) bool { return t.index(key) >= 0 }

func (t Tags) Keys() []string {
	keys := make([]string, len(t))
	for i := range t {
		keys[i] = t[i].Key
	}
	return keys
}

// Without returns a copy of t without the named keys.
func (t Tags) Without(keys ...string) Tags {
	out := make(Tags, 0, len(t))
	for _, tag := range t {
		drop := false
		for _, k := range keys {
			if tag.Key == k {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, tag)
		}
	}
	return out
}

// Equal reports whether both sets hold the same keys in the same order with
// equal values.
func (t Tags) Equal(o Tags) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i].Key != o[i].Key || !t[i].Value.Equal(o[i].Value) {
			return false
		}
	}
	return true
}

// Fingerprint is a canonical string form used to detect duplicate tag sets.
func (t Tags) Fingerprint() string {
	var sb strings.Builder
	for i, tag := range t {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(tag.Key)
		sb.WriteByte('=')
		sb.WriteString(tag.Value.String())
	}
	return sb.String()
}

func (t Tags) String() string { return "{" + t.Fingerprint() + "}" }

// MarshalJSON writes the tags as a JSON object in tag order.
func (t Tags) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, tag := range t {
		if i > 0 {
			sb.WriteByte(',')
		}
		k, _ := json.Marshal(tag.Key)
		sb.Write(k)
		sb.WriteByte(':')
		v, err := tag.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		sb.Write(v)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

// UnmarshalJSON reads a JSON object, keeping the key order of the document.
func (t *Tags) UnmarshalJSON(b []byte) error {
	d := json.NewDecoder(strings.NewReader(string(b)))
	tok, err := d.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("tags: expected object, got %v", tok)
	}
	out := Tags{}
	for d.More() {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("tags: expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := d.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return err
		}
		out = out.With(key, v)
	}
	*t = out
	return nil
}
