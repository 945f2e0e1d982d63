// load
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
package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	hjson "github.com/hjson/hjson-go"
)

// Load reads a parameter file. Plain JSON keeps the document's key order;
// hjson (and anything else) is decoded with hjson and inserted sorted.
func Load(path string) (*Record, error) {
	byteValue, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parameter file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		r := New()
		if err := r.UnmarshalJSON(byteValue); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
		}
		return r, nil
	}
	return Parse(byteValue)
}

// Parse decodes hjson text into a record.
func Parse(text []byte) (*Record, error) {
	var param map[string]interface{}
	if err := hjson.Unmarshal(text, &param); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hjson: %w", err)
	}
	return FromMap(param), nil
}

// UnmarshalJSON decodes a JSON object preserving the key order of the
// document, including nested objects.
func (r *Record) UnmarshalJSON(b []byte) error {
	d := json.NewDecoder(bytes.NewReader(b))
	v, err := decodeValue(d)
	if err != nil {
		return err
	}
	rec, ok := v.(*Record)
	if !ok {
		return fmt.Errorf("parameters: expected a JSON object, found %T", v)
	}
	*r = *rec
	return nil
}

func decodeValue(d *json.Decoder) (interface{}, error) {
	tok, err := d.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			rec := New()
			for d.More() {
				kt, err := d.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("parameters: expected key, found %v", kt)
				}
				v, err := decodeValue(d)
				if err != nil {
					return nil, err
				}
				rec.Set(key, v)
			}
			if _, err := d.Token(); err != nil {
				return nil, err
			}
			return rec, nil
		case '[':
			list := []interface{}{}
			for d.More() {
				v, err := decodeValue(d)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := d.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("parameters: unexpected delimiter %v", t)
	}
	return tok, nil
}

// Save writes the record as indented JSON, the format the simulator reads.
func (r *Record) Save(path string) error {
	b, err := r.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	return os.WriteFile(path, out.Bytes(), 0644)
}
