// args
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
	"github.com/fe-examples/malSweep/sweep"
)

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func number(args sweep.Args, key string, def float64) (float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, &params.ContractError{Key: key, Want: "a number", Got: v}
	}
	return f, nil
}

func requiredNumber(args sweep.Args, key string) (float64, error) {
	_, ok := args[key]
	if !ok {
		return 0, &params.ContractError{Key: key, Want: "a number", Got: nil}
	}
	return number(args, key, 0)
}

func boolean(args sweep.Args, key string, def bool) (bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &params.ContractError{Key: key, Want: "a bool", Got: v}
	}
	return b, nil
}

func text(args sweep.Args, key, def string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &params.ContractError{Key: key, Want: "a string", Got: v}
	}
	return s, nil
}

func numbers(args sweep.Args, key string, def []float64) ([]float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []interface{}:
		out := make([]float64, len(t))
		for i := range t {
			f, ok := toFloat(t[i])
			if !ok {
				return nil, &params.ContractError{Key: key, Want: "a list of numbers", Got: v}
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, &params.ContractError{Key: key, Want: "a list of numbers", Got: v}
}

func strs(args sweep.Args, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []string:
		return t, nil
	case []interface{}:
		out := make([]string, len(t))
		for i := range t {
			s, ok := t[i].(string)
			if !ok {
				return nil, &params.ContractError{Key: key, Want: "a list of strings", Got: v}
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, &params.ContractError{Key: key, Want: "a list of strings", Got: v}
}
