// sweep
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
// Package sweep expands a base configuration into the tagged run
// configurations of an experiment: one per element of the Cartesian product
// of the sweep axes crossed with the replicate axis.
package sweep

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/provenance"
)

// SeedKey is the parameter and tag under which the replicate index is
// recorded.
const SeedKey = "Run_Number"

var ErrNoReplicates = errors.New("sweep: replicate count must be at least 1")

// Args are the keyword arguments handed to a mutator.
type Args map[string]interface{}

// Mutator edits rec in place and returns the tags describing what it did.
// A mutator must return a *params.ContractError, not coerce, when a
// parameter it depends on has the wrong shape.
type Mutator func(rec *params.Record, args Args) (provenance.Tags, error)

// Axis is one dimension of a sweep.
type Axis struct {
	Name   string
	Values []interface{}

	// Mutator receives the chosen value under Param (Name when empty) along
	// with the Fixed arguments. A nil Mutator sets the parameter Param
	// directly.
	Mutator Mutator
	Param   string
	Fixed   Args
}

func (a Axis) param() string {
	if a.Param != "" {
		return a.Param
	}
	return a.Name
}

// RunDescriptor is the full specification of one simulation invocation.
type RunDescriptor struct {
	Index  int
	Values provenance.Tags // axis name -> chosen value, in axis order
	Seed   int
	Tags   provenance.Tags
}

// Instance pairs a descriptor with its configuration.
type Instance struct {
	RunDescriptor
	Config *params.Record
}

// Apply invokes m on the live record and returns its provenance fragment.
func Apply(rec *params.Record, m Mutator, args Args) (provenance.Tags, error) {
	if m == nil {
		return nil, errors.New("sweep: nil mutator")
	}
	tags, err := m(rec, args)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = provenance.Tags{}
	}
	return tags, nil
}

// SetParam is the mutator used for axes without one: it writes every
// argument into the record and tags it.
func SetParam(rec *params.Record, args Args) (provenance.Tags, error) {
	keys := sortedKeys(args)
	tags := provenance.Tags{}
	for _, k := range keys {
		rec.Set(k, args[k])
		v, err := provenance.ValueOf(args[k])
		if err != nil {
			return nil, err
		}
		tags = tags.With(k, v)
	}
	return tags, nil
}

// SetReplicate records the replicate index as the run's random seed.
func SetReplicate(rec *params.Record, args Args) (provenance.Tags, error) {
	seed, ok := args[SeedKey].(int)
	if !ok {
		return nil, &params.ContractError{Key: SeedKey, Want: "an int", Got: args[SeedKey]}
	}
	rec.Set(SeedKey, seed)
	return provenance.Tags{{Key: SeedKey, Value: provenance.Int(seed)}}, nil
}

// Size is the number of run descriptors Expand will emit.
func Size(axes []Axis, replicateCount int) int {
	n := replicateCount
	for _, a := range axes {
		n *= len(a.Values)
	}
	return n
}

// Expand computes the Cartesian product of the axes crossed with
// range(replicateCount). Each instance gets a deep copy of base to which the
// axis mutators are applied in axis order, then SetReplicate. The first axis
// varies slowest and the replicate index fastest.
func Expand(base *params.Record, axes []Axis, replicateCount int) ([]Instance, error) {
	if replicateCount < 1 {
		return nil, ErrNoReplicates
	}
	for _, a := range axes {
		if err := checkAxis(a); err != nil {
			return nil, err
		}
	}

	total := Size(axes, replicateCount)
	out := make([]Instance, 0, total)
	choice := make([]int, len(axes))
	for {
		for seed := 0; seed < replicateCount; seed++ {
			inst, err := build(base, axes, choice, seed, len(out))
			if err != nil {
				return nil, err
			}
			out = append(out, inst)
		}
		if !next(choice, axes) {
			break
		}
	}
	return out, nil
}

// next advances choice like an odometer, last axis fastest.
func next(choice []int, axes []Axis) bool {
	for i := len(axes) - 1; i >= 0; i-- {
		choice[i]++
		if choice[i] < len(axes[i].Values) {
			return true
		}
		choice[i] = 0
	}
	return false
}

func build(base *params.Record, axes []Axis, choice []int, seed, index int) (Instance, error) {
	rec := base.Clone()
	if rec == nil {
		rec = params.New()
	}
	values := provenance.Tags{}
	var frags provenance.Tags

	for i, a := range axes {
		chosen := a.Values[choice[i]]
		v, err := provenance.ValueOf(chosen)
		if err != nil {
			return Instance{}, fmt.Errorf("axis %s: %w", a.Name, err)
		}
		values = values.With(a.Name, v)

		args := Args{}
		for k, fv := range a.Fixed {
			args[k] = fv
		}
		args[a.param()] = chosen

		m := a.Mutator
		if m == nil {
			m = SetParam
		}
		frag, err := Apply(rec, m, args)
		if err != nil {
			return Instance{}, fmt.Errorf("axis %s = %v: %w", a.Name, chosen, err)
		}
		frags = frags.Merge(frag)
	}

	seedTags, err := Apply(rec, SetReplicate, Args{SeedKey: seed})
	if err != nil {
		return Instance{}, err
	}

	return Instance{
		RunDescriptor: RunDescriptor{
			Index:  index,
			Values: values,
			Seed:   seed,
			Tags:   values.Merge(frags).Merge(seedTags),
		},
		Config: rec,
	}, nil
}

func checkAxis(a Axis) error {
	if a.Name == "" {
		return errors.New("sweep: axis without a name")
	}
	if len(a.Values) == 0 {
		return fmt.Errorf("sweep: axis %s has no values", a.Name)
	}
	seen := make(map[string]bool, len(a.Values))
	for _, x := range a.Values {
		v, err := provenance.ValueOf(x)
		if err != nil {
			return fmt.Errorf("axis %s: %w", a.Name, err)
		}
		key := v.String()
		if v.IsNumeric() {
			key = "#" + key
		}
		if seen[key] {
			return fmt.Errorf("sweep: axis %s repeats value %v", a.Name, x)
		}
		seen[key] = true
	}
	return nil
}

func sortedKeys(args Args) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
