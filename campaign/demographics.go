// demographics.go
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/provenance"
	"github.com/fe-examples/malSweep/sweep"
)

// DemographicsOverlay holds the demographics overlay of a run. The backend
// writes it next to the configuration and adds it to Demographics_Filenames.
const DemographicsOverlay = "Demographics_Overlay"

// IndividualProperty declares an individual property and its initial
// distribution in the demographics overlay. The Access property it declares
// by default is the one access_split campaigns and ip_filter reports act on.
// Each value is tagged with its share.
//
// Args: property ("Access"), values (["Low", "High"]), distribution
// ([0.5, 0.5]), id_reference.
func IndividualProperty(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	name, err := text(args, "property", "Access")
	if err != nil {
		return nil, err
	}
	values, err := strs(args, "values")
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{"Low", "High"}
	}
	dist, err := numbers(args, "distribution", []float64{0.5, 0.5})
	if err != nil {
		return nil, err
	}
	if len(values) == 0 || len(dist) != len(values) {
		return nil, &params.ContractError{Key: "distribution", Want: fmt.Sprintf("%d shares", len(values)), Got: dist}
	}
	if math.Abs(floats.Sum(dist)-1) > 1e-9 {
		return nil, &params.ContractError{Key: "distribution", Want: "shares summing to 1", Got: dist}
	}
	ref, err := text(args, "id_reference", "")
	if err != nil {
		return nil, err
	}

	overlay, err := rec.Child(DemographicsOverlay)
	if err != nil {
		return nil, err
	}
	if ref != "" {
		meta, err := overlay.Child("Metadata")
		if err != nil {
			return nil, err
		}
		meta.Set("IdReference", ref)
	}
	defaults, err := overlay.Child("Defaults")
	if err != nil {
		return nil, err
	}
	declared, err := defaults.List("IndividualProperties")
	if err != nil {
		return nil, err
	}
	for _, d := range declared {
		if ip, ok := d.(*params.Record); ok {
			if p, _ := ip.Text("Property"); p == name {
				return nil, fmt.Errorf("individual property %s declared twice", name)
			}
		}
	}

	ip := params.New()
	ip.Set("Property", name)
	ip.Set("Values", values)
	ip.Set("Initial_Distribution", dist)
	ip.Set("Transitions", []interface{}{})
	if err := defaults.AppendList("IndividualProperties", ip); err != nil {
		return nil, err
	}

	tags := provenance.Tags{}
	for i, v := range values {
		tags = tags.With(name+"_"+v, provenance.Float(dist[i]))
	}
	return tags, nil
}
