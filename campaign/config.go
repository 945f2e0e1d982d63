// config
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
	"sort"

	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/provenance"
	"github.com/fe-examples/malSweep/sweep"
)

// LarvalHabitat sets the larval habitat of each vector species and lists the
// species as simulated. Habitats are given per species as habitat type to
// capacity and are multiplied by scale.
//
// Args: habitats (required), scale (1).
func LarvalHabitat(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	raw, ok := args["habitats"]
	if !ok {
		return nil, &params.ContractError{Key: "habitats", Want: "an object", Got: nil}
	}
	habitats, err := asRecord("habitats", raw)
	if err != nil {
		return nil, err
	}
	scale, err := number(args, "scale", 1)
	if err != nil {
		return nil, err
	}

	speciesParams, err := rec.Child("Vector_Species_Params")
	if err != nil {
		return nil, err
	}
	species := habitats.Keys()
	sort.Strings(species)
	names := make([]interface{}, len(species))
	for i, sp := range species {
		names[i] = sp
		v, _ := habitats.Get(sp)
		types, err := asRecord("habitats."+sp, v)
		if err != nil {
			return nil, err
		}
		scaled := params.New()
		for _, ht := range types.Keys() {
			capacity, err := types.Number(ht)
			if err != nil {
				return nil, err
			}
			scaled.Set(ht, capacity*scale)
		}
		spRec, err := speciesParams.Child(sp)
		if err != nil {
			return nil, err
		}
		spRec.Set("Larval_Habitat_Types", scaled)
	}
	rec.Set("Vector_Species_Names", names)
	return provenance.Of("larval_habitat_scale", scale), nil
}

func asRecord(key string, v interface{}) (*params.Record, error) {
	switch t := v.(type) {
	case *params.Record:
		return t, nil
	case map[string]interface{}:
		return params.FromMap(t), nil
	case map[string]map[string]float64:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			im := make(map[string]interface{}, len(inner))
			for ik, iv := range inner {
				im[ik] = iv
			}
			m[k] = im
		}
		return params.FromMap(m), nil
	case map[string]float64:
		m := make(map[string]interface{}, len(t))
		for k, f := range t {
			m[k] = f
		}
		return params.FromMap(m), nil
	}
	return nil, &params.ContractError{Key: key, Want: "an object", Got: v}
}

// StateFile is the name of the serialized population written on day.
func StateFile(day int) string {
	return fmt.Sprintf("state-%05d.dtk", day)
}

// Serialize makes a burn-in write its population on the given day.
//
// Args: day (required).
func Serialize(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	day, err := requiredNumber(args, "day")
	if err != nil {
		return nil, err
	}
	rec.Update(map[string]interface{}{
		"Serialization_Time_Steps":           []interface{}{day},
		"Serialization_Type":                 "TIMESTEP",
		"Serialized_Population_Writing_Type": "TIMESTEP",
		"Serialized_Population_Reading_Type": "NONE",
		"Serialization_Mask_Node_Write":      0,
		"Serialization_Precision":            "REDUCED",
	})
	return provenance.Of("serialize_day", int(day)), nil
}

// SerializedPickup starts a run from the population a burn-in serialized on
// day. path is the burn-in run's output directory.
//
// Args: path (required), day (required).
func SerializedPickup(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	path, err := text(args, "path", "")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &params.ContractError{Key: "path", Want: "a string", Got: args["path"]}
	}
	day, err := requiredNumber(args, "day")
	if err != nil {
		return nil, err
	}
	rec.Update(map[string]interface{}{
		"Serialized_Population_Reading_Type":                 "READ",
		"Serialized_Population_Path":                         path,
		"Serialized_Population_Filenames":                    []interface{}{StateFile(int(day))},
		"Enable_Random_Generator_From_Serialized_Population": 0,
		"Serialization_Mask_Node_Read":                       0,
	})
	return provenance.Of("pickup_day", int(day)), nil
}
