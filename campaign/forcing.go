// forcing.go
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

	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/provenance"
	"github.com/fe-examples/malSweep/sweep"
)

// days of each month of the simulator's non-leap year
var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DailyEIR spreads twelve monthly inoculation rates evenly over the days of
// each month.
func DailyEIR(monthly []float64) ([]float64, error) {
	if len(monthly) != len(monthDays) {
		return nil, fmt.Errorf("monthly EIR has %d values, want %d", len(monthly), len(monthDays))
	}
	daily := make([]float64, 0, 365)
	for m, n := range monthDays {
		for d := 0; d < n; d++ {
			daily = append(daily, monthly[m]/float64(n))
		}
	}
	return daily, nil
}

// InputEIR forces transmission with a fixed yearly EIR profile instead of
// simulated vectors. The vector species are cleared and the climate is held
// constant.
//
// Args: monthly_eir (required, 12 values), scale (1), start (0),
// age_dependence ("SURFACE_AREA_DEPENDENT").
func InputEIR(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	if _, ok := args["monthly_eir"]; !ok {
		return nil, &params.ContractError{Key: "monthly_eir", Want: "12 numbers", Got: nil}
	}
	monthly, err := numbers(args, "monthly_eir", nil)
	if err != nil {
		return nil, err
	}
	daily, err := DailyEIR(monthly)
	if err != nil {
		return nil, &params.ContractError{Key: "monthly_eir", Want: "12 numbers", Got: monthly}
	}
	scale, err := number(args, "scale", 1)
	if err != nil {
		return nil, err
	}
	start, err := number(args, "start", 0)
	if err != nil {
		return nil, err
	}
	age, err := text(args, "age_dependence", "SURFACE_AREA_DEPENDENT")
	if err != nil {
		return nil, err
	}

	eir := params.New()
	eir.Set("class", "InputEIR")
	eir.Set("EIR_Type", "DAILY")
	eir.Set("Daily_EIR", daily)
	eir.Set("Age_Dependence", age)
	eir.Set("Scaling_Factor", scale)

	coord := params.New()
	coord.Set("class", "StandardInterventionDistributionEventCoordinator")
	coord.Set("Intervention_Config", eir)

	ev := params.New()
	ev.Set("class", "CampaignEvent")
	ev.Set("Start_Day", start)
	ev.Set("Nodeset_Config", map[string]interface{}{"class": "NodeSetAll"})
	ev.Set("Event_Coordinator_Config", coord)
	if err := addEvents(rec, []*params.Record{ev}); err != nil {
		return nil, err
	}

	rec.Set("Vector_Species_Names", []interface{}{})
	rec.Set("x_temporary_Larval_Habitat", 0.0)
	rec.Set("Climate_Model", "CLIMATE_CONSTANT")
	return provenance.Of("eir_scale", scale), nil
}
