// interventions
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
	"math"

	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/provenance"
	"github.com/fe-examples/malSweep/sweep"
)

// Antimalarial regimen used for clinical and severe case management.
var caseManagementDrugs = []interface{}{"Artemether", "Lumefantrine"}

// accessGroups returns the (restriction, coverage) pairs a campaign is split
// into. Without an access split the whole population gets level.
func accessGroups(level float64, split bool) ([]string, []float64) {
	if !split {
		return []string{""}, []float64{level}
	}
	low, high := SplitAccess(level)
	return []string{"Low", "High"}, []float64{low, high}
}

// CaseManagement adds health seeking for new clinical cases in under fives
// and adults and for new severe cases.
//
// Args: cm_cov_U5 (0.7), cm_cov_adults (0.5), cm_cov_severe (0.85), start (0),
// access_split (false).
func CaseManagement(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	u5, err := number(args, "cm_cov_U5", 0.7)
	if err != nil {
		return nil, err
	}
	adults, err := number(args, "cm_cov_adults", 0.5)
	if err != nil {
		return nil, err
	}
	severe, err := number(args, "cm_cov_severe", 0.85)
	if err != nil {
		return nil, err
	}
	start, err := number(args, "start", 0)
	if err != nil {
		return nil, err
	}
	split, err := boolean(args, "access_split", false)
	if err != nil {
		return nil, err
	}

	type target struct {
		trigger  string
		coverage float64
		min, max float64
		rate     float64
		event    string
	}
	restrict, u5Cov := accessGroups(u5, split)
	_, adultCov := accessGroups(adults, split)
	_, severeCov := accessGroups(severe, split)

	for i, r := range restrict {
		targets := []target{
			{"NewClinicalCase", u5Cov[i], 0, 5, 0.3, "Received_Treatment"},
			{"NewClinicalCase", adultCov[i], 5, 100, 0.3, "Received_Treatment"},
			{"NewSevereCase", severeCov[i], 0, 100, 0.5, "Received_Severe_Treatment"},
		}
		for _, tg := range targets {
			drug := params.New()
			drug.Set("class", "AntimalarialDrug")
			drug.Set("Drug_Type", caseManagementDrugs)
			drug.Set("Broadcast_Event", tg.event)

			seek := params.New()
			seek.Set("class", "NodeLevelHealthTriggeredIV")
			seek.Set("Trigger_Condition_List", []interface{}{tg.trigger})
			seek.Set("Tendency", 1.0)
			seek.Set("Delay_Rate", tg.rate)
			seek.Set("Actual_IndividualIntervention_Config", drug)

			if err := addEvents(rec, distribute(start, []ageBand{{tg.coverage, tg.min, tg.max}}, 1, 0, r, seek)); err != nil {
				return nil, err
			}
		}
	}
	if err := TrackEvents(rec, "Received_Treatment", "Received_Severe_Treatment"); err != nil {
		return nil, err
	}
	return provenance.Of("cm_cov_U5", u5, "cm_cov_adults", adults, "cm_cov_severe", severe), nil
}

// ITN distributes bednets with coverage 1.0, 0.75 and 0.6 times the level to
// ages 0-10, 10-50 and 50-125.
//
// Args: coverage (required), start (365), repetitions (5), interval (1095),
// access_split (false).
func ITN(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	level, err := requiredNumber(args, "coverage")
	if err != nil {
		return nil, err
	}
	start, err := number(args, "start", 365)
	if err != nil {
		return nil, err
	}
	reps, err := number(args, "repetitions", 5)
	if err != nil {
		return nil, err
	}
	between, err := number(args, "interval", 365*3)
	if err != nil {
		return nil, err
	}
	split, err := boolean(args, "access_split", false)
	if err != nil {
		return nil, err
	}

	net := params.New()
	net.Set("class", "SimpleBednet")
	net.Set("Blocking_Config", waning("WaningEffectExponential", 0.9, 730, 0))
	net.Set("Killing_Config", waning("WaningEffectExponential", 0.6, 1460, 0))
	net.Set("Usage_Config", waning("WaningEffectConstant", 1, 0, 0))
	net.Set("Received_Event", "Received_ITN")

	restrict, cov := accessGroups(level, split)
	for i, r := range restrict {
		bands := []ageBand{
			{cov[i], 0, 10},
			{cov[i] * 0.75, 10, 50},
			{cov[i] * 0.6, 50, 125},
		}
		if err := addEvents(rec, distribute(start, bands, reps, between, r, net)); err != nil {
			return nil, err
		}
	}
	if err := TrackEvents(rec, "Received_ITN"); err != nil {
		return nil, err
	}
	return provenance.Of("itn_start", start, "itn_coverage", level), nil
}

// IRS sprays houses once with a box-exponential killing effect.
//
// Args: coverage (required), start (366), box_duration (180), decay (90),
// initial_effect (0.7).
func IRS(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	level, err := requiredNumber(args, "coverage")
	if err != nil {
		return nil, err
	}
	start, err := number(args, "start", 366)
	if err != nil {
		return nil, err
	}
	box, err := number(args, "box_duration", 180)
	if err != nil {
		return nil, err
	}
	decay, err := number(args, "decay", 90)
	if err != nil {
		return nil, err
	}
	initial, err := number(args, "initial_effect", 0.7)
	if err != nil {
		return nil, err
	}

	spray := params.New()
	spray.Set("class", "IRSHousingModification")
	spray.Set("Killing_Config", waning("WaningEffectBoxExponential", initial, decay, box))
	spray.Set("Received_Event", "Received_IRS")

	if err := addEvents(rec, distribute(start, []ageBand{{level, 0, 100}}, 1, 0, "", spray)); err != nil {
		return nil, err
	}
	if err := TrackEvents(rec, "Received_IRS"); err != nil {
		return nil, err
	}
	return provenance.Of("irs_start", start, "irs_coverage", level), nil
}

// SMC gives sulfadoxine-pyrimethamine plus amodiaquine to children aged 3
// months to 5 years in monthly cycles.
//
// Args: coverage (required), start (366), cycles (4), interval (30).
func SMC(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	level, err := requiredNumber(args, "coverage")
	if err != nil {
		return nil, err
	}
	start, err := number(args, "start", 366)
	if err != nil {
		return nil, err
	}
	cycles, err := number(args, "cycles", 4)
	if err != nil {
		return nil, err
	}
	between, err := number(args, "interval", 30)
	if err != nil {
		return nil, err
	}

	drug := params.New()
	drug.Set("class", "AntimalarialDrug")
	drug.Set("Drug_Type", []interface{}{"Sulfadoxine", "Pyrimethamine", "Amodiaquine"})
	drug.Set("Broadcast_Event", "Received_SMC")

	if err := addEvents(rec, distribute(start, []ageBand{{level, 0.25, 5}}, cycles, between, "", drug)); err != nil {
		return nil, err
	}
	if err := TrackEvents(rec, "Received_SMC"); err != nil {
		return nil, err
	}
	return provenance.Of("smc_start", start, "smc_coverage", level), nil
}

// RTSSDecay is the decay time constant of the RTS,S efficacy in days.
const RTSSDecay = 592.4066512

// RTSS vaccinates children at nine months of age without a booster.
//
// Args: coverage (required), start (366), agemin (274), agemax (275) in days,
// initial_effect (0.8).
func RTSS(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	level, err := requiredNumber(args, "coverage")
	if err != nil {
		return nil, err
	}
	start, err := number(args, "start", 366)
	if err != nil {
		return nil, err
	}
	agemin, err := number(args, "agemin", 274)
	if err != nil {
		return nil, err
	}
	agemax, err := number(args, "agemax", 275)
	if err != nil {
		return nil, err
	}
	initial, err := number(args, "initial_effect", 0.8)
	if err != nil {
		return nil, err
	}

	vaccine := params.New()
	vaccine.Set("class", "AcquisitionBlockingVaccine")
	vaccine.Set("Vaccine_Type", "RTSS")
	vaccine.Set("Waning_Config", waning("WaningEffectExponential", initial, RTSSDecay, 0))
	vaccine.Set("Received_Event", "Received_Vaccine")

	band := ageBand{level, agemin / 365, agemax / 365}
	if err := addEvents(rec, distribute(start, []ageBand{band}, 1, -1, "", vaccine)); err != nil {
		return nil, err
	}
	if err := TrackEvents(rec, "Received_Vaccine"); err != nil {
		return nil, err
	}
	return provenance.Of("rtss_start", start, "rtss_coverage", level, "rtss_initial_effect", initial), nil
}

// SeasonalUsage is the bednet usage over the year: a cosine that peaks at 1
// on maxDay and falls to minCov half a year later, sampled every 30 days.
func SeasonalUsage(minCov, maxDay float64) (times, values []float64) {
	for t := 0.0; t <= 365; t += 30 {
		times = append(times, t)
	}
	times = append(times, 365)
	values = make([]float64, len(times))
	for i, t := range times {
		values[i] = (1-minCov)/2*math.Cos(2*math.Pi/365*(t-maxDay)) + 0.5 + minCov/2
	}
	return times, values
}

// ITNAgeSeason distributes usage dependent bednets whose use varies with age
// and season and which are discarded after a dual exponential expiration
// period.
//
// Args: coverage (required), start (366), age_times ([0, 100]), age_values
// ([0.9, 0.9]), min_cov (0.5), max_day (60), blocking (0.53), killing
// (0.520249973), expiration_mean_1 (620.5), expiration_mean_2 (3650),
// expiration_proportion_1 (0.9).
func ITNAgeSeason(rec *params.Record, args sweep.Args) (provenance.Tags, error) {
	level, err := requiredNumber(args, "coverage")
	if err != nil {
		return nil, err
	}
	start, err := number(args, "start", 366)
	if err != nil {
		return nil, err
	}
	ageTimes, err := numbers(args, "age_times", []float64{0, 100})
	if err != nil {
		return nil, err
	}
	ageValues, err := numbers(args, "age_values", []float64{0.9, 0.9})
	if err != nil {
		return nil, err
	}
	if len(ageTimes) != len(ageValues) {
		return nil, &params.ContractError{Key: "age_values", Want: "one value per age", Got: ageValues}
	}
	minCov, err := number(args, "min_cov", 0.5)
	if err != nil {
		return nil, err
	}
	maxDay, err := number(args, "max_day", 60)
	if err != nil {
		return nil, err
	}
	blocking, err := number(args, "blocking", 0.53)
	if err != nil {
		return nil, err
	}
	killing, err := number(args, "killing", 0.520249973)
	if err != nil {
		return nil, err
	}
	mean1, err := number(args, "expiration_mean_1", 365*1.7)
	if err != nil {
		return nil, err
	}
	mean2, err := number(args, "expiration_mean_2", 3650)
	if err != nil {
		return nil, err
	}
	prop1, err := number(args, "expiration_proportion_1", 0.9)
	if err != nil {
		return nil, err
	}

	usage := func(class string, times, values []float64) *params.Record {
		u := params.New()
		u.Set("class", class)
		u.Set("Initial_Effect", 1.0)
		u.Set("Durability_Map", map[string]interface{}{"Times": times, "Values": values})
		return u
	}
	seasonTimes, seasonValues := SeasonalUsage(minCov, maxDay)

	net := params.New()
	net.Set("class", "UsageDependentBednet")
	net.Set("Bednet_Type", "ITN")
	net.Set("Blocking_Config", waning("WaningEffectExponential", blocking, 730, 0))
	net.Set("Killing_Config", waning("WaningEffectExponential", killing, 1460, 0))
	net.Set("Usage_Config_List", []interface{}{
		usage("WaningEffectMapLinearAge", ageTimes, ageValues),
		usage("WaningEffectMapLinearSeasonal", seasonTimes, seasonValues),
	})
	net.Set("Expiration_Period_Distribution", "DUAL_EXPONENTIAL_DISTRIBUTION")
	net.Set("Expiration_Period_Proportion_1", prop1)
	net.Set("Expiration_Period_Mean_1", mean1)
	net.Set("Expiration_Period_Mean_2", mean2)
	net.Set("Received_Event", "Bednet_Got_New_One")
	net.Set("Using_Event", "Bednet_Using")
	net.Set("Discard_Event", "Bednet_Discarded")

	if err := addEvents(rec, distribute(start, []ageBand{{level, 0, 125}}, 1, 0, "", net)); err != nil {
		return nil, err
	}
	if err := TrackEvents(rec, "Bednet_Got_New_One", "Bednet_Using", "Bednet_Discarded"); err != nil {
		return nil, err
	}
	return provenance.Of("itn_season_start", start, "itn_season_coverage", level), nil
}
