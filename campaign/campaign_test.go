// campaign_test
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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fe-examples/malSweep/params"
	"github.com/fe-examples/malSweep/sweep"
)

func coordinators(t *testing.T, rec *params.Record) []*params.Record {
	t.Helper()
	events, err := rec.List(CampaignEvents)
	require.NoError(t, err)
	var out []*params.Record
	for _, e := range events {
		ev := e.(*params.Record)
		c, err := ev.Child("Event_Coordinator_Config")
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func TestSplitAccess(t *testing.T) {
	low, high := SplitAccess(0.7)
	assert.InDelta(t, 0.4, low, 1e-12)
	assert.Equal(t, 1.0, high)

	low, high = SplitAccess(0.3)
	assert.Equal(t, 0.0, low)
	assert.InDelta(t, 0.6, high, 1e-12)
}

func TestITNAgeBands(t *testing.T) {
	rec := params.New()
	tags, err := ITN(rec, sweep.Args{"coverage": 0.8, "start": 1})
	require.NoError(t, err)
	assert.Equal(t, "itn_start=1;itn_coverage=0.8", tags.Fingerprint())

	coords := coordinators(t, rec)
	require.Len(t, coords, 3)
	var got []float64
	for _, c := range coords {
		v, err := c.Number("Demographic_Coverage")
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.InDeltaSlice(t, []float64{0.8, 0.6, 0.48}, got, 1e-12)

	events, err := rec.List(IndividualEvents)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Received_ITN"}, events)
}

func TestITNAccessSplit(t *testing.T) {
	rec := params.New()
	_, err := ITN(rec, sweep.Args{"coverage": 0.7, "access_split": true})
	require.NoError(t, err)

	coords := coordinators(t, rec)
	require.Len(t, coords, 6)
	restrict, _ := coords[0].List("Property_Restrictions")
	assert.Equal(t, []interface{}{"Access:Low"}, restrict)
	restrict, _ = coords[3].List("Property_Restrictions")
	assert.Equal(t, []interface{}{"Access:High"}, restrict)

	high, err := coords[3].Number("Demographic_Coverage")
	require.NoError(t, err)
	assert.Equal(t, 1.0, high)
}

func TestInterventionsTagAndTrack(t *testing.T) {
	rec := params.New()
	steps := []struct {
		name string
		args sweep.Args
		tags string
	}{
		{"case_management", sweep.Args{"cm_cov_U5": 0.6}, "cm_cov_U5=0.6;cm_cov_adults=0.5;cm_cov_severe=0.85"},
		{"smc", sweep.Args{"coverage": 1}, "smc_start=366;smc_coverage=1"},
		{"rtss", sweep.Args{"coverage": 0.0}, "rtss_start=366;rtss_coverage=0;rtss_initial_effect=0.8"},
		{"irs", sweep.Args{"coverage": 0.5, "start": 400}, "irs_start=400;irs_coverage=0.5"},
	}
	for _, s := range steps {
		m, err := Lookup(s.name)
		require.NoError(t, err)
		tags, err := sweep.Apply(rec, m, s.args)
		require.NoError(t, err, s.name)
		assert.Equal(t, s.tags, tags.Fingerprint(), s.name)
	}

	events, err := rec.List(RecorderEvents)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		"Received_Treatment", "Received_Severe_Treatment", "Received_SMC", "Received_Vaccine", "Received_IRS",
	}, events)

	all, err := rec.List(CampaignEvents)
	require.NoError(t, err)
	assert.Len(t, all, 3+1+1+1)
}

func TestMissingCoverageIsContractError(t *testing.T) {
	_, err := IRS(params.New(), sweep.Args{})
	var ce *params.ContractError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "coverage", ce.Key)

	_, err = SMC(params.New(), sweep.Args{"coverage": "high"})
	assert.True(t, errors.As(err, &ce))
}

func TestTrackEventsOnScalar(t *testing.T) {
	rec := params.New()
	rec.Set(IndividualEvents, "Received_ITN")
	_, err := ITN(rec, sweep.Args{"coverage": 0.5})
	var ce *params.ContractError
	assert.True(t, errors.As(err, &ce))
}

func TestLarvalHabitat(t *testing.T) {
	rec := params.New()
	tags, err := LarvalHabitat(rec, sweep.Args{
		"habitats": map[string]interface{}{
			"gambiae":  map[string]interface{}{"TEMPORARY_RAINFALL": 8.3e8, "CONSTANT": 1e7},
			"funestus": map[string]interface{}{"WATER_VEGETATION": 4e8},
		},
		"scale": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "larval_habitat_scale=2", tags.Fingerprint())

	names, _ := rec.List("Vector_Species_Names")
	assert.Equal(t, []interface{}{"funestus", "gambiae"}, names)

	sp, err := rec.Child("Vector_Species_Params")
	require.NoError(t, err)
	g, err := sp.Child("gambiae")
	require.NoError(t, err)
	h, err := g.Child("Larval_Habitat_Types")
	require.NoError(t, err)
	v, err := h.Number("TEMPORARY_RAINFALL")
	require.NoError(t, err)
	assert.Equal(t, 1.66e9, v)
}

func TestSerializedPickup(t *testing.T) {
	rec := params.New()
	tags, err := SerializedPickup(rec, sweep.Args{"path": "/runs/burnin/0/output", "day": 7300})
	require.NoError(t, err)
	assert.Equal(t, "pickup_day=7300", tags.Fingerprint())

	files, _ := rec.List("Serialized_Population_Filenames")
	assert.Equal(t, []interface{}{"state-07300.dtk"}, files)

	_, err = SerializedPickup(params.New(), sweep.Args{"day": 7300})
	assert.Error(t, err)
}

func TestReports(t *testing.T) {
	rec := params.New()
	_, err := EventRecorder(rec, sweep.Args{"events": []interface{}{"Received_ITN"}, "individual_properties": []string{"Access"}})
	require.NoError(t, err)
	_, err = EventCounterReport(rec, sweep.Args{})
	require.NoError(t, err)
	_, err = SummaryReport(rec, sweep.Args{"description": "Monthly_U5_2022", "interval": 30, "ip_filter": "Access:Low"})
	require.NoError(t, err)

	reports, err := rec.List(CustomReports)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	counter := reports[0].(*params.Record)
	triggers, _ := counter.List("Event_Trigger_List")
	assert.Equal(t, []interface{}{"Received_ITN"}, triggers)

	summary := reports[1].(*params.Record)
	suffix, _ := summary.Text("Filename_Suffix")
	assert.Equal(t, "Monthly_U5_2022", suffix)

	_, err = SummaryReport(rec, sweep.Args{})
	assert.Error(t, err)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("bednets")
	assert.Error(t, err)
	assert.Contains(t, Names(), "itn")
}

func TestIndividualProperty(t *testing.T) {
	rec := params.New()
	tags, err := IndividualProperty(rec, sweep.Args{"distribution": []interface{}{0.3, 0.7}, "id_reference": "Gridded world grump2.5arcmin"})
	require.NoError(t, err)
	assert.Equal(t, "Access_Low=0.3;Access_High=0.7", tags.Fingerprint())

	overlay, err := rec.Child(DemographicsOverlay)
	require.NoError(t, err)
	meta, err := overlay.Child("Metadata")
	require.NoError(t, err)
	ref, _ := meta.Text("IdReference")
	assert.Equal(t, "Gridded world grump2.5arcmin", ref)

	defaults, err := overlay.Child("Defaults")
	require.NoError(t, err)
	ips, err := defaults.List("IndividualProperties")
	require.NoError(t, err)
	require.Len(t, ips, 1)
	ip := ips[0].(*params.Record)
	values, _ := ip.List("Values")
	assert.Equal(t, []interface{}{"Low", "High"}, values)
	dist, _ := ip.List("Initial_Distribution")
	assert.Equal(t, []interface{}{0.3, 0.7}, dist)

	_, err = IndividualProperty(rec, sweep.Args{})
	assert.Error(t, err, "a property is declared once")

	_, err = IndividualProperty(params.New(), sweep.Args{"distribution": []interface{}{0.5, 0.6}})
	var ce *params.ContractError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "distribution", ce.Key)

	_, err = IndividualProperty(params.New(), sweep.Args{"values": []interface{}{"Low", "Mid", "High"}})
	assert.True(t, errors.As(err, &ce))
}

func TestDailyEIR(t *testing.T) {
	monthly := []float64{15.99, 5.41, 2.23, 10.33, 7.44, 11.77, 79.40, 85.80, 118.59, 82.97, 46.62, 33.49}
	daily, err := DailyEIR(monthly)
	require.NoError(t, err)
	require.Len(t, daily, 365)
	assert.InDelta(t, 15.99/31, daily[0], 1e-12)
	assert.InDelta(t, 15.99/31, daily[30], 1e-12)
	assert.InDelta(t, 5.41/28, daily[31], 1e-12)
	assert.InDelta(t, 33.49/31, daily[364], 1e-12)

	_, err = DailyEIR(monthly[:11])
	assert.Error(t, err)
}

func TestInputEIR(t *testing.T) {
	rec := params.New()
	rec.Set("Vector_Species_Names", []interface{}{"gambiae"})
	monthly := make([]interface{}, 12)
	for i := range monthly {
		monthly[i] = 31.0
	}
	tags, err := InputEIR(rec, sweep.Args{"monthly_eir": monthly, "scale": 2})
	require.NoError(t, err)
	assert.Equal(t, "eir_scale=2", tags.Fingerprint())

	names, _ := rec.List("Vector_Species_Names")
	assert.Empty(t, names)
	climate, _ := rec.Text("Climate_Model")
	assert.Equal(t, "CLIMATE_CONSTANT", climate)

	coords := coordinators(t, rec)
	require.Len(t, coords, 1)
	eir, err := coords[0].Child("Intervention_Config")
	require.NoError(t, err)
	daily, err := eir.List("Daily_EIR")
	require.NoError(t, err)
	require.Len(t, daily, 365)
	assert.InDelta(t, 1.0, daily[0].(float64), 1e-12)
	scale, _ := eir.Number("Scaling_Factor")
	assert.Equal(t, 2.0, scale)

	_, err = InputEIR(params.New(), sweep.Args{})
	var ce *params.ContractError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "monthly_eir", ce.Key)
	_, err = InputEIR(params.New(), sweep.Args{"monthly_eir": []interface{}{1.0, 2.0}})
	assert.True(t, errors.As(err, &ce))
}

func TestSeasonalUsage(t *testing.T) {
	times, values := SeasonalUsage(0.5, 60)
	require.Len(t, times, 14)
	assert.Equal(t, 0.0, times[0])
	assert.Equal(t, 360.0, times[12])
	assert.Equal(t, 365.0, times[13])
	for i, v := range values {
		assert.True(t, v >= 0.5-1e-12 && v <= 1+1e-12, "usage %v on day %v", v, times[i])
	}
	// day 60 is the peak, day 240 the trough
	assert.InDelta(t, 1.0, values[2], 1e-12)
	assert.InDelta(t, 0.5, values[8], 0.01)
}

func TestITNAgeSeason(t *testing.T) {
	rec := params.New()
	m, err := Lookup("itn_age_season")
	require.NoError(t, err)
	tags, err := sweep.Apply(rec, m, sweep.Args{"coverage": 0.8})
	require.NoError(t, err)
	assert.Equal(t, "itn_season_start=366;itn_season_coverage=0.8", tags.Fingerprint())

	coords := coordinators(t, rec)
	require.Len(t, coords, 1)
	cov, _ := coords[0].Number("Demographic_Coverage")
	assert.Equal(t, 0.8, cov)
	net, err := coords[0].Child("Intervention_Config")
	require.NoError(t, err)
	class, _ := net.Text("class")
	assert.Equal(t, "UsageDependentBednet", class)
	usage, err := net.List("Usage_Config_List")
	require.NoError(t, err)
	require.Len(t, usage, 2)
	season, _ := usage[1].(*params.Record).Text("class")
	assert.Equal(t, "WaningEffectMapLinearSeasonal", season)

	events, err := rec.List(RecorderEvents)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Bednet_Got_New_One", "Bednet_Using", "Bednet_Discarded"}, events)

	_, err = ITNAgeSeason(params.New(), sweep.Args{"coverage": 0.5, "age_times": []interface{}{0.0}})
	assert.Error(t, err)
}
