// tags_test
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
package provenance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithReplacesInPlace(t *testing.T) {
	tags := Of("itn_coverage", 0.5, "Run_Number", 0)
	tags = tags.With("itn_coverage", Float(0.8))

	assert.Equal(t, []string{"itn_coverage", "Run_Number"}, tags.Keys())
	v, ok := tags.Get("itn_coverage")
	require.True(t, ok)
	f, numeric := v.Float64()
	assert.True(t, numeric)
	assert.Equal(t, 0.8, f)
}

func TestMergeOverridesAndAppends(t *testing.T) {
	axis := Of("coverage", 0.5)
	frag := Of("coverage", 0.6, "itn_start", 180)

	merged := axis.Merge(frag)
	assert.Equal(t, "coverage=0.6;itn_start=180", merged.Fingerprint())
	assert.Equal(t, "coverage=0.5", axis.Fingerprint(), "receiver must not change")
}

func TestCompositeValuesAreStringified(t *testing.T) {
	tags := Of("ages", []int{0, 5, 15}, "ip", map[string]string{"Access": "Low"})

	v, _ := tags.Get("ages")
	assert.Equal(t, KindString, v.Kind())
	assert.Equal(t, "[0,5,15]", v.String())

	v, _ = tags.Get("ip")
	assert.Equal(t, `{"Access":"Low"}`, v.String())
}

func TestValueStrings(t *testing.T) {
	assert.Equal(t, "0.05", Float(0.05).String())
	assert.Equal(t, "3", Int(3).String())
	assert.Equal(t, "True", Bool(true).String())
	assert.Equal(t, "Low", String("Low").String())
}

func TestJSONKeepsOrderAndNumbers(t *testing.T) {
	tags := Of("z_axis", 1.25, "a_axis", "high", "Run_Number", 2, "flag", false)

	b, err := json.Marshal(tags)
	require.NoError(t, err)
	assert.Equal(t, `{"z_axis":1.25,"a_axis":"high","Run_Number":2,"flag":false}`, string(b))

	var back Tags
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(tags))

	rn, _ := back.Get("Run_Number")
	assert.Equal(t, KindInt, rn.Kind())
}

func TestNumericEqualityAcrossKinds(t *testing.T) {
	assert.True(t, Int(1).Equal(Float(1)))
	assert.False(t, String("1").Equal(Int(1)))
}

func TestWithoutDropsSeed(t *testing.T) {
	tags := Of("coverage", 0.5, "Run_Number", 1)
	assert.Equal(t, []string{"coverage"}, tags.Without("Run_Number").Keys())
	assert.True(t, tags.Has("Run_Number"))
}
