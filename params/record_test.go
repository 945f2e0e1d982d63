// record_test
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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsIndependent(t *testing.T) {
	base := New()
	base.Set("Simulation_Duration", 365)
	require.NoError(t, base.AppendList("Custom_Individual_Events", "Received_ITN"))
	child, err := base.Child("Vector_Species_Params")
	require.NoError(t, err)
	child.Set("arabiensis", 1.5)

	c := base.Clone()
	require.True(t, c.Equal(base))

	require.NoError(t, c.AppendList("Custom_Individual_Events", "Received_IRS"))
	cc, err := c.Child("Vector_Species_Params")
	require.NoError(t, err)
	cc.Set("arabiensis", 3.0)

	events, err := base.List("Custom_Individual_Events")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Received_ITN"}, events)

	v, err := child.Number("arabiensis")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)
	assert.False(t, c.Equal(base))
}

func TestAppendListKeepsDuplicates(t *testing.T) {
	r := New()
	require.NoError(t, r.AppendList("Report_Event_Recorder_Events", "Received_SMC"))
	require.NoError(t, r.AppendList("Report_Event_Recorder_Events", "Received_SMC", "Received_ITN"))

	events, err := r.List("Report_Event_Recorder_Events")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Received_SMC", "Received_SMC", "Received_ITN"}, events)
}

func TestAppendListOnScalarIsContractError(t *testing.T) {
	r := New()
	r.Set("Custom_Individual_Events", "Received_ITN")

	err := r.AppendList("Custom_Individual_Events", "Received_IRS")
	var ce *ContractError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Custom_Individual_Events", ce.Key)

	v, _ := r.Get("Custom_Individual_Events")
	assert.Equal(t, "Received_ITN", v, "value must not be coerced")
}

func TestSetKeepsPosition(t *testing.T) {
	r := New()
	r.Set("b", 1)
	r.Set("a", 2)
	r.Set("b", 3)
	assert.Equal(t, []string{"b", "a"}, r.Keys())

	b, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":3,"a":2}`, string(b))
	assert.Equal(t, `{"b":3,"a":2}`, string(b))
}

func TestUnmarshalKeepsDocumentOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.UnmarshalJSON([]byte(`{"z":1,"m":{"y":true,"x":"s"},"a":[1,{"q":2}]}`)))
	assert.Equal(t, []string{"z", "m", "a"}, r.Keys())

	m, err := r.Child("m")
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, m.Keys())

	out, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"m":{"y":true,"x":"s"},"a":[1,{"q":2}]}`, string(out))
}

func TestLoadHjsonAndJSON(t *testing.T) {
	dir := t.TempDir()
	hj := filepath.Join(dir, "base.hjson")
	require.NoError(t, os.WriteFile(hj, []byte("{\n  # demographics\n  x_Base_Population: 1\n  Enable_Vital_Dynamics: true\n}\n"), 0644))

	r, err := Load(hj)
	require.NoError(t, err)
	assert.Equal(t, []string{"Enable_Vital_Dynamics", "x_Base_Population"}, r.Keys())
	n, err := r.Number("x_Base_Population")
	require.NoError(t, err)
	assert.Equal(t, 1.0, n)

	js := filepath.Join(dir, "config.json")
	require.NoError(t, r.Save(js))
	back, err := Load(js)
	require.NoError(t, err)
	assert.True(t, back.Equal(r))

	_, err = Load(filepath.Join(dir, "missing.hjson"))
	assert.Error(t, err)
}

func TestNumberAndTextContracts(t *testing.T) {
	r := FromMap(map[string]interface{}{"Run_Number": 3, "Config_Name": "burnin"})

	_, err := r.Text("Run_Number")
	var ce *ContractError
	assert.True(t, errors.As(err, &ce))

	_, err = r.Number("Config_Name")
	assert.True(t, errors.As(err, &ce))

	_, err = r.Number("absent")
	assert.Error(t, err)
	assert.False(t, errors.As(err, &ce))
}
