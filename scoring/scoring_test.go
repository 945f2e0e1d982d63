// scoring_test
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
package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fe-examples/malSweep/table"
)

func TestBetaBinomialClosedForm(t *testing.T) {
	// C(1,1) B(2,1) / B(1,1) = 1/2
	assert.InDelta(t, math.Log(0.5), BetaBinomial(1, 1, 0, 0), 1e-12)
	// C(2,1) B(3,3) / B(2,2) = 2 * (1/30) * 6
	assert.InDelta(t, math.Log(0.4), BetaBinomial(2, 1, 2, 1), 1e-12)
}

func TestBetaBinomialPrefersMatchingPrevalence(t *testing.T) {
	near := BetaBinomial(100, 30, 1000, 300)
	far := BetaBinomial(100, 30, 1000, 800)
	assert.Greater(t, near, far)
}

const simulated = `year,month,itn_coverage,Run_Number,PfPR U5,Pop U5
2020,1,0.5,0,0.3,1000
2020,1,0.5,1,0.32,1000
2020,2,0.5,0,0.25,1000
2020,2,0.5,1,0.26,1000
2020,1,0.8,0,0.1,1000
2020,2,0.8,0,0.08,1000
`

const survey = `year,month,DHS_n,DHS_pos
2020,01,120,36
2020,2,80,20
2021,1,50,10
`

func TestScoreAveragesSeeds(t *testing.T) {
	sim, err := table.ReadCSV(strings.NewReader(simulated), "year", "month", "itn_coverage", "Run_Number")
	require.NoError(t, err)
	obs, err := table.ReadCSV(strings.NewReader(survey), "year", "month")
	require.NoError(t, err)

	scores, err := Score(sim, obs, []string{"itn_coverage"}, "Run_Number")
	require.NoError(t, err)
	require.Equal(t, 2, scores.Len())
	assert.Equal(t, []string{"0.5", "0.8"}, scores.KeyColumn("itn_coverage"))

	seed0 := BetaBinomial(120, 36, 1000, 300) + BetaBinomial(80, 20, 1000, 250)
	seed1 := BetaBinomial(120, 36, 1000, 320) + BetaBinomial(80, 20, 1000, 260)
	assert.InDelta(t, (seed0+seed1)/2, scores.Value(0, LogLike), 1e-9)
	assert.InDelta(t, BetaBinomial(120, 36, 1000, 100)+BetaBinomial(80, 20, 1000, 80), scores.Value(1, LogLike), 1e-9)

	assert.Equal(t, 0, Best(scores))
}

func TestScoreRejectsMissingColumns(t *testing.T) {
	sim := table.New([]string{"year", "month", "itn_coverage"}, []string{Prevalence})
	obs := table.New([]string{"year", "month"}, []string{Observed, Positive})
	_, err := Score(sim, obs, []string{"itn_coverage"}, "Run_Number")
	assert.Error(t, err)

	assert.Equal(t, -1, Best(table.New(nil, []string{LogLike})))
}
