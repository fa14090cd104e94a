package reservoir

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TestCombineDISelectionProbability verifies that streaming n candidates
// with weights w_i selects candidate k with probability w_k / sum(w_i),
// by Monte-Carlo over a large number of trials.
func TestCombineDISelectionProbability(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	targetPdfs := []float64{1.0, 2.0, 0.5, 4.0}
	const trials = 1_000_000

	counts := make([]float64, len(targetPdfs))
	for i := 0; i < trials; i++ {
		var r DIReservoir
		selected := -1
		for k, pdf := range targetPdfs {
			candidate := DIReservoir{WeightSum: 1.0, M: 1}
			if CombineDI(&r, candidate, random.Float64(), pdf) {
				selected = k
			}
		}
		counts[selected]++
	}

	total := floats.Sum(targetPdfs)
	for k, pdf := range targetPdfs {
		want := pdf / total
		got := counts[k] / trials
		assert.InDelta(t, want, got, 0.01, "candidate %d selection probability", k)
	}
}

// TestCombineDICommutativeSum verifies that M and WeightSum after
// streaming do not depend on candidate order (selection order does, and
// that's expected — only the accumulated statistics are checked here).
func TestCombineDICommutativeSum(t *testing.T) {
	random := rand.New(rand.NewSource(1))
	candidates := []struct {
		c   DIReservoir
		pdf float64
	}{
		{DIReservoir{WeightSum: 1.0, M: 2}, 0.3},
		{DIReservoir{WeightSum: 2.0, M: 1}, 1.1},
		{DIReservoir{WeightSum: 0.5, M: 4}, 0.7},
	}

	var forward DIReservoir
	for _, c := range candidates {
		CombineDI(&forward, c.c, random.Float64(), c.pdf)
	}

	var reverse DIReservoir
	for i := len(candidates) - 1; i >= 0; i-- {
		c := candidates[i]
		CombineDI(&reverse, c.c, random.Float64(), c.pdf)
	}

	assert.Equal(t, forward.M, reverse.M)
	assert.InDelta(t, forward.WeightSum, reverse.WeightSum, 1e-9)
}

func TestFinalizeDIUnitWeight(t *testing.T) {
	r := DIReservoir{WeightSum: 42, M: 3}
	FinalizeDI(&r, 1, 2.0*3)
	require.InDelta(t, 42.0/(2.0*3), r.WeightSum, 1e-12)

	zeroDen := DIReservoir{WeightSum: 42}
	FinalizeDI(&zeroDen, 1, 0)
	assert.Equal(t, 0.0, zeroDen.WeightSum)
}

func TestFinalizeDIReadsOneOverTargetPdf(t *testing.T) {
	const targetPdf = 4.0
	const m = 5
	var r DIReservoir
	CombineDI(&r, DIReservoir{WeightSum: 1.0 / targetPdf, M: m}, 0, targetPdf)
	FinalizeDI(&r, 1, targetPdf*float64(r.M))

	assert.InDelta(t, 1.0/targetPdf, r.WeightSum, 1e-9)
}

// TestFinalizeDIUnbiasedEstimatorExpectationIsOne verifies the classical
// RIS 1/M-estimator identity: with uniform source pdf (candidate.WeightSum
// == 1) the finalized weight is an unbiased estimator of 1, regardless of
// the target pdfs streamed. gonum/stat.Mean aggregates the Monte-Carlo
// trials rather than a hand-rolled average.
func TestFinalizeDIUnbiasedEstimatorExpectationIsOne(t *testing.T) {
	random := rand.New(rand.NewSource(11))
	targetPdfs := []float64{0.2, 3.0, 1.5, 0.7, 2.2}
	const trials = 200_000

	results := make([]float64, trials)
	for i := 0; i < trials; i++ {
		var r DIReservoir
		for _, pdf := range targetPdfs {
			CombineDI(&r, DIReservoir{WeightSum: 1.0, M: 1}, random.Float64(), pdf)
		}
		FinalizeDI(&r, 1, r.TargetPdf*float64(r.M))
		results[i] = r.WeightSum
	}

	assert.InDelta(t, 1.0, stat.Mean(results, nil), 0.01)
}

func TestCombineGIBasic(t *testing.T) {
	var r GIReservoir
	candidate := GIReservoir{WeightSum: 1.0, M: 1}
	selected := CombineGI(&r, candidate, 0, 1.0)
	assert.True(t, selected)
	assert.Equal(t, 1, r.M)
}
