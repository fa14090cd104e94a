package pairwise

import (
	"math"
	"testing"

	"github.com/df07/go-restir/pkg/reservoir"
)

func TestPairwiseMISReducesToBalanceHeuristic(t *testing.T) {
	// With equal M counts, pairwiseMIS(q0, q1, m, m) must equal the
	// standard two-estimator balance heuristic weight q0/(q0+q1).
	q0, q1, m := 2.0, 5.0, 10.0
	got := pairwiseMIS(q0, q1, m, m)
	want := q0 / (q0 + q1)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("pairwiseMIS(%v,%v,%v,%v) = %v, want %v", q0, q1, m, m, got, want)
	}
}

func TestPairwiseMISZeroDenominatorIsZero(t *testing.T) {
	if got := pairwiseMIS(0, 0, 1, 1); got != 0 {
		t.Errorf("pairwiseMIS with zero pdfs = %v, want 0", got)
	}
}

func TestMFactorClampsToUnitRange(t *testing.T) {
	if got := mFactor(0, 5); got != 0 {
		t.Errorf("mFactor(0, 5) = %v, want 0", got)
	}
	if got := mFactor(1, 5); got != 1 {
		t.Errorf("mFactor(1, 5) = %v, want 1 (clamped)", got)
	}
	if got := mFactor(10, 5); got != 0.5 {
		t.Errorf("mFactor(10, 5) = %v, want 0.5", got)
	}
}

func TestStreamPairwiseNoCandidatesKeepsCanonical(t *testing.T) {
	canonical := reservoir.DIReservoir{LightIndex: 3, IsValidLight: true, M: 4, WeightSum: 2.0}
	out := StreamPairwise(canonical, 1.5, nil, func() float64 { return 0.0 })

	if !out.IsValid() {
		t.Fatal("expected a valid reservoir with only a canonical sample")
	}
	if out.LightIndex != 3 {
		t.Errorf("LightIndex = %d, want 3 (only candidate available)", out.LightIndex)
	}
}

func TestStreamPairwiseSkipsEmptyCandidates(t *testing.T) {
	canonical := reservoir.DIReservoir{LightIndex: 1, IsValidLight: true, M: 1, WeightSum: 1.0}
	candidates := []Candidate{
		{Sample: reservoir.EmptyDIReservoir()}, // M == 0, must be skipped entirely
	}
	out := StreamPairwise(canonical, 1.0, candidates, func() float64 { return 0.5 })
	if out.M != canonical.M {
		t.Errorf("M = %d, want %d (empty candidate contributes nothing)", out.M, canonical.M)
	}
}

func TestStreamPairwiseFinalizeUsesValidSampleCount(t *testing.T) {
	canonical := reservoir.DIReservoir{LightIndex: 0, IsValidLight: true, M: 1, WeightSum: 1.0}
	candidates := []Candidate{
		{Sample: reservoir.DIReservoir{LightIndex: 1, IsValidLight: true, M: 1, WeightSum: 1.0}, AtOwnSurface: 1, AtCanonicalSurface: 1, CanonicalAtOwn: 1},
		{Sample: reservoir.DIReservoir{LightIndex: 2, IsValidLight: true, M: 1, WeightSum: 1.0}, AtOwnSurface: 1, AtCanonicalSurface: 1, CanonicalAtOwn: 1},
	}
	out := StreamPairwise(canonical, 1.0, candidates, func() float64 { return 0.99 })
	if out.WeightSum < 0 {
		t.Errorf("WeightSum should never be negative, got %v", out.WeightSum)
	}
	// Each candidate and the canonical stream with weight 2/3, so the
	// accumulated 2.0 is divided by the 2 valid samples.
	if math.Abs(out.WeightSum-1.0) > 1e-9 {
		t.Errorf("WeightSum = %v, want 1 (accumulated weight 2 over 2 valid samples)", out.WeightSum)
	}
	if out.CanonicalWeight != 0 {
		t.Errorf("CanonicalWeight scratch must be reset to 0 after streaming, got %v", out.CanonicalWeight)
	}
}
