// Package pairwise implements pairwise MIS streaming for DI reservoirs:
// an O(N) alternative to full (O(N^2)) MIS bias correction that visits
// each neighbor against only the canonical (current-pixel) sample.
package pairwise

import (
	"math"

	"github.com/df07/go-restir/pkg/reservoir"
)

// Candidate bundles a neighbor's DI sample with the three target-PDF
// evaluations pairwise MIS needs beyond the canonical's own: its target
// PDF at its own surface, at the canonical surface, and the canonical
// sample's target PDF evaluated at this candidate's surface.
type Candidate struct {
	Sample reservoir.DIReservoir

	AtOwnSurface       float64 // candAtCand
	AtCanonicalSurface float64 // candAtCanon
	CanonicalAtOwn     float64 // canonAtCand
}

// pairwiseMIS is the balance-heuristic-derived weight RTXDI's pairwise
// formulation uses, generalized by the M-count weighting of each
// estimator. It reduces to the standard two-estimator balance heuristic
// weight when mOwn == mOther.
func pairwiseMIS(qOwn, qOther, mOwn, mOther float64) float64 {
	denom := mOwn*qOwn + mOther*qOther
	if denom <= 0 {
		return 0
	}
	return mOwn * qOwn / denom
}

// mFactor bounds how much a candidate's effective history length can be
// trusted given how its target function differs across the two surfaces
// being compared: 0 when the reference PDF is zero, otherwise the ratio
// of the two clamped to [0, 1].
func mFactor(q0, q1 float64) float64 {
	if q0 <= 0 {
		return 0
	}
	return clamp01(q1 / q0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Random is the single value pairwise streaming consumes per candidate
// plus one more for the canonical step, mirroring reservoir.CombineDI's
// single-draw-per-candidate contract.
type Random func() float64

// StreamPairwise runs pairwise MIS streaming over candidates
// against the canonical (current pixel's initial) reservoir, returning
// the finalized output reservoir.
func StreamPairwise(canonical reservoir.DIReservoir, canonicalTargetPdf float64, candidates []Candidate, random Random) reservoir.DIReservoir {
	out := reservoir.EmptyDIReservoir()

	n := float64(len(candidates))
	canonM := float64(canonical.M)
	canonicalWeight := 0.0
	validSamples := 0

	for _, c := range candidates {
		if c.Sample.M == 0 {
			continue
		}
		validSamples++
		candM := float64(c.Sample.M)

		w0 := pairwiseMIS(c.AtOwnSurface, c.AtCanonicalSurface, candM*n, canonM)
		w1 := pairwiseMIS(c.CanonicalAtOwn, canonicalTargetPdf, candM*n, canonM)

		mPrime := candM * math.Min(
			mFactor(c.AtOwnSurface, c.AtCanonicalSurface),
			mFactor(c.CanonicalAtOwn, canonicalTargetPdf),
		)

		canonicalWeight += 1 - w1

		weight := c.Sample.WeightSum * w0
		streamWithWeight(&out, c.Sample, weight, c.AtCanonicalSurface, mToInt(mPrime), random())
	}

	if validSamples == 0 {
		canonicalWeight = 1
	}
	if canonical.M > 0 {
		weight := canonical.WeightSum * canonicalWeight
		streamWithWeight(&out, canonical, weight, canonicalTargetPdf, canonical.M, random())
	}

	den := math.Max(1, float64(validSamples))
	reservoir.FinalizeDI(&out, 1, den)
	out.CanonicalWeight = 0
	return out
}

// mToInt rounds an effective sample-count multiplier to the nearest
// non-negative integer M contribution.
func mToInt(m float64) int {
	if m <= 0 {
		return 0
	}
	return int(math.Round(m))
}

// streamWithWeight is the pairwise analogue of reservoir.CombineDI: it
// differs only in that the RIS weight is supplied directly (already
// folding in the pairwise MIS weight) rather than recomputed from
// targetPdf*candidate.weightSum*candidate.M.
func streamWithWeight(r *reservoir.DIReservoir, candidate reservoir.DIReservoir, weight float64, targetPdf float64, mContribution int, random float64) bool {
	r.M += mContribution
	r.WeightSum += weight
	if weight <= 0 {
		return false
	}
	selected := random*r.WeightSum <= weight
	if selected {
		r.LightIndex = candidate.LightIndex
		r.IsValidLight = candidate.IsValidLight
		r.UV = candidate.UV
		r.TargetPdf = targetPdf
	}
	return selected
}
