package resample

import (
	"math"
	"math/rand"

	"github.com/df07/go-restir/pkg/core"
	"github.com/df07/go-restir/pkg/reservoir"
	"github.com/df07/go-restir/pkg/restir"
)

const (
	diTemporalCandidateCount       = 9
	diTemporalRadiusCheckerboard   = 8.0
	diTemporalRadiusFullResolution = 4.0
	giTemporalRingCandidateCount   = 5
)

// reprojectedPosition computes prevPos = round(pixel + mv.xy), jittering
// by a uniform offset in [-0.5,0.5) on each axis when permutation
// sampling is disabled. DI only; GI always uses the
// unjittered reprojection since its search is a deterministic ring.
func reprojectedPosition(pixel reservoir.Coord, mv core.Vec3, jitter bool, rng *rand.Rand) reservoir.Coord {
	x := float64(pixel.X) + mv.X
	y := float64(pixel.Y) + mv.Y
	if jitter {
		x += rng.Float64() - 0.5
		y += rng.Float64() - 0.5
	}
	return reservoir.Coord{X: int(math.Round(x)), Y: int(math.Round(y))}
}

// findTemporalNeighborDI searches for a DI temporal neighbor: position 0 is
// prevPos (optionally permutation-shuffled), positions 1..8 are random
// offsets within radius, and a fallback iteration without similarity
// tests runs at the current pixel if nothing else matched.
func findTemporalNeighborDI(bridge restir.Bridge, pixel, prevPos reservoir.Coord, surface restir.Surface, field int, radius float64, frameRandom uint32, params TemporalParams, rng *rand.Rand) (reservoir.Coord, restir.Surface, bool) {
	center := prevPos
	if params.PermutationSamplingEnabled {
		center = reservoir.PermuteReservoirPixel(center, frameRandom)
	}

	for i := 0; i < diTemporalCandidateCount; i++ {
		cand := center
		if i > 0 {
			offset := randomDiskOffset(rng)
			cand = reservoir.Coord{
				X: center.X + int(math.Round(offset.X*radius)),
				Y: center.Y + int(math.Round(offset.Y*radius)),
			}
		}
		if !reservoir.IsActiveCheckerboardPixel(cand, true, field) {
			cand = reservoir.ActivateCheckerboardPixel(cand, true, field)
		}
		candSurface := bridge.GBufferSurface(cand, true)
		if acceptSurface(bridge, surface, candSurface, params.NormalThreshold, params.DepthThreshold) {
			return cand, candSurface, true
		}
	}

	if params.EnableFallbackSampling {
		cand := pixel
		if !reservoir.IsActiveCheckerboardPixel(cand, true, field) {
			cand = reservoir.ActivateCheckerboardPixel(cand, true, field)
		}
		candSurface := bridge.GBufferSurface(cand, true)
		if candSurface.Valid && bridge.IsSurfaceValid(candSurface) {
			return cand, candSurface, true
		}
	}

	return reservoir.Coord{}, restir.Surface{}, false
}

// findTemporalNeighborGI is the GI analogue, searching prevPos and its
// four axis-aligned neighbors in a fixed order before falling back.
func findTemporalNeighborGI(bridge restir.Bridge, pixel, prevPos reservoir.Coord, surface restir.Surface, field int, params TemporalParams) (reservoir.Coord, restir.Surface, bool) {
	ring := [giTemporalRingCandidateCount]reservoir.Coord{
		prevPos,
		{X: prevPos.X + 1, Y: prevPos.Y},
		{X: prevPos.X - 1, Y: prevPos.Y},
		{X: prevPos.X, Y: prevPos.Y + 1},
		{X: prevPos.X, Y: prevPos.Y - 1},
	}

	for _, cand := range ring {
		if !reservoir.IsActiveCheckerboardPixel(cand, true, field) {
			cand = reservoir.ActivateCheckerboardPixel(cand, true, field)
		}
		candSurface := bridge.GBufferSurface(cand, true)
		if acceptSurface(bridge, surface, candSurface, params.NormalThreshold, params.DepthThreshold) {
			return cand, candSurface, true
		}
	}

	if params.EnableFallbackSampling {
		cand := pixel
		if !reservoir.IsActiveCheckerboardPixel(cand, true, field) {
			cand = reservoir.ActivateCheckerboardPixel(cand, true, field)
		}
		candSurface := bridge.GBufferSurface(cand, true)
		if candSurface.Valid && bridge.IsSurfaceValid(candSurface) {
			return cand, candSurface, true
		}
	}

	return reservoir.Coord{}, restir.Surface{}, false
}

func randomDiskOffset(rng *rand.Rand) core.Vec2 {
	for {
		x := rng.Float64()*2 - 1
		y := rng.Float64()*2 - 1
		if x*x+y*y <= 1 {
			return core.Vec2{X: x, Y: y}
		}
	}
}

// TemporalResampleDI runs the temporal resampling pass for the direct-illumination
// reservoir: reproject, search for a matching previous-frame reservoir,
// validate its light translates to the current frame, stream it into
// input, and finalize under params.BiasCorrection.
func TemporalResampleDI(
	bridge restir.Bridge,
	pixel reservoir.Coord,
	surface restir.Surface,
	input reservoir.DIReservoir,
	prevBuffer *reservoir.DIBuffer,
	prevSlice int,
	field int,
	motionVector core.Vec3,
	frameRandom uint32,
	params TemporalParams,
	rng *rand.Rand,
) reservoir.DIReservoir {
	prevPosF := reprojectedPosition(pixel, motionVector, !params.PermutationSamplingEnabled, rng)

	radius := diTemporalRadiusFullResolution
	if field != 0 {
		radius = diTemporalRadiusCheckerboard
	}

	neighborPixel, _, found := findTemporalNeighborDI(bridge, pixel, prevPosF, surface, field, radius, frameRandom, params, rng)

	out := reservoir.EmptyDIReservoir()
	out.M = input.M
	out.WeightSum = input.WeightSum
	out.LightIndex = input.LightIndex
	out.IsValidLight = input.IsValidLight
	out.UV = input.UV
	out.TargetPdf = input.TargetPdf

	piCurrent, mCurrent := input.TargetPdf, input.M
	piTemporal, mTemporal := 0.0, 0
	temporalSelected := false

	if found {
		neighborCoord := reservoir.PixelToReservoir(neighborPixel, field)
		temporal := prevBuffer.Load(neighborCoord, prevSlice)

		var ok bool
		temporal, ok = clampHistoryDI(temporal, params.MaxHistoryLength, params.MaxReservoirAge)

		if ok && temporal.IsValid() && temporal.IsValidLight {
			translated, translateOK := bridge.TranslateLightIndex(temporal.LightIndex, false)
			if !translateOK {
				temporal = reservoir.EmptyDIReservoir()
			} else {
				temporal.LightIndex = translated
			}
		}

		if ok && temporal.IsValid() {
			piTemporal, mTemporal = temporal.TargetPdf, temporal.M
			weightAtCurrent := diTargetPdf(bridge, temporal, surface, false)
			temporalSelected = reservoir.CombineDI(&out, temporal, rng.Float64(), weightAtCurrent)

			if temporalSelected && params.BiasCorrection == BiasRayTraced {
				skipRay := params.EnableVisibilityShortcut && temporal.Age <= 1
				if !skipRay {
					light, haveLight := bridge.LoadLightInfo(temporal.LightIndex, false)
					if haveLight {
						samplePos := bridge.ReconstructLightSample(light, temporal.UV).Position
						if !bridge.TemporalConservativeVisibility(surface.Position, samplePos) {
							piTemporal = 0
						}
					}
				}
			}
		}
	}

	finalizeTemporalDI(&out, piCurrent, mCurrent, piTemporal, mTemporal, temporalSelected, params)
	return out
}

// finalizeTemporalDI applies the configured bias-correction mode: the basic/ray-traced
// denominator combines the canonical's own target pdf (at its own
// surface, which is the current pixel) with the temporal sample's
// target pdf (at its own original surface) — both already stored on
// their reservoirs, so no extra re-evaluation is needed here.
func finalizeTemporalDI(out *reservoir.DIReservoir, piCurrent float64, mCurrent int, piTemporal float64, mTemporal int, temporalSelected bool, params TemporalParams) {
	if out.M == 0 {
		reservoir.FinalizeDI(out, 0, 0)
		return
	}

	switch params.BiasCorrection {
	case BiasBasic, BiasRayTraced, BiasPairwise:
		piSum := piCurrent*float64(mCurrent) + piTemporal*float64(mTemporal)
		pi := piCurrent
		if temporalSelected {
			pi = piTemporal
		}
		if piSum <= 0 {
			reservoir.FinalizeDI(out, 0, 0)
			return
		}
		reservoir.FinalizeDI(out, pi, piSum)
	default:
		reservoir.FinalizeDI(out, 1, out.TargetPdf*float64(out.M))
	}
}

// TemporalResampleGI is the GI analogue of TemporalResampleDI,
// additionally applying the reprojection Jacobian to the stored
// reservoir before streaming it.
func TemporalResampleGI(
	bridge restir.Bridge,
	pixel reservoir.Coord,
	surface restir.Surface,
	input reservoir.GIReservoir,
	prevBuffer *reservoir.GIBuffer,
	prevSlice int,
	field int,
	motionVector core.Vec3,
	params TemporalParams,
	rng *rand.Rand,
) reservoir.GIReservoir {
	prevPos := reprojectedPosition(pixel, motionVector, false, rng)

	neighborPixel, neighborSurface, found := findTemporalNeighborGI(bridge, pixel, prevPos, surface, field, params)

	out := reservoir.EmptyGIReservoir()
	out.M = input.M
	out.WeightSum = input.WeightSum
	out.Position = input.Position
	out.Normal = input.Normal
	out.Radiance = input.Radiance

	if !found {
		reservoir.FinalizeGI(&out, 1, giTargetPdf(bridge, out, surface)*float64(out.M))
		return out
	}

	neighborCoord := reservoir.PixelToReservoir(neighborPixel, field)
	temporal := prevBuffer.Load(neighborCoord, prevSlice)

	temporal, ok := clampHistoryGI(temporal, params.MaxHistoryLength, params.MaxReservoirAge)
	if ok && temporal.IsValid() {
		jacobian := reservoir.ReconnectionJacobian(surface.Position, neighborSurface.Position, temporal.Position, temporal.Normal)
		if bridge.ValidateGISampleWithJacobian(jacobian) {
			temporal.WeightSum *= jacobian
			weightAtCurrent := giTargetPdf(bridge, temporal, surface)
			reservoir.CombineGI(&out, temporal, rng.Float64(), weightAtCurrent)
		}
	}

	selectedPdf := giTargetPdf(bridge, out, surface)
	switch params.BiasCorrection {
	case BiasBasic, BiasRayTraced:
		if out.M == 0 || selectedPdf <= 0 {
			reservoir.FinalizeGI(&out, 0, 0)
			return out
		}
		piSum := selectedPdf * float64(out.M)
		reservoir.FinalizeGI(&out, selectedPdf, piSum*selectedPdf)
	default:
		reservoir.FinalizeGI(&out, 1, selectedPdf*float64(out.M))
	}
	return out
}
