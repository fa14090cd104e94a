package resample

import (
	"math/rand"

	"github.com/df07/go-restir/pkg/pairwise"
	"github.com/df07/go-restir/pkg/reservoir"
	"github.com/df07/go-restir/pkg/restir"
)

type spatialCandidateDI struct {
	pixel   reservoir.Coord
	surface restir.Surface
	sample  reservoir.DIReservoir
}

type spatialCandidateGI struct {
	pixel    reservoir.Coord
	surface  restir.Surface
	sample   reservoir.GIReservoir
	jacobian float64
}

// gatherSpatialCandidatesDI picks a
// sample budget (boosted under disocclusion), walk the neighbor-offset
// table from a random startIdx, and collect every neighbor that passes
// surface similarity, validity, and the optional naive-sampling discount.
func gatherSpatialCandidatesDI(bridge restir.Bridge, pixel reservoir.Coord, surface restir.Surface, input reservoir.DIReservoir, currentBuffer *reservoir.DIBuffer, currentSlice, field int, offsets *NeighborOffsets, params SpatialParams, rng *rand.Rand) []spatialCandidateDI {
	n := params.NumSamples
	if input.M < params.TargetHistoryLength && params.NumDisocclusionBoostSamples > n {
		n = params.NumDisocclusionBoostSamples
	}
	if n > maxSpatialSampleCount {
		n = maxSpatialSampleCount
	}

	startIdx := int(rng.Float64() * float64(offsets.Mask()+1))

	candidates := make([]spatialCandidateDI, 0, n)
	for i := 0; i < n; i++ {
		offset := offsets.At(startIdx + i)
		cand := offsetPixel(pixel, offset, params.SamplingRadius)
		cand = bridge.ClampSamplePositionIntoView(cand)
		if !reservoir.IsActiveCheckerboardPixel(cand, false, field) {
			cand = reservoir.ActivateCheckerboardPixel(cand, false, field)
		}

		candSurface := bridge.GBufferSurface(cand, false)
		if !acceptSurface(bridge, surface, candSurface, params.NormalThreshold, params.DepthThreshold) {
			continue
		}

		neighbor := currentBuffer.Load(reservoir.PixelToReservoir(cand, field), currentSlice)
		if !neighbor.IsValid() {
			continue
		}
		if params.DiscountNaiveSamples && neighbor.M <= reservoir.RTXDINaiveSamplingMThreshold {
			continue
		}

		candidates = append(candidates, spatialCandidateDI{pixel: cand, surface: candSurface, sample: neighbor})
	}
	return candidates
}

// SpatialResampleDI runs the spatial resampling pass for direct illumination.
func SpatialResampleDI(
	bridge restir.Bridge,
	pixel reservoir.Coord,
	surface restir.Surface,
	input reservoir.DIReservoir,
	currentBuffer *reservoir.DIBuffer,
	currentSlice, field int,
	offsets *NeighborOffsets,
	params SpatialParams,
	rng *rand.Rand,
) reservoir.DIReservoir {
	candidates := gatherSpatialCandidatesDI(bridge, pixel, surface, input, currentBuffer, currentSlice, field, offsets, params, rng)

	if params.BiasCorrection == BiasPairwise {
		return streamSpatialPairwiseDI(bridge, surface, input, candidates, rng)
	}

	out := reservoir.EmptyDIReservoir()
	out.M = input.M
	out.WeightSum = input.WeightSum
	out.LightIndex = input.LightIndex
	out.IsValidLight = input.IsValidLight
	out.UV = input.UV
	out.TargetPdf = input.TargetPdf

	selectedIdx := -1
	for i, c := range candidates {
		targetAtCurrent := diTargetPdf(bridge, c.sample, surface, false)
		if reservoir.CombineDI(&out, c.sample, rng.Float64(), targetAtCurrent) {
			selectedIdx = i
		}
	}

	finalizeSpatialDI(&out, bridge, input, candidates, selectedIdx, params)
	return out
}

// finalizeSpatialDI applies the configured bias-correction mode. The
// basic/ray-traced re-walk only visits candidates that were actually
// streamed (mirroring the cachedResult bitmask a GPU implementation uses
// to skip the rejected ones), accumulating piSum seeded by the
// canonical/input sample's own contribution. DI's finalize omits the
// extra selectedTargetPdf factor basic GI applies to its denominator —
// see DESIGN.md's note on this normalization-convention split.
func finalizeSpatialDI(out *reservoir.DIReservoir, bridge restir.Bridge, input reservoir.DIReservoir, candidates []spatialCandidateDI, selectedIdx int, params SpatialParams) {
	if out.M == 0 {
		reservoir.FinalizeDI(out, 0, 0)
		return
	}

	if params.BiasCorrection == BiasOff {
		reservoir.FinalizeDI(out, 1, float64(out.M)*out.TargetPdf)
		return
	}

	selectedAtCurrent := out.TargetPdf
	pi := selectedAtCurrent
	piSum := selectedAtCurrent * float64(input.M)

	selectedLight, haveSelectedLight := bridge.LoadLightInfo(out.LightIndex, false)
	selectedSamplePos := bridge.ReconstructLightSample(selectedLight, out.UV).Position

	for i, c := range candidates {
		ps := diTargetPdf(bridge, *out, c.surface, false)
		if params.BiasCorrection == BiasRayTraced && haveSelectedLight {
			if !bridge.ConservativeVisibility(c.surface.Position, selectedSamplePos) {
				ps = 0
			}
		}
		if i == selectedIdx {
			pi = ps
		}
		piSum += ps * float64(c.sample.M)
	}

	reservoir.FinalizeDI(out, pi, piSum)
}

// streamSpatialPairwiseDI routes DI spatial accumulation through
// pkg/pairwise instead of the generic accumulate/re-walk path.
func streamSpatialPairwiseDI(bridge restir.Bridge, surface restir.Surface, input reservoir.DIReservoir, candidates []spatialCandidateDI, rng *rand.Rand) reservoir.DIReservoir {
	pcs := make([]pairwise.Candidate, 0, len(candidates))
	for _, c := range candidates {
		pcs = append(pcs, pairwise.Candidate{
			Sample:             c.sample,
			AtOwnSurface:       diTargetPdf(bridge, c.sample, c.surface, false),
			AtCanonicalSurface: diTargetPdf(bridge, c.sample, surface, false),
			CanonicalAtOwn:     diTargetPdf(bridge, input, c.surface, false),
		})
	}
	return pairwise.StreamPairwise(input, input.TargetPdf, pcs, rng.Float64)
}

// gatherSpatialCandidatesGI is the GI analogue of gatherSpatialCandidatesDI,
// additionally computing and validating the reprojection Jacobian for
// every accepted neighbor.
func gatherSpatialCandidatesGI(bridge restir.Bridge, pixel reservoir.Coord, surface restir.Surface, currentBuffer *reservoir.GIBuffer, currentSlice, field int, offsets *NeighborOffsets, params SpatialParams, rng *rand.Rand) []spatialCandidateGI {
	n := params.NumSamples
	if n > maxSpatialSampleCount {
		n = maxSpatialSampleCount
	}
	startIdx := int(rng.Float64() * float64(offsets.Mask()+1))

	candidates := make([]spatialCandidateGI, 0, n)
	for i := 0; i < n; i++ {
		offset := offsets.At(startIdx + i)
		cand := offsetPixel(pixel, offset, params.SamplingRadius)
		cand = bridge.ClampSamplePositionIntoView(cand)
		if !reservoir.IsActiveCheckerboardPixel(cand, false, field) {
			cand = reservoir.ActivateCheckerboardPixel(cand, false, field)
		}

		candSurface := bridge.GBufferSurface(cand, false)
		if !acceptSurface(bridge, surface, candSurface, params.NormalThreshold, params.DepthThreshold) {
			continue
		}

		neighbor := currentBuffer.Load(reservoir.PixelToReservoir(cand, field), currentSlice)
		if !neighbor.IsValid() {
			continue
		}

		jacobian := reservoir.ReconnectionJacobian(surface.Position, candSurface.Position, neighbor.Position, neighbor.Normal)
		if !bridge.ValidateGISampleWithJacobian(jacobian) {
			continue
		}

		candidates = append(candidates, spatialCandidateGI{pixel: cand, surface: candSurface, sample: neighbor, jacobian: jacobian})
	}
	return candidates
}

// SpatialResampleGI runs the spatial resampling pass for global illumination.
func SpatialResampleGI(
	bridge restir.Bridge,
	pixel reservoir.Coord,
	surface restir.Surface,
	input reservoir.GIReservoir,
	currentBuffer *reservoir.GIBuffer,
	currentSlice, field int,
	offsets *NeighborOffsets,
	params SpatialParams,
	rng *rand.Rand,
) reservoir.GIReservoir {
	candidates := gatherSpatialCandidatesGI(bridge, pixel, surface, currentBuffer, currentSlice, field, offsets, params, rng)

	out := reservoir.EmptyGIReservoir()
	out.M = input.M
	out.WeightSum = input.WeightSum
	out.Position = input.Position
	out.Normal = input.Normal
	out.Radiance = input.Radiance

	selectedIdx := -1
	for i, c := range candidates {
		scaled := c.sample
		scaled.WeightSum *= c.jacobian
		targetAtCurrent := giTargetPdf(bridge, scaled, surface)
		if reservoir.CombineGI(&out, scaled, rng.Float64(), targetAtCurrent) {
			selectedIdx = i
		}
	}

	finalizeSpatialGI(&out, bridge, surface, input, candidates, selectedIdx, params)
	return out
}

func finalizeSpatialGI(out *reservoir.GIReservoir, bridge restir.Bridge, surface restir.Surface, input reservoir.GIReservoir, candidates []spatialCandidateGI, selectedIdx int, params SpatialParams) {
	if out.M == 0 {
		reservoir.FinalizeGI(out, 0, 0)
		return
	}

	selectedAtCurrent := giTargetPdf(bridge, *out, surface)
	if params.BiasCorrection == BiasOff {
		reservoir.FinalizeGI(out, 1, float64(out.M)*selectedAtCurrent)
		return
	}

	pi := selectedAtCurrent
	piSum := selectedAtCurrent * float64(input.M)

	for i, c := range candidates {
		ps := giTargetPdf(bridge, *out, c.surface)
		if params.BiasCorrection == BiasRayTraced {
			if !bridge.ConservativeVisibility(c.surface.Position, out.Position) {
				ps = 0
			}
		}
		if i == selectedIdx {
			pi = ps
		}
		piSum += ps * float64(c.sample.M)
	}

	reservoir.FinalizeGI(out, pi, piSum*selectedAtCurrent)
}
