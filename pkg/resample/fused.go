package resample

import (
	"math/rand"

	"github.com/df07/go-restir/pkg/core"
	"github.com/df07/go-restir/pkg/pairwise"
	"github.com/df07/go-restir/pkg/reservoir"
	"github.com/df07/go-restir/pkg/restir"
)

const (
	fusedTemporalSearchCount   = 5 // indices 0..4
	fusedTemporalFallbackIndex = 5 // index 5
	fusedSpatialStartIndex     = 6 // indices 6..totalSampleCount
)

// fusedPhaseResult records a candidate the search accepted (its pixel,
// its surface, and whether it came from the fallback), so the re-walk
// needed by basic/ray-traced bias correction iterates the recorded hits
// instead of running the search again.
type fusedPhaseResult struct {
	pixel    reservoir.Coord
	surface  restir.Surface
	fallback bool
}

// runFusedSearch runs the three fused search phases for DI and GI: a temporal
// search near the reprojected point, an optional fallback at the
// current pixel, then a spatial sweep of the neighbor-offset table
// starting at a captured startIdx.
func runFusedSearch(bridge restir.Bridge, pixel reservoir.Coord, surface restir.Surface, prevPos reservoir.Coord, field int, offsets *NeighborOffsets, radius float64, startIdx, totalSampleCount int, params FusedParams, rng *rand.Rand) (temporalHit *fusedPhaseResult, spatialHits []fusedPhaseResult) {
	for i := 0; i < fusedTemporalSearchCount; i++ {
		cand := prevPos
		if i > 0 {
			offset := randomDiskOffset(rng)
			cand = reservoir.Coord{X: prevPos.X + int(offset.X*radius), Y: prevPos.Y + int(offset.Y*radius)}
		}
		if !reservoir.IsActiveCheckerboardPixel(cand, true, field) {
			cand = reservoir.ActivateCheckerboardPixel(cand, true, field)
		}
		candSurface := bridge.GBufferSurface(cand, true)
		if acceptSurface(bridge, surface, candSurface, params.Temporal.NormalThreshold, params.Temporal.DepthThreshold) {
			temporalHit = &fusedPhaseResult{pixel: cand, surface: candSurface}
			break
		}
	}

	searchCenter := pixel
	if temporalHit == nil && params.Temporal.EnableFallbackSampling {
		cand := pixel
		if !reservoir.IsActiveCheckerboardPixel(cand, true, field) {
			cand = reservoir.ActivateCheckerboardPixel(cand, true, field)
		}
		candSurface := bridge.GBufferSurface(cand, true)
		if candSurface.Valid && bridge.IsSurfaceValid(candSurface) {
			temporalHit = &fusedPhaseResult{pixel: cand, surface: candSurface, fallback: true}
		}
	} else if temporalHit != nil {
		searchCenter = temporalHit.pixel
	}

	spatialHits = make([]fusedPhaseResult, 0, totalSampleCount-fusedSpatialStartIndex)
	for i := fusedSpatialStartIndex; i < totalSampleCount; i++ {
		offset := offsets.At(startIdx + i)
		cand := offsetPixel(searchCenter, offset, params.Spatial.SamplingRadius)
		cand = bridge.ClampSamplePositionIntoView(cand)
		if !reservoir.IsActiveCheckerboardPixel(cand, false, field) {
			cand = reservoir.ActivateCheckerboardPixel(cand, false, field)
		}
		candSurface := bridge.GBufferSurface(cand, false)
		if !acceptSurface(bridge, surface, candSurface, params.Spatial.NormalThreshold, params.Spatial.DepthThreshold) {
			continue
		}
		spatialHits = append(spatialHits, fusedPhaseResult{pixel: cand, surface: candSurface})
	}
	return temporalHit, spatialHits
}

// FusedResampleDI runs the fused spatio-temporal resampling pass for direct illumination: a single
// pass merging the temporal and spatial searches before streaming every
// accepted candidate into one output reservoir.
func FusedResampleDI(
	bridge restir.Bridge,
	pixel reservoir.Coord,
	surface restir.Surface,
	input reservoir.DIReservoir,
	prevBuffer *reservoir.DIBuffer,
	prevSlice int,
	field int,
	motionVector core.Vec3,
	offsets *NeighborOffsets,
	params FusedParams,
	rng *rand.Rand,
) reservoir.DIReservoir {
	total := params.TotalSampleCount
	if total > maxFusedSampleCount {
		total = maxFusedSampleCount
	}

	prevPos := reprojectedPosition(pixel, motionVector, !params.Temporal.PermutationSamplingEnabled, rng)
	radius := diTemporalRadiusFullResolution
	if field != 0 {
		radius = diTemporalRadiusCheckerboard
	}
	startIdx := int(rng.Float64() * float64(offsets.Mask()+1))

	temporalHit, spatialHits := runFusedSearch(bridge, pixel, surface, prevPos, field, offsets, radius, startIdx, total, params, rng)

	type fusedCandidateDI struct {
		fusedPhaseResult
		sample reservoir.DIReservoir
	}
	var candidates []fusedCandidateDI

	if temporalHit != nil {
		previousFrame := !temporalHit.fallback
		neighbor := prevBuffer.Load(reservoir.PixelToReservoir(temporalHit.pixel, field), prevSlice)
		neighbor, ok := clampHistoryDI(neighbor, params.Temporal.MaxHistoryLength, params.Temporal.MaxReservoirAge)
		if ok && neighbor.IsValid() {
			if neighbor.IsValidLight && previousFrame {
				translated, translateOK := bridge.TranslateLightIndex(neighbor.LightIndex, false)
				if !translateOK {
					neighbor = reservoir.EmptyDIReservoir()
				} else {
					neighbor.LightIndex = translated
				}
			}
			if neighbor.IsValid() {
				candidates = append(candidates, fusedCandidateDI{*temporalHit, neighbor})
			}
		}
	}
	for _, hit := range spatialHits {
		neighbor := prevBuffer.Load(reservoir.PixelToReservoir(hit.pixel, field), prevSlice)
		if !neighbor.IsValid() {
			continue
		}
		if params.Spatial.DiscountNaiveSamples && neighbor.M <= reservoir.RTXDINaiveSamplingMThreshold {
			continue
		}
		candidates = append(candidates, fusedCandidateDI{hit, neighbor})
	}

	out := reservoir.EmptyDIReservoir()
	out.M = input.M
	out.WeightSum = input.WeightSum
	out.LightIndex = input.LightIndex
	out.IsValidLight = input.IsValidLight
	out.UV = input.UV
	out.TargetPdf = input.TargetPdf

	if params.Spatial.BiasCorrection == BiasPairwise {
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

	selectedIdx := -1
	for i, c := range candidates {
		targetAtCurrent := diTargetPdf(bridge, c.sample, surface, false)
		if reservoir.CombineDI(&out, c.sample, rng.Float64(), targetAtCurrent) {
			selectedIdx = i
		}
	}

	if out.M == 0 {
		reservoir.FinalizeDI(&out, 0, 0)
		return out
	}
	if params.Spatial.BiasCorrection == BiasOff {
		reservoir.FinalizeDI(&out, 1, float64(out.M)*out.TargetPdf)
		return out
	}

	pi := out.TargetPdf
	piSum := input.TargetPdf * float64(input.M)
	for i, c := range candidates {
		ps := diTargetPdf(bridge, out, c.surface, false)
		if i == selectedIdx {
			pi = ps
		}
		piSum += ps * float64(c.sample.M)
	}
	reservoir.FinalizeDI(&out, pi, piSum)
	return out
}

// FusedResampleGI is the GI analogue of FusedResampleDI: the same
// three-phase search, but each accepted candidate is scaled by its
// reprojection Jacobian before streaming.
func FusedResampleGI(
	bridge restir.Bridge,
	pixel reservoir.Coord,
	surface restir.Surface,
	input reservoir.GIReservoir,
	prevBuffer *reservoir.GIBuffer,
	prevSlice int,
	field int,
	motionVector core.Vec3,
	offsets *NeighborOffsets,
	params FusedParams,
	rng *rand.Rand,
) reservoir.GIReservoir {
	total := params.TotalSampleCount
	if total > maxFusedSampleCount {
		total = maxFusedSampleCount
	}

	prevPos := reprojectedPosition(pixel, motionVector, false, rng)
	startIdx := int(rng.Float64() * float64(offsets.Mask()+1))

	temporalHit, spatialHits := runFusedSearch(bridge, pixel, surface, prevPos, field, offsets, 1, startIdx, total, params, rng)

	out := reservoir.EmptyGIReservoir()
	out.M = input.M
	out.WeightSum = input.WeightSum
	out.Position = input.Position
	out.Normal = input.Normal
	out.Radiance = input.Radiance

	// Fused mode reads a single previous-frame buffer for both the
	// temporal hit and the spatial sweep.
	stream := func(hit fusedPhaseResult) {
		neighbor := prevBuffer.Load(reservoir.PixelToReservoir(hit.pixel, field), prevSlice)
		neighbor, ok := clampHistoryGI(neighbor, params.Temporal.MaxHistoryLength, params.Temporal.MaxReservoirAge)
		if !ok || !neighbor.IsValid() {
			return
		}
		jacobian := reservoir.ReconnectionJacobian(surface.Position, hit.surface.Position, neighbor.Position, neighbor.Normal)
		if !bridge.ValidateGISampleWithJacobian(jacobian) {
			return
		}
		neighbor.WeightSum *= jacobian
		targetAtCurrent := giTargetPdf(bridge, neighbor, surface)
		reservoir.CombineGI(&out, neighbor, rng.Float64(), targetAtCurrent)
	}

	if temporalHit != nil {
		stream(*temporalHit)
	}
	for _, hit := range spatialHits {
		stream(hit)
	}

	selectedPdf := giTargetPdf(bridge, out, surface)
	if out.M == 0 || selectedPdf <= 0 {
		reservoir.FinalizeGI(&out, 0, 0)
		return out
	}
	if params.Spatial.BiasCorrection == BiasOff {
		reservoir.FinalizeGI(&out, 1, float64(out.M)*selectedPdf)
		return out
	}
	piSum := selectedPdf * float64(out.M)
	reservoir.FinalizeGI(&out, selectedPdf, piSum*selectedPdf)
	return out
}
