package resample

import (
	"math"

	"github.com/df07/go-restir/pkg/reservoir"
	"github.com/df07/go-restir/pkg/restir"
)

// acceptSurface runs the shared surface-rejection tests common to
// temporal and spatial neighbor search: surface validity, normal
// similarity, relative depth, and material.
func acceptSurface(bridge restir.Bridge, current, candidate restir.Surface, normalThreshold, depthThreshold float64) bool {
	if !candidate.Valid || !bridge.IsSurfaceValid(candidate) {
		return false
	}
	if current.Normal.Dot(candidate.Normal) < normalThreshold {
		return false
	}
	if relativeDepthDifference(current.LinearDepth, candidate.LinearDepth) > depthThreshold {
		return false
	}
	if !bridge.AreMaterialsSimilar(current, candidate) {
		return false
	}
	return true
}

func relativeDepthDifference(a, b float64) float64 {
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return 0
	}
	return math.Abs(a-b) / denom
}

// diTargetPdf evaluates a DI reservoir's stored (light, uv) sample
// against surface, reconstructing the concrete sample point through the
// bridge with no RNG draw.
func diTargetPdf(bridge restir.Bridge, r reservoir.DIReservoir, surface restir.Surface, previousFrame bool) float64 {
	if !r.IsValidLight {
		return 0
	}
	light, ok := bridge.LoadLightInfo(r.LightIndex, previousFrame)
	if !ok {
		return 0
	}
	sample := bridge.ReconstructLightSample(light, r.UV)
	return bridge.LightSampleTargetPdf(sample, surface)
}

// giTargetPdf evaluates a GI reservoir's stored secondary-hit sample
// against surface.
func giTargetPdf(bridge restir.Bridge, r reservoir.GIReservoir, surface restir.Surface) float64 {
	return bridge.GISampleTargetPdf(r, surface)
}

// clampHistoryDI bounds a reservoir's M and bumps its age, discarding it
// (returning the empty reservoir) once age exceeds maxAge.
func clampHistoryDI(r reservoir.DIReservoir, maxHistoryLength, maxAge int) (reservoir.DIReservoir, bool) {
	if r.M > maxHistoryLength {
		r.M = maxHistoryLength
	}
	r.Age++
	if r.Age > maxAge {
		return reservoir.EmptyDIReservoir(), false
	}
	return r, true
}

func clampHistoryGI(r reservoir.GIReservoir, maxHistoryLength, maxAge int) (reservoir.GIReservoir, bool) {
	if r.M > maxHistoryLength {
		r.M = maxHistoryLength
	}
	r.Age++
	if r.Age > maxAge {
		return reservoir.EmptyGIReservoir(), false
	}
	return r, true
}
