// Package restir provides the host-facing surface of the reservoir
// resampling core: the RAB_* capability interface (named Bridge here),
// resampling-mode/buffer-index bookkeeping, and the ambient
// logging/config plumbing every resampling pass is built against.
package restir

import (
	"math/rand"

	"github.com/df07/go-restir/pkg/core"
	"github.com/df07/go-restir/pkg/reservoir"
)

// Surface is a minimal G-buffer sample: the data the resampling passes
// need to test similarity between two shading points.
type Surface struct {
	Position   core.Vec3
	Normal     core.Vec3
	LinearDepth float64
	MaterialID int
	Valid      bool
}

// LightInfo is an opaque handle to a light the Bridge can evaluate or
// translate between frames.
type LightInfo struct {
	Index int32
}

// LightSample is a concrete point sampled on a light, with its UV on the
// light and the PDF of having chosen it.
type LightSample struct {
	Position core.Vec3
	Normal   core.Vec3
	UV       core.Vec2
	PDF      float64
}

// Bridge is the capability set a host renderer implements to let the
// resampling passes in pkg/resample reach the scene: a Go rendering of
// the RTXDI Application Bridge (RAB_*) functions. Production code wires
// a real ray-tracing backend; tests wire pkg/scene's mock flat-plane/
// point-grid implementation.
type Bridge interface {
	GBufferSurface(p reservoir.Coord, previousFrame bool) Surface
	IsSurfaceValid(s Surface) bool
	AreMaterialsSimilar(a, b Surface) bool

	LoadLightInfo(idx int32, previousFrame bool) (LightInfo, bool)
	TranslateLightIndex(idx int32, currentToPrevious bool) (int32, bool)
	SamplePolymorphicLight(light LightInfo, surface Surface, random *rand.Rand) LightSample
	// ReconstructLightSample rebuilds the concrete sample point a
	// reservoir's stored (light, uv) pair refers to, with no RNG draw
	// involved: resampling re-evaluates an existing reservoir's sample
	// at a different surface, it never draws a new one.
	ReconstructLightSample(light LightInfo, uv core.Vec2) LightSample
	LightSampleTargetPdf(sample LightSample, surface Surface) float64

	GISampleTargetPdf(sample reservoir.GIReservoir, surface Surface) float64

	ConservativeVisibility(from, to core.Vec3) bool
	TemporalConservativeVisibility(from, to core.Vec3) bool
	ValidateGISampleWithJacobian(jacobian float64) bool

	ClampSamplePositionIntoView(p reservoir.Coord) reservoir.Coord
}
