// Package scene builds mock restir.Bridge implementations for tests and
// the benchmark CLI: a flat G-buffer plane and a uniform grid of point
// lights, following the design note that a realistic scene mock needs
// nothing more elaborate than that to exercise the resampling passes.
package scene

import (
	"math"
	"math/rand"

	"github.com/df07/go-restir/pkg/core"
	"github.com/df07/go-restir/pkg/reservoir"
	"github.com/df07/go-restir/pkg/restir"
)

// flatPlaneGrid is a restir.Bridge backed by a constant-normal plane
// G-buffer and a uniform grid of point lights in the plane above it.
type flatPlaneGrid struct {
	width, height int
	lightCount    int
	lightSpacing  float64
	noise         float64
}

// FlatPlaneGrid returns a Bridge over a flat-plane G-buffer (constant
// normal, linearly increasing depth) and a lightCount-strong grid of
// point lights, usable by both DI and GI resampling passes.
func FlatPlaneGrid(width, height, lightCount int) restir.Bridge {
	return &flatPlaneGrid{width: width, height: height, lightCount: lightCount, lightSpacing: 2.0}
}

// NoisyPlaneGrid is FlatPlaneGrid with per-pixel depth/normal jitter, so
// similarity tests in the resampling passes actually reject some
// neighbors instead of accepting everything uniformly.
func NoisyPlaneGrid(width, height, lightCount int, noise float64) restir.Bridge {
	return &flatPlaneGrid{width: width, height: height, lightCount: lightCount, lightSpacing: 2.0, noise: noise}
}

func (s *flatPlaneGrid) pixelNoise(p reservoir.Coord) float64 {
	if s.noise == 0 {
		return 0
	}
	h := reservoir.JenkinsHash(uint32(p.X)*73856093 ^ uint32(p.Y)*19349663)
	return (float64(h%1000)/1000 - 0.5) * 2 * s.noise
}

func (s *flatPlaneGrid) GBufferSurface(p reservoir.Coord, previousFrame bool) restir.Surface {
	if p.X < 0 || p.Y < 0 || p.X >= s.width || p.Y >= s.height {
		return restir.Surface{}
	}
	depth := 10.0 + float64(p.Y)*0.01 + s.pixelNoise(p)
	normal := core.NewVec3(s.pixelNoise(p)*0.05, 1, s.pixelNoise(p)*0.05).Normalize()
	return restir.Surface{
		Position:    core.NewVec3(float64(p.X), 0, float64(p.Y)),
		Normal:      normal,
		LinearDepth: depth,
		MaterialID:  0,
		Valid:       true,
	}
}

func (s *flatPlaneGrid) IsSurfaceValid(surf restir.Surface) bool {
	return surf.Valid
}

func (s *flatPlaneGrid) AreMaterialsSimilar(a, b restir.Surface) bool {
	return a.MaterialID == b.MaterialID
}

func (s *flatPlaneGrid) lightPosition(idx int32) core.Vec3 {
	side := int32(math.Sqrt(float64(s.lightCount)))
	if side == 0 {
		side = 1
	}
	row := idx / side
	col := idx % side
	return core.NewVec3(float64(col)*s.lightSpacing, 5, float64(row)*s.lightSpacing)
}

func (s *flatPlaneGrid) LoadLightInfo(idx int32, previousFrame bool) (restir.LightInfo, bool) {
	if idx < 0 || idx >= int32(s.lightCount) {
		return restir.LightInfo{}, false
	}
	return restir.LightInfo{Index: idx}, true
}

// TranslateLightIndex is the identity mapping: this mock never renumbers
// lights between frames. Callers that need to exercise the "light
// disappeared" path (scenario S5) should construct a Bridge stub
// directly rather than go through this mock.
func (s *flatPlaneGrid) TranslateLightIndex(idx int32, currentToPrevious bool) (int32, bool) {
	if idx < 0 || idx >= int32(s.lightCount) {
		return 0, false
	}
	return idx, true
}

func (s *flatPlaneGrid) SamplePolymorphicLight(light restir.LightInfo, surface restir.Surface, random *rand.Rand) restir.LightSample {
	uv := core.NewVec2(random.Float64(), random.Float64())
	return s.ReconstructLightSample(light, uv)
}

func (s *flatPlaneGrid) ReconstructLightSample(light restir.LightInfo, uv core.Vec2) restir.LightSample {
	pos := s.lightPosition(light.Index)
	return restir.LightSample{
		Position: pos,
		Normal:   core.NewVec3(0, -1, 0),
		UV:       uv,
		PDF:      1.0 / float64(s.lightCount),
	}
}

func (s *flatPlaneGrid) LightSampleTargetPdf(sample restir.LightSample, surface restir.Surface) float64 {
	toLight := sample.Position.Subtract(surface.Position)
	distSq := toLight.LengthSquared()
	if distSq <= 0 {
		return 0
	}
	dir := toLight.Normalize()
	cosTheta := math.Max(0, surface.Normal.Dot(dir))
	return cosTheta / distSq
}

func (s *flatPlaneGrid) GISampleTargetPdf(sample reservoir.GIReservoir, surface restir.Surface) float64 {
	if !sample.IsValid() {
		return 0
	}
	toSample := sample.Position.Subtract(surface.Position)
	distSq := toSample.LengthSquared()
	if distSq <= 0 {
		return sample.Radiance.Luminance()
	}
	dir := toSample.Normalize()
	cosTheta := math.Max(0, surface.Normal.Dot(dir))
	return sample.Radiance.Luminance() * cosTheta / distSq
}

func (s *flatPlaneGrid) ConservativeVisibility(from, to core.Vec3) bool {
	return true
}

func (s *flatPlaneGrid) TemporalConservativeVisibility(from, to core.Vec3) bool {
	return true
}

func (s *flatPlaneGrid) ValidateGISampleWithJacobian(jacobian float64) bool {
	return jacobian > 0 && jacobian < 10
}

func (s *flatPlaneGrid) ClampSamplePositionIntoView(p reservoir.Coord) reservoir.Coord {
	return reservoir.Coord{
		X: clampInt(p.X, 0, s.width-1),
		Y: clampInt(p.Y, 0, s.height-1),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
