package resample

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/df07/go-restir/pkg/core"
	"github.com/df07/go-restir/pkg/reservoir"
	"github.com/df07/go-restir/pkg/restir"
	"github.com/df07/go-restir/pkg/scene"
)

func defaultTemporalParams() TemporalParams {
	return TemporalParams{
		MaxHistoryLength:           20,
		MaxReservoirAge:            30,
		NormalThreshold:            0.5,
		DepthThreshold:             0.5,
		PermutationSamplingEnabled: false,
		EnableFallbackSampling:     true,
		EnableVisibilityShortcut:   true,
		BiasCorrection:             BiasBasic,
	}
}

func seedDIReservoir(bridge restir.Bridge, lightIndex int32, m int) reservoir.DIReservoir {
	light, _ := bridge.LoadLightInfo(lightIndex, false)
	sample := bridge.ReconstructLightSample(light, core.NewVec2(0.5, 0.5))
	surface := bridge.GBufferSurface(reservoir.Coord{X: 4, Y: 4}, false)
	targetPdf := bridge.LightSampleTargetPdf(sample, surface)
	return reservoir.DIReservoir{
		LightIndex:   lightIndex,
		IsValidLight: true,
		UV:           sample.UV,
		TargetPdf:    targetPdf,
		WeightSum:    1.0 / targetPdf,
		M:            m,
	}
}

func TestTemporalResampleDIEmptyInputAndNoHistoryStaysEmpty(t *testing.T) {
	bridge := scene.FlatPlaneGrid(32, 32, 16)
	prevBuffer := reservoir.NewDIBuffer(32, 32, 3)
	surface := bridge.GBufferSurface(reservoir.Coord{X: 4, Y: 4}, false)
	rng := rand.New(rand.NewSource(1))

	out := TemporalResampleDI(bridge, reservoir.Coord{X: 4, Y: 4}, surface, reservoir.EmptyDIReservoir(),
		prevBuffer, 0, 0, core.NewVec3(0, 0, 0), 1, defaultTemporalParams(), rng)

	assert.False(t, out.IsValid())
}

func TestTemporalResampleDICarriesPerfectNeighborForward(t *testing.T) {
	bridge := scene.FlatPlaneGrid(32, 32, 16)
	prevBuffer := reservoir.NewDIBuffer(32, 32, 3)
	pixel := reservoir.Coord{X: 4, Y: 4}
	surface := bridge.GBufferSurface(pixel, false)
	rng := rand.New(rand.NewSource(2))

	neighbor := seedDIReservoir(bridge, 3, 5)
	prevBuffer.Store(pixel, 0, neighbor)

	params := defaultTemporalParams()
	out := TemporalResampleDI(bridge, pixel, surface, reservoir.EmptyDIReservoir(), prevBuffer, 0, 0,
		core.NewVec3(0, 0, 0), 1, params, rng)

	assert.True(t, out.IsValid())
	assert.Equal(t, int32(3), out.LightIndex)
	assert.Greater(t, out.M, 0)
}

func TestTemporalResampleDIDiscardsStaleHistory(t *testing.T) {
	bridge := scene.FlatPlaneGrid(32, 32, 16)
	prevBuffer := reservoir.NewDIBuffer(32, 32, 3)
	pixel := reservoir.Coord{X: 4, Y: 4}
	surface := bridge.GBufferSurface(pixel, false)
	rng := rand.New(rand.NewSource(3))

	neighbor := seedDIReservoir(bridge, 3, 5)
	neighbor.Age = 100
	prevBuffer.Store(pixel, 0, neighbor)

	params := defaultTemporalParams()
	params.MaxReservoirAge = 10
	params.EnableFallbackSampling = false

	canonical := seedDIReservoir(bridge, 7, 1)
	out := TemporalResampleDI(bridge, pixel, surface, canonical, prevBuffer, 0, 0,
		core.NewVec3(0, 0, 0), 1, params, rng)

	// The temporal neighbor is too old and gets discarded; only the
	// canonical/current-frame candidate survives.
	assert.Equal(t, int32(7), out.LightIndex)
}

func TestTemporalResampleDIKillsReservoirWhenLightTranslationFails(t *testing.T) {
	bridge := &translationFailingBridge{Bridge: scene.FlatPlaneGrid(32, 32, 16)}
	prevBuffer := reservoir.NewDIBuffer(32, 32, 3)
	pixel := reservoir.Coord{X: 4, Y: 4}
	surface := bridge.GBufferSurface(pixel, false)
	rng := rand.New(rand.NewSource(4))

	neighbor := seedDIReservoir(bridge, 3, 5)
	prevBuffer.Store(pixel, 0, neighbor)

	params := defaultTemporalParams()
	params.EnableFallbackSampling = false

	out := TemporalResampleDI(bridge, pixel, surface, reservoir.EmptyDIReservoir(), prevBuffer, 0, 0,
		core.NewVec3(0, 0, 0), 1, params, rng)

	assert.False(t, out.IsValid())
}

// translationFailingBridge always fails TranslateLightIndex, simulating
// a light that disappeared between frames.
type translationFailingBridge struct {
	restir.Bridge
}

func (b *translationFailingBridge) TranslateLightIndex(idx int32, currentToPrevious bool) (int32, bool) {
	return 0, false
}

func TestTemporalResampleGIAppliesJacobianAndCarriesForward(t *testing.T) {
	bridge := scene.FlatPlaneGrid(32, 32, 16)
	prevBuffer := reservoir.NewGIBuffer(32, 32, 2)
	pixel := reservoir.Coord{X: 4, Y: 4}
	surface := bridge.GBufferSurface(pixel, false)
	rng := rand.New(rand.NewSource(5))

	neighbor := reservoir.GIReservoir{
		Position:  core.NewVec3(4, 5, 4),
		Normal:    core.NewVec3(0, -1, 0),
		Radiance:  core.NewVec3(1, 1, 1),
		WeightSum: 2.0,
		M:         3,
	}
	prevBuffer.Store(pixel, 0, neighbor)

	params := defaultTemporalParams()
	out := TemporalResampleGI(bridge, pixel, surface, reservoir.EmptyGIReservoir(), prevBuffer, 0, 0,
		core.NewVec3(0, 0, 0), params, rng)

	assert.True(t, out.IsValid())
}

func TestTemporalResampleGIFallsBackWhenNoNeighborFound(t *testing.T) {
	bridge := scene.FlatPlaneGrid(32, 32, 16)
	prevBuffer := reservoir.NewGIBuffer(32, 32, 2)
	pixel := reservoir.Coord{X: 4, Y: 4}
	surface := bridge.GBufferSurface(pixel, false)
	rng := rand.New(rand.NewSource(6))

	input := reservoir.GIReservoir{
		Position:  core.NewVec3(4, 5, 4),
		Normal:    core.NewVec3(0, -1, 0),
		Radiance:  core.NewVec3(1, 1, 1),
		WeightSum: 2.0,
		M:         1,
	}

	params := defaultTemporalParams()
	params.EnableFallbackSampling = false
	out := TemporalResampleGI(bridge, pixel, surface, input, prevBuffer, 0, 0,
		core.NewVec3(1000, 1000, 1000), params, rng)

	assert.Equal(t, input.M, out.M)
}
