// Command restirbench drives the reservoir resampling core over a mock
// scene for a configurable number of frames and reports per-frame
// reservoir statistics.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/df07/go-restir/pkg/core"
	"github.com/df07/go-restir/pkg/reservoir"
	"github.com/df07/go-restir/pkg/resample"
	"github.com/df07/go-restir/pkg/restir"
	"github.com/df07/go-restir/pkg/scene"
)

// Config holds all the configuration for a benchmark run.
type Config struct {
	Width        int
	Height       int
	Frames       int
	LightCount   int
	Mode         string
	Checkerboard string
	Bias         string
	Seed         int64
	Noise        float64
	Help         bool
}

func main() {
	config := parseFlags()
	if config.Help {
		showHelp()
		return
	}

	if err := run(config); err != nil {
		fmt.Fprintf(os.Stderr, "restirbench: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() Config {
	config := Config{}
	flag.IntVar(&config.Width, "width", 64, "Frame width in pixels")
	flag.IntVar(&config.Height, "height", 64, "Frame height in pixels")
	flag.IntVar(&config.Frames, "frames", 8, "Number of frames to simulate")
	flag.IntVar(&config.LightCount, "lights", 256, "Number of lights in the mock scene")
	flag.StringVar(&config.Mode, "mode", "temporal-spatial", "Resampling mode: none, temporal, spatial, temporal-spatial, fused")
	flag.StringVar(&config.Checkerboard, "checkerboard", "off", "Checkerboard mode: off, black, white")
	flag.StringVar(&config.Bias, "bias", "basic", "Bias correction mode: off, basic, ray-traced, pairwise")
	flag.Int64Var(&config.Seed, "seed", 1, "Random seed")
	flag.Float64Var(&config.Noise, "noise", 0.0, "Per-pixel G-buffer noise, for testing similarity rejection")
	flag.BoolVar(&config.Help, "help", false, "Show help information")
	flag.Parse()
	return config
}

func showHelp() {
	fmt.Println("restirbench")
	fmt.Println("Usage: restirbench [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Example:")
	fmt.Println("  restirbench --mode=fused --bias=pairwise --frames=32 --width=128 --height=128")
}

func parseMode(s string) (restir.ResamplingMode, error) {
	switch s {
	case "none":
		return restir.ResamplingNone, nil
	case "temporal":
		return restir.ResamplingTemporal, nil
	case "spatial":
		return restir.ResamplingSpatial, nil
	case "temporal-spatial":
		return restir.ResamplingTemporalAndSpatial, nil
	case "fused":
		return restir.ResamplingFusedSpatiotemporal, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

func parseCheckerboard(s string) (restir.CheckerboardMode, error) {
	switch s {
	case "off":
		return restir.CheckerboardOff, nil
	case "black":
		return restir.CheckerboardBlack, nil
	case "white":
		return restir.CheckerboardWhite, nil
	default:
		return 0, fmt.Errorf("unknown checkerboard mode %q", s)
	}
}

func parseBias(s string) (resample.BiasCorrectionMode, error) {
	switch s {
	case "off":
		return resample.BiasOff, nil
	case "basic":
		return resample.BiasBasic, nil
	case "ray-traced":
		return resample.BiasRayTraced, nil
	case "pairwise":
		return resample.BiasPairwise, nil
	default:
		return 0, fmt.Errorf("unknown bias correction mode %q", s)
	}
}

// frameStats summarizes the shading-ready reservoirs produced by one
// frame.
type frameStats struct {
	validDI, validGI   int
	averageM           float64
	averageWeight      float64
	boilingDiscardedDI int
	boilingDiscardedGI int
}

func run(config Config) error {
	mode, err := parseMode(config.Mode)
	if err != nil {
		return err
	}
	checkerboard, err := parseCheckerboard(config.Checkerboard)
	if err != nil {
		return err
	}
	bias, err := parseBias(config.Bias)
	if err != nil {
		return err
	}

	cfg, err := restir.DefaultConfig()
	if err != nil {
		return fmt.Errorf("loading default config: %w", err)
	}
	cfg.Temporal.BiasCorrection = bias
	cfg.Spatial.BiasCorrection = bias
	// Fused mode reads its own copies of the temporal/spatial params.
	// Pairwise MIS is DI-only; the spatial and fused GI passes have no
	// pairwise streaming path and finalize a pairwise setting as basic.
	cfg.Fused.Temporal.BiasCorrection = bias
	cfg.Fused.Spatial.BiasCorrection = bias

	logger := restir.DefaultLogger{}
	rng := rand.New(rand.NewSource(config.Seed))

	ctx, err := restir.NewContext(config.Width, config.Height, cfg.TileSize, cfg.TileCount)
	if err != nil {
		return err
	}
	ctx.SetResamplingMode(mode)
	ctx.SetCheckerboardMode(checkerboard)

	bridge := scene.NoisyPlaneGrid(config.Width, config.Height, config.LightCount, config.Noise)
	offsets := resample.NewNeighborOffsets(cfg.NeighborOffsetCount, rng)

	diBuffer := reservoir.NewDIBuffer(config.Width, config.Height, reservoir.NumReservoirBuffersDI)
	giBuffer := reservoir.NewGIBuffer(config.Width, config.Height, reservoir.NumReservoirBuffersGI)

	startTime := time.Now()
	logger.Printf("restirbench: %dx%d, %d lights, mode=%s, checkerboard=%s, bias=%s",
		config.Width, config.Height, config.LightCount, config.Mode, config.Checkerboard, config.Bias)

	for frame := 0; frame < config.Frames; frame++ {
		ctx.SetFrameIndex(uint32(frame))
		stats := runFrame(ctx, bridge, diBuffer, giBuffer, offsets, cfg, config.LightCount, rng)
		logger.Printf("frame %3d: DI valid=%5d avgM=%.2f avgW=%.4f discarded=%3d | GI valid=%5d discarded=%3d",
			frame, stats.validDI, stats.averageM, stats.averageWeight, stats.boilingDiscardedDI,
			stats.validGI, stats.boilingDiscardedGI)
	}

	logger.Printf("completed %d frames in %v", config.Frames, time.Since(startTime))
	return nil
}

func runFrame(
	ctx *restir.Context,
	bridge restir.Bridge,
	diBuffer *reservoir.DIBuffer,
	giBuffer *reservoir.GIBuffer,
	offsets *resample.NeighborOffsets,
	cfg restir.Config,
	lightCount int,
	rng *rand.Rand,
) frameStats {
	field := ctx.ActiveCheckerboardField()
	diIdx := ctx.DIBufferIndices()
	giIdx := ctx.GIBufferIndices()
	mode := ctx.ResamplingMode()
	frameRandom := uint32(rng.Int63())
	motionVector := core.NewVec3(0, 0, 0)

	for y := 0; y < ctx.Height; y++ {
		for x := 0; x < ctx.Width; x++ {
			pixel := reservoir.Coord{X: x, Y: y}
			if !reservoir.IsActiveCheckerboardPixel(pixel, false, field) {
				continue
			}
			reservoirCoord := reservoir.PixelToReservoir(pixel, field)
			surface := bridge.GBufferSurface(pixel, false)
			if !surface.Valid {
				continue
			}

			diCandidate := generateInitialDI(bridge, surface, lightCount, rng)
			diBuffer.Store(reservoirCoord, diIdx.InitOutput, diCandidate)

			giCandidate := generateInitialGI(bridge, surface, rng)
			giBuffer.Store(reservoirCoord, giShadingSeedSlice(mode, giIdx), giCandidate)

			resamplePixelDI(bridge, pixel, surface, diBuffer, diIdx, field, motionVector, frameRandom, offsets, cfg, mode, rng)
			resamplePixelGI(bridge, pixel, surface, giBuffer, giIdx, field, motionVector, offsets, cfg, mode, rng)
		}
	}

	stats := frameStats{}
	stats.boilingDiscardedDI = runBoilingFilterDI(ctx, diBuffer, diIdx.ShadingInput, field, cfg)
	stats.boilingDiscardedGI = runBoilingFilterGI(ctx, giBuffer, giIdx.ShadingInput, field, cfg)

	var weightSum float64
	var mSum int
	for y := 0; y < ctx.Height; y++ {
		for x := 0; x < ctx.Width; x++ {
			pixel := reservoir.Coord{X: x, Y: y}
			if !reservoir.IsActiveCheckerboardPixel(pixel, false, field) {
				continue
			}
			coord := reservoir.PixelToReservoir(pixel, field)
			di := diBuffer.Load(coord, diIdx.ShadingInput)
			if di.IsValid() {
				stats.validDI++
				weightSum += di.WeightSum
				mSum += di.M
			}
			gi := giBuffer.Load(coord, giIdx.ShadingInput)
			if gi.IsValid() {
				stats.validGI++
			}
		}
	}
	if stats.validDI > 0 {
		stats.averageM = float64(mSum) / float64(stats.validDI)
		stats.averageWeight = weightSum / float64(stats.validDI)
	}
	return stats
}

// giShadingSeedSlice picks the slice the initial GI candidate seeds:
// whichever slice the mode's first pass reads from as its "current
// pixel" input, mirroring how diIdx.InitOutput seeds the DI pipeline.
func giShadingSeedSlice(mode restir.ResamplingMode, idx restir.GIBufferIndices) int {
	switch mode {
	case restir.ResamplingTemporal, restir.ResamplingTemporalAndSpatial:
		return idx.TemporalOutput
	case restir.ResamplingSpatial:
		return idx.SpatialInput
	case restir.ResamplingFusedSpatiotemporal:
		return idx.SpatialOutput
	default:
		return idx.ShadingInput
	}
}

// generateInitialDI performs the RIS initial-candidate-generation step
// that a host's light-sampling shader would run before any resampling:
// stream a handful of uniformly chosen lights into a fresh reservoir.
// This glue lives in the CLI rather than pkg/resample because initial
// candidate generation is driven by Bridge.SamplePolymorphicLight, which
// is explicitly out of scope for the resampling core itself.
func generateInitialDI(bridge restir.Bridge, surface restir.Surface, lightCount int, rng *rand.Rand) reservoir.DIReservoir {
	const candidateCount = 8
	out := reservoir.EmptyDIReservoir()

	for i := 0; i < candidateCount; i++ {
		lightIdx := int32(rng.Intn(boundOrOne(lightCount)))
		light, ok := bridge.LoadLightInfo(lightIdx, false)
		if !ok {
			continue
		}
		sample := bridge.SamplePolymorphicLight(light, surface, rng)
		targetPdf := bridge.LightSampleTargetPdf(sample, surface)
		if targetPdf <= 0 || sample.PDF <= 0 {
			continue
		}
		candidate := reservoir.DIReservoir{
			LightIndex:   lightIdx,
			IsValidLight: true,
			UV:           sample.UV,
			WeightSum:    1.0 / sample.PDF,
			M:            1,
		}
		reservoir.CombineDI(&out, candidate, rng.Float64(), targetPdf)
	}

	if out.M > 0 {
		reservoir.FinalizeDI(&out, 1, out.TargetPdf*float64(out.M))
	}
	return out
}

func boundOrOne(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// generateInitialGI stands in for a path tracer's secondary bounce:
// a single hit point offset from the surface along its normal
// hemisphere, scored through the bridge's GI target pdf. Like
// generateInitialDI, this is CLI glue exercising the reservoir core, not
// a component the resampling passes themselves provide.
func generateInitialGI(bridge restir.Bridge, surface restir.Surface, rng *rand.Rand) reservoir.GIReservoir {
	offset := core.NewVec3(rng.Float64()-0.5, rng.Float64(), rng.Float64()-0.5).Normalize()
	hitPosition := surface.Position.Add(offset.Multiply(2.0))
	radiance := core.NewVec3(rng.Float64(), rng.Float64(), rng.Float64())

	candidate := reservoir.GIReservoir{
		Position:  hitPosition,
		Normal:    offset.Negate(),
		Radiance:  radiance,
		WeightSum: 1.0,
		M:         1,
	}

	out := reservoir.EmptyGIReservoir()
	targetPdf := bridge.GISampleTargetPdf(candidate, surface)
	if targetPdf > 0 {
		reservoir.CombineGI(&out, candidate, rng.Float64(), targetPdf)
		reservoir.FinalizeGI(&out, 1, targetPdf*float64(out.M))
	}
	return out
}

func resamplePixelDI(
	bridge restir.Bridge,
	pixel reservoir.Coord,
	surface restir.Surface,
	diBuffer *reservoir.DIBuffer,
	idx restir.DIBufferIndices,
	field int,
	motionVector core.Vec3,
	frameRandom uint32,
	offsets *resample.NeighborOffsets,
	cfg restir.Config,
	mode restir.ResamplingMode,
	rng *rand.Rand,
) {
	coord := reservoir.PixelToReservoir(pixel, field)
	input := diBuffer.Load(coord, idx.InitOutput)

	switch mode {
	case restir.ResamplingTemporal:
		out := resample.TemporalResampleDI(bridge, pixel, surface, input, diBuffer, idx.TemporalInput, field, motionVector, frameRandom, cfg.Temporal, rng)
		diBuffer.Store(coord, idx.TemporalOutput, out)

	case restir.ResamplingSpatial:
		out := resample.SpatialResampleDI(bridge, pixel, surface, input, diBuffer, idx.SpatialInput, field, offsets, cfg.Spatial, rng)
		diBuffer.Store(coord, idx.SpatialOutput, out)

	case restir.ResamplingTemporalAndSpatial:
		temporalOut := resample.TemporalResampleDI(bridge, pixel, surface, input, diBuffer, idx.TemporalInput, field, motionVector, frameRandom, cfg.Temporal, rng)
		diBuffer.Store(coord, idx.TemporalOutput, temporalOut)
		spatialOut := resample.SpatialResampleDI(bridge, pixel, surface, temporalOut, diBuffer, idx.SpatialInput, field, offsets, cfg.Spatial, rng)
		diBuffer.Store(coord, idx.SpatialOutput, spatialOut)

	case restir.ResamplingFusedSpatiotemporal:
		out := resample.FusedResampleDI(bridge, pixel, surface, input, diBuffer, idx.TemporalInput, field, motionVector, offsets, cfg.Fused, rng)
		diBuffer.Store(coord, idx.InitOutput, out)

	default:
		// ResamplingNone: the init candidate is already the shading input.
	}
}

func resamplePixelGI(
	bridge restir.Bridge,
	pixel reservoir.Coord,
	surface restir.Surface,
	giBuffer *reservoir.GIBuffer,
	idx restir.GIBufferIndices,
	field int,
	motionVector core.Vec3,
	offsets *resample.NeighborOffsets,
	cfg restir.Config,
	mode restir.ResamplingMode,
	rng *rand.Rand,
) {
	coord := reservoir.PixelToReservoir(pixel, field)

	switch mode {
	case restir.ResamplingTemporal:
		input := giBuffer.Load(coord, idx.TemporalOutput)
		out := resample.TemporalResampleGI(bridge, pixel, surface, input, giBuffer, idx.TemporalInput, field, motionVector, cfg.Temporal, rng)
		giBuffer.Store(coord, idx.TemporalOutput, out)

	case restir.ResamplingSpatial:
		input := giBuffer.Load(coord, idx.SpatialInput)
		out := resample.SpatialResampleGI(bridge, pixel, surface, input, giBuffer, idx.SpatialInput, field, offsets, cfg.Spatial, rng)
		giBuffer.Store(coord, idx.SpatialOutput, out)

	case restir.ResamplingTemporalAndSpatial:
		input := giBuffer.Load(coord, idx.TemporalOutput)
		temporalOut := resample.TemporalResampleGI(bridge, pixel, surface, input, giBuffer, idx.TemporalInput, field, motionVector, cfg.Temporal, rng)
		giBuffer.Store(coord, idx.TemporalOutput, temporalOut)
		spatialOut := resample.SpatialResampleGI(bridge, pixel, surface, temporalOut, giBuffer, idx.SpatialInput, field, offsets, cfg.Spatial, rng)
		giBuffer.Store(coord, idx.SpatialOutput, spatialOut)

	case restir.ResamplingFusedSpatiotemporal:
		input := giBuffer.Load(coord, idx.SpatialOutput)
		out := resample.FusedResampleGI(bridge, pixel, surface, input, giBuffer, idx.TemporalInput, field, motionVector, offsets, cfg.Fused, rng)
		giBuffer.Store(coord, idx.SpatialOutput, out)

	default:
		// ResamplingNone: the init candidate is already the shading input.
	}
}

func runBoilingFilterDI(ctx *restir.Context, buf *reservoir.DIBuffer, slice, field int, cfg restir.Config) int {
	if !cfg.BoilingFilter.Enabled {
		return 0
	}
	discarded := 0
	for ty := 0; ty < ctx.Height; ty += ctx.TileSize {
		for tx := 0; tx < ctx.Width; tx += ctx.TileSize {
			tile, coords := collectTileDI(ctx, buf, slice, field, tx, ty)
			if len(tile) == 0 {
				continue
			}
			n := reservoir.BoilingFilterDI(tile, cfg.BoilingFilter.FilterStrength)
			for i, r := range tile {
				buf.Store(coords[i], slice, r)
			}
			discarded += n
		}
	}
	return discarded
}

func collectTileDI(ctx *restir.Context, buf *reservoir.DIBuffer, slice, field, tx, ty int) ([]reservoir.DIReservoir, []reservoir.Coord) {
	var tile []reservoir.DIReservoir
	var coords []reservoir.Coord
	for y := ty; y < ty+ctx.TileSize && y < ctx.Height; y++ {
		for x := tx; x < tx+ctx.TileSize && x < ctx.Width; x++ {
			pixel := reservoir.Coord{X: x, Y: y}
			if !reservoir.IsActiveCheckerboardPixel(pixel, false, field) {
				continue
			}
			coord := reservoir.PixelToReservoir(pixel, field)
			tile = append(tile, buf.Load(coord, slice))
			coords = append(coords, coord)
		}
	}
	return tile, coords
}

func runBoilingFilterGI(ctx *restir.Context, buf *reservoir.GIBuffer, slice, field int, cfg restir.Config) int {
	if !cfg.BoilingFilter.Enabled {
		return 0
	}
	discarded := 0
	for ty := 0; ty < ctx.Height; ty += ctx.TileSize {
		for tx := 0; tx < ctx.Width; tx += ctx.TileSize {
			tile, coords := collectTileGI(ctx, buf, slice, field, tx, ty)
			if len(tile) == 0 {
				continue
			}
			n := reservoir.BoilingFilterGI(tile, cfg.BoilingFilter.FilterStrength)
			for i, r := range tile {
				buf.Store(coords[i], slice, r)
			}
			discarded += n
		}
	}
	return discarded
}

func collectTileGI(ctx *restir.Context, buf *reservoir.GIBuffer, slice, field, tx, ty int) ([]reservoir.GIReservoir, []reservoir.Coord) {
	var tile []reservoir.GIReservoir
	var coords []reservoir.Coord
	for y := ty; y < ty+ctx.TileSize && y < ctx.Height; y++ {
		for x := tx; x < tx+ctx.TileSize && x < ctx.Width; x++ {
			pixel := reservoir.Coord{X: x, Y: y}
			if !reservoir.IsActiveCheckerboardPixel(pixel, false, field) {
				continue
			}
			coord := reservoir.PixelToReservoir(pixel, field)
			tile = append(tile, buf.Load(coord, slice))
			coords = append(coords, coord)
		}
	}
	return tile, coords
}
