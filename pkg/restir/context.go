package restir

import "fmt"

// DIBufferIndices names which of the 3 physical DI reservoir slices to
// read/write for a given frame and ResamplingMode.
type DIBufferIndices struct {
	InitOutput     int
	TemporalInput  int
	TemporalOutput int
	SpatialInput   int
	SpatialOutput  int
	ShadingInput   int
}

// GIBufferIndices is the GI analogue of DIBufferIndices (2 slices).
type GIBufferIndices struct {
	TemporalInput  int
	TemporalOutput int
	SpatialInput   int
	SpatialOutput  int
	ShadingInput   int
}

// Context is the host-side frame/buffer-index state machine: it
// tracks the current frame index and ResamplingMode and derives which
// reservoir buffer slice each pass should read from and write to.
type Context struct {
	Width, Height int
	TileSize      int
	TileCount     int

	frameIndex       uint32
	mode             ResamplingMode
	checkerboardMode CheckerboardMode

	diLast int // most recently written DI slice, carried across frames

	diIndices DIBufferIndices
	giIndices GIBufferIndices
}

// NewContext validates construction-time configuration and returns
// a Context ready for frame 0 under ResamplingNone. TileSize and
// TileCount must be nonzero powers of two, matching the RIS buffer
// segment parameters.
func NewContext(width, height, tileSize, tileCount int) (*Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("restir: render extents must be positive, got %dx%d", width, height)
	}
	if !isPowerOfTwo(tileSize) {
		return nil, fmt.Errorf("restir: tileSize must be a nonzero power of two, got %d", tileSize)
	}
	if !isPowerOfTwo(tileCount) {
		return nil, fmt.Errorf("restir: tileCount must be a nonzero power of two, got %d", tileCount)
	}

	ctx := &Context{
		Width:     width,
		Height:    height,
		TileSize:  tileSize,
		TileCount: tileCount,
	}
	ctx.recompute()
	return ctx, nil
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// SetFrameIndex advances the context to frame i and recomputes buffer
// indices for the current ResamplingMode. Frames must be sequenced by
// the host; the context is not reentrant across frames.
func (c *Context) SetFrameIndex(i uint32) {
	c.frameIndex = i
	c.diLast = c.diIndices.ShadingInput
	c.recompute()
}

// FrameIndex returns the current frame index.
func (c *Context) FrameIndex() uint32 { return c.frameIndex }

// SetResamplingMode reconfigures which passes run and recomputes buffer
// indices for the current frame under the new mode.
func (c *Context) SetResamplingMode(m ResamplingMode) {
	c.mode = m
	c.recompute()
}

// ResamplingMode returns the currently configured mode.
func (c *Context) ResamplingMode() ResamplingMode { return c.mode }

// SetCheckerboardMode reconfigures the static checkerboard mode.
func (c *Context) SetCheckerboardMode(m CheckerboardMode) {
	c.checkerboardMode = m
}

// ActiveCheckerboardField derives the active field for the current frame
// from the configured CheckerboardMode.
func (c *Context) ActiveCheckerboardField() int {
	return ActiveField(c.checkerboardMode, c.frameIndex)
}

// DIBufferIndices returns this frame's DI slice assignments.
func (c *Context) DIBufferIndices() DIBufferIndices { return c.diIndices }

// GIBufferIndices returns this frame's GI slice assignments.
func (c *Context) GIBufferIndices() GIBufferIndices { return c.giIndices }

func (c *Context) recompute() {
	c.diIndices = computeDIIndices(c.mode, c.diLast)

	c.giIndices = computeGIIndices(c.mode, c.frameIndex)
}

// computeDIIndices implements the exact DI buffer-rotation mapping. For fused
// mode it is `init_out = (last+1)%3; temporal_in = last; shading_in =
// init_out`; for every other mode it threads `last` through
// temporal/spatial in sequence, skipping whichever stage the mode
// doesn't run.
func computeDIIndices(mode ResamplingMode, last int) DIBufferIndices {
	initOut := (last + 1) % NumReservoirBuffersDI

	if mode == ResamplingFusedSpatiotemporal {
		return DIBufferIndices{
			InitOutput:    initOut,
			TemporalInput: last,
			ShadingInput:  initOut,
		}
	}

	temporalRan := mode == ResamplingTemporal || mode == ResamplingTemporalAndSpatial
	spatialRan := mode == ResamplingSpatial || mode == ResamplingTemporalAndSpatial

	temporalIn := last
	temporalOut := (temporalIn + 1) % NumReservoirBuffersDI

	spatialIn := initOut
	if temporalRan {
		spatialIn = temporalOut
	}
	spatialOut := (spatialIn + 1) % NumReservoirBuffersDI

	shadingIn := initOut
	switch {
	case spatialRan:
		shadingIn = spatialOut
	case temporalRan:
		shadingIn = temporalOut
	}

	return DIBufferIndices{
		InitOutput:     initOut,
		TemporalInput:  temporalIn,
		TemporalOutput: temporalOut,
		SpatialInput:   spatialIn,
		SpatialOutput:  spatialOut,
		ShadingInput:   shadingIn,
	}
}

// computeGIIndices implements the exact GI buffer mapping, which
// (unlike DI) is stateless: every mode derives its slice assignment
// directly from frame parity or fixed constants.
func computeGIIndices(mode ResamplingMode, frameIndex uint32) GIBufferIndices {
	dst := int(frameIndex & 1)
	src := 1 - dst

	switch mode {
	case ResamplingTemporal:
		return GIBufferIndices{TemporalInput: src, TemporalOutput: dst, ShadingInput: dst}
	case ResamplingSpatial:
		return GIBufferIndices{SpatialInput: 0, SpatialOutput: 1, ShadingInput: 1}
	case ResamplingTemporalAndSpatial:
		return GIBufferIndices{TemporalInput: 1, TemporalOutput: 0, SpatialInput: 0, SpatialOutput: 1, ShadingInput: 1}
	case ResamplingFusedSpatiotemporal:
		return GIBufferIndices{TemporalInput: src, SpatialOutput: dst, ShadingInput: dst}
	default:
		return GIBufferIndices{ShadingInput: dst}
	}
}
