package restir

import "testing"

func TestNewContextRejectsBadExtents(t *testing.T) {
	if _, err := NewContext(0, 100, 16, 8192); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := NewContext(100, 100, 15, 8192); err == nil {
		t.Error("expected error for non-power-of-two tile size")
	}
	if _, err := NewContext(100, 100, 16, 8191); err == nil {
		t.Error("expected error for non-power-of-two tile count")
	}
}

func TestNewContextAccepts(t *testing.T) {
	ctx, err := NewContext(1920, 1080, 16, 8192)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Width != 1920 || ctx.Height != 1080 {
		t.Errorf("extents not recorded: %+v", ctx)
	}
}

// TestDIShadingInputAlternates checks that the DI shading input buffer
// always differs from the previous frame's, for every mode that writes a
// new reservoir buffer each frame.
func TestDIShadingInputAlternates(t *testing.T) {
	for _, mode := range []ResamplingMode{
		ResamplingNone,
		ResamplingTemporal,
		ResamplingSpatial,
		ResamplingTemporalAndSpatial,
		ResamplingFusedSpatiotemporal,
	} {
		ctx, err := NewContext(64, 64, 16, 8192)
		if err != nil {
			t.Fatal(err)
		}
		ctx.SetResamplingMode(mode)

		prev := ctx.DIBufferIndices().ShadingInput
		for frame := uint32(1); frame < 10; frame++ {
			ctx.SetFrameIndex(frame)
			cur := ctx.DIBufferIndices().ShadingInput
			if cur == prev {
				t.Errorf("mode %v frame %d: shadingInput repeated %d", mode, frame, cur)
			}
			if cur < 0 || cur >= NumReservoirBuffersDI {
				t.Errorf("mode %v frame %d: shadingInput %d out of range", mode, frame, cur)
			}
			prev = cur
		}
	}
}

// TestDIFusedNeverReadsItsOwnOutput is scenario S6: fused mode's
// temporal_in must never equal the frame's own init_out/shading_in,
// guaranteeing the read of the previous frame's buffer is never aliased
// by this frame's write.
func TestDIFusedNeverReadsItsOwnOutput(t *testing.T) {
	ctx, err := NewContext(64, 64, 16, 8192)
	if err != nil {
		t.Fatal(err)
	}
	ctx.SetResamplingMode(ResamplingFusedSpatiotemporal)

	for frame := uint32(0); frame < 10; frame++ {
		ctx.SetFrameIndex(frame)
		idx := ctx.DIBufferIndices()
		if idx.TemporalInput == idx.ShadingInput {
			t.Errorf("frame %d: temporalInput aliases shadingInput (%d)", frame, idx.TemporalInput)
		}
	}
}

func TestGITemporalAlternatesByFrameParity(t *testing.T) {
	ctx, err := NewContext(64, 64, 16, 8192)
	if err != nil {
		t.Fatal(err)
	}
	ctx.SetResamplingMode(ResamplingTemporal)

	ctx.SetFrameIndex(0)
	f0 := ctx.GIBufferIndices()
	ctx.SetFrameIndex(1)
	f1 := ctx.GIBufferIndices()

	if f0.TemporalOutput == f1.TemporalOutput {
		t.Errorf("GI temporal output did not alternate: frame0=%d frame1=%d", f0.TemporalOutput, f1.TemporalOutput)
	}
	if f1.TemporalInput != f0.TemporalOutput {
		t.Errorf("frame1 temporalInput (%d) should read frame0's temporalOutput (%d)", f1.TemporalInput, f0.TemporalOutput)
	}
}

func TestGISpatialIsStatic(t *testing.T) {
	ctx, err := NewContext(64, 64, 16, 8192)
	if err != nil {
		t.Fatal(err)
	}
	ctx.SetResamplingMode(ResamplingSpatial)

	for frame := uint32(0); frame < 4; frame++ {
		ctx.SetFrameIndex(frame)
		idx := ctx.GIBufferIndices()
		if idx.SpatialInput != 0 || idx.SpatialOutput != 1 || idx.ShadingInput != 1 {
			t.Errorf("frame %d: GI spatial indices drifted: %+v", frame, idx)
		}
	}
}

func TestActiveCheckerboardField(t *testing.T) {
	ctx, err := NewContext(64, 64, 16, 8192)
	if err != nil {
		t.Fatal(err)
	}
	ctx.SetCheckerboardMode(CheckerboardOff)
	ctx.SetFrameIndex(3)
	if got := ctx.ActiveCheckerboardField(); got != 0 {
		t.Errorf("CheckerboardOff field = %d, want 0", got)
	}

	ctx.SetCheckerboardMode(CheckerboardBlack)
	ctx.SetFrameIndex(0)
	if got := ctx.ActiveCheckerboardField(); got != 2 {
		t.Errorf("CheckerboardBlack even frame field = %d, want 2", got)
	}
	ctx.SetFrameIndex(1)
	if got := ctx.ActiveCheckerboardField(); got != 1 {
		t.Errorf("CheckerboardBlack odd frame field = %d, want 1", got)
	}
}
