package reservoir

import (
	"math"
	"testing"

	"github.com/df07/go-restir/pkg/core"
)

func TestDIPackUnpackRoundTrip(t *testing.T) {
	cases := []DIReservoir{
		EmptyDIReservoir(),
		{LightIndex: 42, IsValidLight: true, UV: core.NewVec2(0.25, 0.75), TargetPdf: 1.5, WeightSum: 3.25, M: 10, Age: 4},
		{LightIndex: 0, IsValidLight: false, UV: core.NewVec2(0, 0), WeightSum: 0, M: 1, Age: 0},
		{LightIndex: 123456, IsValidLight: true, UV: core.NewVec2(0.999, 0.001), WeightSum: 1e6, M: MaxM, Age: 255},
	}

	for _, r := range cases {
		packed := r.Pack()
		got := UnpackDIReservoir(packed)

		if got.LightIndex != r.LightIndex {
			t.Errorf("LightIndex = %d, want %d", got.LightIndex, r.LightIndex)
		}
		if got.IsValidLight != r.IsValidLight {
			t.Errorf("IsValidLight = %v, want %v", got.IsValidLight, r.IsValidLight)
		}
		if got.M != min(r.M, MaxM) {
			t.Errorf("M = %d, want %d", got.M, min(r.M, MaxM))
		}
		if got.Age != min(r.Age, 255) {
			t.Errorf("Age = %d, want %d", got.Age, min(r.Age, 255))
		}
		if math.Abs(got.WeightSum-r.WeightSum) > 1e-3*max(1, math.Abs(r.WeightSum)) {
			t.Errorf("WeightSum = %g, want ~%g", got.WeightSum, r.WeightSum)
		}
		// UV is quantized to 16 bits per component; allow quantization error.
		if math.Abs(got.UV.X-r.UV.X) > 1.0/65536 {
			t.Errorf("UV.X = %g, want ~%g", got.UV.X, r.UV.X)
		}
		if math.Abs(got.UV.Y-r.UV.Y) > 1.0/65536 {
			t.Errorf("UV.Y = %g, want ~%g", got.UV.Y, r.UV.Y)
		}
	}
}

func TestDIEmptyMeansInvalid(t *testing.T) {
	r := EmptyDIReservoir()
	if r.IsValid() {
		t.Errorf("EmptyDIReservoir().IsValid() = true, want false")
	}

	var zero DIReservoirPacked
	unpacked := UnpackDIReservoir(zero)
	if unpacked.IsValid() {
		t.Errorf("unpacking a zeroed word group produced a valid reservoir")
	}
}

func TestDISpatialDistanceClampedAndLossy(t *testing.T) {
	r := DIReservoir{M: 1, SpatialDistance: core.NewVec2(500, -500)}
	packed := r.Pack()
	got := UnpackDIReservoir(packed)

	if got.SpatialDistance.X > 127 || got.SpatialDistance.X < -127 {
		t.Errorf("SpatialDistance.X = %g, want within +-127", got.SpatialDistance.X)
	}
	if got.SpatialDistance.Y > 127 || got.SpatialDistance.Y < -127 {
		t.Errorf("SpatialDistance.Y = %g, want within +-127", got.SpatialDistance.Y)
	}
}

func TestDIBufferLoadStore(t *testing.T) {
	buf := NewDIBuffer(32, 32, 2)
	r := DIReservoir{LightIndex: 7, IsValidLight: true, UV: core.NewVec2(0.5, 0.5), WeightSum: 2.0, M: 3, Age: 1}

	buf.Store(Coord{X: 10, Y: 20}, 1, r)
	got := buf.Load(Coord{X: 10, Y: 20}, 1)

	if got.LightIndex != r.LightIndex || !got.IsValidLight || got.M != r.M {
		t.Errorf("round trip through buffer = %+v, want %+v", got, r)
	}

	// A different slice/coord must still read back empty.
	other := buf.Load(Coord{X: 10, Y: 20}, 0)
	if other.IsValid() {
		t.Errorf("slice 0 should be untouched, got valid reservoir %+v", other)
	}
}
