package reservoir

import (
	"math"
	"testing"

	"github.com/df07/go-restir/pkg/core"
)

func TestGIPackUnpackRoundTrip(t *testing.T) {
	cases := []GIReservoir{
		EmptyGIReservoir(),
		{
			Position:  core.NewVec3(1.5, -2.25, 10.0),
			Normal:    core.NewVec3(0, 0, 1),
			Radiance:  core.NewVec3(1.0, 0.5, 0.25),
			WeightSum: 4.5,
			M:         5,
			Age:       10,
			MiscData:  0xABCD,
		},
		{
			Position:  core.NewVec3(-100, 0, 100),
			Normal:    core.NewVec3(1, 0, 0),
			Radiance:  core.NewVec3(0, 0, 0),
			WeightSum: 0,
			M:         255, // GI's packed M field is only 8 bits wide
			Age:       MaxAgeGI,
		},
	}

	for _, r := range cases {
		packed := r.Pack()
		got := UnpackGIReservoir(packed)

		if math.Abs(got.Position.X-r.Position.X) > 1e-3 ||
			math.Abs(got.Position.Y-r.Position.Y) > 1e-3 ||
			math.Abs(got.Position.Z-r.Position.Z) > 1e-3 {
			t.Errorf("Position = %v, want %v", got.Position, r.Position)
		}
		if got.M != r.M {
			t.Errorf("M = %d, want %d", got.M, r.M)
		}
		if got.Age != r.Age {
			t.Errorf("Age = %d, want %d", got.Age, r.Age)
		}
		if got.MiscData != r.MiscData {
			t.Errorf("MiscData = %x, want %x", got.MiscData, r.MiscData)
		}
		if math.Abs(got.WeightSum-r.WeightSum) > 1e-3*max(1, math.Abs(r.WeightSum)) {
			t.Errorf("WeightSum = %g, want ~%g", got.WeightSum, r.WeightSum)
		}
		// Normal and radiance are lossy (octahedral quantization, LogLuv32).
		if got.Normal.Dot(r.Normal.Normalize()) < 0.99 && !r.Normal.IsZero() {
			t.Errorf("Normal = %v diverges too far from %v", got.Normal, r.Normal)
		}
	}
}

func TestGIEmptyMeansInvalid(t *testing.T) {
	if EmptyGIReservoir().IsValid() {
		t.Errorf("EmptyGIReservoir().IsValid() = true, want false")
	}
	var zero GIReservoirPacked
	if UnpackGIReservoir(zero).IsValid() {
		t.Errorf("unpacking a zeroed word group produced a valid reservoir")
	}
}

func TestGIMWireSaturatesAt255(t *testing.T) {
	r := GIReservoir{M: MaxM, Age: 1}
	got := UnpackGIReservoir(r.Pack())
	if got.M != 255 {
		t.Errorf("M = %d, want saturated 255 (GI packed M is 8 bits)", got.M)
	}
}

func TestGIBufferLoadStore(t *testing.T) {
	buf := NewGIBuffer(16, 16, 2)
	r := GIReservoir{Position: core.NewVec3(1, 2, 3), Normal: core.NewVec3(0, 1, 0), M: 4, Age: 2}

	buf.Store(Coord{X: 3, Y: 3}, 0, r)
	got := buf.Load(Coord{X: 3, Y: 3}, 0)

	if got.M != r.M || got.Age != r.Age {
		t.Errorf("round trip through buffer = %+v, want %+v", got, r)
	}
}
