package reservoir

import (
	"math"

	"github.com/df07/go-restir/pkg/core"
)

// GIReservoir holds a global-illumination secondary hit point and the
// RIS statistics accumulated while streaming candidates into it.
type GIReservoir struct {
	Position  core.Vec3
	Normal    core.Vec3
	Radiance  core.Vec3
	WeightSum float64
	M         int
	Age       int
	MiscData  uint16 // application-owned; the core never inspects it
}

// EmptyGIReservoir returns an invalid, zeroed reservoir.
func EmptyGIReservoir() GIReservoir {
	return GIReservoir{}
}

// IsValid reports whether the reservoir holds a sample.
func (r GIReservoir) IsValid() bool {
	return r.M > 0
}

func (r GIReservoir) clampGI() GIReservoir {
	r.M = max(0, min(MaxM, r.M))
	r.Age = max(0, min(MaxAgeGI, r.Age))
	return r
}

// GIReservoirPacked is the 7-word wire format:
// position(3xf32), packed normal, packed radiance, weight, and packed
// misc/age/M. It has no reserved word.
type GIReservoirPacked [7]uint32

// Pack converts the reservoir to its wire format; see DIReservoir.Pack
// for the "packing is total" contract.
func (r GIReservoir) Pack() GIReservoirPacked {
	r = r.clampGI()

	nx, ny := encodeOctNormal(r.Normal)
	packedNormal := uint32(uint16(nx)) | uint32(uint16(ny))<<16

	// The GI packed word only has 8 bits for M (miscData:16 | age:8 | M:8),
	// narrower than the logical MaxM=8191 ceiling every reservoir is
	// clamped to at runtime; the wire format additionally saturates to
	// 255 here rather than wrapping.
	packedM := min(r.M, 0xFF)
	packedMiscAgeM := uint32(r.MiscData)<<16 | uint32(r.Age&0xFF)<<8 | uint32(packedM)

	return GIReservoirPacked{
		math.Float32bits(float32(r.Position.X)),
		math.Float32bits(float32(r.Position.Y)),
		math.Float32bits(float32(r.Position.Z)),
		packedNormal,
		encodeLogLuv32(r.Radiance),
		math.Float32bits(float32(r.WeightSum)),
		packedMiscAgeM,
	}
}

// UnpackGIReservoir reverses Pack.
func UnpackGIReservoir(p GIReservoirPacked) GIReservoir {
	nx := int16(p[3] & 0xFFFF)
	ny := int16(p[3] >> 16)

	packedMiscAgeM := p[6]

	return GIReservoir{
		Position: core.NewVec3(
			float64(math.Float32frombits(p[0])),
			float64(math.Float32frombits(p[1])),
			float64(math.Float32frombits(p[2])),
		),
		Normal:    decodeOctNormal(nx, ny),
		Radiance:  decodeLogLuv32(p[4]),
		WeightSum: float64(math.Float32frombits(p[5])),
		M:         int(packedMiscAgeM & 0xFF),
		Age:       int((packedMiscAgeM >> 8) & 0xFF),
		MiscData:  uint16(packedMiscAgeM >> 16),
	}
}
