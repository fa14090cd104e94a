package reservoir

import (
	"math"

	"github.com/df07/go-restir/pkg/core"
)

// DIReservoir holds a direct-illumination sample and the RIS statistics
// accumulated while streaming candidates into it.
type DIReservoir struct {
	LightIndex      int32     // opaque light index; validity is carried in IsValidLight, not the sign
	IsValidLight    bool
	UV              core.Vec2 // sample point on the light, each component in [0, 1)
	TargetPdf       float64
	WeightSum       float64
	M               int
	Age             int
	SpatialDistance core.Vec2 // accumulated 2D offset from the original pixel, clamped +-127 each axis
	CanonicalWeight float64   // transient pairwise-MIS scratch; never packed, always 0 outside pairwise streaming
}

// EmptyDIReservoir returns an invalid, zeroed reservoir.
func EmptyDIReservoir() DIReservoir {
	return DIReservoir{}
}

// IsValid reports whether the reservoir holds a sample, per the M==0
// invalidity invariant.
func (r DIReservoir) IsValid() bool {
	return r.M > 0
}

// clampDI enforces the invariants that must hold before packing:
// M and Age are clamped to their wire-format ranges, and
// SpatialDistance is clamped to +-127 per axis.
func (r DIReservoir) clampDI() DIReservoir {
	r.M = max(0, min(MaxM, r.M))
	r.Age = max(0, min(255, r.Age))
	r.SpatialDistance = core.NewVec2(
		max(-127, min(127, r.SpatialDistance.X)),
		max(-127, min(127, r.SpatialDistance.Y)),
	)
	return r
}

// DIReservoirPacked is the 4-word wire format.
type DIReservoirPacked [4]uint32

const (
	diValidLightBit = uint32(1) << 31

	diWordMMask      = uint32(0x1FFF)       // bits 0-12
	diWordAgeShift   = 13                   // bits 13-20
	diWordAgeMask    = uint32(0xFF)
	diWordDistXShift = 21                   // bits 21-26, 6 bits signed, quantized by 4
	diWordDistXMask  = uint32(0x3F)
	diWordDistYShift = 27                   // bits 27-31, 5 bits signed, quantized by 8
	diWordDistYMask  = uint32(0x1F)
)

// Pack converts the reservoir to its wire format. Packing is total: it
// never fails, clamping out-of-range fields instead. SpatialDistance is
// quantized to fit the 11 bits left in the last word after M and Age —
// this is the lossy field in the pack/unpack round trip.
func (r DIReservoir) Pack() DIReservoirPacked {
	r = r.clampDI()

	lightData := uint32(r.LightIndex)
	if r.IsValidLight {
		lightData |= diValidLightBit
	} else {
		lightData &^= diValidLightBit
	}

	distX := int32(math.Round(r.SpatialDistance.X / 4))
	distY := int32(math.Round(r.SpatialDistance.Y / 8))
	distX = clampSigned(distX, 6)
	distY = clampSigned(distY, 5)

	w3 := uint32(r.M)&diWordMMask |
		(uint32(r.Age)&diWordAgeMask)<<diWordAgeShift |
		(uint32(distX)&diWordDistXMask)<<diWordDistXShift |
		(uint32(distY)&diWordDistYMask)<<diWordDistYShift

	return DIReservoirPacked{
		lightData,
		encodeUV16(r.UV),
		math.Float32bits(float32(r.WeightSum)),
		w3,
	}
}

// UnpackDIReservoir reverses Pack. Unpacking a zeroed word group yields
// an invalid (M==0), but otherwise well-formed, empty reservoir.
func UnpackDIReservoir(p DIReservoirPacked) DIReservoir {
	lightData := p[0]
	w3 := p[3]

	distX := signExtend(w3>>diWordDistXShift&diWordDistXMask, 6)
	distY := signExtend(w3>>diWordDistYShift&diWordDistYMask, 5)

	return DIReservoir{
		LightIndex:      int32(lightData &^ diValidLightBit),
		IsValidLight:    lightData&diValidLightBit != 0,
		UV:              decodeUV16(p[1]),
		WeightSum:       float64(math.Float32frombits(p[2])),
		M:               int(w3 & diWordMMask),
		Age:             int((w3 >> diWordAgeShift) & diWordAgeMask),
		SpatialDistance: core.NewVec2(float64(distX)*4, float64(distY)*8),
	}
}

func clampSigned(v int32, bits uint) int32 {
	lim := int32(1) << (bits - 1)
	return max(-(lim - 1), min(lim-1, v))
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
