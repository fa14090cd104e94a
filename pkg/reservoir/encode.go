package reservoir

import (
	"math"

	"github.com/df07/go-restir/pkg/core"
)

// snormToFloat converts a signed 16-bit normalized integer to [-1, 1].
func snormToFloat(v int16) float64 {
	if v < 0 {
		return float64(v) / 32768.0
	}
	return float64(v) / 32767.0
}

func floatToSnorm(f float64) int16 {
	f = max(-1, min(1, f))
	if f < 0 {
		return int16(math.Round(f * 32768.0))
	}
	return int16(math.Round(f * 32767.0))
}

// encodeOctNormal packs a unit normal into two 16-bit snorm components
// using octahedral mapping (Cigolle et al. 2014). Unlike a bare
// stereographic (x, y, sqrt(1-x^2-y^2)) encode, this represents the full
// sphere, not just one hemisphere, at the cost of a fold near the
// octahedron's edges.
func encodeOctNormal(n core.Vec3) (x, y int16) {
	l1 := math.Abs(n.X) + math.Abs(n.Y) + math.Abs(n.Z)
	if l1 == 0 {
		return 0, 0
	}
	px, py := n.X/l1, n.Y/l1
	if n.Z < 0 {
		ox := (1 - math.Abs(py)) * sign(px)
		oy := (1 - math.Abs(px)) * sign(py)
		px, py = ox, oy
	}
	return floatToSnorm(px), floatToSnorm(py)
}

func decodeOctNormal(x, y int16) core.Vec3 {
	fx, fy := snormToFloat(x), snormToFloat(y)
	fz := 1 - math.Abs(fx) - math.Abs(fy)
	if fz < 0 {
		ox := (1 - math.Abs(fy)) * sign(fx)
		oy := (1 - math.Abs(fx)) * sign(fy)
		fx, fy = ox, oy
	}
	return core.NewVec3(fx, fy, fz).Normalize()
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// logLuvEncodeMatrix/logLuvDecodeMatrix are the standard LogLuv32
// transform matrices (Larson 1998, as popularized by UE4/CryEngine
// shader code) used to pack an HDR RGB radiance into 4 bytes: a shared
// log2-luminance exponent plus two Luv chromaticity bytes.
var logLuvEncodeMatrix = [3][3]float64{
	{0.2209, 0.3390, 0.4184},
	{0.1138, 0.6780, 0.7319},
	{0.0102, 0.1130, 0.2969},
}

var logLuvDecodeMatrix = [3][3]float64{
	{6.0013, -2.7008, -1.7965},
	{-1.3320, 3.1029, -5.7720},
	{0.3008, -1.0882, 5.6268},
}

func mulMat3(m [3][3]float64, v core.Vec3) core.Vec3 {
	return core.NewVec3(
		m[0][0]*v.X+m[0][1]*v.Y+m[0][2]*v.Z,
		m[1][0]*v.X+m[1][1]*v.Y+m[1][2]*v.Z,
		m[2][0]*v.X+m[2][1]*v.Y+m[2][2]*v.Z,
	)
}

// encodeLogLuv32 packs a non-negative HDR radiance into a uint32.
func encodeLogLuv32(c core.Vec3) uint32 {
	c = core.NewVec3(math.Max(c.X, 0), math.Max(c.Y, 0), math.Max(c.Z, 0))
	xp := mulMat3(logLuvEncodeMatrix, c)
	xp.X = math.Max(xp.X, 1e-6)
	xp.Y = math.Max(xp.Y, 1e-6)
	xp.Z = math.Max(xp.Z, 1e-6)

	u := xp.X / xp.Z
	v := xp.Y / xp.Z
	le := 2*math.Log2(xp.Y) + 127

	ub := clampByte(u * 255)
	vb := clampByte(v * 255)
	leClamped := max(0.0, min(255*256-1, le*256))
	hi := clampByte(leClamped / 256)
	lo := clampByte(leClamped - hi*256)

	return uint32(ub) | uint32(vb)<<8 | uint32(hi)<<16 | uint32(lo)<<24
}

func decodeLogLuv32(packed uint32) core.Vec3 {
	if packed == 0 {
		return core.Vec3{}
	}
	ub := float64(packed & 0xFF)
	vb := float64((packed >> 8) & 0xFF)
	hi := float64((packed >> 16) & 0xFF)
	lo := float64((packed >> 24) & 0xFF)

	le := (hi*256 + lo) / 256
	y := math.Exp2((le - 127) / 2)
	u := ub / 255
	v := vb / 255

	z := y / max(v, 1e-6)
	x := u * z

	rgb := mulMat3(logLuvDecodeMatrix, core.NewVec3(x, y, z))
	return core.NewVec3(math.Max(rgb.X, 0), math.Max(rgb.Y, 0), math.Max(rgb.Z, 0))
}

func clampByte(f float64) float64 {
	return max(0, min(255, f))
}

// encodeUV16 packs a 2D sample-point coordinate (each component assumed
// to lie in [0, 1)) into two 16-bit unsigned components.
func encodeUV16(uv core.Vec2) uint32 {
	ux := uint16(max(0, min(65535, uv.X*65536)))
	uy := uint16(max(0, min(65535, uv.Y*65536)))
	return uint32(ux) | uint32(uy)<<16
}

func decodeUV16(packed uint32) core.Vec2 {
	ux := uint16(packed & 0xFFFF)
	uy := uint16(packed >> 16)
	return core.NewVec2(float64(ux)/65536.0, float64(uy)/65536.0)
}
