package reservoir

// Coord is a 2D integer coordinate. The same type is used for both pixel
// space and reservoir space — doc comments on each function make clear
// which space a given value lives in.
type Coord struct {
	X, Y int
}

// BufferLayout precomputes the strides needed to address a reservoir
// buffer tiled in ReservoirBlockSize x ReservoirBlockSize blocks.
type BufferLayout struct {
	Width, Height int
	ArrayPitch    int
	BlockRowPitch int
}

// NewBufferLayout computes ArrayPitch/BlockRowPitch for a buffer holding
// reservoirs for a width x height grid of reservoir coordinates.
func NewBufferLayout(width, height int) BufferLayout {
	const b = ReservoirBlockSize
	blocksPerRow := (width + b - 1) / b
	blockRows := (height + b - 1) / b
	blockRowPitch := blocksPerRow * b * b
	return BufferLayout{
		Width:         width,
		Height:        height,
		ArrayPitch:    blockRowPitch * blockRows,
		BlockRowPitch: blockRowPitch,
	}
}

// Offset returns the linear word-group offset for reservoir coordinate
// (x, y) in array slice s, per the tiled addressing formula.
func (l BufferLayout) Offset(c Coord, slice int) int {
	const b = ReservoirBlockSize
	return slice*l.ArrayPitch +
		(c.Y/b)*l.BlockRowPitch +
		(c.X/b)*b*b +
		(c.Y%b)*b +
		(c.X % b)
}

// PixelToReservoir maps a screen pixel to its reservoir-space coordinate
// under the given checkerboard field.
func PixelToReservoir(p Coord, field int) Coord {
	if field == 0 {
		return p
	}
	return Coord{X: p.X >> 1, Y: p.Y}
}

// ReservoirToPixel maps a reservoir-space coordinate back to its screen
// pixel, the inverse of PixelToReservoir.
func ReservoirToPixel(r Coord, field int) Coord {
	if field == 0 {
		return r
	}
	return Coord{X: (r.X << 1) + ((r.Y + field) & 1), Y: r.Y}
}

// IsActiveCheckerboardPixel reports whether pixel p holds a reservoir
// under checkerboard field, for either the current or previous frame.
func IsActiveCheckerboardPixel(p Coord, previousFrame bool, field int) bool {
	if field == 0 {
		return true
	}
	prev := 0
	if previousFrame {
		prev = 1
	}
	return ((p.X+p.Y+prev)&1) == (field & 1)
}

// ActivateCheckerboardPixel snaps an inactive pixel to its nearest active
// neighbor under the given field, per a fixed deterministic rule.
func ActivateCheckerboardPixel(p Coord, previousFrame bool, field int) Coord {
	if field == 0 || IsActiveCheckerboardPixel(p, previousFrame, field) {
		return p
	}

	if !previousFrame {
		// Current frame: flip x by +-1 based on row parity.
		if p.Y&1 == 0 {
			return Coord{X: p.X + 1, Y: p.Y}
		}
		return Coord{X: p.X - 1, Y: p.Y}
	}

	// Previous frame: shift x by field*2 - 3.
	return Coord{X: p.X + field*2 - 3, Y: p.Y}
}
