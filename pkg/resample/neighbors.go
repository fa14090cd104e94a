package resample

import (
	"math"
	"math/rand"

	"github.com/df07/go-restir/pkg/core"
	"github.com/df07/go-restir/pkg/reservoir"
)

// NeighborOffsets is the pre-uploaded table of unit-disk points spatial
// and fused resampling index into, sized to reservoir.NeighborOffsetCount
// (a power of two) so lookups can use a bitmask instead of a modulo.
type NeighborOffsets struct {
	points []core.Vec2
	mask   int
}

// NewNeighborOffsets rejection-samples count points uniformly on the
// unit disk. count must be a power of two; no particular point
// distribution is required, only that it be a pre-uploaded buffer of
// unit-disk offsets, so a simple uniform fill is used here (see
// DESIGN.md).
func NewNeighborOffsets(count int, rng *rand.Rand) *NeighborOffsets {
	points := make([]core.Vec2, count)
	for i := range points {
		for {
			x := rng.Float64()*2 - 1
			y := rng.Float64()*2 - 1
			if x*x+y*y <= 1 {
				points[i] = core.Vec2{X: x, Y: y}
				break
			}
		}
	}
	return &NeighborOffsets{points: points, mask: count - 1}
}

// At returns the i-th offset, wrapping via the power-of-two mask.
func (n *NeighborOffsets) At(i int) core.Vec2 {
	return n.points[i&n.mask]
}

// Mask exposes the index mask (NeighborOffsetCount-1) callers need to
// compute a random startIdx.
func (n *NeighborOffsets) Mask() int {
	return n.mask
}

// offsetPixel scales a unit-disk offset by radius and rounds it onto an
// integer pixel offset from center.
func offsetPixel(center reservoir.Coord, offset core.Vec2, radius float64) reservoir.Coord {
	return reservoir.Coord{
		X: center.X + int(math.Round(offset.X*radius)),
		Y: center.Y + int(math.Round(offset.Y*radius)),
	}
}
