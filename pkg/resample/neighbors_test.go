package resample

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/df07/go-restir/pkg/core"
	"github.com/df07/go-restir/pkg/reservoir"
)

func TestNewNeighborOffsetsAreWithinUnitDisk(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	offsets := NewNeighborOffsets(64, rng)

	for i := 0; i < 64; i++ {
		p := offsets.At(i)
		assert.LessOrEqual(t, p.X*p.X+p.Y*p.Y, 1.0)
	}
}

func TestNeighborOffsetsAtWrapsByMask(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	offsets := NewNeighborOffsets(16, rng)
	assert.Equal(t, 15, offsets.Mask())
	assert.Equal(t, offsets.At(0), offsets.At(16))
	assert.Equal(t, offsets.At(5), offsets.At(21))
}

func TestOffsetPixelScalesAndRounds(t *testing.T) {
	center := reservoir.Coord{X: 10, Y: 10}
	got := offsetPixel(center, core.NewVec2(0.5, -0.5), 8)
	assert.Equal(t, reservoir.Coord{X: 14, Y: 6}, got)
}
