package reservoir

// DIBuffer is a raw DI reservoir buffer backing store: one flat []uint32
// slab holding every slice's packed reservoirs, addressed through a
// BufferLayout.
type DIBuffer struct {
	Words  []uint32
	Layout BufferLayout
}

// NewDIBuffer allocates a DI buffer sized for numSlices copies of a
// width x height reservoir grid.
func NewDIBuffer(width, height, numSlices int) *DIBuffer {
	layout := NewBufferLayout(width, height)
	return &DIBuffer{
		Words:  make([]uint32, layout.ArrayPitch*numSlices*4),
		Layout: layout,
	}
}

// Load reads and unpacks the reservoir at coord in slice.
func (b *DIBuffer) Load(coord Coord, slice int) DIReservoir {
	off := b.wordOffset(coord, slice)
	var packed DIReservoirPacked
	copy(packed[:], b.Words[off:off+4])
	return UnpackDIReservoir(packed)
}

// Store packs and writes r at coord in slice.
func (b *DIBuffer) Store(coord Coord, slice int, r DIReservoir) {
	off := b.wordOffset(coord, slice)
	packed := r.Pack()
	copy(b.Words[off:off+4], packed[:])
}

// wordOffset converts the reservoir-slot offset from BufferLayout.Offset
// (which counts in reservoir slots) into a word index, since DI
// reservoirs are 4 words wide.
func (b *DIBuffer) wordOffset(coord Coord, slice int) int {
	return b.Layout.Offset(coord, slice) * 4
}

// GIBuffer is the GI analogue of DIBuffer (7 words per reservoir slot).
type GIBuffer struct {
	Words  []uint32
	Layout BufferLayout
}

// NewGIBuffer allocates a GI buffer sized for numSlices copies of a
// width x height reservoir grid.
func NewGIBuffer(width, height, numSlices int) *GIBuffer {
	layout := NewBufferLayout(width, height)
	return &GIBuffer{
		Words:  make([]uint32, layout.ArrayPitch*numSlices*7),
		Layout: layout,
	}
}

// Load reads and unpacks the reservoir at coord in slice.
func (b *GIBuffer) Load(coord Coord, slice int) GIReservoir {
	off := b.wordOffset(coord, slice)
	var packed GIReservoirPacked
	copy(packed[:], b.Words[off:off+7])
	return UnpackGIReservoir(packed)
}

// Store packs and writes r at coord in slice.
func (b *GIBuffer) Store(coord Coord, slice int, r GIReservoir) {
	off := b.wordOffset(coord, slice)
	packed := r.Pack()
	copy(b.Words[off:off+7], packed[:])
}

// wordOffset converts the reservoir-slot offset from BufferLayout.Offset
// (which counts in reservoir slots) into a word index, since GI
// reservoirs are 7 words wide rather than 4.
func (b *GIBuffer) wordOffset(coord Coord, slice int) int {
	return b.Layout.Offset(coord, slice) * 7
}
