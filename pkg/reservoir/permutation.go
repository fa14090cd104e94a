package reservoir

// JenkinsHash is the one-at-a-time integer hash used to derive a single
// per-frame permutation random value from the frame index.
func JenkinsHash(i uint32) uint32 {
	i += i << 10
	i ^= i >> 6
	i += i << 3
	i ^= i >> 11
	i += i << 15
	return i
}

// PermuteReservoirPixel deterministically reshuffles pixel p using the
// per-frame random value frameRand (typically JenkinsHash(frameIndex)),
// to break correlation between neighboring pixels' reprojection error.
// Applying it twice with the same frameRand is the identity.
func PermuteReservoirPixel(p Coord, frameRand uint32) Coord {
	offset := Coord{X: int(frameRand & 3), Y: int((frameRand >> 2) & 3)}

	p.X += offset.X
	p.Y += offset.Y
	p.X ^= 3
	p.Y ^= 3
	p.X -= offset.X
	p.Y -= offset.Y

	return p
}
