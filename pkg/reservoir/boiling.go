package reservoir

import "gonum.org/v1/gonum/floats"

// BoilingFilterDI discards (resets to empty) any reservoir in tile whose
// weight is more than filterStrength times the tile's average weight
// times the tile size — a tile-wide outlier rejection pass. It runs in
// two passes, one to gather statistics and a second to decide, standing
// in for the write/barrier/read sequence a GPU workgroup would use.
// Returns the number of reservoirs discarded.
func BoilingFilterDI(tile []DIReservoir, filterStrength float64) int {
	weights := make([]float64, len(tile))
	for i, r := range tile {
		weights[i] = r.WeightSum
	}
	return applyBoilingFilter(weights, filterStrength, func(i int) { tile[i] = EmptyDIReservoir() })
}

// BoilingFilterGI is the GI analogue of BoilingFilterDI; the per-sample
// weight additionally factors in the sample's radiance luminance.
func BoilingFilterGI(tile []GIReservoir, filterStrength float64) int {
	weights := make([]float64, len(tile))
	for i, r := range tile {
		weights[i] = r.Radiance.Luminance() * r.WeightSum
	}
	return applyBoilingFilter(weights, filterStrength, func(i int) { tile[i] = EmptyGIReservoir() })
}

// applyBoilingFilter implements the shared reduce-then-reject logic: the
// tile average is the sum of all weights (gonum/floats.Sum performs the
// shared-memory-style reduction) divided by the group size, and any
// reservoir whose weight exceeds filterStrength*avg*groupSize is reset.
func applyBoilingFilter(weights []float64, filterStrength float64, discard func(i int)) int {
	groupSize := len(weights)
	if groupSize == 0 {
		return 0
	}

	avg := floats.Sum(weights) / float64(groupSize)
	threshold := filterStrength * avg * float64(groupSize)

	discarded := 0
	for i, w := range weights {
		if w > threshold {
			discard(i)
			discarded++
		}
	}
	return discarded
}
