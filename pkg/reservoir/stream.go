package reservoir

// CombineDI streams a DI candidate into r using weighted reservoir
// sampling: w = targetPdf * candidate.WeightSum * candidate.M,
// M and WeightSum accumulate, and the candidate replaces r's sample
// with probability w / r.WeightSum. random must be drawn uniformly
// from [0, 1).
func CombineDI(r *DIReservoir, candidate DIReservoir, random, targetPdf float64) bool {
	w := targetPdf * candidate.WeightSum * float64(candidate.M)

	r.M += candidate.M
	r.WeightSum += w

	selected := random*r.WeightSum <= w
	if selected {
		r.LightIndex = candidate.LightIndex
		r.IsValidLight = candidate.IsValidLight
		r.UV = candidate.UV
		r.TargetPdf = targetPdf
	}
	return selected
}

// CombineGI is the GI analogue of CombineDI, streaming position/normal/
// radiance instead of a light index/UV.
func CombineGI(r *GIReservoir, candidate GIReservoir, random, targetPdf float64) bool {
	w := targetPdf * candidate.WeightSum * float64(candidate.M)

	r.M += candidate.M
	r.WeightSum += w

	selected := random*r.WeightSum <= w
	if selected {
		r.Position = candidate.Position
		r.Normal = candidate.Normal
		r.Radiance = candidate.Radiance
		r.Age = candidate.Age
	}
	return selected
}

// FinalizeDI sets r.WeightSum = (den == 0) ? 0 : r.WeightSum*num/den, the
// normalization step applied once after all candidates have streamed.
// With num=1, den=selectedTargetPdf*M this is the 1/M estimator;
// with num=pi, den=piSum*selectedTargetPdf it is the unbiased MIS-like
// estimator.
func FinalizeDI(r *DIReservoir, num, den float64) {
	if den == 0 {
		r.WeightSum = 0
		return
	}
	r.WeightSum = r.WeightSum * num / den
}

// FinalizeGI is the GI analogue of FinalizeDI.
func FinalizeGI(r *GIReservoir, num, den float64) {
	if den == 0 {
		r.WeightSum = 0
		return
	}
	r.WeightSum = r.WeightSum * num / den
}
