package reservoir

import (
	"math"

	"github.com/df07/go-restir/pkg/core"
)

// ReconnectionJacobian computes the solid-angle reprojection factor for
// moving a GI sample's secondary hit point from a neighbor's receiver to
// the current receiver:
//
//	J = (cos_new * d_orig^2) / (cos_orig * d_new^2)
//
// where d_* are distances from each receiver to the secondary hit and
// cos_* are the cosines between -direction and the secondary hit's
// normal. Non-finite results are clamped to 0.
func ReconnectionJacobian(currentReceiver, neighborReceiver, secondaryHit, secondaryNormal core.Vec3) float64 {
	toNew := secondaryHit.Subtract(currentReceiver)
	toOrig := secondaryHit.Subtract(neighborReceiver)

	dNew := toNew.Length()
	dOrig := toOrig.Length()
	if dNew == 0 || dOrig == 0 {
		return 0
	}

	cosNew := math.Abs(toNew.Normalize().Negate().Dot(secondaryNormal))
	cosOrig := math.Abs(toOrig.Normalize().Negate().Dot(secondaryNormal))
	if cosOrig == 0 {
		return 0
	}

	j := (cosNew * dOrig * dOrig) / (cosOrig * dNew * dNew)
	if math.IsNaN(j) || math.IsInf(j, 0) {
		return 0
	}
	return j
}
