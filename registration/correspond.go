package registration

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/meshreg/mesh"
)

// A Matcher finds, for a query point, the closest vertex of a fixed surface.
// Matchers must be safe for concurrent queries; the correspondence builder
// fans queries out across CPUs.
type Matcher interface {
	// Nearest returns the closest vertex position, its identifier, and the
	// squared Euclidean distance to it. The identifier is -1 if the surface
	// is empty.
	Nearest(p r3.Vector) (r3.Vector, int, float64)
}

// BruteForceMatcher scans every vertex of the fixed surface on each query.
// Ties are broken by the first vertex, in identifier order, that is strictly
// closer than all of its predecessors, so results are deterministic given a
// fixed vertex order. This is the reference matcher; substitute a
// mesh.KDTree for large surfaces.
type BruteForceMatcher struct {
	fixed mesh.Mesh
}

// NewBruteForceMatcher returns a brute-force matcher over the given surface.
func NewBruteForceMatcher(fixed mesh.Mesh) *BruteForceMatcher {
	return &BruteForceMatcher{fixed: fixed}
}

// Nearest linearly scans the fixed surface for the closest vertex.
func (m *BruteForceMatcher) Nearest(p r3.Vector) (r3.Vector, int, float64) {
	best := r3.Vector{}
	bestID := -1
	minimumDistance := math.Inf(1)
	m.fixed.Iterate(0, 0, func(i int, fp r3.Vector) bool {
		// strict < keeps the first of any equidistant vertices
		if dist := fp.Sub(p).Norm2(); dist < minimumDistance {
			best = fp
			bestID = i
			minimumDistance = dist
		}
		return true
	})
	if bestID < 0 {
		return r3.Vector{}, -1, 0
	}
	return best, bestID, minimumDistance
}
