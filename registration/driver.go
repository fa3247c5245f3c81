package registration

import (
	"github.com/golang/geo/r3"

	"go.viam.com/meshreg/deform"
	"go.viam.com/meshreg/mesh"
)

// Result describes a finished registration run.
type Result struct {
	// Field is the per-vertex displacement that best aligned the surfaces.
	Field *deform.Field

	// Score is the final metric value.
	Score float64

	// Evaluations is the number of objective evaluations performed.
	Evaluations int

	// Converged reports whether the score reached the configured tolerance.
	Converged bool
}

// DeformMesh returns a copy of the given mesh with the displacement field
// applied to every vertex. Triangulation is carried over unchanged.
func DeformMesh(m mesh.Mesh, field *deform.Field) (mesh.TriangleMesh, error) {
	if field.NumVertices() != m.Size() {
		return nil, newDimensionMismatchError(field.Len(), deform.NumParameters(m.Size()))
	}
	out := mesh.NewWithPrealloc(m.Size())
	m.Iterate(0, 0, func(i int, p r3.Vector) bool {
		out.Append(field.Apply(i, p))
		return true
	})
	if tm, ok := m.(mesh.TriangleMesh); ok {
		for _, tri := range tm.Triangles() {
			if err := out.AppendTriangle(tri[0], tri[1], tri[2]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
