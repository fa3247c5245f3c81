// Package deform describes per-vertex displacement fields and the transforms
// they induce on surface vertices.
//
// A displacement field is a flat sequence of 3*N doubles, interpreted as N
// consecutive x/y/z displacement vectors in vertex-identifier order. That
// layout is shared with optimizers, so it is preserved exactly; Field exists
// so nothing else in the codebase does 3*i index arithmetic by hand.
package deform

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PerVertexDoF is the number of scalar parameters each vertex contributes to
// a displacement field.
const PerVertexDoF = 3

// NumParameters returns the flat parameter count for a mesh with the given
// number of vertices.
func NumParameters(numVertices int) int {
	return numVertices * PerVertexDoF
}

// Field is a per-vertex displacement field over a flat parameter slice.
type Field struct {
	params []float64
}

// NewField returns a zero displacement field for the given number of vertices.
func NewField(numVertices int) *Field {
	return &Field{params: make([]float64, NumParameters(numVertices))}
}

// FieldFromFloats wraps a flat parameter slice in a Field. The slice is used
// directly, not copied. Its length must be a multiple of PerVertexDoF.
func FieldFromFloats(params []float64) (*Field, error) {
	if len(params)%PerVertexDoF != 0 {
		return nil, errors.Errorf("parameter count %d is not a multiple of %d", len(params), PerVertexDoF)
	}
	return &Field{params: params}, nil
}

// NumVertices returns the number of per-vertex displacements in the field.
func (f *Field) NumVertices() int {
	return len(f.params) / PerVertexDoF
}

// Len returns the flat parameter count.
func (f *Field) Len() int {
	return len(f.params)
}

// Floats returns the backing flat parameter slice.
func (f *Field) Floats() []float64 {
	return f.params
}

// Vector returns the displacement of the vertex with the given identifier.
func (f *Field) Vector(i int) r3.Vector {
	base := i * PerVertexDoF
	return r3.Vector{X: f.params[base], Y: f.params[base+1], Z: f.params[base+2]}
}

// SetVector sets the displacement of the vertex with the given identifier.
func (f *Field) SetVector(i int, v r3.Vector) {
	base := i * PerVertexDoF
	f.params[base] = v.X
	f.params[base+1] = v.Y
	f.params[base+2] = v.Z
}

// Apply returns the given vertex position displaced by the field.
func (f *Field) Apply(i int, p r3.Vector) r3.Vector {
	return p.Add(f.Vector(i))
}
