package deform

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Transform maps a point to a transformed point and carries the flat
// parameter vector of the registration it belongs to. Correspondence building
// applies the transform as configured at that moment (typically identity);
// metric evaluation pushes each candidate parameter vector into the transform
// so downstream consumers observe the parameters actually scored.
type Transform interface {
	// TransformPoint maps a point under the transform's current state.
	TransformPoint(p r3.Vector) r3.Vector

	// SetParameters accepts a flat displacement parameter vector.
	SetParameters(params []float64) error

	// Parameters returns the most recently accepted parameter vector.
	Parameters() []float64
}

// Identity is a Transform that leaves every point untouched. It still accepts
// and retains parameter vectors for the given number of vertices.
type Identity struct {
	numVertices int
	params      []float64
}

// NewIdentity returns an identity transform for a mesh with the given number
// of vertices.
func NewIdentity(numVertices int) *Identity {
	return &Identity{numVertices: numVertices}
}

// TransformPoint returns the point unchanged.
func (t *Identity) TransformPoint(p r3.Vector) r3.Vector {
	return p
}

// SetParameters retains the given parameters after validating their length.
func (t *Identity) SetParameters(params []float64) error {
	if err := checkLen(params, t.numVertices); err != nil {
		return err
	}
	t.params = params
	return nil
}

// Parameters returns the most recently set parameters.
func (t *Identity) Parameters() []float64 {
	return t.params
}

// Translation is a Transform that offsets every point by a fixed vector. It
// is useful as a coarse initial alignment before per-vertex deformation.
type Translation struct {
	numVertices int
	offset      r3.Vector
	params      []float64
}

// NewTranslation returns a transform offsetting all points by the given
// vector, for a mesh with the given number of vertices.
func NewTranslation(numVertices int, offset r3.Vector) *Translation {
	return &Translation{numVertices: numVertices, offset: offset}
}

// TransformPoint returns the point shifted by the configured offset.
func (t *Translation) TransformPoint(p r3.Vector) r3.Vector {
	return p.Add(t.offset)
}

// SetParameters retains the given parameters after validating their length.
func (t *Translation) SetParameters(params []float64) error {
	if err := checkLen(params, t.numVertices); err != nil {
		return err
	}
	t.params = params
	return nil
}

// Parameters returns the most recently set parameters.
func (t *Translation) Parameters() []float64 {
	return t.params
}

func checkLen(params []float64, numVertices int) error {
	if want := NumParameters(numVertices); len(params) != want {
		return errors.Errorf("expected %d parameters but got %d", want, len(params))
	}
	return nil
}
