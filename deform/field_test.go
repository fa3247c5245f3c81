package deform

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestField(t *testing.T) {
	f := NewField(2)
	test.That(t, f.NumVertices(), test.ShouldEqual, 2)
	test.That(t, f.Len(), test.ShouldEqual, 6)
	test.That(t, f.Vector(0), test.ShouldResemble, r3.Vector{})
	test.That(t, f.Vector(1), test.ShouldResemble, r3.Vector{})

	f.SetVector(1, r3.Vector{X: 4, Y: 5, Z: 6})
	test.That(t, f.Floats(), test.ShouldResemble, []float64{0, 0, 0, 4, 5, 6})

	got := f.Apply(1, r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, got, test.ShouldResemble, r3.Vector{X: 5, Y: 6, Z: 7})
}

func TestFieldFromFloats(t *testing.T) {
	params := []float64{1, 2, 3, 4, 5, 6}
	f, err := FieldFromFloats(params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.NumVertices(), test.ShouldEqual, 2)
	test.That(t, f.Vector(0), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, f.Vector(1), test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})

	// the slice is shared, vertex-major x/y/z-minor
	f.SetVector(0, r3.Vector{X: -1})
	test.That(t, params, test.ShouldResemble, []float64{-1, 0, 0, 4, 5, 6})

	_, err = FieldFromFloats(make([]float64, 4))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTransforms(t *testing.T) {
	identity := NewIdentity(1)
	p := r3.Vector{X: 1, Y: 2, Z: 3}
	test.That(t, identity.TransformPoint(p), test.ShouldResemble, p)
	test.That(t, identity.SetParameters([]float64{1, 2}), test.ShouldNotBeNil)
	test.That(t, identity.SetParameters([]float64{1, 2, 3}), test.ShouldBeNil)
	test.That(t, identity.Parameters(), test.ShouldResemble, []float64{1, 2, 3})

	translation := NewTranslation(1, r3.Vector{X: 10})
	test.That(t, translation.TransformPoint(p), test.ShouldResemble, r3.Vector{X: 11, Y: 2, Z: 3})
	test.That(t, translation.SetParameters(make([]float64, 6)), test.ShouldNotBeNil)
	test.That(t, translation.SetParameters(make([]float64, 3)), test.ShouldBeNil)
}
