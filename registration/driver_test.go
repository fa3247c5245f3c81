//go:build !windows && !no_cgo

package registration

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/meshreg/deform"
	"go.viam.com/meshreg/mesh"
)

func TestRegisterMeshes(t *testing.T) {
	logger := golog.NewTestLogger(t)

	fixedVerts := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	offset := r3.Vector{X: 0.1, Y: -0.05, Z: 0.2}
	movingVerts := make([]r3.Vector, len(fixedVerts))
	for i, v := range fixedVerts {
		movingVerts[i] = v.Add(offset)
	}
	fixed := mesh.NewFromVertices(fixedVerts)
	moving := mesh.NewFromVertices(movingVerts)

	result, err := RegisterMeshes(context.Background(), fixed, moving, DefaultConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result, test.ShouldNotBeNil)
	test.That(t, result.Score, test.ShouldBeLessThan, 1e-6)
	test.That(t, result.Evaluations, test.ShouldBeGreaterThan, 0)

	// each vertex should have moved back onto its original position
	for i := 0; i < moving.Size(); i++ {
		d := result.Field.Vector(i)
		test.That(t, d.X, test.ShouldAlmostEqual, -offset.X, 1e-3)
		test.That(t, d.Y, test.ShouldAlmostEqual, -offset.Y, 1e-3)
		test.That(t, d.Z, test.ShouldAlmostEqual, -offset.Z, 1e-3)
	}

	deformed, err := DeformMesh(moving, result.Field)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < deformed.Size(); i++ {
		test.That(t, deformed.At(i).Sub(fixedVerts[i]).Norm(), test.ShouldBeLessThan, 1e-3)
	}
}

func TestRegisterMeshesSpatialIndex(t *testing.T) {
	logger := golog.NewTestLogger(t)

	fixed := mesh.NewFromVertices([]r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 3, Y: 0, Z: 0},
		{X: 0, Y: 3, Z: 0},
	})
	moving := mesh.NewFromVertices([]r3.Vector{
		{X: 0.4, Y: 0.1, Z: 0},
		{X: 2.5, Y: 0.2, Z: 0},
	})

	cfg := DefaultConfig()
	cfg.UseSpatialIndex = true
	result, err := RegisterMeshes(context.Background(), fixed, moving, cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Score, test.ShouldBeLessThan, 1e-6)
}

func TestRegisterMeshesLazyFixedSpatialIndex(t *testing.T) {
	logger := golog.NewTestLogger(t)

	fixedVerts := []r3.Vector{
		{X: 2, Y: 0, Z: 0},
		{X: 0, Y: 2, Z: 0},
		{X: 0, Y: 0, Z: 2},
	}
	fixed := mesh.NewLazy(mesh.SourceFunc(func(ctx context.Context) (mesh.Mesh, error) {
		return mesh.NewFromVertices(fixedVerts), nil
	}))
	offset := r3.Vector{X: 0.1, Y: 0.1, Z: -0.1}
	movingVerts := make([]r3.Vector, len(fixedVerts))
	for i, v := range fixedVerts {
		movingVerts[i] = v.Add(offset)
	}
	moving := mesh.NewFromVertices(movingVerts)

	// the index has to be built over the materialized surface; an index over
	// the empty lazy shell would silently pull every vertex to the origin
	cfg := DefaultConfig()
	cfg.UseSpatialIndex = true
	result, err := RegisterMeshes(context.Background(), fixed, moving, cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Score, test.ShouldBeLessThan, 1e-6)

	deformed, err := DeformMesh(moving, result.Field)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < deformed.Size(); i++ {
		test.That(t, deformed.At(i).Sub(fixedVerts[i]).Norm(), test.ShouldBeLessThan, 1e-3)
	}
}

func TestRegisterMeshesCancellation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	fixed := mesh.NewFromVertices([]r3.Vector{{X: 0}})
	moving := mesh.NewFromVertices([]r3.Vector{{X: 5}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RegisterMeshes(ctx, fixed, moving, DefaultConfig(), logger)
	// either the optimizer finished before the cancellation was observed, or
	// the context error surfaced; both are acceptable
	if err != nil {
		test.That(t, err.Error(), test.ShouldContainSubstring, context.Canceled.Error())
	}
}

func TestDeformMesh(t *testing.T) {
	m := mesh.New()
	m.Append(r3.Vector{X: 1})
	m.Append(r3.Vector{Y: 1})
	m.Append(r3.Vector{Z: 1})
	test.That(t, m.AppendTriangle(0, 1, 2), test.ShouldBeNil)

	field := deform.NewField(3)
	field.SetVector(1, r3.Vector{X: 2, Y: 3, Z: 4})

	out, err := DeformMesh(m, field)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.At(0), test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, out.At(1), test.ShouldResemble, r3.Vector{X: 2, Y: 4, Z: 4})
	test.That(t, out.At(2), test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, out.Triangles(), test.ShouldResemble, [][3]int{{0, 1, 2}})

	_, err = DeformMesh(m, deform.NewField(2))
	test.That(t, err, test.ShouldNotBeNil)
}
