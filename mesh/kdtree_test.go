package mesh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestKDTreeNearest(t *testing.T) {
	m := NewFromVertices([]r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 0, Z: 0},
		{X: 0, Y: 10, Z: 0},
		{X: 0, Y: 0, Z: 10},
	})
	kd := ToKDTree(m)

	got, id, distSq := kd.Nearest(r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, got, test.ShouldResemble, r3.Vector{})
	test.That(t, id, test.ShouldEqual, 0)
	test.That(t, distSq, test.ShouldAlmostEqual, 1)

	got, id, _ = kd.Nearest(r3.Vector{X: 0, Y: 9, Z: 1})
	test.That(t, got, test.ShouldResemble, r3.Vector{Y: 10})
	test.That(t, id, test.ShouldEqual, 2)

	// wrapping a KDTree is a no-op
	test.That(t, ToKDTree(kd), test.ShouldEqual, kd)
}

func TestKDTreeMatchesLinearScan(t *testing.T) {
	//nolint:gosec
	r := rand.New(rand.NewSource(42))
	vertices := make([]r3.Vector, 100)
	for i := range vertices {
		vertices[i] = r3.Vector{X: r.Float64() * 10, Y: r.Float64() * 10, Z: r.Float64() * 10}
	}
	m := NewFromVertices(vertices)
	kd := ToKDTree(m)

	for q := 0; q < 50; q++ {
		query := r3.Vector{X: r.Float64() * 12, Y: r.Float64() * 12, Z: r.Float64() * 12}

		bestDist := math.Inf(1)
		var want r3.Vector
		for _, v := range vertices {
			if d := v.Sub(query).Norm2(); d < bestDist {
				bestDist = d
				want = v
			}
		}

		got, id, distSq := kd.Nearest(query)
		test.That(t, got, test.ShouldResemble, want)
		test.That(t, vertices[id], test.ShouldResemble, want)
		test.That(t, distSq, test.ShouldAlmostEqual, bestDist)
	}
}
