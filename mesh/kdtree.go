package mesh

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// KDTree extends a Mesh with a spatial index over its vertices for fast
// nearest-vertex queries. The underlying tree is immutable once built and is
// safe for concurrent queries.
type KDTree struct {
	Mesh
	tree *kdtree.Tree
}

// ToKDTree builds a KDTree over the vertices of the given mesh.
func ToKDTree(m Mesh) *KDTree {
	if kd, ok := m.(*KDTree); ok {
		return kd
	}
	vertices := make(kdVertices, 0, m.Size())
	m.Iterate(0, 0, func(i int, p r3.Vector) bool {
		vertices = append(vertices, kdVertex{pos: p, id: i})
		return true
	})
	return &KDTree{
		Mesh: m,
		tree: kdtree.New(vertices, false),
	}
}

// Nearest returns the vertex closest to the given point, its identifier, and
// the squared distance to it. The identifier is -1 if the mesh is empty.
func (kd *KDTree) Nearest(p r3.Vector) (r3.Vector, int, float64) {
	got, _ := kd.tree.Nearest(kdVertex{pos: p})
	if got == nil {
		return r3.Vector{}, -1, 0
	}
	v := got.(kdVertex)
	return v.pos, v.id, v.pos.Sub(p).Norm2()
}

type kdVertex struct {
	pos r3.Vector
	id  int
}

func (v kdVertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(kdVertex)
	switch d {
	case 0:
		return v.pos.X - q.pos.X
	case 1:
		return v.pos.Y - q.pos.Y
	default:
		return v.pos.Z - q.pos.Z
	}
}

func (v kdVertex) Dims() int { return 3 }

func (v kdVertex) Distance(c kdtree.Comparable) float64 {
	q := c.(kdVertex)
	return v.pos.Sub(q.pos).Norm2()
}

type kdVertices []kdVertex

func (vs kdVertices) Index(i int) kdtree.Comparable { return vs[i] }

func (vs kdVertices) Len() int { return len(vs) }

func (vs kdVertices) Slice(start, end int) kdtree.Interface { return vs[start:end] }

func (vs kdVertices) Pivot(d kdtree.Dim) int {
	return kdVerticesHelper{Dim: d, kdVertices: vs}.Pivot()
}

type kdVerticesHelper struct {
	kdtree.Dim
	kdVertices
}

func (p kdVerticesHelper) Less(i, j int) bool {
	return p.kdVertices[i].Compare(p.kdVertices[j], p.Dim) < 0
}

func (p kdVerticesHelper) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p kdVerticesHelper) Slice(start, end int) kdtree.SortSlicer {
	p.kdVertices = p.kdVertices[start:end]
	return p
}

func (p kdVerticesHelper) Swap(i, j int) {
	p.kdVertices[i], p.kdVertices[j] = p.kdVertices[j], p.kdVertices[i]
}
