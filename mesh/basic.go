package mesh

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// basicMesh is the basic implementation of the Mesh interface backed by a
// slice of vertices in identifier order.
type basicMesh struct {
	vertices  []r3.Vector
	triangles [][3]int
	meta      MetaData
}

// New returns an empty TriangleMesh backed by a basicMesh.
func New() TriangleMesh {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty, preallocated TriangleMesh backed by a basicMesh.
func NewWithPrealloc(size int) TriangleMesh {
	return &basicMesh{
		vertices: make([]r3.Vector, 0, size),
		meta:     NewMetaData(),
	}
}

// NewFromVertices returns a mesh over the given vertices. The slice is used
// directly; the caller must not mutate it afterward.
func NewFromVertices(vertices []r3.Vector) TriangleMesh {
	m := &basicMesh{vertices: vertices, meta: NewMetaData()}
	for _, v := range vertices {
		m.meta.Merge(v)
	}
	return m
}

// TriangleMesh is a Mesh that can be built up and optionally triangulated.
type TriangleMesh interface {
	Mesh

	// Append adds a vertex with the next free identifier and returns that
	// identifier.
	Append(p r3.Vector) int

	// AppendTriangle records a triangle over three existing vertex
	// identifiers.
	AppendTriangle(a, b, c int) error

	// Triangles returns the recorded triangles as vertex identifier triples.
	Triangles() [][3]int
}

func (m *basicMesh) Size() int {
	return len(m.vertices)
}

func (m *basicMesh) At(i int) r3.Vector {
	return m.vertices[i]
}

func (m *basicMesh) MetaData() MetaData {
	return m.meta
}

func (m *basicMesh) Append(p r3.Vector) int {
	m.vertices = append(m.vertices, p)
	m.meta.Merge(p)
	return len(m.vertices) - 1
}

func (m *basicMesh) AppendTriangle(a, b, c int) error {
	n := len(m.vertices)
	for _, idx := range []int{a, b, c} {
		if idx < 0 || idx >= n {
			return errors.Errorf("triangle references vertex %d but mesh has %d vertices", idx, n)
		}
	}
	m.triangles = append(m.triangles, [3]int{a, b, c})
	return nil
}

func (m *basicMesh) Triangles() [][3]int {
	return m.triangles
}

func (m *basicMesh) Iterate(numBatches, myBatch int, fn func(i int, p r3.Vector) bool) {
	lowerBound := 0
	upperBound := len(m.vertices)
	if numBatches > 0 {
		batchSize := (len(m.vertices) + numBatches - 1) / numBatches
		lowerBound = myBatch * batchSize
		upperBound = (myBatch + 1) * batchSize
	}
	if upperBound > len(m.vertices) {
		upperBound = len(m.vertices)
	}
	for i := lowerBound; i < upperBound; i++ {
		if cont := fn(i, m.vertices[i]); !cont {
			return
		}
	}
}
