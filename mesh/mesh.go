// Package mesh defines a surface as an ordered collection of vertices and
// provides an in-memory implementation for one.
//
// Vertices carry dense integer identifiers assigned in insertion order,
// starting at 0. Registration code relies on those identifiers being stable
// for the lifetime of a mesh, so a mesh must not be appended to once it has
// been handed to a metric.
package mesh

import (
	"math"

	"github.com/golang/geo/r3"
)

// Mesh is a general purpose container of surface vertices. Triangulation is
// optional; a mesh with no triangles is just an ordered point set.
type Mesh interface {
	// Size returns the number of vertices in the mesh.
	Size() int

	// At returns the position of the vertex with the given identifier.
	At(i int) r3.Vector

	// Iterate iterates over all vertices in identifier order and calls the
	// given function for each one. If the supplied function returns false,
	// iteration will stop after the function returns.
	// numBatches lets you divide up the work. 0 means don't divide.
	// myBatch is used iff numBatches > 0 and is which batch you want.
	Iterate(numBatches, myBatch int, fn func(i int, p r3.Vector) bool)

	// MetaData returns meta data.
	MetaData() MetaData
}

// MetaData is data about what's stored in the mesh.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	totalX, totalY, totalZ float64
	count                  int
}

// NewMetaData creates a new MetaData.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the meta data with the new vertex.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}

	meta.totalX += v.X
	meta.totalY += v.Y
	meta.totalZ += v.Z
	meta.count++
}

// Center returns the centroid of all vertices merged so far.
func (meta *MetaData) Center() r3.Vector {
	if meta.count == 0 {
		return r3.Vector{}
	}
	return r3.Vector{
		X: meta.totalX / float64(meta.count),
		Y: meta.totalY / float64(meta.count),
		Z: meta.totalZ / float64(meta.count),
	}
}

// Extent returns the length of the diagonal of the bounding box of all
// vertices merged so far.
func (meta MetaData) Extent() float64 {
	if meta.count == 0 {
		return 0
	}
	diag := r3.Vector{X: meta.MaxX - meta.MinX, Y: meta.MaxY - meta.MinY, Z: meta.MaxZ - meta.MinZ}
	return diag.Norm()
}
