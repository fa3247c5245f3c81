package mesh

import (
	"context"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// A Source produces a mesh on demand, e.g. by reading it from a file or by
// receiving it from a remote sensor. Sources let a registration pipeline be
// assembled before any data exists.
type Source interface {
	Mesh(ctx context.Context) (Mesh, error)
}

// SourceFunc lets a plain function act as a Source.
type SourceFunc func(ctx context.Context) (Mesh, error)

// Mesh calls the underlying function.
func (f SourceFunc) Mesh(ctx context.Context) (Mesh, error) {
	return f(ctx)
}

// Lazy is a Mesh whose data comes from a Source and is produced at most once.
// Before Materialize has succeeded, the mesh reads as empty.
type Lazy struct {
	mu     sync.Mutex
	source Source
	inner  Mesh
}

// NewLazy returns a Mesh backed by the given source.
func NewLazy(source Source) *Lazy {
	return &Lazy{source: source}
}

// Materialize produces the underlying mesh if it has not been produced yet.
func (l *Lazy) Materialize(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner != nil {
		return nil
	}
	if l.source == nil {
		return errors.New("lazy mesh has no source")
	}
	inner, err := l.source.Mesh(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to materialize mesh")
	}
	l.inner = inner
	return nil
}

func (l *Lazy) materialized() Mesh {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner
}

// Size returns the number of vertices, or zero if not yet materialized.
func (l *Lazy) Size() int {
	if inner := l.materialized(); inner != nil {
		return inner.Size()
	}
	return 0
}

// At returns the position of the given vertex. It panics before Materialize
// has succeeded; the mesh reads as empty then, so no identifier is valid.
func (l *Lazy) At(i int) r3.Vector {
	inner := l.materialized()
	if inner == nil {
		panic("mesh: At called on a lazy mesh before materialization")
	}
	return inner.At(i)
}

// Iterate iterates over the materialized vertices, if any.
func (l *Lazy) Iterate(numBatches, myBatch int, fn func(i int, p r3.Vector) bool) {
	if inner := l.materialized(); inner != nil {
		inner.Iterate(numBatches, myBatch, fn)
	}
}

// MetaData returns meta data of the materialized mesh.
func (l *Lazy) MetaData() MetaData {
	if inner := l.materialized(); inner != nil {
		return inner.MetaData()
	}
	return NewMetaData()
}
