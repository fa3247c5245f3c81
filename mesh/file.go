package mesh

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chenzhekl/goply"
	"github.com/edaniels/golog"
	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// NewFromFile returns a mesh read in from the given file.
func NewFromFile(fn string, logger golog.Logger) (TriangleMesh, error) {
	switch filepath.Ext(fn) {
	case ".ply":
		return NewFromPLYFile(fn, logger)
	case ".las":
		return NewFromLASFile(fn, logger)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// FileSource returns a Source that reads the given file when materialized.
func FileSource(fn string, logger golog.Logger) Source {
	return SourceFunc(func(ctx context.Context) (Mesh, error) {
		return NewFromFile(fn, logger)
	})
}

// NewFromPLYFile returns a mesh from reading a PLY file.
func NewFromPLYFile(fn string, logger golog.Logger) (TriangleMesh, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return ReadPLY(bufio.NewReader(f), logger)
}

// ReadPLY parses a PLY stream into a mesh. Faces, if present, are triangulated
// by fanning; non-face elements other than vertices are ignored.
func ReadPLY(in io.Reader, logger golog.Logger) (TriangleMesh, error) {
	ply := goply.New(in)

	plyVertices := ply.Elements("vertex")
	m := NewWithPrealloc(len(plyVertices))
	for i, vertex := range plyVertices {
		x, xOk := plyFloat(vertex["x"])
		y, yOk := plyFloat(vertex["y"])
		z, zOk := plyFloat(vertex["z"])
		if !xOk || !yOk || !zOk {
			return nil, errors.Errorf("vertex %d does not have x, y, z float properties", i)
		}
		m.Append(r3.Vector{X: x, Y: y, Z: z})
	}

	skippedFaces := 0
	for i, face := range ply.Elements("face") {
		indices, ok := plyIndexList(face["vertex_indices"])
		if !ok {
			indices, ok = plyIndexList(face["vertex_index"])
		}
		if !ok {
			return nil, errors.Errorf("face %d has no vertex index list", i)
		}
		if len(indices) < 3 {
			skippedFaces++
			continue
		}
		for j := 2; j < len(indices); j++ {
			if err := m.AppendTriangle(indices[0], indices[j-1], indices[j]); err != nil {
				return nil, errors.Wrapf(err, "face %d", i)
			}
		}
	}
	if skippedFaces > 0 {
		logger.Debugw("skipped degenerate faces", "count", skippedFaces)
	}

	return m, nil
}

// NewFromLASFile returns a mesh from reading the points of a LAS file, e.g. a
// lidar sweep of the fixed surface. The result has no triangulation.
func NewFromLASFile(fn string, logger golog.Logger) (TriangleMesh, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	m := NewWithPrealloc(lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()
		m.Append(r3.Vector{X: data.X, Y: data.Y, Z: data.Z})
	}
	logger.Debugw("read LAS surface", "points", m.Size())
	return m, nil
}

// WritePLYFile writes the mesh out to a PLY file.
func WritePLYFile(fn string, m Mesh) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if err := WritePLY(m, w); err != nil {
		return err
	}
	return w.Flush()
}

// WritePLY writes the mesh out to the given writer in ascii PLY format.
func WritePLY(m Mesh, out io.Writer) error {
	var triangles [][3]int
	if tm, ok := m.(TriangleMesh); ok {
		triangles = tm.Triangles()
	}

	_, err := fmt.Fprintf(out, "ply\n"+
		"format ascii 1.0\n"+
		"element vertex %d\n"+
		"property double x\n"+
		"property double y\n"+
		"property double z\n"+
		"element face %d\n"+
		"property list uchar int vertex_indices\n"+
		"end_header\n",
		m.Size(), len(triangles))
	if err != nil {
		return err
	}

	var lastErr error
	m.Iterate(0, 0, func(i int, p r3.Vector) bool {
		if _, werr := fmt.Fprintf(out, "%f %f %f\n", p.X, p.Y, p.Z); werr != nil {
			lastErr = werr
			return false
		}
		return true
	})
	if lastErr != nil {
		return lastErr
	}
	for _, tri := range triangles {
		if _, err := fmt.Fprintf(out, "3 %d %d %d\n", tri[0], tri[1], tri[2]); err != nil {
			return err
		}
	}
	return nil
}

// plyFloat pulls a float out of whatever numeric type the PLY property was
// declared as.
func plyFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint8:
		return float64(n), true
	case int16:
		return float64(n), true
	case uint16:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func plyIndex(v interface{}) (int, bool) {
	f, ok := plyFloat(v)
	return int(f), ok
}

func plyIndexList(v interface{}) ([]int, bool) {
	switch l := v.(type) {
	case []interface{}:
		indices := make([]int, 0, len(l))
		for _, e := range l {
			idx, ok := plyIndex(e)
			if !ok {
				return nil, false
			}
			indices = append(indices, idx)
		}
		return indices, true
	case []int32:
		indices := make([]int, 0, len(l))
		for _, e := range l {
			indices = append(indices, int(e))
		}
		return indices, true
	case []uint32:
		indices := make([]int, 0, len(l))
		for _, e := range l {
			indices = append(indices, int(e))
		}
		return indices, true
	default:
		return nil, false
	}
}
