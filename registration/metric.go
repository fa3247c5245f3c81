package registration

import (
	"context"
	"sync/atomic"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshreg/deform"
	"go.viam.com/meshreg/mesh"
	"go.viam.com/meshreg/utils"
)

// Below this many moving vertices the correspondence scan runs serially;
// goroutine fan-out costs more than it saves.
const vertsBeforeParallelization = 1000

// ThinShellDemonsMetric scores a per-vertex deformation of a moving surface
// against a fixed surface. During initialization every moving vertex is paired
// with its closest fixed vertex; the metric is then the summed squared
// distance between each displaced moving vertex and its target, with an
// analytic gradient for use by gradient-descent optimizers.
//
// The value and gradient are evaluated many thousands of times per
// registration; both are pure reads of the target map built at
// initialization.
type ThinShellDemonsMetric struct {
	fixed     mesh.Mesh
	moving    mesh.Mesh
	transform deform.Transform
	matcher   Matcher
	cfg       MetricConfig
	logger    golog.Logger

	// targetMap[i] is the fixed-surface point vertex i is pulled toward.
	// Written only by ComputeTargetPosition, read-only afterward.
	targetMap              []r3.Vector
	targetPositionComputed bool
}

// NewThinShellDemonsMetric returns a metric over the given surface pair. The
// transform is applied to moving vertices during correspondence building;
// pass a deform.Identity for pre-aligned surfaces.
func NewThinShellDemonsMetric(
	fixed, moving mesh.Mesh,
	transform deform.Transform,
	cfg MetricConfig,
	logger golog.Logger,
) *ThinShellDemonsMetric {
	return &ThinShellDemonsMetric{
		fixed:     fixed,
		moving:    moving,
		transform: transform,
		cfg:       cfg,
		logger:    logger,
	}
}

// SetMatcher substitutes the nearest-vertex search used during correspondence
// building. The default brute-force matcher is deterministic; substituted
// matchers (e.g. mesh.ToKDTree) only match its tie-breaking if the fixed
// surface has no equidistant vertex pairs.
func (m *ThinShellDemonsMetric) SetMatcher(matcher Matcher) {
	m.matcher = matcher
}

// NumParameters returns the flat parameter count the metric evaluates,
// 3 per moving vertex.
func (m *ThinShellDemonsMetric) NumParameters() int {
	return deform.NumParameters(m.moving.Size())
}

// Initialize validates the configuration, materializes any lazy meshes, and
// computes the target position of every moving vertex. It must be called
// before Value or Derivative. Calling it again recomputes targets from
// scratch.
func (m *ThinShellDemonsMetric) Initialize(ctx context.Context) error {
	if m.transform == nil {
		return errMissingTransform
	}
	if m.moving == nil {
		return errMissingMovingMesh
	}
	if m.fixed == nil {
		return errMissingFixedMesh
	}

	// If a mesh is provided by a source, update the source.
	for _, surface := range []mesh.Mesh{m.moving, m.fixed} {
		if materializer, ok := surface.(interface {
			Materialize(ctx context.Context) error
		}); ok {
			if err := materializer.Materialize(ctx); err != nil {
				return err
			}
		}
	}

	return m.ComputeTargetPosition(ctx)
}

// ComputeTargetPosition overwrites the target map: every moving vertex, as
// seen through the current transform, is paired with the closest fixed
// vertex. Each vertex's search is independent, so for large surfaces the scan
// fans out across CPUs.
func (m *ThinShellDemonsMetric) ComputeTargetPosition(ctx context.Context) error {
	if m.transform == nil {
		return errMissingTransform
	}
	if m.fixed == nil {
		return errMissingFixedMesh
	}
	if m.moving == nil {
		return errMissingMovingMesh
	}
	if m.fixed.Size() == 0 {
		return errEmptyFixedMesh
	}

	matcher := m.matcher
	if matcher == nil {
		matcher = NewBruteForceMatcher(m.fixed)
	}

	if len(m.targetMap) != m.moving.Size() {
		m.targetMap = make([]r3.Vector, m.moving.Size())
	}
	var matchFailed atomic.Bool
	matchVertex := func(i int) {
		transformedPoint := m.transform.TransformPoint(m.moving.At(i))
		target, id, _ := matcher.Nearest(transformedPoint)
		if id < 0 {
			matchFailed.Store(true)
			return
		}
		m.targetMap[i] = target
	}
	if m.moving.Size() < vertsBeforeParallelization {
		m.moving.Iterate(0, 0, func(i int, p r3.Vector) bool {
			matchVertex(i)
			return !matchFailed.Load()
		})
	} else {
		// Each vertex writes exactly one disjoint target slot, so the scan
		// fans out without locking.
		err := utils.GroupWorkParallel(
			ctx,
			m.moving.Size(),
			func(numGroups int) {},
			func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
				return func(memberNum, workNum int) {
					matchVertex(workNum)
				}, nil
			},
		)
		if err != nil {
			return err
		}
	}
	if matchFailed.Load() {
		return errNoNearestVertex
	}

	m.targetPositionComputed = true
	if m.logger != nil {
		m.logger.Debugw("computed target positions",
			"moving", m.moving.Size(),
			"fixed", m.fixed.Size(),
		)
	}
	return nil
}

// Target returns the fixed-surface point the given moving vertex is pulled
// toward.
func (m *ThinShellDemonsMetric) Target(i int) r3.Vector {
	return m.targetMap[i]
}

// Value returns the geometric feature-matching energy of the given
// displacement parameters: the sum over all moving vertices of the squared
// distance between the displaced vertex and its target.
func (m *ThinShellDemonsMetric) Value(params []float64) (float64, error) {
	if err := m.checkEvaluate(params); err != nil {
		return 0, err
	}
	if err := m.transform.SetParameters(params); err != nil {
		return 0, errors.Wrap(err, "failed to cache parameters in transform")
	}

	field, err := deform.FieldFromFloats(params)
	if err != nil {
		return 0, err
	}

	functionValue := 0.
	m.moving.Iterate(0, 0, func(i int, p r3.Vector) bool {
		transformedPoint := field.Apply(i, p)
		functionValue += m.targetMap[i].Sub(transformedPoint).Norm2()
		return true
	})
	return functionValue, nil
}

// Derivative fills dst with the gradient of the energy with respect to each
// displacement parameter and returns it. dst is grown or truncated to exactly
// 3 per moving vertex and fully overwritten; pass nil to allocate.
//
// The gradient is taken at the nominal (undisplaced) vertex positions:
// -2 * (target - nominal). It is exact at zero displacement and a
// linearization elsewhere, which demons-style registration accepts because
// correspondence is re-derived whenever the surfaces move materially. Do not
// change this to use the displaced positions without revisiting the driver.
func (m *ThinShellDemonsMetric) Derivative(params, dst []float64) ([]float64, error) {
	if err := m.checkEvaluate(params); err != nil {
		return nil, err
	}

	n := m.NumParameters()
	if cap(dst) < n {
		dst = make([]float64, n)
	} else {
		dst = dst[:n]
		for i := range dst {
			dst[i] = 0
		}
	}

	m.moving.Iterate(0, 0, func(i int, p r3.Vector) bool {
		distVec := m.targetMap[i].Sub(p)
		base := i * deform.PerVertexDoF
		dst[base] = -2 * distVec.X
		dst[base+1] = -2 * distVec.Y
		dst[base+2] = -2 * distVec.Z
		return true
	})
	return dst, nil
}

// ValueAndDerivative computes the energy and its gradient for the same
// parameters. Results are identical to calling Value and Derivative
// separately.
func (m *ThinShellDemonsMetric) ValueAndDerivative(params, dst []float64) (float64, []float64, error) {
	value, err := m.Value(params)
	if err != nil {
		return 0, nil, err
	}
	dst, err = m.Derivative(params, dst)
	if err != nil {
		return 0, nil, err
	}
	return value, dst, nil
}

func (m *ThinShellDemonsMetric) checkEvaluate(params []float64) error {
	if m.fixed == nil {
		return errMissingFixedMesh
	}
	if m.moving == nil {
		return errMissingMovingMesh
	}
	if !m.targetPositionComputed {
		return errTargetsNotComputed
	}
	if len(params) != m.NumParameters() {
		return newDimensionMismatchError(len(params), m.NumParameters())
	}
	return nil
}
