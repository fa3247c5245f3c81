//go:build !windows && !no_cgo

package registration

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/meshreg/deform"
	"go.viam.com/meshreg/mesh"
)

// fallbackBound stands in for displacement bounds when a surface is
// degenerate and has no spatial extent to derive them from.
const fallbackBound = 999.

type optimizeReturn struct {
	solution []float64
	score    float64
	err      error
}

// RegisterMeshes deforms the moving surface onto the fixed surface. It builds
// a ThinShellDemonsMetric over the pair, then runs a gradient-based nlopt
// optimizer over the per-vertex displacement field using the metric's
// analytic gradient, starting from zero displacement.
func RegisterMeshes(
	ctx context.Context,
	fixed, moving mesh.Mesh,
	cfg Config,
	logger golog.Logger,
) (*Result, error) {
	transform := deform.NewIdentity(moving.Size())
	metric := NewThinShellDemonsMetric(fixed, moving, transform, cfg.Metric, logger)
	if cfg.UseSpatialIndex {
		// The tree must index the materialized surface; a lazy mesh reads as
		// empty until its source has produced it.
		if materializer, ok := fixed.(interface {
			Materialize(ctx context.Context) error
		}); ok {
			if err := materializer.Materialize(ctx); err != nil {
				return nil, err
			}
		}
		metric.SetMatcher(mesh.ToKDTree(fixed))
	}
	if err := metric.Initialize(ctx); err != nil {
		return nil, err
	}
	return optimizeMetric(ctx, metric, cfg, logger)
}

// optimizeMetric minimizes an initialized metric over its displacement
// parameters.
func optimizeMetric(
	ctx context.Context,
	metric *ThinShellDemonsMetric,
	cfg Config,
	logger golog.Logger,
) (*Result, error) {
	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(metric.NumParameters()))
	if err != nil {
		return nil, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	evaluations := 0
	minFunc := func(x, gradient []float64) float64 {
		evaluations++
		var value float64
		var evalErr error
		if len(gradient) > 0 {
			// nlopt owns the gradient buffer; Derivative fills it in place.
			value, _, evalErr = metric.ValueAndDerivative(x, gradient)
		} else {
			value, evalErr = metric.Value(x)
		}
		if evalErr != nil {
			logger.Errorw("error evaluating metric in nlopt", "error", evalErr)
			if serr := opt.ForceStop(); serr != nil {
				logger.Errorw("forcestop error", "error", serr)
			}
			return 0
		}
		return value
	}

	lower, upper := displacementBounds(metric)
	err = multierr.Combine(
		opt.SetFtolRel(cfg.Epsilon),
		opt.SetFtolAbs(cfg.Epsilon),
		opt.SetStopVal(cfg.Epsilon),
		opt.SetLowerBounds(lower),
		opt.SetUpperBounds(upper),
		opt.SetXtolRel(cfg.Epsilon),
		opt.SetMinObjective(minFunc),
		opt.SetMaxEval(cfg.MaxIterations),
	)
	if err != nil {
		return nil, err
	}

	seed := make([]float64, metric.NumParameters())
	solveChan := make(chan *optimizeReturn, 1)
	goutils.PanicCapturingGo(func() {
		solution, score, optErr := opt.Optimize(seed)
		solveChan <- &optimizeReturn{solution, score, optErr}
	})

	var solution *optimizeReturn
	select {
	case <-ctx.Done():
		err = opt.ForceStop()
		<-solveChan
		return nil, multierr.Combine(err, ctx.Err())
	case solution = <-solveChan:
	}
	if solution.err != nil && solution.solution == nil {
		return nil, errors.Wrap(solution.err, "registration could not improve the surface alignment")
	}

	field, err := deform.FieldFromFloats(solution.solution)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Field:       field,
		Score:       solution.score,
		Evaluations: evaluations,
		Converged:   solution.score <= cfg.Epsilon,
	}
	logger.Debugw("registration finished",
		"score", result.Score,
		"evaluations", result.Evaluations,
		"converged", result.Converged,
	)
	return result, nil
}

// displacementBounds derives per-parameter optimizer bounds from the spatial
// extent of the surface pair: no vertex ever needs to move farther than the
// span of both bounding boxes plus the offset between their centers.
func displacementBounds(metric *ThinShellDemonsMetric) ([]float64, []float64) {
	fixedMeta := metric.fixed.MetaData()
	movingMeta := metric.moving.MetaData()
	span := fixedMeta.Extent() + movingMeta.Extent() + fixedMeta.Center().Sub(movingMeta.Center()).Norm()
	if span == 0 {
		span = fallbackBound
	}
	lower := make([]float64, metric.NumParameters())
	upper := make([]float64, metric.NumParameters())
	for i := range lower {
		lower[i] = -span
		upper[i] = span
	}
	return lower, upper
}
