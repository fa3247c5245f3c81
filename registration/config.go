package registration

// MetricConfig holds the weights of the thin-shell energy terms. The stretch
// and bend weights describe the regularization of the full thin-shell model;
// the geometric feature-matching term implemented here does not consume them,
// but they are carried so configurations round-trip through drivers unchanged.
type MetricConfig struct {
	StretchWeight float64
	BendWeight    float64
}

// DefaultMetricConfig returns the default energy weights.
func DefaultMetricConfig() MetricConfig {
	return MetricConfig{
		StretchWeight: 1,
		BendWeight:    1,
	}
}

// Config holds configuration for a registration run.
type Config struct {
	Metric MetricConfig

	// MaxIterations caps the number of objective evaluations the optimizer
	// may perform.
	MaxIterations int

	// Epsilon is the convergence tolerance on the energy.
	Epsilon float64

	// UseSpatialIndex builds a k-d tree over the fixed surface for
	// correspondence search instead of the default brute-force scan. Faster
	// on large surfaces, but equidistant correspondence ties may resolve
	// differently than the brute-force order.
	UseSpatialIndex bool
}

// DefaultConfig returns sensible defaults for registration.
func DefaultConfig() Config {
	return Config{
		Metric:        DefaultMetricConfig(),
		MaxIterations: 5000,
		Epsilon:       1e-8,
	}
}
