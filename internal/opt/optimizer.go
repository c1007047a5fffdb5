package opt

// Optimizer defines a gradient-free optimization algorithm interface,
// used by the "mayfly" training mode as an alternative to SPSA descent.
type Optimizer interface {
	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: parameter bounds
	// dim: dimensionality of parameter space
	// Returns: best parameters and best cost
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
