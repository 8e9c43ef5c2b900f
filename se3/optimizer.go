package se3

import "math"

// OptimizerConfig configures the bounded 1-D scale search.
type OptimizerConfig struct {
	Bounds         [2]float64 // search interval [lo, hi] for λ
	Tolerance      float64    // stop when the bracket width falls below this
	MaxEvaluations int        // objective evaluation budget
	Double         bool       // whether to double the trajectory in the objective
}

// DefaultOptimizerConfig returns sensible defaults. The (0.1, 2.0) bounds
// reflect the domain assumption that return scales near 1 are the physically
// meaningful ones; callers may widen them.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Bounds:         [2]float64{0.1, 2.0},
		Tolerance:      1e-6,
		MaxEvaluations: 200,
		Double:         true,
	}
}

// OptimizeResult is the outcome of a scale search.
type OptimizeResult struct {
	Lambda      float64 `json:"lambda"`      // best λ found
	Error       float64 `json:"error"`       // return error at Lambda
	Converged   bool    `json:"converged"`   // bracket shrank below tolerance within budget
	Evaluations int     `json:"evaluations"` // number of objective evaluations
}

// invGolden is 1/φ = (√5-1)/2, the golden-section interval ratio.
var invGolden = (math.Sqrt(5) - 1) / 2

// OptimizeScale minimizes ReturnError(t, λ, cfg.Double) over λ in cfg.Bounds
// using a deterministic golden-section search. Non-convergence (budget
// exhausted before the bracket shrinks below tolerance) is reported through
// the Converged flag, never as an error; the only error cases are malformed
// bounds.
func OptimizeScale(t *Trajectory, cfg OptimizerConfig) (OptimizeResult, error) {
	lo, hi := cfg.Bounds[0], cfg.Bounds[1]
	if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsNaN(hi) || math.IsInf(hi, 0) {
		return OptimizeResult{}, newError(ErrInvalidScale, "optimizer bounds must be finite, got (%g, %g)", lo, hi)
	}
	if lo >= hi {
		return OptimizeResult{}, newError(ErrInvalidScale, "optimizer bounds must satisfy lo < hi, got (%g, %g)", lo, hi)
	}

	tol := cfg.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}
	budget := cfg.MaxEvaluations
	if budget < 3 {
		budget = 3
	}

	// Bounds are finite, so ReturnError cannot fail inside the loop.
	objective := func(lambda float64) float64 {
		err, _ := ReturnError(t, lambda, cfg.Double)
		return err
	}

	a, b := lo, hi
	c := b - (b-a)*invGolden
	d := a + (b-a)*invGolden
	fc := objective(c)
	fd := objective(d)
	evals := 2

	for (b-a) > tol && evals < budget {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - (b-a)*invGolden
			fc = objective(c)
		} else {
			a, c, fc = c, d, fd
			d = a + (b-a)*invGolden
			fd = objective(d)
		}
		evals++
	}

	// Probe the bracket midpoint only if the budget allows; otherwise settle
	// for the better of the two bracketed points, so Evaluations never
	// exceeds MaxEvaluations.
	lambda, final := c, fc
	if fd < final {
		lambda, final = d, fd
	}
	if evals < budget {
		mid := (a + b) / 2
		if fm := objective(mid); fm < final {
			lambda, final = mid, fm
		}
		evals++
	}

	return OptimizeResult{
		Lambda:      lambda,
		Error:       final,
		Converged:   (b - a) <= tol,
		Evaluations: evals,
	}, nil
}
