package se3

import "math"

// Named mathematical constants tested for resonance.
var (
	GoldenRatio   = (math.Sqrt(5) - 1) / 2 // φ ≈ 0.618033988749
	SilverRatio   = 1 + math.Sqrt2         // δ ≈ 2.414213562373
	PlasticNumber = 1.324717957244746      // real root of x³ = x + 1
	Octave        = 2.0
	PerfectFifth  = 1.5
	PerfectFourth = 4.0 / 3.0
	MajorThird    = 5.0 / 4.0
)

// resonanceNames fixes the evaluation and tie-break order: with equal errors
// the earlier name wins.
var resonanceNames = []string{
	"golden_ratio",
	"silver_ratio",
	"plastic_number",
	"octave",
	"perfect_fifth",
	"perfect_fourth",
	"major_third",
}

// wideScaleBounds is the unbiased search interval used when no resonance
// neighborhood applies.
var wideScaleBounds = [2]float64{0.1, 10.0}

// Neighborhood multipliers for resonance-biased searches: the interval
// around a constant r is (0.7r, 1.4r).
const (
	neighborhoodLo = 0.7
	neighborhoodHi = 1.4
)

// ResonanceResult reports which named constant best explains a trajectory's
// return scaling, and whether it is competitive with the numeric optimum.
type ResonanceResult struct {
	BestResonance string             `json:"best_resonance"`
	BestError     float64            `json:"best_error"`
	AllResonances map[string]float64 `json:"all_resonances"`
	IsNatural     bool               `json:"is_natural"`
}

// ResonanceDetector compares return errors at named mathematical constants
// against the numerically optimized scale. Configuration is set at
// construction and never mutated.
type ResonanceDetector struct {
	tolerance float64
	constants map[string]float64
}

// NewResonanceDetector creates a detector. tolerance is the fraction by
// which the best constant's error may exceed the optimized error and still
// count as natural; non-positive values fall back to the default 0.1.
func NewResonanceDetector(tolerance float64) *ResonanceDetector {
	if tolerance <= 0 {
		tolerance = 0.1
	}
	return &ResonanceDetector{
		tolerance: tolerance,
		constants: map[string]float64{
			"golden_ratio":   GoldenRatio,
			"silver_ratio":   SilverRatio,
			"plastic_number": PlasticNumber,
			"octave":         Octave,
			"perfect_fifth":  PerfectFifth,
			"perfect_fourth": PerfectFourth,
			"major_third":    MajorThird,
		},
	}
}

// Constants returns a copy of the name → value mapping.
func (d *ResonanceDetector) Constants() map[string]float64 {
	out := make(map[string]float64, len(d.constants))
	for name, value := range d.constants {
		out[name] = value
	}
	return out
}

// TestScaling evaluates the doubled return error at a specific scale.
func (d *ResonanceDetector) TestScaling(t *Trajectory, lambda float64) (float64, error) {
	return ReturnError(t, lambda, true)
}

// Detect evaluates the return error at every named constant, runs a wide
// (0.1, 10.0) optimization for the best achievable error, and marks the
// system natural when the best constant is within tolerance of the optimum.
func (d *ResonanceDetector) Detect(t *Trajectory) (ResonanceResult, error) {
	results := make(map[string]float64, len(d.constants))
	bestName := ""
	bestError := math.Inf(1)
	for _, name := range resonanceNames {
		e, err := d.TestScaling(t, d.constants[name])
		if err != nil {
			return ResonanceResult{}, err
		}
		results[name] = e
		if e < bestError {
			bestName, bestError = name, e
		}
	}

	cfg := DefaultOptimizerConfig()
	cfg.Bounds = wideScaleBounds
	opt, err := OptimizeScale(t, cfg)
	if err != nil {
		return ResonanceResult{}, err
	}

	return ResonanceResult{
		BestResonance: bestName,
		BestError:     bestError,
		AllResonances: results,
		IsNatural:     bestError <= opt.Error*(1+d.tolerance),
	}, nil
}

// ResonanceOptimizer biases the scale search toward natural constants.
// Return scalings cluster around the golden ratio often enough that a tight
// search near φ usually finds the optimum in far fewer evaluations than a
// wide sweep; when it does not, the search falls back to the full interval.
type ResonanceOptimizer struct {
	cfg OptimizerConfig
}

// NewResonanceOptimizer creates a biased optimizer. cfg supplies the
// tolerance, evaluation budget and doubling mode; its Bounds are ignored
// because each search picks its own interval.
func NewResonanceOptimizer(cfg OptimizerConfig) *ResonanceOptimizer {
	return &ResonanceOptimizer{cfg: cfg}
}

// OptimizeWithBias searches the golden-ratio neighborhood first. If the
// local optimum is poor (error above 1.0) it re-runs over the wide interval
// and keeps whichever result is better. With biasToGolden false it is a
// plain wide-interval search.
func (o *ResonanceOptimizer) OptimizeWithBias(t *Trajectory, biasToGolden bool) (OptimizeResult, error) {
	cfg := o.cfg
	if !biasToGolden {
		cfg.Bounds = wideScaleBounds
		return OptimizeScale(t, cfg)
	}

	cfg.Bounds = [2]float64{GoldenRatio * neighborhoodLo, GoldenRatio * neighborhoodHi}
	local, err := OptimizeScale(t, cfg)
	if err != nil {
		return OptimizeResult{}, err
	}
	if local.Error > 1.0 {
		cfg.Bounds = wideScaleBounds
		global, err := OptimizeScale(t, cfg)
		if err != nil {
			return OptimizeResult{}, err
		}
		if global.Error < local.Error {
			return global, nil
		}
	}
	return local, nil
}

// MultiResonanceSearch runs a bounded optimization in the neighborhood of
// every named constant and returns the per-constant results, keyed by
// resonance name.
func (o *ResonanceOptimizer) MultiResonanceSearch(t *Trajectory) (map[string]OptimizeResult, error) {
	detector := NewResonanceDetector(0)
	results := make(map[string]OptimizeResult, len(resonanceNames))
	for _, name := range resonanceNames {
		ratio := detector.constants[name]
		cfg := o.cfg
		cfg.Bounds = [2]float64{ratio * neighborhoodLo, ratio * neighborhoodHi}
		res, err := OptimizeScale(t, cfg)
		if err != nil {
			return nil, err
		}
		results[name] = res
	}
	return results, nil
}

// Nearest returns the named constant closest to lambda, its value, and the
// absolute distance. Pure lookup, no optimization.
func (d *ResonanceDetector) Nearest(lambda float64) (string, float64, float64) {
	bestName := ""
	bestDist := math.Inf(1)
	for _, name := range resonanceNames {
		if dist := math.Abs(lambda - d.constants[name]); dist < bestDist {
			bestName, bestDist = name, dist
		}
	}
	return bestName, d.constants[bestName], bestDist
}
