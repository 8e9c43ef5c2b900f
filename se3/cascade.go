package se3

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// CascadeConfig configures the five-level verification cascade.
// The normalization divisors and the baseline-near-zero fallback are
// empirically chosen defaults, not derived values.
type CascadeConfig struct {
	Weights     LevelValues
	Thresholds  LevelValues
	NoiseTrials int        // stochastic-robustness trial count
	NoiseStdDev float64    // Gaussian noise standard deviation
	RNG         *rand.Rand // noise source; seed it for deterministic tests
}

// DefaultCascadeConfig returns the standard weights, thresholds and noise
// settings with a time-seeded RNG.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		Weights: LevelValues{
			Topological: 0.3,
			Energetic:   0.2,
			Temporal:    0.2,
			Spatial:     0.2,
			Stochastic:  0.1,
		},
		Thresholds: LevelValues{
			Topological: 0.1, // return error below 0.1
			Energetic:   0.05,
			Temporal:    0.1,
			Spatial:     1.0, // binary, must be exactly 1
			Stochastic:  0.8, // robustness at or above 0.8
		},
		NoiseTrials: 10,
		NoiseStdDev: 0.05,
		RNG:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// VerificationResult holds the raw per-level metrics, their normalized
// scores in [0,1], the weighted overall score, the pass verdict, and the
// reward (overall score times the caller's base unit).
type VerificationResult struct {
	OverallScore float64     `json:"overall_score"`
	Raw          LevelValues `json:"raw"`
	Normalized   LevelValues `json:"normalized"`
	Passed       bool        `json:"passed"`
	Reward       float64     `json:"reward"`
}

// VerificationCascade runs five independent quality checks against a
// trajectory and its chosen return scale. Configuration is fixed at
// construction; the cascade never mutates it afterwards. A single cascade is
// safe for concurrent use: draws from the configured RNG are serialized.
type VerificationCascade struct {
	cfg CascadeConfig
	mu  sync.Mutex // serializes cfg.RNG draws; math/rand sources are not goroutine-safe
}

// NewVerificationCascade creates a cascade. Zero-valued fields in cfg fall
// back to the defaults.
func NewVerificationCascade(cfg CascadeConfig) *VerificationCascade {
	def := DefaultCascadeConfig()
	if cfg.Weights == (LevelValues{}) {
		cfg.Weights = def.Weights
	}
	if cfg.Thresholds == (LevelValues{}) {
		cfg.Thresholds = def.Thresholds
	}
	if cfg.NoiseTrials <= 0 {
		cfg.NoiseTrials = def.NoiseTrials
	}
	if cfg.NoiseStdDev <= 0 {
		cfg.NoiseStdDev = def.NoiseStdDev
	}
	if cfg.RNG == nil {
		cfg.RNG = def.RNG
	}
	return &VerificationCascade{cfg: cfg}
}

// ReturnQuality is the topological check: the doubled return error at the
// chosen scale. Lower is better.
func (c *VerificationCascade) ReturnQuality(t *Trajectory, lambda float64) (float64, error) {
	return ReturnError(t, lambda, true)
}

// EnergyConservation is the energetic check: the mean per-pose work
// (rotation-generator norm plus translation norm) over the doubled, scaled
// trajectory. For a perfect return the work cancels and the mean is small.
func (c *VerificationCascade) EnergyConservation(t *Trajectory, lambda float64) (float64, error) {
	scaled, err := ScaleTrajectory(t, lambda)
	if err != nil {
		return 0, err
	}
	doubled := DoubleTrajectory(scaled)

	total := 0.0
	for _, p := range doubled.Poses {
		total += p.RotationVector().Norm() + p.Translation.Norm()
	}
	return total / float64(doubled.Len()), nil
}

// TimingConsistency is the temporal check: the coefficient of variation
// (std/mean) of consecutive-pose step sizes in the original, unscaled
// trajectory. Returns 0 for fewer than two poses or a near-zero mean step.
func (c *VerificationCascade) TimingConsistency(t *Trajectory) float64 {
	if t.Len() < 2 {
		return 0.0
	}

	steps := make([]float64, 0, t.Len()-1)
	for i := 0; i < t.Len()-1; i++ {
		rotDelta := t.Poses[i+1].RotationVector().Sub(t.Poses[i].RotationVector()).Norm()
		transDelta := t.Poses[i+1].Translation.Sub(t.Poses[i].Translation).Norm()
		steps = append(steps, rotDelta+transDelta)
	}

	mean := 0.0
	for _, s := range steps {
		mean += s
	}
	mean /= float64(len(steps))
	if mean < 1e-10 {
		return 0.0
	}

	variance := 0.0
	for _, s := range steps {
		variance += (s - mean) * (s - mean)
	}
	std := math.Sqrt(variance / float64(len(steps)))

	return std / mean
}

// BoundedDomain is the spatial check: 1.0 when every translation is within
// r_max (or the trajectory is unbounded), else 0.0.
func (c *VerificationCascade) BoundedDomain(t *Trajectory) float64 {
	if !t.Bounded {
		return 1.0
	}
	for _, p := range t.Poses {
		if p.Translation.Norm() > t.RMax {
			return 0.0
		}
	}
	return 1.0
}

// NoiseRobustness is the stochastic check: perturb each pose's rotation
// vector and translation with Gaussian noise, recompute the return error,
// and measure the relative degradation. A near-zero baseline is ambiguous
// (any noise looks like infinite degradation) and scores the fixed 0.5.
func (c *VerificationCascade) NoiseRobustness(t *Trajectory, lambda float64) (float64, error) {
	baseline, err := ReturnError(t, lambda, true)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	for trial := 0; trial < c.cfg.NoiseTrials; trial++ {
		noise := c.drawNoise(6 * t.Len())
		noisy := make([]Pose, t.Len())
		for i, p := range t.Poses {
			rv := p.RotationVector()
			var nrv, nt Vec3
			for k := 0; k < 3; k++ {
				nrv[k] = rv[k] + noise[6*i+k]
				nt[k] = p.Translation[k] + noise[6*i+3+k]
			}
			noisy[i] = NewPoseFromRotationVector(nrv, nt)
		}
		// Built directly so perturbed translations may exceed r_max; the
		// bound invariant is a property of the input, not of noise probes.
		noisyTraj := &Trajectory{Poses: noisy, Bounded: t.Bounded, RMax: t.RMax}

		e, err := ReturnError(noisyTraj, lambda, true)
		if err != nil {
			return 0, err
		}
		sum += e
	}
	meanNoisy := sum / float64(c.cfg.NoiseTrials)

	if baseline < 1e-10 {
		return 0.5, nil
	}
	robustness := 1.0 - (meanNoisy-baseline)/baseline
	return math.Max(0.0, math.Min(1.0, robustness)), nil
}

// drawNoise returns n Gaussian samples scaled by the configured standard
// deviation. The draws run under the cascade lock because batch processing
// verifies trajectories in parallel against a shared cascade.
func (c *VerificationCascade) drawNoise(n int) []float64 {
	out := make([]float64, n)
	c.mu.Lock()
	for i := range out {
		out[i] = c.cfg.RNG.NormFloat64() * c.cfg.NoiseStdDev
	}
	c.mu.Unlock()
	return out
}

// Verify runs all five levels and combines them into a weighted overall
// score, a pass verdict, and a reward of overallScore * baseUnit.
//
// Pass rule: topological, energetic and temporal raw values must be at or
// below their thresholds, stochastic must be at or above its threshold, and
// spatial must be exactly 1.0.
func (c *VerificationCascade) Verify(t *Trajectory, lambda float64, baseUnit float64) (VerificationResult, error) {
	topological, err := c.ReturnQuality(t, lambda)
	if err != nil {
		return VerificationResult{}, err
	}
	energetic, err := c.EnergyConservation(t, lambda)
	if err != nil {
		return VerificationResult{}, err
	}
	temporal := c.TimingConsistency(t)
	spatial := c.BoundedDomain(t)
	stochastic, err := c.NoiseRobustness(t, lambda)
	if err != nil {
		return VerificationResult{}, err
	}

	raw := LevelValues{
		Topological: topological,
		Energetic:   energetic,
		Temporal:    temporal,
		Spatial:     spatial,
		Stochastic:  stochastic,
	}
	normalized := LevelValues{
		Topological: math.Max(0.0, 1.0-topological/2.0),
		Energetic:   math.Max(0.0, 1.0-energetic/0.5),
		Temporal:    math.Max(0.0, 1.0-temporal/1.0),
		Spatial:     spatial,
		Stochastic:  stochastic,
	}

	w := c.cfg.Weights
	overall := w.Topological*normalized.Topological +
		w.Energetic*normalized.Energetic +
		w.Temporal*normalized.Temporal +
		w.Spatial*normalized.Spatial +
		w.Stochastic*normalized.Stochastic

	thr := c.cfg.Thresholds
	passed := topological <= thr.Topological &&
		energetic <= thr.Energetic &&
		temporal <= thr.Temporal &&
		stochastic >= thr.Stochastic &&
		spatial == 1.0

	return VerificationResult{
		OverallScore: overall,
		Raw:          raw,
		Normalized:   normalized,
		Passed:       passed,
		Reward:       overall * baseUnit,
	}, nil
}
