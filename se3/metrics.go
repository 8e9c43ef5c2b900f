package se3

import (
	"sync"
	"time"
)

// MetricsOptions controls one full pipeline run: encode, optimize, detect
// resonances, verify, score.
type MetricsOptions struct {
	EnableResonanceDetection  bool
	EnableVerificationCascade bool
	Bounded                   bool
	RMax                      float64
	LambdaBounds              [2]float64
	Tolerance                 float64 // optimizer bracket tolerance
	MaxEvaluations            int     // optimizer budget; caps worst-case latency
	BaseUnit                  float64 // reward base unit

	// Cascade and Detector override the default components, letting callers
	// inject seeded or re-tuned instances. Nil means defaults. A shared
	// Cascade is safe under ComputeBatch; its RNG draws are serialized,
	// though goroutine scheduling makes per-trajectory draws unordered.
	Cascade  *VerificationCascade
	Detector *ResonanceDetector
}

// DefaultMetricsOptions returns the standard pipeline settings.
func DefaultMetricsOptions() MetricsOptions {
	return MetricsOptions{
		EnableResonanceDetection:  true,
		EnableVerificationCascade: true,
		Bounded:                   true,
		RMax:                      1.0,
		LambdaBounds:              [2]float64{0.1, 2.0},
		BaseUnit:                  100.0,
	}
}

// Metadata describes how a metrics result was produced.
type Metadata struct {
	TrajectoryLength        int        `json:"trajectory_length"`
	Bounded                 bool       `json:"bounded"`
	RMax                    float64    `json:"r_max"`
	LambdaBounds            [2]float64 `json:"lambda_bounds"`
	OptimizationConverged   bool       `json:"optimization_converged"`
	OptimizationEvaluations int        `json:"optimization_evaluations"`
	Timestamp               string     `json:"timestamp"`
}

// Metrics is the core pipeline output.
type Metrics struct {
	OptimalLambda      float64             `json:"optimal_lambda"`
	ReturnErrorEpsilon float64             `json:"return_error_epsilon"`
	VerificationScore  float64             `json:"verification_score"`
	Verification       *VerificationResult `json:"verification,omitempty"`
	ResonanceDetected  string              `json:"resonance_detected,omitempty"`
	Confidence         float64             `json:"confidence"`
	Metadata           Metadata            `json:"metadata"`
}

// ComputeMetrics runs the full pipeline on a raw trajectory input:
// encode → optimize λ → resonance detection → verification cascade →
// confidence. Confidence is min(1, 1/(1+ε)) when the optimizer converged
// and degrades to the fixed 0.5 when it did not.
func ComputeMetrics(input TrajectoryInput, opts MetricsOptions) (*Metrics, error) {
	trajectory, err := EncodeTrajectory(input, opts.Bounded, opts.RMax)
	if err != nil {
		return nil, err
	}
	return ComputeTrajectoryMetrics(trajectory, opts)
}

// ComputeTrajectoryMetrics runs the pipeline on an already-encoded trajectory.
func ComputeTrajectoryMetrics(trajectory *Trajectory, opts MetricsOptions) (*Metrics, error) {
	optCfg := DefaultOptimizerConfig()
	if opts.LambdaBounds != ([2]float64{}) {
		optCfg.Bounds = opts.LambdaBounds
	}
	if opts.Tolerance > 0 {
		optCfg.Tolerance = opts.Tolerance
	}
	if opts.MaxEvaluations > 0 {
		optCfg.MaxEvaluations = opts.MaxEvaluations
	}

	result, err := OptimizeScale(trajectory, optCfg)
	if err != nil {
		return nil, err
	}

	resonance := ""
	if opts.EnableResonanceDetection {
		detector := opts.Detector
		if detector == nil {
			detector = NewResonanceDetector(0.1)
		}
		rr, err := detector.Detect(trajectory)
		if err != nil {
			return nil, err
		}
		if rr.IsNatural {
			resonance = rr.BestResonance
		}
	}

	var verification *VerificationResult
	verificationScore := 0.0
	if opts.EnableVerificationCascade {
		cascade := opts.Cascade
		if cascade == nil {
			cascade = NewVerificationCascade(DefaultCascadeConfig())
		}
		baseUnit := opts.BaseUnit
		if baseUnit <= 0 {
			baseUnit = 100.0
		}
		vr, err := cascade.Verify(trajectory, result.Lambda, baseUnit)
		if err != nil {
			return nil, err
		}
		verification = &vr
		verificationScore = vr.OverallScore
	}

	confidence := 0.5
	if result.Converged {
		confidence = 1.0 / (1.0 + result.Error)
		if confidence > 1.0 {
			confidence = 1.0
		}
	}

	return &Metrics{
		OptimalLambda:      result.Lambda,
		ReturnErrorEpsilon: result.Error,
		VerificationScore:  verificationScore,
		Verification:       verification,
		ResonanceDetected:  resonance,
		Confidence:         confidence,
		Metadata: Metadata{
			TrajectoryLength:        trajectory.Len(),
			Bounded:                 opts.Bounded,
			RMax:                    opts.RMax,
			LambdaBounds:            optCfg.Bounds,
			OptimizationConverged:   result.Converged,
			OptimizationEvaluations: result.Evaluations,
			Timestamp:               time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// BatchResult pairs one trajectory's outcome with its input index so batch
// callers can reassemble order. Exactly one of Metrics and Error is set.
type BatchResult struct {
	Index   int      `json:"trajectory_index"`
	Metrics *Metrics `json:"metrics,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ComputeBatch runs the pipeline over many trajectories concurrently.
// Each trajectory is independent; a single failure is recorded against its
// index instead of aborting the batch.
func ComputeBatch(inputs []TrajectoryInput, opts MetricsOptions) []BatchResult {
	results := make([]BatchResult, len(inputs))

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input TrajectoryInput) {
			defer wg.Done()
			metrics, err := ComputeMetrics(input, opts)
			if err != nil {
				results[i] = BatchResult{Index: i, Error: err.Error()}
				return
			}
			results[i] = BatchResult{Index: i, Metrics: metrics}
		}(i, input)
	}
	wg.Wait()

	return results
}
