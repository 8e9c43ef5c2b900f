package se3

import (
	"math"
	"math/rand"
	"time"
)

// WalkerConfig configures a tethered random walk through SE(3).
type WalkerConfig struct {
	Home             *Pose      // tether point; nil means identity
	ElasticConstant  float64    // restoring-force strength k
	TranslationNoise float64    // stochastic translation amplitude
	RotationNoise    float64    // stochastic rotation amplitude (radians)
	RNG              *rand.Rand // noise source; seed it for deterministic walks
}

// DefaultWalkerConfig returns the standard tether settings with a
// time-seeded RNG.
func DefaultWalkerConfig() WalkerConfig {
	return WalkerConfig{
		ElasticConstant:  0.1,
		TranslationNoise: 0.05,
		RotationNoise:    0.1,
		RNG:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// TetheredWalker is a random walk with an elastic pull toward a home pose.
// The tether creates artificial boundedness: the walk wanders but a
// Hooke's-law force on the translation and a log-map force on the rotation
// keep dragging it back.
type TetheredWalker struct {
	home     Pose
	k        float64
	tNoise   float64
	rNoise   float64
	rng      *rand.Rand
	position Pose
}

// NewTetheredWalker creates a walker starting at the identity.
func NewTetheredWalker(cfg WalkerConfig) *TetheredWalker {
	def := DefaultWalkerConfig()
	home := Identity()
	if cfg.Home != nil {
		home = *cfg.Home
	}
	if cfg.ElasticConstant <= 0 {
		cfg.ElasticConstant = def.ElasticConstant
	}
	if cfg.TranslationNoise <= 0 {
		cfg.TranslationNoise = def.TranslationNoise
	}
	if cfg.RotationNoise <= 0 {
		cfg.RotationNoise = def.RotationNoise
	}
	if cfg.RNG == nil {
		cfg.RNG = def.RNG
	}
	return &TetheredWalker{
		home:     home,
		k:        cfg.ElasticConstant,
		tNoise:   cfg.TranslationNoise,
		rNoise:   cfg.RotationNoise,
		rng:      cfg.RNG,
		position: Identity(),
	}
}

// Position returns the walker's current pose.
func (w *TetheredWalker) Position() Pose {
	return w.position
}

// ReturnForce computes the elastic pull toward home: a linear spring on the
// translation and a log-map spring on the rotation deviation.
func (w *TetheredWalker) ReturnForce() (transForce, rotForce Vec3) {
	transForce = w.position.Translation.Sub(w.home.Translation).Scale(-w.k)

	relative := w.home.Rotation.Transpose().Mul(w.position.Rotation)
	rotForce = LogSO3(relative).Scale(-w.k)
	return transForce, rotForce
}

// Step advances the walk by one Euler-Maruyama step of size dt: the
// deterministic return force plus sqrt(dt)-scaled Gaussian noise.
func (w *TetheredWalker) Step(dt float64) Pose {
	transForce, rotForce := w.ReturnForce()
	sqrtDt := math.Sqrt(dt)

	var transNoise, rotNoise Vec3
	for i := 0; i < 3; i++ {
		transNoise[i] = w.rng.NormFloat64() * w.tNoise
		rotNoise[i] = w.rng.NormFloat64() * w.rNoise
	}

	newTranslation := w.position.Translation.
		Add(transForce.Scale(dt)).
		Add(transNoise.Scale(sqrtDt))

	newRotVec := w.position.RotationVector().
		Add(rotForce.Scale(dt)).
		Add(rotNoise.Scale(sqrtDt))

	w.position = NewPoseFromRotationVector(newRotVec, newTranslation)
	return w.position
}

// GenerateRandomTrajectory creates a bounded random trajectory of small
// rotations and translations for demos and tests. Translations are clamped
// to rMax so construction cannot fail on the bound invariant.
func GenerateRandomTrajectory(steps int, rMax, rotationScale float64, bounded bool, rng *rand.Rand) (*Trajectory, error) {
	if steps <= 0 {
		return nil, newError(ErrDimensionMismatch, "trajectory must contain at least one pose")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	poses := make([]Pose, 0, steps)
	for i := 0; i < steps; i++ {
		var rotVec, translation Vec3
		for k := 0; k < 3; k++ {
			rotVec[k] = rng.NormFloat64() * rotationScale
			translation[k] = rng.NormFloat64() * (rMax / float64(steps))
		}
		if bounded {
			if norm := translation.Norm(); norm > rMax {
				translation = translation.Scale(rMax / norm)
			}
		}
		poses = append(poses, NewPoseFromRotationVector(rotVec, translation))
	}
	return NewTrajectory(poses, bounded, rMax)
}
