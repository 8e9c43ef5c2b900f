package se3

// NewTrajectory constructs a trajectory from a non-empty pose sequence.
// When bounded is true every pose translation must satisfy |p| <= rMax.
func NewTrajectory(poses []Pose, bounded bool, rMax float64) (*Trajectory, error) {
	if len(poses) == 0 {
		return nil, newError(ErrDimensionMismatch, "trajectory must contain at least one pose")
	}
	if bounded && rMax <= 0 {
		return nil, newError(ErrBoundsViolation, "r_max must be positive for a bounded trajectory, got %g", rMax)
	}
	t := &Trajectory{Poses: poses, Bounded: bounded, RMax: rMax}
	if bounded {
		for i, p := range poses {
			if norm := p.Translation.Norm(); norm > rMax {
				return nil, newError(ErrBoundsViolation, "pose %d translation norm %g exceeds r_max %g", i, norm, rMax)
			}
		}
	}
	return t, nil
}

// ComposeTrajectory left-folds Compose over the pose sequence starting from
// the identity: G = g1 * g2 * ... * gT. Order matters; rigid motions do not
// commute.
func ComposeTrajectory(t *Trajectory) Pose {
	result := Identity()
	for _, p := range t.Poses {
		result = Compose(result, p)
	}
	return result
}

// ScaleTrajectory scales every pose independently by lambda, carrying the
// bound parameters through. The bound invariant is deliberately NOT
// re-validated against the scaled translations: the optimizer probes λ > 1
// values whose scaled poses may legitimately exceed the original r_max.
func ScaleTrajectory(t *Trajectory, lambda float64) (*Trajectory, error) {
	scaled := make([]Pose, len(t.Poses))
	for i, p := range t.Poses {
		sp, err := Scale(p, lambda)
		if err != nil {
			return nil, err
		}
		scaled[i] = sp
	}
	return &Trajectory{Poses: scaled, Bounded: t.Bounded, RMax: t.RMax}, nil
}

// DoubleTrajectory concatenates the trajectory with itself. Doubling plus
// scaling is what makes approximate returns to the identity possible: a
// single traversal almost never returns, a doubled and rescaled one can.
func DoubleTrajectory(t *Trajectory) *Trajectory {
	doubled := make([]Pose, 0, 2*len(t.Poses))
	doubled = append(doubled, t.Poses...)
	doubled = append(doubled, t.Poses...)
	return &Trajectory{Poses: doubled, Bounded: t.Bounded, RMax: t.RMax}
}

// ReturnError is the single definition of the optimization objective:
// scale the trajectory by lambda, optionally double it, compose, and measure
// the distance to identity. The optimizer, the resonance comparator and the
// verification cascade all share this function so their comparisons are
// bit-consistent.
func ReturnError(t *Trajectory, lambda float64, double bool) (float64, error) {
	scaled, err := ScaleTrajectory(t, lambda)
	if err != nil {
		return 0, err
	}
	if double {
		scaled = DoubleTrajectory(scaled)
	}
	return DistanceToIdentity(ComposeTrajectory(scaled)), nil
}
