package se3

import "math"

// RotationTolerance is the numeric tolerance used when validating that a
// rotation matrix is orthogonal with determinant +1.
const RotationTolerance = 1e-6

// MatIdentity returns the 3x3 identity matrix.
func MatIdentity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Identity returns the neutral element of SE(3).
func Identity() Pose {
	return Pose{Rotation: MatIdentity()}
}

// NewPose constructs a pose, validating that the rotation is orthogonal
// with determinant +1 within RotationTolerance.
func NewPose(rotation Mat3, translation Vec3) (Pose, error) {
	det := rotation.Det()
	if math.Abs(det-1.0) > RotationTolerance {
		return Pose{}, newError(ErrInvalidPose, "rotation determinant %g is not 1", det)
	}
	// Orthogonality: R * R^T must equal I entrywise.
	rrt := rotation.Mul(rotation.Transpose())
	ident := MatIdentity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(rrt[i][j]-ident[i][j]) > RotationTolerance {
				return Pose{}, newError(ErrInvalidPose, "rotation is not orthogonal (R*Rt[%d][%d] = %g)", i, j, rrt[i][j])
			}
		}
	}
	return Pose{Rotation: rotation, Translation: translation}, nil
}

// NewPoseFromRotationVector builds a pose from an axis-angle rotation vector.
// The exponential map always yields a valid rotation, so there is no failure mode.
func NewPoseFromRotationVector(rotVec, translation Vec3) Pose {
	return Pose{Rotation: ExpSO3(rotVec), Translation: translation}
}

// NewPoseFromQuaternion builds a pose from a unit quaternion (x, y, z, w).
// The quaternion is normalized before conversion; a zero quaternion fails.
func NewPoseFromQuaternion(q [4]float64, translation Vec3) (Pose, error) {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n < 1e-12 {
		return Pose{}, newError(ErrInvalidPose, "zero quaternion")
	}
	x, y, z, w := q[0]/n, q[1]/n, q[2]/n, q[3]/n
	r := Mat3{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
	return Pose{Rotation: r, Translation: translation}, nil
}

// Compose applies b first, then a: [Ra pa] * [Rb pb] = [Ra*Rb  Ra*pb + pa].
// Composition is associative but not commutative.
func Compose(a, b Pose) Pose {
	return Pose{
		Rotation:    a.Rotation.Mul(b.Rotation),
		Translation: a.Rotation.MulVec(b.Translation).Add(a.Translation),
	}
}

// Inverse returns the pose g^-1 such that g * g^-1 = identity.
func Inverse(p Pose) Pose {
	rt := p.Rotation.Transpose()
	return Pose{
		Rotation:    rt,
		Translation: rt.MulVec(p.Translation).Scale(-1),
	}
}

// Scale raises a pose to the power lambda: the rotation is scaled through
// the exponential/logarithm map (R^λ = exp(λ log R)) and the translation
// scales linearly. lambda must be finite.
func Scale(p Pose, lambda float64) (Pose, error) {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return Pose{}, newError(ErrInvalidScale, "scaling factor must be finite, got %g", lambda)
	}
	rotVec := LogSO3(p.Rotation)
	return Pose{
		Rotation:    ExpSO3(rotVec.Scale(lambda)),
		Translation: p.Translation.Scale(lambda),
	}, nil
}

// DistanceToIdentity measures how far a pose is from the identity:
// the Frobenius norm ||R - I|| plus the Euclidean norm ||p||.
// Non-negative, zero exactly at the identity.
func DistanceToIdentity(p Pose) float64 {
	rotErr := p.Rotation.Sub(MatIdentity()).FrobeniusNorm()
	return rotErr + p.Translation.Norm()
}

// RotationVector extracts the axis-angle rotation vector of the pose.
func (p Pose) RotationVector() Vec3 {
	return LogSO3(p.Rotation)
}

// Quaternion extracts the rotation as a unit quaternion (x, y, z, w).
func (p Pose) Quaternion() [4]float64 {
	rv := LogSO3(p.Rotation)
	angle := rv.Norm()
	if angle < 1e-12 {
		return [4]float64{0, 0, 0, 1}
	}
	axis := rv.Scale(1 / angle)
	s := math.Sin(angle / 2)
	return [4]float64{axis[0] * s, axis[1] * s, axis[2] * s, math.Cos(angle / 2)}
}

// ExpSO3 converts an axis-angle rotation vector to a rotation matrix via
// the Rodrigues formula.
func ExpSO3(rotVec Vec3) Mat3 {
	theta := rotVec.Norm()

	// K is the skew-symmetric cross-product matrix of the rotation vector.
	k := Mat3{
		{0, -rotVec[2], rotVec[1]},
		{rotVec[2], 0, -rotVec[0]},
		{-rotVec[1], rotVec[0], 0},
	}

	// Taylor-guard the sin(θ)/θ and (1-cos θ)/θ² coefficients near zero.
	var a, b float64
	if theta < 1e-8 {
		a = 1 - theta*theta/6
		b = 0.5 - theta*theta/24
	} else {
		a = math.Sin(theta) / theta
		b = (1 - math.Cos(theta)) / (theta * theta)
	}

	result := MatIdentity()
	k2 := k.Mul(k)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			result[i][j] += a*k[i][j] + b*k2[i][j]
		}
	}
	return result
}

// LogSO3 converts a rotation matrix to its axis-angle rotation vector.
// The antipodal boundary (angle near π) is handled by extracting the axis
// from the symmetric part of the matrix, where the usual skew formula
// degenerates.
func LogSO3(r Mat3) Vec3 {
	trace := r[0][0] + r[1][1] + r[2][2]
	cosTheta := (trace - 1) / 2
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}
	theta := math.Acos(cosTheta)

	if theta < 1e-10 {
		// First order: R ≈ I + [v]x
		return Vec3{
			(r[2][1] - r[1][2]) / 2,
			(r[0][2] - r[2][0]) / 2,
			(r[1][0] - r[0][1]) / 2,
		}
	}

	if math.Pi-theta < 1e-6 {
		// Near π the skew part vanishes; use R ≈ 2aa^T - I.
		// Pick the largest diagonal entry for numerical stability.
		i := 0
		if r[1][1] > r[i][i] {
			i = 1
		}
		if r[2][2] > r[i][i] {
			i = 2
		}
		j, k := (i+1)%3, (i+2)%3

		var axis Vec3
		axis[i] = math.Sqrt(math.Max(0, (r[i][i]+1)/2))
		axis[j] = (r[i][j] + r[j][i]) / (4 * axis[i])
		axis[k] = (r[i][k] + r[k][i]) / (4 * axis[i])

		// The skew part fixes the sign when it has not fully vanished.
		skew := Vec3{r[2][1] - r[1][2], r[0][2] - r[2][0], r[1][0] - r[0][1]}
		if axis.Dot(skew) < 0 {
			axis = axis.Scale(-1)
		}
		return axis.Scale(theta / axis.Norm())
	}

	factor := theta / (2 * math.Sin(theta))
	return Vec3{
		factor * (r[2][1] - r[1][2]),
		factor * (r[0][2] - r[2][0]),
		factor * (r[1][0] - r[0][1]),
	}
}

// Adjoint conjugates a Lie algebra generator (rotation part + translation
// part) by the transformation g, describing how applying g changes the
// effect of the generator.
func Adjoint(g Pose, rotGen Mat3, transGen Vec3) (Mat3, Vec3) {
	rotPart := g.Rotation.Mul(rotGen).Mul(g.Rotation.Transpose())
	transPart := g.Rotation.MulVec(transGen)
	return rotPart, transPart
}

// PredictInterference quantifies how much applying pose a changes the effect
// of pose b, measured as the Frobenius-style magnitude of the adjoint delta.
// The norm covers only the rotation and translation parts; the constant
// bottom row of the homogeneous form is deliberately excluded so that
// commuting motions score exactly zero rather than a fixed offset.
func PredictInterference(a, b Pose) float64 {
	rotPart, transPart := Adjoint(a, b.Rotation, b.Translation)
	return rotPart.Sub(b.Rotation).FrobeniusNorm() + transPart.Sub(b.Translation).Norm()
}

// --- Vec3 helpers ---

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Scale returns s * v.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{s * v[0], s * v[1], s * v[2]}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Norm returns the Euclidean norm of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// --- Mat3 helpers ---

// Mul returns the matrix product m * n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return out
}

// MulVec returns the matrix-vector product m * v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Transpose returns the transpose of m.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		{m[0][0], m[1][0], m[2][0]},
		{m[0][1], m[1][1], m[2][1]},
		{m[0][2], m[1][2], m[2][2]},
	}
}

// Sub returns m - n.
func (m Mat3) Sub(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] - n[i][j]
		}
	}
	return out
}

// Det returns the determinant of m.
func (m Mat3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// FrobeniusNorm returns the Frobenius norm of m.
func (m Mat3) FrobeniusNorm() float64 {
	sum := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum += m[i][j] * m[i][j]
		}
	}
	return math.Sqrt(sum)
}
