package se3

import "encoding/json"

// TrajectoryInput is the raw trajectory payload accepted by the service.
// Exactly one encoding must be populated:
//   - Poses: explicit rotation (axis-angle vector or 3x3 matrix) + translation
//   - Positions + Orientations: time series converted to incremental poses
//   - StateVectors: generic rows where columns 0-2 are the rotation vector
//     and columns 3-5 the translation
type TrajectoryInput struct {
	Poses        []PoseInput `json:"poses,omitempty"`
	Positions    [][]float64 `json:"positions,omitempty"`
	Orientations [][]float64 `json:"orientations,omitempty"`
	StateVectors [][]float64 `json:"state_vectors,omitempty"`
}

// PoseInput is one raw pose entry. Rotation is kept raw because it may be a
// 3-vector (axis-angle) or a 3x3 matrix.
type PoseInput struct {
	Rotation    json.RawMessage `json:"rotation"`
	Translation []float64       `json:"translation"`
}

// DecodeTrajectoryJSON parses a JSON document and encodes it as a trajectory.
func DecodeTrajectoryJSON(data []byte, bounded bool, rMax float64) (*Trajectory, error) {
	var input TrajectoryInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, newError(ErrUnsupportedFormat, "parsing trajectory JSON: %v", err)
	}
	return EncodeTrajectory(input, bounded, rMax)
}

// EncodeTrajectory converts a raw input into a validated trajectory,
// dispatching on which encoding is present.
func EncodeTrajectory(input TrajectoryInput, bounded bool, rMax float64) (*Trajectory, error) {
	switch {
	case input.Poses != nil:
		return encodeFromPoses(input.Poses, bounded, rMax)
	case input.Positions != nil && input.Orientations != nil:
		return encodeFromTimeseries(input.Positions, input.Orientations, bounded, rMax)
	case input.StateVectors != nil:
		return encodeFromStateVectors(input.StateVectors, bounded, rMax)
	default:
		return nil, newError(ErrUnsupportedFormat,
			"unrecognized trajectory encoding: expected 'poses', 'positions'+'orientations', or 'state_vectors'")
	}
}

// encodeFromPoses handles explicit pose entries with polymorphic rotation.
func encodeFromPoses(raw []PoseInput, bounded bool, rMax float64) (*Trajectory, error) {
	poses := make([]Pose, 0, len(raw))
	for i, entry := range raw {
		if entry.Rotation == nil || entry.Translation == nil {
			return nil, newError(ErrUnsupportedFormat, "pose %d must contain 'rotation' and 'translation'", i)
		}
		translation, err := toVec3(entry.Translation)
		if err != nil {
			return nil, newError(ErrDimensionMismatch, "pose %d translation must have 3 components, got %d", i, len(entry.Translation))
		}

		pose, err := decodeRotation(entry.Rotation, translation)
		if err != nil {
			return nil, wrapPoseError(err, i)
		}
		poses = append(poses, pose)
	}
	return NewTrajectory(poses, bounded, rMax)
}

// decodeRotation accepts either a 3-vector (axis-angle) or a 3x3 matrix.
func decodeRotation(raw json.RawMessage, translation Vec3) (Pose, error) {
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err == nil {
		if len(vec) != 3 {
			return Pose{}, newError(ErrDimensionMismatch, "rotation vector must have 3 components, got %d", len(vec))
		}
		return NewPoseFromRotationVector(Vec3{vec[0], vec[1], vec[2]}, translation), nil
	}

	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err == nil {
		if len(rows) != 3 {
			return Pose{}, newError(ErrDimensionMismatch, "rotation matrix must have 3 rows, got %d", len(rows))
		}
		var m Mat3
		for i, row := range rows {
			if len(row) != 3 {
				return Pose{}, newError(ErrDimensionMismatch, "rotation matrix row %d must have 3 columns, got %d", i, len(row))
			}
			copy(m[i][:], row)
		}
		return NewPose(m, translation)
	}

	return Pose{}, newError(ErrUnsupportedFormat, "rotation must be a 3-vector or a 3x3 matrix")
}

// encodeFromTimeseries converts consecutive samples to incremental poses:
// the first pose carries the initial position with identity rotation, each
// later pose the position and orientation deltas.
func encodeFromTimeseries(positions, orientations [][]float64, bounded bool, rMax float64) (*Trajectory, error) {
	if len(positions) != len(orientations) {
		return nil, newError(ErrDimensionMismatch,
			"positions and orientations must have the same length, got %d and %d",
			len(positions), len(orientations))
	}

	poses := make([]Pose, 0, len(positions))
	for i := range positions {
		pos, err := toVec3(positions[i])
		if err != nil {
			return nil, newError(ErrDimensionMismatch, "position %d must have 3 components, got %d", i, len(positions[i]))
		}
		if len(orientations[i]) < 3 {
			return nil, newError(ErrDimensionMismatch, "orientation %d must have at least 3 components, got %d", i, len(orientations[i]))
		}

		if i == 0 {
			poses = append(poses, NewPoseFromRotationVector(Vec3{}, pos))
			continue
		}

		prev, _ := toVec3(positions[i-1])
		deltaPos := pos.Sub(prev)
		deltaOrient := Vec3{
			orientations[i][0] - orientations[i-1][0],
			orientations[i][1] - orientations[i-1][1],
			orientations[i][2] - orientations[i-1][2],
		}
		poses = append(poses, NewPoseFromRotationVector(deltaOrient, deltaPos))
	}
	return NewTrajectory(poses, bounded, rMax)
}

// encodeFromStateVectors maps generic state rows to poses. Rows need at
// least 6 columns; extra columns are ignored.
func encodeFromStateVectors(states [][]float64, bounded bool, rMax float64) (*Trajectory, error) {
	poses := make([]Pose, 0, len(states))
	for i, state := range states {
		if len(state) < 6 {
			return nil, newError(ErrDimensionMismatch, "state vector %d must have at least 6 components, got %d", i, len(state))
		}
		rotVec := Vec3{state[0], state[1], state[2]}
		translation := Vec3{state[3], state[4], state[5]}
		poses = append(poses, NewPoseFromRotationVector(rotVec, translation))
	}
	return NewTrajectory(poses, bounded, rMax)
}

func toVec3(v []float64) (Vec3, error) {
	if len(v) != 3 {
		return Vec3{}, newError(ErrDimensionMismatch, "expected 3 components, got %d", len(v))
	}
	return Vec3{v[0], v[1], v[2]}, nil
}

// wrapPoseError prefixes a pose index onto a tagged error, preserving the kind.
func wrapPoseError(err error, index int) error {
	if kind, ok := KindOf(err); ok {
		return newError(kind, "pose %d: %v", index, err)
	}
	return err
}
