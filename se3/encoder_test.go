package se3

import (
	"testing"
)

func TestDecodeTrajectoryJSONPoses(t *testing.T) {
	data := []byte(`{
		"poses": [
			{"rotation": [0.1, 0, 0], "translation": [0.5, 0, 0]},
			{"rotation": [[1, 0, 0], [0, 1, 0], [0, 0, 1]], "translation": [0, 0.5, 0]}
		]
	}`)

	tr, err := DecodeTrajectoryJSON(data, false, 0)
	if err != nil {
		t.Fatalf("DecodeTrajectoryJSON() error = %v", err)
	}
	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}

	wantFirst := NewPoseFromRotationVector(Vec3{0.1, 0, 0}, Vec3{0.5, 0, 0})
	if !posesEqual(tr.Poses[0], wantFirst, 1e-12) {
		t.Errorf("pose 0 = %+v, want %+v", tr.Poses[0], wantFirst)
	}
	if !matsEqual(tr.Poses[1].Rotation, MatIdentity(), 1e-12) {
		t.Errorf("pose 1 rotation = %+v, want identity", tr.Poses[1].Rotation)
	}
}

func TestEncodeTrajectoryTimeseries(t *testing.T) {
	input := TrajectoryInput{
		Positions: [][]float64{
			{0.1, 0, 0},
			{0.3, 0.2, 0},
			{0.3, 0.2, 0.4},
		},
		Orientations: [][]float64{
			{0, 0, 0},
			{0.1, 0, 0},
			{0.1, 0.2, 0},
		},
	}

	tr, err := EncodeTrajectory(input, false, 0)
	if err != nil {
		t.Fatalf("EncodeTrajectory() error = %v", err)
	}
	if tr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tr.Len())
	}

	// First pose carries the initial position with identity rotation.
	if !matsEqual(tr.Poses[0].Rotation, MatIdentity(), 1e-12) {
		t.Errorf("pose 0 rotation = %+v, want identity", tr.Poses[0].Rotation)
	}
	if !vecsEqual(tr.Poses[0].Translation, Vec3{0.1, 0, 0}, 1e-12) {
		t.Errorf("pose 0 translation = %v, want initial position", tr.Poses[0].Translation)
	}

	// Later poses carry deltas.
	if !vecsEqual(tr.Poses[1].Translation, Vec3{0.2, 0.2, 0}, 1e-12) {
		t.Errorf("pose 1 translation = %v, want position delta", tr.Poses[1].Translation)
	}
	if !vecsEqual(tr.Poses[1].RotationVector(), Vec3{0.1, 0, 0}, 1e-9) {
		t.Errorf("pose 1 rotation vector = %v, want orientation delta", tr.Poses[1].RotationVector())
	}
	if !vecsEqual(tr.Poses[2].Translation, Vec3{0, 0, 0.4}, 1e-12) {
		t.Errorf("pose 2 translation = %v, want position delta", tr.Poses[2].Translation)
	}
}

func TestEncodeTrajectoryStateVectors(t *testing.T) {
	input := TrajectoryInput{
		StateVectors: [][]float64{
			{0.1, 0, 0, 0.5, 0, 0},
			{0, 0.1, 0, 0, 0.5, 0, 42, 43}, // extra columns ignored
		},
	}

	tr, err := EncodeTrajectory(input, false, 0)
	if err != nil {
		t.Fatalf("EncodeTrajectory() error = %v", err)
	}
	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}
	if !vecsEqual(tr.Poses[1].RotationVector(), Vec3{0, 0.1, 0}, 1e-9) {
		t.Errorf("pose 1 rotation vector = %v, want columns 0-2", tr.Poses[1].RotationVector())
	}
	if !vecsEqual(tr.Poses[1].Translation, Vec3{0, 0.5, 0}, 1e-12) {
		t.Errorf("pose 1 translation = %v, want columns 3-5", tr.Poses[1].Translation)
	}
}

func TestEncodeTrajectoryPrecedence(t *testing.T) {
	// When multiple encodings are present, explicit poses win.
	input := TrajectoryInput{
		Poses: []PoseInput{
			{Rotation: []byte(`[0, 0, 0]`), Translation: []float64{1, 0, 0}},
		},
		StateVectors: [][]float64{
			{0, 0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0, 0},
		},
	}

	tr, err := EncodeTrajectory(input, false, 0)
	if err != nil {
		t.Fatalf("EncodeTrajectory() error = %v", err)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (poses encoding)", tr.Len())
	}
}

func TestEncodeTrajectoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    TrajectoryInput
		wantKind ErrorKind
	}{
		{
			name:     "no encoding present",
			input:    TrajectoryInput{},
			wantKind: ErrUnsupportedFormat,
		},
		{
			name: "pose missing rotation",
			input: TrajectoryInput{
				Poses: []PoseInput{{Translation: []float64{1, 0, 0}}},
			},
			wantKind: ErrUnsupportedFormat,
		},
		{
			name: "translation wrong arity",
			input: TrajectoryInput{
				Poses: []PoseInput{{Rotation: []byte(`[0,0,0]`), Translation: []float64{1, 0}}},
			},
			wantKind: ErrDimensionMismatch,
		},
		{
			name: "rotation vector wrong arity",
			input: TrajectoryInput{
				Poses: []PoseInput{{Rotation: []byte(`[0,0,0,0]`), Translation: []float64{1, 0, 0}}},
			},
			wantKind: ErrDimensionMismatch,
		},
		{
			name: "rotation matrix wrong shape",
			input: TrajectoryInput{
				Poses: []PoseInput{{Rotation: []byte(`[[1,0],[0,1]]`), Translation: []float64{1, 0, 0}}},
			},
			wantKind: ErrDimensionMismatch,
		},
		{
			name: "rotation not vector or matrix",
			input: TrajectoryInput{
				Poses: []PoseInput{{Rotation: []byte(`"north"`), Translation: []float64{1, 0, 0}}},
			},
			wantKind: ErrUnsupportedFormat,
		},
		{
			name: "rotation matrix not orthogonal",
			input: TrajectoryInput{
				Poses: []PoseInput{{Rotation: []byte(`[[2,0,0],[0,2,0],[0,0,2]]`), Translation: []float64{1, 0, 0}}},
			},
			wantKind: ErrInvalidPose,
		},
		{
			name: "timeseries length mismatch",
			input: TrajectoryInput{
				Positions:    [][]float64{{0, 0, 0}, {1, 0, 0}},
				Orientations: [][]float64{{0, 0, 0}},
			},
			wantKind: ErrDimensionMismatch,
		},
		{
			name: "orientation too short",
			input: TrajectoryInput{
				Positions:    [][]float64{{0, 0, 0}},
				Orientations: [][]float64{{0, 0}},
			},
			wantKind: ErrDimensionMismatch,
		},
		{
			name: "state vector too short",
			input: TrajectoryInput{
				StateVectors: [][]float64{{0, 0, 0, 0, 0}},
			},
			wantKind: ErrDimensionMismatch,
		},
		{
			name: "empty pose list",
			input: TrajectoryInput{
				Poses: []PoseInput{},
			},
			wantKind: ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeTrajectory(tt.input, false, 0)
			if !IsKind(err, tt.wantKind) {
				t.Errorf("EncodeTrajectory() error = %v, want kind %v", err, tt.wantKind)
			}
		})
	}
}

func TestDecodeTrajectoryJSONMalformed(t *testing.T) {
	_, err := DecodeTrajectoryJSON([]byte(`{not json`), false, 0)
	if !IsKind(err, ErrUnsupportedFormat) {
		t.Errorf("DecodeTrajectoryJSON(malformed) error = %v, want UnsupportedFormat", err)
	}
}

func TestEncodeTrajectoryBounded(t *testing.T) {
	input := TrajectoryInput{
		Poses: []PoseInput{
			{Rotation: []byte(`[0,0,0]`), Translation: []float64{5, 0, 0}},
		},
	}
	if _, err := EncodeTrajectory(input, true, 1.0); !IsKind(err, ErrBoundsViolation) {
		t.Errorf("EncodeTrajectory(bounded) error = %v, want BoundsViolation", err)
	}

	// The same poses pass when the radius accommodates them.
	tr, err := EncodeTrajectory(input, true, 10.0)
	if err != nil {
		t.Fatalf("EncodeTrajectory() error = %v", err)
	}
	if !tr.Bounded || tr.RMax != 10.0 {
		t.Errorf("trajectory bounds = (%v, %v), want (true, 10)", tr.Bounded, tr.RMax)
	}
}
