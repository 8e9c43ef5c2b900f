package se3

// Vec3 is a 3D vector. It serializes as a JSON array [x, y, z].
type Vec3 [3]float64

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Pose is a rigid body motion in SE(3): a proper rotation plus a translation.
// The rotation matrix is the canonical internal representation; axis-angle
// vectors and quaternions are converted at the boundary. Poses are value
// types and are never mutated after construction.
type Pose struct {
	Rotation    Mat3 `json:"rotation"`
	Translation Vec3 `json:"translation"`
}

// Trajectory is an ordered, finite sequence of poses walked through SE(3).
// When Bounded is true every pose translation satisfies |p| <= RMax; the
// invariant is checked on construction, not after scaling (see ScaleTrajectory).
type Trajectory struct {
	Poses   []Pose  `json:"poses"`
	Bounded bool    `json:"bounded"`
	RMax    float64 `json:"rMax"`
}

// Len returns the number of poses in the trajectory.
func (t *Trajectory) Len() int {
	return len(t.Poses)
}

// LevelValues holds one float per verification level. It is used for both
// the cascade weights and the pass/fail thresholds.
type LevelValues struct {
	Topological float64 `yaml:"topological" json:"topological"`
	Energetic   float64 `yaml:"energetic" json:"energetic"`
	Temporal    float64 `yaml:"temporal" json:"temporal"`
	Spatial     float64 `yaml:"spatial" json:"spatial"`
	Stochastic  float64 `yaml:"stochastic" json:"stochastic"`
}

// Config represents the full service configuration file.
type Config struct {
	HTTP      HTTPConfig        `yaml:"http" json:"http"`
	MQTT      MQTTConfig        `yaml:"mqtt" json:"mqtt"`
	Optimizer OptimizerSettings `yaml:"optimizer" json:"optimizer"`
	Resonance ResonanceSettings `yaml:"resonance" json:"resonance"`
	Cascade   CascadeSettings   `yaml:"cascade" json:"cascade"`
	BaseUnit  float64           `yaml:"baseUnit,omitempty" json:"baseUnit,omitempty"` // reward base unit (default 100)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port           int      `yaml:"port,omitempty" json:"port,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" json:"allowedOrigins,omitempty"`
}

// MQTTConfig holds MQTT connection settings.
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// OptimizerSettings configures the bounded scalar search from the config file.
type OptimizerSettings struct {
	LambdaMin      float64 `yaml:"lambdaMin,omitempty" json:"lambdaMin,omitempty"`
	LambdaMax      float64 `yaml:"lambdaMax,omitempty" json:"lambdaMax,omitempty"`
	Tolerance      float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	MaxEvaluations int     `yaml:"maxEvaluations,omitempty" json:"maxEvaluations,omitempty"`
}

// ResonanceSettings configures resonance detection from the config file.
type ResonanceSettings struct {
	Enabled   *bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"` // nil means enabled
	Tolerance float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
}

// CascadeSettings configures the verification cascade from the config file.
type CascadeSettings struct {
	Enabled     *bool        `yaml:"enabled,omitempty" json:"enabled,omitempty"` // nil means enabled
	Weights     *LevelValues `yaml:"weights,omitempty" json:"weights,omitempty"`
	Thresholds  *LevelValues `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
	NoiseTrials int          `yaml:"noiseTrials,omitempty" json:"noiseTrials,omitempty"`
	NoiseStdDev float64      `yaml:"noiseStdDev,omitempty" json:"noiseStdDev,omitempty"`
	Seed        int64        `yaml:"seed,omitempty" json:"seed,omitempty"` // 0 means time-seeded
}

// ResonanceEnabled reports whether resonance detection is on (default true).
func (c *Config) ResonanceEnabled() bool {
	return c.Resonance.Enabled == nil || *c.Resonance.Enabled
}

// CascadeEnabled reports whether the verification cascade is on (default true).
func (c *Config) CascadeEnabled() bool {
	return c.Cascade.Enabled == nil || *c.Cascade.Enabled
}
