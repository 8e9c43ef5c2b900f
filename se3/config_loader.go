package se3

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the built-in service configuration used when no
// config file is given.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Optimizer: OptimizerSettings{
			LambdaMin:      0.1,
			LambdaMax:      2.0,
			Tolerance:      1e-6,
			MaxEvaluations: 200,
		},
		Resonance: ResonanceSettings{Tolerance: 0.1},
		BaseUnit:  100.0,
	}
}

// LoadConfig loads the service configuration from a YAML file, filling
// omitted fields from the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func validateConfig(config *Config) error {
	if config.HTTP.Port < 0 || config.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", config.HTTP.Port)
	}
	if config.Optimizer.LambdaMin >= config.Optimizer.LambdaMax {
		return fmt.Errorf("optimizer bounds must satisfy lambdaMin < lambdaMax, got (%g, %g)",
			config.Optimizer.LambdaMin, config.Optimizer.LambdaMax)
	}
	if config.Optimizer.Tolerance < 0 {
		return fmt.Errorf("optimizer.tolerance must not be negative")
	}
	if w := config.Cascade.Weights; w != nil {
		for name, value := range map[string]float64{
			"topological": w.Topological,
			"energetic":   w.Energetic,
			"temporal":    w.Temporal,
			"spatial":     w.Spatial,
			"stochastic":  w.Stochastic,
		} {
			if value < 0 {
				return fmt.Errorf("cascade.weights.%s must not be negative", name)
			}
		}
	}
	return nil
}

// MetricsOptionsFromConfig builds pipeline options from the service
// configuration, using the request-level defaults for trajectory bounds.
func MetricsOptionsFromConfig(config *Config) MetricsOptions {
	opts := DefaultMetricsOptions()
	opts.EnableResonanceDetection = config.ResonanceEnabled()
	opts.EnableVerificationCascade = config.CascadeEnabled()
	if config.Optimizer.LambdaMin != 0 || config.Optimizer.LambdaMax != 0 {
		opts.LambdaBounds = [2]float64{config.Optimizer.LambdaMin, config.Optimizer.LambdaMax}
	}
	opts.Tolerance = config.Optimizer.Tolerance
	opts.MaxEvaluations = config.Optimizer.MaxEvaluations
	if config.BaseUnit > 0 {
		opts.BaseUnit = config.BaseUnit
	}
	if config.Resonance.Tolerance > 0 {
		opts.Detector = NewResonanceDetector(config.Resonance.Tolerance)
	}
	if cc := cascadeConfigFromSettings(config.Cascade); cc != nil {
		opts.Cascade = NewVerificationCascade(*cc)
	}
	return opts
}

// cascadeConfigFromSettings converts file settings to a CascadeConfig, or
// nil when everything is default.
func cascadeConfigFromSettings(s CascadeSettings) *CascadeConfig {
	if s.Weights == nil && s.Thresholds == nil && s.NoiseTrials == 0 && s.NoiseStdDev == 0 && s.Seed == 0 {
		return nil
	}
	cfg := DefaultCascadeConfig()
	if s.Weights != nil {
		cfg.Weights = *s.Weights
	}
	if s.Thresholds != nil {
		cfg.Thresholds = *s.Thresholds
	}
	if s.NoiseTrials > 0 {
		cfg.NoiseTrials = s.NoiseTrials
	}
	if s.NoiseStdDev > 0 {
		cfg.NoiseStdDev = s.NoiseStdDev
	}
	if s.Seed != 0 {
		cfg.RNG = rand.New(rand.NewSource(s.Seed))
	} else {
		cfg.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &cfg
}
