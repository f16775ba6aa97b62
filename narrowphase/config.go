package narrowphase

import (
	goutils "go.viam.com/utils"
)

// Config holds the numeric constants shared by GJK and EPA so that both phases agree on what
// "touching" means.
type Config struct {
	// Tolerance is the distance below which a support point is not considered to have advanced.
	Tolerance float64 `json:"tolerance"`
	// MaxIterations bounds both the GJK loop and EPA expansion.
	MaxIterations int `json:"max_iterations"`
}

// DefaultConfig returns the default narrow-phase constants.
func DefaultConfig() Config {
	return Config{Tolerance: 1e-4, MaxIterations: 64}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Tolerance <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "tolerance")
	}
	if cfg.MaxIterations <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "max_iterations")
	}
	return nil
}
