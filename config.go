package chainfit

import (
	"fmt"

	"github.com/viant/chainfit/service/runner"
	"github.com/viant/chainfit/service/sensitivity"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON, YAML, TOML, environment variables, etc. The
// zero-value is useful - all nested fields inherit their package defaults.

type Config struct {
	Runner      runner.Config      `json:"runner" yaml:"runner"`
	Sensitivity sensitivity.Config `json:"sensitivity" yaml:"sensitivity"`

	// ChainSigma is the sigma level at which posterior errors are read when
	// deriving chained priors from a stage result
	ChainSigma float64 `json:"chainSigma" yaml:"chainSigma"`

	// ArtifactsURL is the base location of persisted stage artifacts; empty
	// keeps results in memory only
	ArtifactsURL string `json:"artifactsURL,omitempty" yaml:"artifactsURL,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults.
// Callers may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	return &Config{
		Runner:      runner.DefaultConfig(),
		Sensitivity: sensitivity.DefaultConfig(),
		ChainSigma:  3.0,
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.ChainSigma <= 0 {
		return fmt.Errorf("chainSigma must be > 0")
	}
	if c.Runner.SummarySigma <= 0 {
		return fmt.Errorf("runner.summarySigma must be > 0")
	}
	if c.Sensitivity.Workers <= 0 {
		return fmt.Errorf("sensitivity.workers must be > 0")
	}
	if c.Sensitivity.Steps <= 0 {
		return fmt.Errorf("sensitivity.steps must be > 0")
	}
	return nil
}
