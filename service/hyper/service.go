package hyper

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/model/prior"
	"github.com/viant/chainfit/runtime/result"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/runner"
)

// Runner executes a single stage fit.
type Runner interface {
	Run(ctx context.Context, request *runner.Request) (*result.Result, error)
}

// Nuisance configures one optional nuisance parameter: whether it is fitted
// at all, and the gaussian prior it is fitted under.
type Nuisance struct {
	Enabled bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Level   float64 `yaml:"level,omitempty" json:"level,omitempty"`
	Spread  float64 `yaml:"spread,omitempty" json:"spread,omitempty"`
}

// Config selects which nuisance parameters a hyper fit re-optimises while the
// science model stays pinned to the primary result's best instance.
type Config struct {
	Sky             Nuisance     `yaml:"sky,omitempty" json:"sky,omitempty"`
	BackgroundNoise Nuisance     `yaml:"backgroundNoise,omitempty" json:"backgroundNoise,omitempty"`
	NoiseScaling    Nuisance     `yaml:"noiseScaling,omitempty" json:"noiseScaling,omitempty"`
	Search          model.Search `yaml:"search,omitempty" json:"search,omitempty"`
}

// Enabled reports whether any nuisance parameter is switched on.
func (c *Config) Enabled() bool {
	return c.Sky.Enabled || c.BackgroundNoise.Enabled || c.NoiseScaling.Enabled
}

// nuisanceComponent builds the free-parameter component of a hyper fit.
func (c *Config) nuisanceComponent() *model.Node {
	node := model.NewComponent()
	add := func(name string, n Nuisance) {
		if n.Enabled {
			node.Put(name, model.Free(prior.NewGaussian(n.Level, n.Spread)))
		}
	}
	add("sky", c.Sky)
	add("backgroundNoise", c.BackgroundNoise)
	add("noiseScaling", c.NoiseScaling)
	return node
}

// Extend runs a follow-up fit of only the enabled nuisance parameters, with
// every science component fixed to the primary result's maximum likelihood
// instance, and returns a copy of primary carrying the hyper result.  With no
// nuisance parameter enabled the primary is returned unchanged and no fit is
// performed.
func Extend(ctx context.Context, aRunner Runner, anAnalysis analysis.Analysis, primary *result.Result, config Config) (*result.Result, error) {
	if primary == nil {
		return nil, fmt.Errorf("hyper: primary result is required")
	}
	if !config.Enabled() {
		return primary, nil
	}
	composite := model.NewComposite()
	for _, name := range primary.Model().ComponentNames() {
		node, err := primary.InstanceNode(model.Path{name})
		if err != nil {
			return nil, fmt.Errorf("hyper: %w", err)
		}
		composite.Put(name, node)
	}
	composite.Put("hyper", config.nuisanceComponent())

	extension, err := aRunner.Run(ctx, &runner.Request{
		Stage:    primary.Stage() + "_hyper",
		Model:    composite,
		Analysis: anAnalysis,
		Search:   config.Search,
	})
	if err != nil {
		return nil, err
	}
	return primary.WithHyper(extension), nil
}

// CapPolicy controls how a stochastic likelihood cap is derived: how many
// repeat evaluations of the best instance to run, and which statistic of
// those evaluations becomes the cap.
type CapPolicy struct {
	Repeats   int    `yaml:"repeats,omitempty" json:"repeats,omitempty"`
	Statistic string `yaml:"statistic,omitempty" json:"statistic,omitempty"`
}

// WithDefaults fills unset policy fields.
func (p CapPolicy) WithDefaults() CapPolicy {
	if p.Repeats <= 0 {
		p.Repeats = 250
	}
	if p.Statistic == "" {
		p.Statistic = "mean"
	}
	return p
}

// StochasticCap repeatedly evaluates the supplied instance and reduces the
// evaluations to a single cap value.  Wrapping later analyses with
// analysis.WithCap(cap) stops a stochastic likelihood from being exploited
// through its upward noise.
func StochasticCap(ctx context.Context, anAnalysis analysis.Analysis, instance model.Instance, policy CapPolicy) (float64, error) {
	policy = policy.WithDefaults()
	values := make([]float64, 0, policy.Repeats)
	for i := 0; i < policy.Repeats; i++ {
		value, err := anAnalysis.LogLikelihood(ctx, instance)
		if err != nil {
			return 0, fmt.Errorf("hyper: cap evaluation %v failed: %w", i, err)
		}
		values = append(values, value)
	}
	switch policy.Statistic {
	case "mean":
		var sum float64
		for _, value := range values {
			sum += value
		}
		return sum / float64(len(values)), nil
	case "median":
		sort.Float64s(values)
		mid := len(values) / 2
		if len(values)%2 == 0 {
			return 0.5 * (values[mid-1] + values[mid]), nil
		}
		return values[mid], nil
	default:
		return 0, fmt.Errorf("hyper: unknown cap statistic %q", policy.Statistic)
	}
}
