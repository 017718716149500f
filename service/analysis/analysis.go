// Package analysis defines the scoring collaborator of a fitting stage.  An
// Analysis owns the dataset and the domain forward model; the engine only
// calls it as an opaque log-likelihood function.
package analysis

import (
	"context"

	"github.com/viant/chainfit/model"
)

// Analysis scores a concrete parameter instance against a dataset.
type Analysis interface {
	LogLikelihood(ctx context.Context, instance model.Instance) (float64, error)
}

// Func adapts a plain function to the Analysis interface.
type Func func(ctx context.Context, instance model.Instance) (float64, error)

// LogLikelihood implements Analysis.
func (f Func) LogLikelihood(ctx context.Context, instance model.Instance) (float64, error) {
	return f(ctx, instance)
}

// capped clips log likelihoods that exceed a stochastic cap, preventing
// models from exploiting evaluation noise to report inflated likelihoods.
type capped struct {
	delegate Analysis
	cap      float64
}

func (c *capped) LogLikelihood(ctx context.Context, instance model.Instance) (float64, error) {
	value, err := c.delegate.LogLikelihood(ctx, instance)
	if err != nil {
		return 0, err
	}
	if value > c.cap {
		return c.cap, nil
	}
	return value, nil
}

// WithCap wraps an analysis so that any evaluation above the supplied cap is
// rounded down to it.
func WithCap(delegate Analysis, cap float64) Analysis {
	return &capped{delegate: delegate, cap: cap}
}
