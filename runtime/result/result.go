// Package result defines the immutable outcome of a fitting stage and the
// ordered collection that carries outcomes across a chained pipeline.  The
// two fundamentally different chaining semantics - passing a component as a
// fixed best-fit instance versus passing it as a model with posterior-derived
// priors - are explicit methods rather than attribute conventions.
package result

import (
	"fmt"

	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/model/prior"
	"github.com/viant/chainfit/policy"
	"github.com/viant/chainfit/runtime/fit"
)

// Summary is the posterior summary of a single parameter at a given sigma
// level.
type Summary struct {
	Median     float64
	LowerError float64
	UpperError float64
}

// ErrorMagnitude returns the larger of the two one-sided errors.
func (s Summary) ErrorMagnitude() float64 {
	if s.LowerError > s.UpperError {
		return s.LowerError
	}
	return s.UpperError
}

// Result is the immutable record of one stage's outcome.
type Result struct {
	id      string
	stage   string
	model   *model.Composite
	samples *fit.Samples
	hyper   *Result
	capLogL *float64
}

// New creates a stage result.
func New(id, stage string, m *model.Composite, samples *fit.Samples) *Result {
	return &Result{id: id, stage: stage, model: m, samples: samples}
}

// ID returns the fit identifier.
func (r *Result) ID() string { return r.id }

// Stage returns the stage name.
func (r *Result) Stage() string { return r.stage }

// Model returns the parameter space the stage fitted.  Callers must treat the
// returned value as read-only.
func (r *Result) Model() *model.Composite { return r.model }

// Samples returns the raw weighted posterior samples.
func (r *Result) Samples() *fit.Samples { return r.samples }

// LogEvidence returns the backend's evidence estimate, or nil when the
// backend does not estimate evidence or failed to converge.
func (r *Result) LogEvidence() *float64 {
	if r.samples == nil {
		return nil
	}
	return r.samples.LogEvidence
}

// MaxLogLikelihood returns the best sampled log likelihood.
func (r *Result) MaxLogLikelihood() float64 {
	_, best := r.samples.Best()
	return best
}

// Hyper returns the auxiliary nuisance-parameter result attached by a hyper
// extension, or nil.
func (r *Result) Hyper() *Result { return r.hyper }

// WithHyper returns a copy of the result carrying the supplied auxiliary
// result; the receiver is left untouched.
func (r *Result) WithHyper(hyper *Result) *Result {
	ret := *r
	ret.hyper = hyper
	return &ret
}

// LikelihoodCap returns the stochastic log-likelihood cap, or nil when none
// was derived.
func (r *Result) LikelihoodCap() *float64 { return r.capLogL }

// WithLikelihoodCap returns a copy of the result carrying a stochastic
// log-likelihood cap.
func (r *Result) WithLikelihoodCap(cap float64) *Result {
	ret := *r
	ret.capLogL = &cap
	return &ret
}

// Instance returns the maximum likelihood point as a concrete instance,
// merged with all fixed leaves of the fitted model.
func (r *Result) Instance() model.Instance {
	instance := r.model.FixedInstance()
	best, _ := r.samples.Best()
	if best < 0 {
		return instance
	}
	row := r.samples.Values[best]
	for i, path := range r.samples.Paths {
		instance[path.String()] = row[i]
	}
	return instance
}

// Summary returns the posterior summary of the parameter at path, with
// one-sided errors evaluated at the supplied sigma level.
func (r *Result) Summary(path model.Path, sigma float64) (Summary, error) {
	column := r.samples.Column(path)
	if column < 0 {
		return Summary{}, fmt.Errorf("result: %q was not a free parameter of stage %q", path.String(), r.stage)
	}
	median, err := r.samples.Quantile(column, 0.5)
	if err != nil {
		return Summary{}, err
	}
	p := fit.SigmaToProbability(sigma)
	lower, err := r.samples.Quantile(column, (1-p)/2)
	if err != nil {
		return Summary{}, err
	}
	upper, err := r.samples.Quantile(column, (1+p)/2)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Median: median, LowerError: median - lower, UpperError: upper - median}, nil
}

// passOptions control how fixed parameters behave when passed as a model.
type passOptions struct {
	unfix  bool
	spread float64
}

// PassOption customises ModelNode behaviour.
type PassOption func(*passOptions)

// WithUnfix re-frees parameters that were fixed in the source stage, giving
// them a gaussian prior centred on the fixed value with the supplied spread.
// Without this option fixed parameters propagate as fixed.
func WithUnfix(spread float64) PassOption {
	return func(o *passOptions) {
		o.unfix = true
		o.spread = spread
	}
}

// ModelNode returns the component at path with priors derived from this
// result's posterior: each free parameter becomes a gaussian centred on its
// posterior median with sigma = max(error at the supplied sigma level,
// configured minimum width).  Fixed parameters propagate as fixed unless
// WithUnfix is supplied.
func (r *Result) ModelNode(path model.Path, sigma float64, widths *policy.Widths, options ...PassOption) (*model.Node, error) {
	opts := &passOptions{}
	for _, option := range options {
		option(opts)
	}
	source, err := r.model.Resolve(path)
	if err != nil {
		return nil, err
	}
	return r.chainNode(path, source.Clone(), sigma, widths, opts)
}

// InstanceNode returns the component at path with every parameter fixed to
// this result's maximum likelihood instance, regardless of its original
// free/fixed status.
func (r *Result) InstanceNode(path model.Path) (*model.Node, error) {
	source, err := r.model.Resolve(path)
	if err != nil {
		return nil, err
	}
	instance := r.Instance()
	return fixNode(path, source.Clone(), instance)
}

// ChainedModel returns the full parameter space with every free parameter's
// prior replaced by its posterior-derived gaussian, ready to seed a follow-up
// stage.
func (r *Result) ChainedModel(sigma float64, widths *policy.Widths) (*model.Composite, error) {
	ret := model.NewComposite()
	for _, name := range r.model.ComponentNames() {
		node, err := r.ModelNode(model.Path{name}, sigma, widths)
		if err != nil {
			return nil, err
		}
		ret.Put(name, node)
	}
	return ret, nil
}

// chainNode rewrites free leaves of node into posterior-derived gaussians and
// applies the fixed-parameter policy.
func (r *Result) chainNode(path model.Path, node *model.Node, sigma float64, widths *policy.Widths, opts *passOptions) (*model.Node, error) {
	switch node.Kind() {
	case model.KindFree:
		summary, err := r.Summary(path, sigma)
		if err != nil {
			return nil, err
		}
		component, parameter := splitPath(path)
		width := widths.FloorFor(component, parameter, summary.Median)
		spread := summary.ErrorMagnitude()
		if width > spread {
			spread = width
		}
		lower, upper := node.Prior().Bounds()
		return model.Free(prior.NewBoundedGaussian(summary.Median, spread, lower, upper)), nil
	case model.KindFixed:
		if opts.unfix {
			return model.Free(prior.NewGaussian(node.Value(), opts.spread)), nil
		}
		return node, nil
	default:
		ret := model.NewComponent()
		for _, name := range node.ChildNames() {
			child, err := r.chainNode(append(path, name), node.Child(name), sigma, widths, opts)
			if err != nil {
				return nil, err
			}
			ret.Put(name, child)
		}
		return ret, nil
	}
}

// fixNode pins every leaf of node to its instance value.
func fixNode(path model.Path, node *model.Node, instance model.Instance) (*model.Node, error) {
	switch node.Kind() {
	case model.KindFixed:
		return node, nil
	case model.KindFree:
		value, ok := instance.At(path)
		if !ok {
			return nil, fmt.Errorf("result: instance has no value for %q", path.String())
		}
		return model.Fixed(value), nil
	default:
		ret := model.NewComponent()
		for _, name := range node.ChildNames() {
			child, err := fixNode(append(path, name), node.Child(name), instance)
			if err != nil {
				return nil, err
			}
			ret.Put(name, child)
		}
		return ret, nil
	}
}

// splitPath derives the (component type, parameter name) pair used for width
// policy lookups: the last path segment is the parameter, the one before it
// the component.
func splitPath(path model.Path) (string, string) {
	switch len(path) {
	case 0:
		return "", ""
	case 1:
		return "", path[0]
	default:
		return path[len(path)-2], path[len(path)-1]
	}
}
