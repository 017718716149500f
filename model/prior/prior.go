// Package prior defines the one dimensional prior distributions that can be
// attached to free model parameters.  Every prior maps the unit interval into
// parameter space via its inverse cumulative distribution (Quantile), which is
// the only contract an optimisation backend needs to draw from it.
package prior

import (
	"fmt"
	"math"
)

// Kind identifies a prior distribution family.
type Kind string

const (
	KindUniform    Kind = "uniform"
	KindLogUniform Kind = "logUniform"
	KindGaussian   Kind = "gaussian"
)

// Prior is a one dimensional prior distribution over a single parameter.
type Prior interface {
	// Kind returns the distribution family.
	Kind() Kind

	// Quantile maps u in [0,1] into parameter space (inverse CDF).
	Quantile(u float64) float64

	// Bounds returns the hard limits of the parameter. Unbounded sides are
	// reported as +/-Inf.
	Bounds() (lower, upper float64)

	// Validate reports a configuration problem or nil.
	Validate() error
}

// Uniform is a flat prior between Lower and Upper.
type Uniform struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// NewUniform creates a uniform prior.
func NewUniform(lower, upper float64) *Uniform {
	return &Uniform{Lower: lower, Upper: upper}
}

func (p *Uniform) Kind() Kind { return KindUniform }

func (p *Uniform) Quantile(u float64) float64 {
	return p.Lower + clampUnit(u)*(p.Upper-p.Lower)
}

func (p *Uniform) Bounds() (float64, float64) { return p.Lower, p.Upper }

func (p *Uniform) Validate() error {
	if !(p.Lower < p.Upper) {
		return fmt.Errorf("uniform prior requires lower < upper, had [%v, %v]", p.Lower, p.Upper)
	}
	return nil
}

// LogUniform is flat in log space between Lower and Upper; both bounds must be
// strictly positive.
type LogUniform struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// NewLogUniform creates a log-uniform prior.
func NewLogUniform(lower, upper float64) *LogUniform {
	return &LogUniform{Lower: lower, Upper: upper}
}

func (p *LogUniform) Kind() Kind { return KindLogUniform }

func (p *LogUniform) Quantile(u float64) float64 {
	logLower := math.Log(p.Lower)
	return math.Exp(logLower + clampUnit(u)*(math.Log(p.Upper)-logLower))
}

func (p *LogUniform) Bounds() (float64, float64) { return p.Lower, p.Upper }

func (p *LogUniform) Validate() error {
	if p.Lower <= 0 {
		return fmt.Errorf("logUniform prior requires lower > 0, had %v", p.Lower)
	}
	if !(p.Lower < p.Upper) {
		return fmt.Errorf("logUniform prior requires lower < upper, had [%v, %v]", p.Lower, p.Upper)
	}
	return nil
}

// Gaussian is a normal prior, optionally truncated to [Lower, Upper].  The
// zero value of Lower/Upper means unbounded; use NewGaussian to get the
// conventional +/-Inf representation.
type Gaussian struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// NewGaussian creates an unbounded gaussian prior.
func NewGaussian(mean, sigma float64) *Gaussian {
	return &Gaussian{Mean: mean, Sigma: sigma, Lower: math.Inf(-1), Upper: math.Inf(1)}
}

// NewBoundedGaussian creates a gaussian prior truncated to [lower, upper].
func NewBoundedGaussian(mean, sigma, lower, upper float64) *Gaussian {
	return &Gaussian{Mean: mean, Sigma: sigma, Lower: lower, Upper: upper}
}

func (p *Gaussian) Kind() Kind { return KindGaussian }

func (p *Gaussian) Quantile(u float64) float64 {
	u = clampUnit(u)
	value := p.Mean + p.Sigma*math.Sqrt2*math.Erfinv(2*u-1)
	if value < p.Lower {
		return p.Lower
	}
	if value > p.Upper {
		return p.Upper
	}
	return value
}

func (p *Gaussian) Bounds() (float64, float64) { return p.Lower, p.Upper }

func (p *Gaussian) Validate() error {
	if p.Sigma <= 0 {
		return fmt.Errorf("gaussian prior requires sigma > 0, had %v", p.Sigma)
	}
	if p.Lower > p.Upper {
		return fmt.Errorf("gaussian prior has inverted bounds [%v, %v]", p.Lower, p.Upper)
	}
	return nil
}

// clampUnit keeps u strictly inside (0, 1) so that quantile transforms stay
// finite for degenerate random draws.
func clampUnit(u float64) float64 {
	const eps = 1e-12
	if u < eps {
		return eps
	}
	if u > 1-eps {
		return 1 - eps
	}
	return u
}
