// Package policy provides the prior-width policy consulted when a posterior
// is converted into priors for a follow-up stage.  It replaces implicit
// config-file lookups with an explicit value object constructed once and
// passed into the orchestrator - engines that pass a nil *Widths fall back to
// a single default width.

package policy

import (
	"fmt"
	"math"
	"strings"
)

// Width spec kinds recognised by the engine.
const (
	KindAbsolute = "absolute" // sigma floor is the value itself
	KindRelative = "relative" // sigma floor is value * |estimate|
)

// Width is the minimum prior width configured for one parameter.
type Width struct {
	Kind  string  `json:"kind" yaml:"kind"`
	Value float64 `json:"value" yaml:"value"`
}

// Absolute returns an absolute width spec.
func Absolute(value float64) Width { return Width{Kind: KindAbsolute, Value: value} }

// Relative returns a width spec expressed as a fraction of the estimate's
// magnitude.
func Relative(fraction float64) Width { return Width{Kind: KindRelative, Value: fraction} }

// Floor resolves the spec against a concrete estimate.
func (w Width) Floor(estimate float64) float64 {
	switch w.Kind {
	case KindRelative:
		return w.Value * math.Abs(estimate)
	default:
		return w.Value
	}
}

// Widths maps (component, parameter) to a minimum prior width.  Lookup keys
// are matched case-insensitively; a "*" parameter entry provides a
// per-component default and the Default field covers everything else.
//
// A nil *Widths means "use the zero default width" and is therefore the
// zero-cost fallback.
type Widths struct {
	// Entries maps "component.parameter" to a width spec
	Entries map[string]Width `json:"entries,omitempty" yaml:"entries,omitempty"`

	// Default applies when no entry matches
	Default Width `json:"default" yaml:"default"`
}

// New creates an empty width policy with the supplied default.
func New(defaultWidth Width) *Widths {
	return &Widths{Entries: map[string]Width{}, Default: defaultWidth}
}

// With registers a width for "component.parameter" and returns the receiver
// for chaining.
func (p *Widths) With(key string, width Width) *Widths {
	if p.Entries == nil {
		p.Entries = map[string]Width{}
	}
	p.Entries[strings.ToLower(key)] = width
	return p
}

// WidthFor returns the width spec for the supplied component type and
// parameter name.
func (p *Widths) WidthFor(component, parameter string) Width {
	if p == nil {
		return Width{}
	}
	if len(p.Entries) > 0 {
		normalized := strings.ToLower(component + "." + parameter)
		if width, ok := p.Entries[normalized]; ok {
			return width
		}
		if width, ok := p.Entries[strings.ToLower(component)+".*"]; ok {
			return width
		}
	}
	return p.Default
}

// FloorFor resolves the configured width against an estimate in one call.
func (p *Widths) FloorFor(component, parameter string, estimate float64) float64 {
	return p.WidthFor(component, parameter).Floor(estimate)
}

// Validate reports invalid width specs.
func (p *Widths) Validate() error {
	if p == nil {
		return nil
	}
	check := func(key string, w Width) error {
		switch w.Kind {
		case KindAbsolute, KindRelative, "":
		default:
			return fmt.Errorf("policy: unknown width kind %q for %q", w.Kind, key)
		}
		if w.Value < 0 {
			return fmt.Errorf("policy: negative width %v for %q", w.Value, key)
		}
		return nil
	}
	if err := check("default", p.Default); err != nil {
		return err
	}
	for key, width := range p.Entries {
		if err := check(key, width); err != nil {
			return err
		}
	}
	return nil
}
