package extension

import (
	"fmt"
	"sort"
	"sync"

	"github.com/viant/chainfit/model"
	"github.com/viant/x"
)

// Builder produces a fresh component node with default priors; every call
// returns an independent tree.
type Builder func() *model.Node

// Components is the registry of named component builders referenced by plan
// "new:" entries.
type Components struct {
	types    *Types
	builders map[string]Builder
	mux      sync.RWMutex
}

// Types returns the associated type registry.
func (c *Components) Types() *Types {
	return c.types
}

// Register registers a component builder under name.
func (c *Components) Register(name string, builder Builder) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.builders[name] = builder
}

// Lookup returns the builder registered under name.
func (c *Components) Lookup(name string) (Builder, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	builder, ok := c.builders[name]
	if !ok {
		return nil, fmt.Errorf("extension: unknown component %q", name)
	}
	return builder, nil
}

// Build instantiates the named component.
func (c *Components) Build(name string) (*model.Node, error) {
	builder, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}
	return builder(), nil
}

// Names returns registered builder names, sorted.
func (c *Components) Names() []string {
	c.mux.RLock()
	defer c.mux.RUnlock()
	names := make([]string, 0, len(c.builders))
	for name := range c.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewComponents creates a component registry, optionally seeding the type
// registry with the supplied Go types.
func NewComponents(goTypes ...*x.Type) *Components {
	ret := &Components{
		types:    NewTypes(),
		builders: make(map[string]Builder),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
