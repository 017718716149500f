package model

import (
	"errors"
	"fmt"
)

// ErrNoFreeParameters is returned when a model with zero free parameters is
// handed to a fitting stage - a configuration error detected before any
// expensive work starts.
var ErrNoFreeParameters = errors.New("model: composite has no free parameters")

// Composite is the full named parameter space fit by one stage: a mapping
// from component name (e.g. "lens", "source") to the component's node tree.
// A Composite is treated as immutable once handed to a stage runner; mutating
// helpers therefore return modified deep copies.
type Composite struct {
	components map[string]*Node
	order      []string
}

// NewComposite creates an empty composite model.
func NewComposite() *Composite {
	return &Composite{components: map[string]*Node{}}
}

// Put adds or replaces a named component and returns the receiver for
// chaining.
func (c *Composite) Put(name string, node *Node) *Composite {
	if _, ok := c.components[name]; !ok {
		c.order = append(c.order, name)
	}
	c.components[name] = node
	return c
}

// Component returns a named component or nil.
func (c *Composite) Component(name string) *Node { return c.components[name] }

// ComponentNames returns component names in insertion order.
func (c *Composite) ComponentNames() []string {
	return append([]string(nil), c.order...)
}

// Resolve returns the node addressed by path; the first path segment selects
// the component.
func (c *Composite) Resolve(path Path) (*Node, error) {
	if len(path) == 0 {
		return nil, &PathError{Path: Path{""}, Segment: 0, Reason: "empty path"}
	}
	component := c.components[path[0]]
	if component == nil {
		return nil, &PathError{Path: path, Segment: 0, Reason: "no such component"}
	}
	return component.Resolve(path[1:])
}

// Clone returns a deep copy of the composite.
func (c *Composite) Clone() *Composite {
	ret := NewComposite()
	for _, name := range c.order {
		ret.Put(name, c.components[name].Clone())
	}
	return ret
}

// FreeCount returns the total number of free parameters.
func (c *Composite) FreeCount() int {
	count := 0
	for _, name := range c.order {
		count += c.components[name].FreeCount()
	}
	return count
}

// FreePaths returns the paths of all free parameters in deterministic order.
func (c *Composite) FreePaths() []Path {
	var paths []Path
	for _, name := range c.order {
		for _, sub := range c.components[name].FreePaths() {
			paths = append(paths, append(Path{name}, sub...))
		}
	}
	return paths
}

// Validate checks structural soundness and rejects a parameter space with
// zero free parameters.
func (c *Composite) Validate() error {
	for _, name := range c.order {
		if err := c.components[name].Validate(); err != nil {
			return fmt.Errorf("component %v: %w", name, err)
		}
	}
	if c.FreeCount() == 0 {
		return ErrNoFreeParameters
	}
	return nil
}

// WithFixed returns a copy of the composite with the leaf at path replaced by
// a fixed value.
func (c *Composite) WithFixed(path Path, value float64) (*Composite, error) {
	if len(path) < 1 {
		return nil, &PathError{Path: Path{""}, Segment: 0, Reason: "empty path"}
	}
	ret := c.Clone()
	parentPath, leaf := path[:len(path)-1], path[len(path)-1]
	if len(parentPath) == 0 {
		// Path addresses a root component directly.
		if ret.components[leaf] == nil {
			return nil, &PathError{Path: path, Segment: 0, Reason: "no such component"}
		}
		ret.components[leaf] = Fixed(value)
		return ret, nil
	}
	parent, err := ret.Resolve(parentPath)
	if err != nil {
		return nil, err
	}
	if parent.Kind() != KindComposite || parent.Child(leaf) == nil {
		return nil, &PathError{Path: path, Segment: len(path) - 1, Reason: "no such component"}
	}
	parent.Put(leaf, Fixed(value))
	return ret, nil
}

// Instance holds concrete parameter values keyed by dot separated path.
type Instance map[string]float64

// At returns the value stored under path.
func (i Instance) At(path Path) (float64, bool) {
	value, ok := i[path.String()]
	return value, ok
}

// InstanceAt maps a unit-cube vector through the free parameter priors (in
// FreePaths order) and merges all fixed leaves, yielding the concrete
// instance an analysis scores.  The unit vector length must equal FreeCount.
func (c *Composite) InstanceAt(unit []float64) (Instance, error) {
	paths := c.FreePaths()
	if len(unit) != len(paths) {
		return nil, fmt.Errorf("model: unit vector has %v entries, model has %v free parameters", len(unit), len(paths))
	}
	instance := Instance{}
	for i, path := range paths {
		node, err := c.Resolve(path)
		if err != nil {
			return nil, err
		}
		instance[path.String()] = node.Prior().Quantile(unit[i])
	}
	c.eachFixed(func(path Path, node *Node) {
		instance[path.String()] = node.Value()
	})
	return instance, nil
}

// FixedInstance returns the instance formed by the fixed leaves only.
func (c *Composite) FixedInstance() Instance {
	instance := Instance{}
	c.eachFixed(func(path Path, node *Node) {
		instance[path.String()] = node.Value()
	})
	return instance
}

func (c *Composite) eachFixed(visit func(Path, *Node)) {
	var walk func(prefix Path, node *Node)
	walk = func(prefix Path, node *Node) {
		switch node.Kind() {
		case KindFixed:
			visit(append(Path(nil), prefix...), node)
		case KindComposite:
			for _, name := range node.ChildNames() {
				walk(append(prefix, name), node.Child(name))
			}
		}
	}
	for _, name := range c.order {
		walk(Path{name}, c.components[name])
	}
}
