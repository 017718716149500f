package model

import (
	"fmt"
	"sort"

	"github.com/viant/chainfit/model/prior"
)

// NodeKind discriminates the node variants of a parameter tree.
type NodeKind string

const (
	// KindFree is a leaf parameter sampled from a prior distribution.
	KindFree NodeKind = "free"
	// KindFixed is a leaf parameter pinned to a concrete value.
	KindFixed NodeKind = "fixed"
	// KindComposite is a named collection of child nodes.
	KindComposite NodeKind = "composite"
)

// Node is a tagged-variant tree node: either a free leaf (prior), a fixed
// leaf (value) or a composite of named children.  A leaf is exactly one of
// free or fixed - never both, never neither.
type Node struct {
	kind     NodeKind
	prior    prior.Prior
	value    float64
	children map[string]*Node
	order    []string
}

// Free creates a leaf node sampled from the supplied prior.
func Free(p prior.Prior) *Node {
	return &Node{kind: KindFree, prior: p}
}

// Fixed creates a leaf node pinned to a concrete value.
func Fixed(value float64) *Node {
	return &Node{kind: KindFixed, value: value}
}

// NewComponent creates an empty composite node.
func NewComponent() *Node {
	return &Node{kind: KindComposite, children: map[string]*Node{}}
}

// FixedTuple creates a composite of fixed scalar children named "0", "1", ...
// Tuple-valued constants (e.g. a centre coordinate pair) are represented this
// way rather than as a dedicated variant.
func FixedTuple(values ...float64) *Node {
	node := NewComponent()
	for i, value := range values {
		node.Put(fmt.Sprintf("%d", i), Fixed(value))
	}
	return node
}

// Kind returns the node variant.
func (n *Node) Kind() NodeKind { return n.kind }

// Prior returns the prior of a free leaf, or nil for other variants.
func (n *Node) Prior() prior.Prior {
	if n.kind != KindFree {
		return nil
	}
	return n.prior
}

// Value returns the concrete value of a fixed leaf.
func (n *Node) Value() float64 { return n.value }

// Put adds or replaces a named child and returns the receiver for chaining.
// Calling Put on a leaf node is a programming error and panics.
func (n *Node) Put(name string, child *Node) *Node {
	if n.kind != KindComposite {
		panic(fmt.Sprintf("model: cannot add child %q to %v node", name, n.kind))
	}
	if _, ok := n.children[name]; !ok {
		n.order = append(n.order, name)
	}
	n.children[name] = child
	return n
}

// Child returns a named child of a composite node or nil.
func (n *Node) Child(name string) *Node {
	if n.kind != KindComposite {
		return nil
	}
	return n.children[name]
}

// ChildNames returns child names in insertion order.
func (n *Node) ChildNames() []string {
	if n.kind != KindComposite {
		return nil
	}
	return append([]string(nil), n.order...)
}

// Resolve walks the tree along path and returns the addressed node.  Unlike
// duck-typed attribute chaining, an invalid path fails loudly with a
// *PathError naming the offending segment.
func (n *Node) Resolve(path Path) (*Node, error) {
	node := n
	for i, segment := range path {
		if node.kind != KindComposite {
			return nil, &PathError{Path: path, Segment: i, Reason: "not a composite"}
		}
		child := node.children[segment]
		if child == nil {
			return nil, &PathError{Path: path, Segment: i, Reason: "no such component"}
		}
		node = child
	}
	return node, nil
}

// Clone returns a deep copy of the node.  Priors are treated as immutable
// values and shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	ret := &Node{kind: n.kind, prior: n.prior, value: n.value}
	if n.kind == KindComposite {
		ret.children = make(map[string]*Node, len(n.children))
		ret.order = append([]string(nil), n.order...)
		for name, child := range n.children {
			ret.children[name] = child.Clone()
		}
	}
	return ret
}

// FreeCount returns the number of free leaves in the subtree.
func (n *Node) FreeCount() int {
	count := 0
	n.walk(nil, func(Path, *Node) {
		count++
	})
	return count
}

// FreePaths returns the paths of all free leaves in deterministic order
// (insertion order of composites, depth first).
func (n *Node) FreePaths() []Path {
	var paths []Path
	n.walk(nil, func(path Path, _ *Node) {
		paths = append(paths, path)
	})
	return paths
}

// walk visits every free leaf of the subtree depth first.
func (n *Node) walk(prefix Path, visit func(Path, *Node)) {
	switch n.kind {
	case KindFree:
		visit(append(Path(nil), prefix...), n)
	case KindComposite:
		for _, name := range n.order {
			n.children[name].walk(append(prefix, name), visit)
		}
	}
}

// Validate checks structural soundness of the subtree: leaves must carry
// either a prior or a value, and every prior must itself be valid.
func (n *Node) Validate() error {
	switch n.kind {
	case KindFree:
		if n.prior == nil {
			return fmt.Errorf("free node has no prior")
		}
		return n.prior.Validate()
	case KindFixed:
		return nil
	case KindComposite:
		names := append([]string(nil), n.order...)
		sort.Strings(names)
		for _, name := range names {
			if err := n.children[name].Validate(); err != nil {
				return fmt.Errorf("%v: %w", name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown node kind %q", n.kind)
	}
}
