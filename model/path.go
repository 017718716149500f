package model

import (
	"fmt"
	"strings"
)

// Path addresses a node inside a parameter tree, e.g. ["lens", "mass",
// "einsteinRadius"].
type Path []string

// ParsePath splits a dot separated path expression into a Path.
func ParsePath(expr string) Path {
	if expr = strings.TrimSpace(expr); expr == "" {
		return nil
	}
	return strings.Split(expr, ".")
}

// String returns the dot separated form of the path.
func (p Path) String() string { return strings.Join(p, ".") }

// Equal reports whether two paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// PathError describes a failed path resolution.
type PathError struct {
	Path    Path
	Segment int
	Reason  string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("model: cannot resolve %q at segment %q: %v", e.Path.String(), e.Path[e.Segment], e.Reason)
}
