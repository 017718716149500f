// Package model contains the in-memory representation of fittable parameter
// spaces and of declarative pipeline plans used by the chainfit engine.
//
// A parameter space is a tree of tagged variant nodes - free leaves carrying
// a prior distribution, fixed leaves carrying a concrete value and named
// composites grouping children.  The Composite root maps component names
// (e.g. "lens", "source") to their node trees and is the unit handed to a
// stage runner.  Paths address nodes structurally and fail loudly on invalid
// lookups instead of raising a generic attribute error.
package model
