// Package extension provides run-time registries that bind declarative plans
// to Go code: named component builders referenced by plan "new:" entries, a
// type registry of parameter structs, and instance materialisation into those
// structs.
//
// The registries are normally populated through the public APIs under the
// root chainfit package, therefore most applications do not need to import
// this package directly.
package extension
