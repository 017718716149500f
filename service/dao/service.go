// Package dao defines the minimal persistence contract shared by the engine's
// stores.  Implementations exist in memory (tests, embedded use) and on any
// afs-addressable file system.
package dao

import (
	"context"
)

// Service abstracts CRUD access to entities of type T keyed by K.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
