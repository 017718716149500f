// Package backend defines the optimisation-backend contract of the engine and
// a registry keyed by backend name.  A backend receives an immutable
// parameter space plus an analysis and returns raw weighted samples; how it
// explores the space (nested sampling, MCMC, swarm optimisation) is its own
// concern, including any internal parallelism.
package backend

import (
	"context"
	"errors"
	"sync"

	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/service/analysis"
)

// Config budgets a backend run.  Fields a backend does not understand are
// ignored.
type Config struct {
	// Samples is the total evaluation budget
	Samples int

	// Walkers is the population size for population based backends
	Walkers int

	// Tolerance is the stopping tolerance for backends that support one
	Tolerance float64

	// Cores is the parallelism degree of likelihood evaluation
	Cores int

	// Seed makes a run reproducible when non zero
	Seed int64
}

// WithDefaults fills unset budget fields.
func (c Config) WithDefaults() Config {
	if c.Samples <= 0 {
		c.Samples = 500
	}
	if c.Walkers <= 0 {
		c.Walkers = 25
	}
	if c.Cores <= 0 {
		c.Cores = 1
	}
	return c
}

// FromSearch converts a declarative plan search into a backend config.
func FromSearch(search model.Search) Config {
	return Config{
		Samples:   search.Samples,
		Walkers:   search.Walkers,
		Tolerance: search.Tolerance,
		Cores:     search.Cores,
		Seed:      search.Seed,
	}
}

// Backend runs one optimisation/sampling procedure.
type Backend interface {
	// Name returns the registry name of the backend
	Name() string

	// Fit explores the model's parameter space scoring instances with the
	// analysis and returns raw weighted samples
	Fit(ctx context.Context, m *model.Composite, a analysis.Analysis, config Config) (*fit.Samples, error)
}

// ErrUnknownBackend is returned when a stage names a backend that was never
// registered.
var ErrUnknownBackend = errors.New("backend: unknown backend")

// Registry holds named backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: map[string]Backend{}}
}

// Register adds a backend under its name.
func (r *Registry) Register(backend Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[backend.Name()] = backend
}

// Lookup returns a backend by name or ErrUnknownBackend.
func (r *Registry) Lookup(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	backend, ok := r.backends[name]
	if !ok {
		return nil, ErrUnknownBackend
	}
	return backend, nil
}

// Names returns the registered backend names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}
