package runner

import (
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/service/backend"
	"github.com/viant/chainfit/service/dao"
	"github.com/viant/chainfit/service/sink"
)

// Option customises the runner service.
type Option func(*Service)

// WithRegistry sets the backend registry.
func WithRegistry(registry *backend.Registry) Option {
	return func(s *Service) { s.registry = registry }
}

// WithSink sets the artifact sink; without one the runner keeps results in
// memory only.
func WithSink(service *sink.Service) Option {
	return func(s *Service) { s.sink = service }
}

// WithFitDAO sets the fit-record store.
func WithFitDAO(service dao.Service[string, fit.Fit]) Option {
	return func(s *Service) { s.fitDAO = service }
}

// WithConfig sets the configuration for the service.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithSummarySigma sets the sigma level of persisted posterior summaries.
func WithSummarySigma(sigma float64) Option {
	return func(s *Service) { s.config.SummarySigma = sigma }
}

// WithDefaultBackend sets the backend used when a stage names none.
func WithDefaultBackend(name string) Option {
	return func(s *Service) { s.config.DefaultBackend = name }
}
