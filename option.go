package chainfit

import (
	"github.com/viant/afs/storage"
	"github.com/viant/chainfit/extension"
	"github.com/viant/chainfit/policy"
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/service/backend"
	"github.com/viant/chainfit/service/dao"
	"github.com/viant/chainfit/service/meta"
	"github.com/viant/chainfit/service/sink"
	"github.com/viant/chainfit/tracing"
	"github.com/viant/x"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the chainfit service.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the meta base URL
func WithMetaBaseURL(url string) Option {
	return func(s *Service) {
		s.metaBaseURL = url
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithBackends registers additional optimisation backends next to the
// built-in ones.
func WithBackends(backends ...backend.Backend) Option {
	return func(s *Service) {
		s.backends = append(s.backends, backends...)
	}
}

// WithRegistry replaces the backend registry entirely.
func WithRegistry(registry *backend.Registry) Option {
	return func(s *Service) { s.registry = registry }
}

// WithFitDAO sets the fit-record store.
func WithFitDAO(service dao.Service[string, fit.Fit]) Option {
	return func(s *Service) { s.fitDAO = service }
}

// WithSink sets the artifact sink.
func WithSink(service *sink.Service) Option {
	return func(s *Service) { s.sink = service }
}

// WithWidths sets the minimum width policy applied when chaining priors.
func WithWidths(widths *policy.Widths) Option {
	return func(s *Service) { s.widths = widths }
}

// WithExtensionTypes sets the extension types
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) {
		s.extensionTypes = types
	}
}

// WithComponents sets the component registry.
func WithComponents(components *extension.Components) Option {
	return func(s *Service) { s.components = components }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times - the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times - the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
