package chainfit

import (
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/chainfit/extension"
	"github.com/viant/chainfit/policy"
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/service/backend"
	"github.com/viant/chainfit/service/backend/sampler"
	"github.com/viant/chainfit/service/backend/swarm"
	"github.com/viant/chainfit/service/dao"
	fmemory "github.com/viant/chainfit/service/dao/fit/memory"
	"github.com/viant/chainfit/service/dao/plan"
	"github.com/viant/chainfit/service/meta"
	"github.com/viant/chainfit/service/pipeline"
	"github.com/viant/chainfit/service/runner"
	"github.com/viant/chainfit/service/sensitivity"
	"github.com/viant/chainfit/service/sink"
	"github.com/viant/x"
)

type Service struct {
	runtime        *Runtime
	config         *Config
	metaService    *meta.Service
	components     *extension.Components
	extensionTypes []*x.Type
	registry       *backend.Registry
	backends       []backend.Backend
	sink           *sink.Service
	fitDAO         dao.Service[string, fit.Fit]
	widths         *policy.Widths
	metaBaseURL    string
	metaFsOptions  []storage.Option
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	aRunner, _ := runner.New(
		runner.WithRegistry(s.registry),
		runner.WithSink(s.sink),
		runner.WithFitDAO(s.fitDAO),
		runner.WithConfig(s.config.Runner))
	aPipeline, _ := pipeline.New(aRunner)
	aSensitivity, _ := sensitivity.New(aRunner, sensitivity.WithConfig(s.config.Sensitivity))
	s.runtime.runner = aRunner
	s.runtime.pipeline = aPipeline
	s.runtime.sensitivity = aSensitivity
	s.runtime.components = s.components
	s.runtime.widths = s.widths
	s.runtime.config = s.config
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
	if s.runtime.planDAO == nil {
		s.runtime.planDAO = plan.New(plan.WithMetaService(s.metaService))
	}
	if s.registry == nil {
		s.registry = backend.NewRegistry()
		s.registry.Register(sampler.New())
		s.registry.Register(swarm.New())
	}
	for _, engine := range s.backends {
		s.registry.Register(engine)
	}
	if s.fitDAO == nil {
		s.fitDAO = fmemory.New()
	}
	if s.sink == nil && s.config.ArtifactsURL != "" {
		s.sink = sink.New(s.config.ArtifactsURL)
	}
	if s.components == nil {
		s.components = extension.NewComponents(s.extensionTypes...)
	} else {
		for _, aType := range s.extensionTypes {
			s.components.Types().Register(aType)
		}
	}
}

// RegisterComponent registers a named component builder usable from plan
// "new:" entries.
func (s *Service) RegisterComponent(name string, builder extension.Builder) {
	s.components.Register(name, builder)
}

// RegisterExtensionTypes registers Go parameter types with the component type
// registry.
func (s *Service) RegisterExtensionTypes(types ...*x.Type) {
	for i := range types {
		s.components.Types().Register(types[i])
	}
}

// Materializer returns a materializer over the registered parameter types.
func (s *Service) Materializer() *extension.Materializer {
	return extension.NewMaterializer(s.components.Types())
}

// Runtime returns the runtime facade.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// New creates a chainfit service.
func New(options ...Option) *Service {
	ret := &Service{runtime: &Runtime{}}
	ret.init(options)
	return ret
}
