package runner

import (
	"errors"
	"fmt"
	"log"

	"context"

	"github.com/viant/chainfit/internal/clock"
	"github.com/viant/chainfit/internal/idgen"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/runtime/result"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/backend"
	"github.com/viant/chainfit/service/dao"
	fmemory "github.com/viant/chainfit/service/dao/fit/memory"
	"github.com/viant/chainfit/service/sink"
	"github.com/viant/chainfit/tracing"
)

// Config represents runner configuration.
type Config struct {
	// SummarySigma is the sigma level at which posterior medians/errors are
	// reported in persisted summaries
	SummarySigma float64

	// DefaultBackend is used when a stage names no backend
	DefaultBackend string
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{SummarySigma: 3.0, DefaultBackend: "sampler"}
}

// Request describes one stage-runner invocation.
type Request struct {
	// Stage names the fit; also the persistence sub-path
	Stage string

	// PathPrefix scopes artifacts of one orchestration run
	PathPrefix string

	// Model is the parameter space to fit; treated as immutable
	Model *model.Composite

	// Analysis scores concrete instances
	Analysis analysis.Analysis

	// Search selects and budgets the backend
	Search model.Search
}

// Service executes single model+data fits through registered optimisation
// backends, wrapping raw samples into immutable stage results.
type Service struct {
	config   Config
	registry *backend.Registry
	sink     *sink.Service
	fitDAO   dao.Service[string, fit.Fit]
}

// Run validates the request, executes the selected backend and returns the
// stage result.  A backend that fails to converge surfaces as a result with
// nil log evidence, not as an error; hard failures (unknown backend,
// structurally invalid model, evaluation errors) are returned as errors
// before or during the fit.
func (s *Service) Run(ctx context.Context, request *Request) (*result.Result, error) {
	if request == nil || request.Model == nil {
		return nil, fmt.Errorf("runner: request has no model")
	}
	if request.Analysis == nil {
		return nil, fmt.Errorf("runner: request has no analysis")
	}
	if err := request.Model.Validate(); err != nil {
		return nil, err
	}
	backendName := request.Search.Backend
	if backendName == "" {
		backendName = s.config.DefaultBackend
	}
	engine, err := s.registry.Lookup(backendName)
	if err != nil {
		if errors.Is(err, backend.ErrUnknownBackend) {
			return nil, fmt.Errorf("runner: stage %q: %w %q", request.Stage, backend.ErrUnknownBackend, backendName)
		}
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "runner.fit", "INTERNAL")
	defer span.OnDone()
	span.WithAttributes(map[string]string{"stage": request.Stage, "backend": backendName})

	frozen := request.Model.Clone()
	record := &fit.Fit{
		ID:             idgen.New(),
		Stage:          request.Stage,
		PathPrefix:     request.PathPrefix,
		State:          fit.StatePending,
		FreeParameters: frozen.FreeCount(),
		ScheduledAt:    clock.Now(),
	}
	_ = s.fitDAO.Save(ctx, record)

	started := clock.Now()
	record.State, record.StartedAt = fit.StateRunning, &started
	_ = s.fitDAO.Save(ctx, record)

	samples, err := engine.Fit(ctx, frozen, request.Analysis, backend.FromSearch(request.Search))
	completed := clock.Now()
	record.CompletedAt = &completed
	if err != nil {
		record.State, record.Error = fit.StateFailed, err.Error()
		_ = s.fitDAO.Save(ctx, record)
		span.SetStatus(err)
		return nil, fmt.Errorf("runner: stage %q failed: %w", request.Stage, err)
	}
	record.State = fit.StateCompleted
	_ = s.fitDAO.Save(ctx, record)
	span.SetStatus(nil)

	ret := result.New(record.ID, request.Stage, frozen, samples)
	s.persist(ctx, request, ret)
	return ret, nil
}

// persist writes stage artifacts; persistence is a collaborator
// responsibility, so failures are logged and do not invalidate the in-memory
// result.
func (s *Service) persist(ctx context.Context, request *Request, ret *result.Result) {
	if s.sink == nil {
		return
	}
	samples := ret.Samples()
	medians := make(map[string]float64, len(samples.Paths))
	for _, path := range samples.Paths {
		if summary, err := ret.Summary(path, s.config.SummarySigma); err == nil {
			medians[path.String()] = summary.Median
		}
	}
	summary := &sink.Summary{
		Stage:            request.Stage,
		FitID:            ret.ID(),
		FreeParameters:   len(samples.Paths),
		LogEvidence:      ret.LogEvidence(),
		MaxLogLikelihood: ret.MaxLogLikelihood(),
		Medians:          medians,
	}
	if err := s.sink.SaveSummary(ctx, request.PathPrefix, request.Stage, summary); err != nil {
		log.Printf("chainfit: %v", err)
	}
	if err := s.sink.SaveSamples(ctx, request.PathPrefix, request.Stage, samples); err != nil {
		log.Printf("chainfit: %v", err)
	}
}

// Fits exposes the fit-record store for inspection.
func (s *Service) Fits() dao.Service[string, fit.Fit] { return s.fitDAO }

// New creates a runner service.
func New(options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(s)
	}
	if s.registry == nil {
		return nil, fmt.Errorf("runner: backend registry is required")
	}
	if s.fitDAO == nil {
		s.fitDAO = fmemory.New()
	}
	return s, nil
}
