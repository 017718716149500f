package pipeline

import (
	"context"
	"fmt"

	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/progress"
	"github.com/viant/chainfit/runtime/result"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/runner"
	"github.com/viant/chainfit/tracing"
)

// Runner executes a single stage fit.
type Runner interface {
	Run(ctx context.Context, request *runner.Request) (*result.Result, error)
}

// StageSpec declares one stage of a chained fit.  Build receives the results
// of all prior stages and returns the parameter space for this stage; it must
// be deterministic so re-running a chain reproduces the same models.
type StageSpec struct {
	Name   string
	Search model.Search
	Build  func(prior *result.Collection) (*model.Composite, error)
}

// Service chains stages in strict declaration order.  Stage k builds its
// model from results 0..k-1; stages are never skipped, reordered or retried.
// A stage whose backend fails to converge contributes a result with nil log
// evidence, which downstream Build functions may inspect.
type Service struct {
	runner     Runner
	pathPrefix string
}

// Option customises the pipeline service.
type Option func(*Service)

// WithPathPrefix scopes the persisted artifacts of every stage in a run.
func WithPathPrefix(prefix string) Option {
	return func(s *Service) { s.pathPrefix = prefix }
}

// Run executes the stage chain against the supplied analysis and returns the
// completed collection.  Stage construction errors and hard fit failures
// abort the chain; convergence failures do not.
func (s *Service) Run(ctx context.Context, anAnalysis analysis.Analysis, specs ...*StageSpec) (*result.Collection, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("pipeline: no stages")
	}
	seen := map[string]bool{}
	for i, spec := range specs {
		if spec == nil || spec.Name == "" {
			return nil, fmt.Errorf("pipeline: stage %d has no name", i)
		}
		if spec.Build == nil {
			return nil, fmt.Errorf("pipeline: stage %q has no build function", spec.Name)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("pipeline: duplicate stage %q", spec.Name)
		}
		seen[spec.Name] = true
	}

	progress.UpdateCtx(ctx, progress.Delta{Stages: len(specs)})
	collection := result.NewCollection()
	for _, spec := range specs {
		if err := s.runStage(ctx, anAnalysis, spec, collection); err != nil {
			progress.UpdateCtx(ctx, progress.Delta{StagesFailed: 1})
			return collection, err
		}
		progress.UpdateCtx(ctx, progress.Delta{StagesCompleted: 1})
	}
	return collection, nil
}

func (s *Service) runStage(ctx context.Context, anAnalysis analysis.Analysis, spec *StageSpec, collection *result.Collection) error {
	ctx, span := tracing.StartSpan(ctx, "pipeline.stage", "INTERNAL")
	defer span.OnDone()
	span.WithAttributes(map[string]string{"stage": spec.Name})

	composite, err := spec.Build(collection)
	if err != nil {
		err = fmt.Errorf("pipeline: stage %q build failed: %w", spec.Name, err)
		span.SetStatus(err)
		return err
	}
	ret, err := s.runner.Run(ctx, &runner.Request{
		Stage:      spec.Name,
		PathPrefix: s.pathPrefix,
		Model:      composite,
		Analysis:   anAnalysis,
		Search:     spec.Search,
	})
	if err != nil {
		span.SetStatus(err)
		return err
	}
	span.SetStatus(nil)
	collection.Add(ret)
	return nil
}

// New creates a pipeline service backed by the supplied stage runner.
func New(aRunner Runner, options ...Option) (*Service, error) {
	if aRunner == nil {
		return nil, fmt.Errorf("pipeline: runner is required")
	}
	s := &Service{runner: aRunner}
	for _, option := range options {
		option(s)
	}
	return s, nil
}
