package chainfit

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/chainfit/extension"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/policy"
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/runtime/result"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/dao"
	"github.com/viant/chainfit/service/dao/plan"
	"github.com/viant/chainfit/service/dao/plan/passes"
	"github.com/viant/chainfit/service/hyper"
	"github.com/viant/chainfit/service/pipeline"
	"github.com/viant/chainfit/service/runner"
	"github.com/viant/chainfit/service/sensitivity"
)

// Runtime represents a model-fit chaining engine runtime
type Runtime struct {
	planDAO     *plan.Service
	runner      *runner.Service
	pipeline    *pipeline.Service
	sensitivity *sensitivity.Service
	components  *extension.Components
	widths      *policy.Widths
	config      *Config
}

// ---------------------------------------------------------------------------
// Plan hot-swap helpers
// ---------------------------------------------------------------------------

// RefreshPlan discards any cached copy of the plan definition located at the
// given URL/location. The next LoadPlan call will reload the file via the
// configured meta-service (i.e. one extra disk/cloud round-trip).
func (r *Runtime) RefreshPlan(location string) error {
	if r == nil || r.planDAO == nil {
		return fmt.Errorf("runtime not fully initialised, planDAO missing")
	}
	r.planDAO.Refresh(location)
	return nil
}

// UpsertDefinition parses the supplied YAML bytes and stores the resulting
// plan definition in the in-memory cache under the specified location.
// When data is nil the call falls back to RefreshPlan, causing a lazy reload
// on next use.
func (r *Runtime) UpsertDefinition(location string, data []byte) error {
	if r == nil || r.planDAO == nil {
		return fmt.Errorf("runtime not fully initialised, planDAO missing")
	}
	if data == nil {
		return r.RefreshPlan(location)
	}
	aPlan, err := r.planDAO.DecodeYAML(data)
	if err != nil {
		return fmt.Errorf("failed to decode plan YAML: %w", err)
	}
	if aPlan.Source == nil {
		aPlan.Source = &model.Source{URL: location}
	} else {
		aPlan.Source.URL = location
	}
	r.planDAO.Upsert(location, aPlan)
	return nil
}

// LoadPlan loads a plan
func (r *Runtime) LoadPlan(ctx context.Context, location string) (*model.Plan, error) {
	return r.planDAO.Load(ctx, location)
}

// DecodeYAMLPlan decodes a plan
func (r *Runtime) DecodeYAMLPlan(data []byte) (*model.Plan, error) {
	return r.planDAO.DecodeYAML(data)
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// RunPlan compiles the plan into stage specs and runs them in order against
// the supplied analysis.
func (r *Runtime) RunPlan(ctx context.Context, aPlan *model.Plan, anAnalysis analysis.Analysis) (*result.Collection, error) {
	specs, err := r.CompilePlan(aPlan)
	if err != nil {
		return nil, err
	}
	return r.pipeline.Run(ctx, anAnalysis, specs...)
}

// RunStages runs programmatic stage specs in order.
func (r *Runtime) RunStages(ctx context.Context, anAnalysis analysis.Analysis, specs ...*pipeline.StageSpec) (*result.Collection, error) {
	return r.pipeline.Run(ctx, anAnalysis, specs...)
}

// RunStageOnce is a convenience helper that executes a single ad-hoc fit
// outside any plan.  It is intended for quick jobs, debugging and unit tests
// where declaring a whole plan would be unnecessary overhead.
func (r *Runtime) RunStageOnce(ctx context.Context, stage string, composite *model.Composite, anAnalysis analysis.Analysis, search model.Search) (*result.Result, error) {
	return r.runner.Run(ctx, &runner.Request{
		Stage:    stage,
		Model:    composite,
		Analysis: anAnalysis,
		Search:   search,
	})
}

// ExtendHyper runs a nuisance-parameter extension fit of the primary result.
func (r *Runtime) ExtendHyper(ctx context.Context, primary *result.Result, anAnalysis analysis.Analysis, config hyper.Config) (*result.Result, error) {
	return hyper.Extend(ctx, r.runner, anAnalysis, primary, config)
}

// MapSensitivity runs a sensitivity grid.
func (r *Runtime) MapSensitivity(ctx context.Context, request *sensitivity.Request) (*sensitivity.Grid, error) {
	return r.sensitivity.Run(ctx, request)
}

// Fits lists recorded fits
func (r *Runtime) Fits(ctx context.Context, parameter ...*dao.Parameter) ([]*fit.Fit, error) {
	return r.runner.Fits().List(ctx, parameter...)
}

// ---------------------------------------------------------------------------
// Plan compilation
// ---------------------------------------------------------------------------

// CompilePlan resolves a plan's stages into runnable stage specs: "new"
// components are instantiated through the component registry and pass rules
// become result-derived nodes at build time.
func (r *Runtime) CompilePlan(aPlan *model.Plan) ([]*pipeline.StageSpec, error) {
	if aPlan == nil {
		return nil, fmt.Errorf("plan is nil")
	}
	if issues := aPlan.Validate(); len(issues) > 0 {
		return nil, issues[0]
	}
	specs := make([]*pipeline.StageSpec, 0, len(aPlan.Stages))
	prior := map[string]bool{}
	for _, stage := range aPlan.Stages {
		rules, err := passes.ParseAll(stage.Passes, prior)
		if err != nil {
			return nil, fmt.Errorf("plan %s stage %s: %w", aPlan.Name, stage.Name, err)
		}
		specs = append(specs, r.compileStage(stage, rules))
		prior[stage.Name] = true
	}
	return specs, nil
}

// compileStage closes over the stage definition; component instantiation and
// pass resolution run when the stage builds, once its source stages have
// completed.
func (r *Runtime) compileStage(stage *model.PlanStage, rules []*passes.Rule) *pipeline.StageSpec {
	newPaths := make([]string, 0, len(stage.New))
	for path := range stage.New {
		newPaths = append(newPaths, path)
	}
	sort.Strings(newPaths)

	sigma := r.config.ChainSigma
	return &pipeline.StageSpec{
		Name:   stage.Name,
		Search: stage.Search,
		Build: func(results *result.Collection) (*model.Composite, error) {
			composite := model.NewComposite()
			for _, path := range newPaths {
				node, err := r.components.Build(stage.New[path])
				if err != nil {
					return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
				}
				if err := placeNode(composite, model.ParsePath(path), node); err != nil {
					return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
				}
			}
			for _, rule := range rules {
				source, err := results.ByStage(rule.Stage)
				if err != nil {
					return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
				}
				var node *model.Node
				switch rule.Kind {
				case passes.KindModel:
					node, err = source.ModelNode(rule.Path, sigma, r.widths)
				case passes.KindInstance:
					node, err = source.InstanceNode(rule.Path)
				case passes.KindUnfix:
					node, err = source.ModelNode(rule.Path, sigma, r.widths, result.WithUnfix(rule.Spread))
				}
				if err != nil {
					return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
				}
				if err := placeNode(composite, rule.Path, node); err != nil {
					return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
				}
			}
			return composite, nil
		},
	}
}

// placeNode inserts node at the dotted path, creating intermediate
// components as needed.
func placeNode(target *model.Composite, path model.Path, node *model.Node) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot place component at empty path")
	}
	if len(path) == 1 {
		target.Put(path[0], node)
		return nil
	}
	root := target.Component(path[0])
	if root == nil {
		root = model.NewComponent()
		target.Put(path[0], root)
	}
	current := root
	for _, segment := range path[1 : len(path)-1] {
		child := current.Child(segment)
		if child == nil {
			child = model.NewComponent()
			current.Put(segment, child)
		}
		if child.Kind() != model.KindComposite {
			return fmt.Errorf("path %q crosses leaf %q", path.String(), segment)
		}
		current = child
	}
	if current.Kind() != model.KindComposite {
		return fmt.Errorf("path %q crosses a leaf", path.String())
	}
	current.Put(path[len(path)-1], node)
	return nil
}
