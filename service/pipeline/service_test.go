package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/model/prior"
	"github.com/viant/chainfit/runtime/result"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/backend"
	"github.com/viant/chainfit/service/backend/sampler"
	"github.com/viant/chainfit/service/backend/swarm"
	"github.com/viant/chainfit/service/runner"
)

func newPipeline(t *testing.T) *Service {
	t.Helper()
	registry := backend.NewRegistry()
	registry.Register(sampler.New())
	registry.Register(swarm.New())
	aRunner, err := runner.New(runner.WithRegistry(registry))
	assert.Nil(t, err)
	s, err := New(aRunner, WithPathPrefix("pipeline-test"))
	assert.Nil(t, err)
	return s
}

func lensModel() *model.Composite {
	return model.NewComposite().
		Put("lens", model.NewComponent().
			Put("mass", model.NewComponent().
				Put("einsteinRadius", model.Free(prior.NewUniform(0.5, 2.5))))).
		Put("source", model.NewComponent().
			Put("light", model.NewComponent().
				Put("intensity", model.Free(prior.NewLogUniform(1e-2, 1e2)))))
}

func lensAnalysis() analysis.Analysis {
	return analysis.Func(func(_ context.Context, instance model.Instance) (float64, error) {
		radius := instance["lens.mass.einsteinRadius"]
		intensity := instance["source.light.intensity"]
		return -0.5*math.Pow((radius-1.6)/0.1, 2) - 0.5*math.Pow((math.Log10(intensity)-0.5)/0.2, 2), nil
	})
}

func chainSpecs(seed int64) []*StageSpec {
	return []*StageSpec{
		{
			Name:   "source",
			Search: model.Search{Backend: "sampler", Samples: 1500, Seed: seed},
			Build: func(*result.Collection) (*model.Composite, error) {
				return lensModel(), nil
			},
		},
		{
			Name:   "mass",
			Search: model.Search{Backend: "sampler", Samples: 1000, Seed: seed + 1},
			Build: func(prior *result.Collection) (*model.Composite, error) {
				return prior.Last().ChainedModel(3.0, nil)
			},
		},
	}
}

func TestService_Run(t *testing.T) {
	s := newPipeline(t)
	collection, err := s.Run(context.Background(), lensAnalysis(), chainSpecs(7)...)
	assert.Nil(t, err)
	assert.Equal(t, 2, collection.Len())

	first, err := collection.ByStage("source")
	assert.Nil(t, err)
	second, err := collection.ByStage("mass")
	assert.Nil(t, err)
	assert.NotNil(t, first.LogEvidence())

	// the chained stage keeps the free-parameter structure of its parent
	assert.Equal(t, first.Model().FreeCount(), second.Model().FreeCount())
	summary, err := second.Summary(model.ParsePath("lens.mass.einsteinRadius"), 1.0)
	assert.Nil(t, err)
	assert.InDelta(t, 1.6, summary.Median, 0.15)
}

func TestService_RunThreeStageChain(t *testing.T) {
	s := newPipeline(t)
	fiveParamModel := func() *model.Composite {
		return model.NewComposite().
			Put("lens", model.NewComponent().
				Put("mass", model.NewComponent().
					Put("einsteinRadius", model.Free(prior.NewUniform(0.5, 2.5))).
					Put("axisRatio", model.Free(prior.NewUniform(0.3, 1.0))).
					Put("angle", model.Free(prior.NewUniform(0.0, 180.0))))).
			Put("source", model.NewComponent().
				Put("light", model.NewComponent().
					Put("intensity", model.Free(prior.NewLogUniform(1e-2, 1e2))).
					Put("sigma", model.Free(prior.NewUniform(0.05, 1.0)))))
	}
	fiveParamAnalysis := analysis.Func(func(_ context.Context, instance model.Instance) (float64, error) {
		score := -0.5 * math.Pow((instance["lens.mass.einsteinRadius"]-1.6)/0.1, 2)
		score += -0.5 * math.Pow((instance["lens.mass.axisRatio"]-0.8)/0.05, 2)
		score += -0.5 * math.Pow((instance["lens.mass.angle"]-45.0)/5.0, 2)
		score += -0.5 * math.Pow((math.Log10(instance["source.light.intensity"])-0.5)/0.2, 2)
		score += -0.5 * math.Pow((instance["source.light.sigma"]-0.3)/0.05, 2)
		return score, nil
	})
	chained := func(prior *result.Collection) (*model.Composite, error) {
		return prior.Last().ChainedModel(3.0, nil)
	}
	specs := []*StageSpec{
		{
			Name:   "parametric",
			Search: model.Search{Backend: "sampler", Samples: 2000, Seed: 21},
			Build: func(*result.Collection) (*model.Composite, error) {
				return fiveParamModel(), nil
			},
		},
		{Name: "inversion", Search: model.Search{Backend: "sampler", Samples: 1500, Seed: 22}, Build: chained},
		{Name: "refine", Search: model.Search{Backend: "sampler", Samples: 1500, Seed: 23}, Build: chained},
	}

	collection, err := s.Run(context.Background(), fiveParamAnalysis, specs...)
	assert.Nil(t, err)
	assert.Equal(t, 3, collection.Len())

	// the final stage keeps all five parameters free and every prior has been
	// replaced with a posterior-derived gaussian
	final := collection.Last().Model()
	paths := final.FreePaths()
	assert.Len(t, paths, 5)
	for _, path := range paths {
		node, err := final.Resolve(path)
		assert.Nil(t, err)
		assert.Equal(t, prior.KindGaussian, node.Prior().Kind(), path.String())
	}
}

func TestService_RunIsDeterministic(t *testing.T) {
	s := newPipeline(t)
	run := func() float64 {
		collection, err := s.Run(context.Background(), lensAnalysis(), chainSpecs(11)...)
		assert.Nil(t, err)
		summary, err := collection.Last().Summary(model.ParsePath("lens.mass.einsteinRadius"), 1.0)
		assert.Nil(t, err)
		return summary.Median
	}
	assert.Equal(t, run(), run())
}

func TestService_RunNilEvidenceFlowsDownstream(t *testing.T) {
	s := newPipeline(t)
	var sawNilEvidence bool
	specs := []*StageSpec{
		{
			Name:   "explore",
			Search: model.Search{Backend: "swarm", Samples: 200, Walkers: 10, Seed: 3},
			Build: func(*result.Collection) (*model.Composite, error) {
				return lensModel(), nil
			},
		},
		{
			Name:   "refine",
			Search: model.Search{Backend: "sampler", Samples: 500, Seed: 4},
			Build: func(prior *result.Collection) (*model.Composite, error) {
				sawNilEvidence = prior.Last().LogEvidence() == nil
				return prior.Last().ChainedModel(3.0, nil)
			},
		},
	}
	collection, err := s.Run(context.Background(), lensAnalysis(), specs...)
	assert.Nil(t, err)
	assert.Equal(t, 2, collection.Len())
	assert.True(t, sawNilEvidence)
	assert.NotNil(t, collection.Last().LogEvidence())
}

func TestService_RunBuildFailureAborts(t *testing.T) {
	s := newPipeline(t)
	buildErr := errors.New("missing parent result")
	specs := []*StageSpec{
		{
			Name:   "source",
			Search: model.Search{Backend: "sampler", Samples: 200, Seed: 1},
			Build: func(*result.Collection) (*model.Composite, error) {
				return lensModel(), nil
			},
		},
		{
			Name:   "mass",
			Search: model.Search{Backend: "sampler", Samples: 200, Seed: 2},
			Build: func(*result.Collection) (*model.Composite, error) {
				return nil, buildErr
			},
		},
	}
	collection, err := s.Run(context.Background(), lensAnalysis(), specs...)
	assert.True(t, errors.Is(err, buildErr))
	// the completed prefix of the chain is still available
	assert.Equal(t, 1, collection.Len())
}

func TestService_RunRejectsDuplicateStages(t *testing.T) {
	s := newPipeline(t)
	build := func(*result.Collection) (*model.Composite, error) { return lensModel(), nil }
	_, err := s.Run(context.Background(), lensAnalysis(),
		&StageSpec{Name: "source", Build: build},
		&StageSpec{Name: "source", Build: build})
	assert.NotNil(t, err)
}
