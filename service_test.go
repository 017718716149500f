package chainfit_test

import (
	"context"
	"embed"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	_ "github.com/viant/afs/embed"
	"github.com/viant/chainfit"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/model/prior"
	"github.com/viant/chainfit/service/analysis"
)

//go:embed testdata/*
var embedFS embed.FS

func newService() *chainfit.Service {
	srv := chainfit.New(
		chainfit.WithMetaFsOptions(&embedFS),
		chainfit.WithMetaBaseURL("embed:///testdata"),
	)
	srv.RegisterComponent("isothermal", func() *model.Node {
		return model.NewComponent().
			Put("einsteinRadius", model.Free(prior.NewUniform(0.5, 2.5)))
	})
	return srv
}

func ringAnalysis() analysis.Analysis {
	return analysis.Func(func(_ context.Context, instance model.Instance) (float64, error) {
		radius := instance["lens.mass.einsteinRadius"]
		return -0.5 * math.Pow((radius-1.6)/0.1, 2), nil
	})
}

func TestService(t *testing.T) {
	srv := newService()
	runtime := srv.Runtime()
	ctx := context.Background()

	aPlan, err := runtime.LoadPlan(ctx, "slam.yaml")
	assert.Nil(t, err)
	if !assert.NotNil(t, aPlan) {
		return
	}
	assert.Equal(t, []string{"source", "mass"}, aPlan.StageNames())

	results, err := runtime.RunPlan(ctx, aPlan, ringAnalysis())
	assert.Nil(t, err)
	assert.Equal(t, 2, results.Len())

	source, err := results.ByStage("source")
	assert.Nil(t, err)
	mass, err := results.ByStage("mass")
	assert.Nil(t, err)

	// the chained stage keeps the parent's free-parameter structure
	assert.Equal(t, source.Model().FreeCount(), mass.Model().FreeCount())
	summary, err := mass.Summary(model.ParsePath("lens.mass.einsteinRadius"), 1.0)
	assert.Nil(t, err)
	assert.InDelta(t, 1.6, summary.Median, 0.15)

	// every stage fit was recorded
	fits, err := runtime.Fits(ctx)
	assert.Nil(t, err)
	assert.Len(t, fits, 2)
}

func TestRuntime_UpsertDefinition(t *testing.T) {
	srv := newService()
	runtime := srv.Runtime()
	ctx := context.Background()

	err := runtime.UpsertDefinition("adhoc.yaml", []byte(`
name: adhoc
stages:
  source:
    search:
      backend: sampler
      samples: 400
      seed: 7
    new:
      lens.mass: isothermal
`))
	assert.Nil(t, err)

	aPlan, err := runtime.LoadPlan(ctx, "adhoc.yaml")
	assert.Nil(t, err)
	assert.Equal(t, "adhoc", aPlan.Name)
	assert.Equal(t, "adhoc.yaml", aPlan.Source.URL)

	results, err := runtime.RunPlan(ctx, aPlan, ringAnalysis())
	assert.Nil(t, err)
	assert.Equal(t, 1, results.Len())

	// nil data falls back to a lazy refresh; the location is no longer cached
	err = runtime.UpsertDefinition("adhoc.yaml", nil)
	assert.Nil(t, err)
	_, err = runtime.LoadPlan(ctx, "adhoc.yaml")
	assert.NotNil(t, err)
}

func TestRuntime_RunStageOnce(t *testing.T) {
	srv := newService()
	runtime := srv.Runtime()

	composite := model.NewComposite().Put("lens",
		model.NewComponent().Put("mass",
			model.NewComponent().Put("einsteinRadius", model.Free(prior.NewUniform(0.5, 2.5)))))
	ret, err := runtime.RunStageOnce(context.Background(), "adhoc", composite, ringAnalysis(),
		model.Search{Backend: "sampler", Samples: 600, Seed: 11})
	assert.Nil(t, err)
	summary, err := ret.Summary(model.ParsePath("lens.mass.einsteinRadius"), 1.0)
	assert.Nil(t, err)
	assert.InDelta(t, 1.6, summary.Median, 0.1)
}

func TestRuntime_CompilePlanRejectsUnknownComponent(t *testing.T) {
	srv := newService()
	runtime := srv.Runtime()

	aPlan, err := runtime.DecodeYAMLPlan([]byte(`
name: bad
stages:
  source:
    search:
      backend: sampler
    new:
      lens.mass: nfw
`))
	assert.Nil(t, err)
	_, err = runtime.RunPlan(context.Background(), aPlan, ringAnalysis())
	assert.NotNil(t, err)
}
