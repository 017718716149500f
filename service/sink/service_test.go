package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/runtime/fit"
)

func TestService_SaveArtifacts(t *testing.T) {
	ctx := context.Background()
	s := New("mem://localhost/chainfit/output")
	samples := &fit.Samples{
		Paths:          []model.Path{model.ParsePath("lens.mass.einsteinRadius")},
		Values:         [][]float64{{1.2}, {1.4}},
		LogLikelihoods: []float64{-3, -2},
	}
	assert.Nil(t, s.SaveSamples(ctx, "run-1", "source", samples))
	assert.Nil(t, s.SaveSummary(ctx, "run-1", "source", &Summary{
		Stage:            "source",
		FitID:            "fit-1",
		FreeParameters:   1,
		MaxLogLikelihood: -2,
	}))

	for _, artifact := range []string{"samples.csv", "summary.yaml"} {
		ok, err := s.Exists(ctx, "run-1", "source", artifact)
		assert.Nil(t, err)
		assert.True(t, ok, artifact)
	}
}

func TestService_StagePathsAreUnique(t *testing.T) {
	s := New("mem://localhost/chainfit/output")
	assert.NotEqual(t, s.StageURL("run-1", "source"), s.StageURL("run-1", "mass"))
	assert.NotEqual(t, s.StageURL("run-1", "source"), s.StageURL("run-2", "source"))
	assert.Equal(t, "mem://localhost/chainfit/output/source", s.StageURL("", "source"))
}
