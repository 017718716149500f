package sampler

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/model/prior"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/backend"
)

func centreModel() *model.Composite {
	return model.NewComposite().Put("source",
		model.NewComponent().Put("centre", model.Free(prior.NewUniform(-5, 5))))
}

// gaussianAnalysis scores how close centre is to 1.0.
func gaussianAnalysis() analysis.Analysis {
	return analysis.Func(func(_ context.Context, instance model.Instance) (float64, error) {
		centre := instance["source.centre"]
		return -0.5 * math.Pow((centre-1.0)/0.2, 2), nil
	})
}

func TestService_Fit(t *testing.T) {
	samples, err := New().Fit(context.Background(), centreModel(), gaussianAnalysis(),
		backend.Config{Samples: 2000, Seed: 42})
	assert.Nil(t, err)
	assert.Equal(t, 2000, samples.Len())
	if assert.NotNil(t, samples.LogEvidence) {
		assert.False(t, math.IsInf(*samples.LogEvidence, 0))
	}
	_, best := samples.Best()
	assert.Greater(t, best, -1.0, "best sample should be near the likelihood peak")
	median, err := samples.Quantile(0, 0.5)
	assert.Nil(t, err)
	assert.InDelta(t, 1.0, median, 0.15)
}

func TestService_FitIsDeterministicUnderSeed(t *testing.T) {
	run := func() float64 {
		samples, err := New().Fit(context.Background(), centreModel(), gaussianAnalysis(),
			backend.Config{Samples: 200, Seed: 7, Cores: 4})
		assert.Nil(t, err)
		return *samples.LogEvidence
	}
	assert.Equal(t, run(), run())
}

func TestService_FitRejectsEmptyModel(t *testing.T) {
	m := model.NewComposite().Put("source", model.NewComponent().Put("centre", model.Fixed(1.0)))
	_, err := New().Fit(context.Background(), m, gaussianAnalysis(), backend.Config{Samples: 10})
	assert.Equal(t, model.ErrNoFreeParameters, err)
}
