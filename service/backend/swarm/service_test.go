package swarm

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

func TestService_FitConvergesTowardsPeak(t *testing.T) {
	m := model.NewComposite().Put("lens",
		model.NewComponent().
			Put("x", model.Free(prior.NewUniform(-2, 2))).
			Put("y", model.Free(prior.NewUniform(-2, 2))))
	a := analysis.Func(func(_ context.Context, instance model.Instance) (float64, error) {
		dx, dy := instance["lens.x"]-0.5, instance["lens.y"]+0.5
		return -(dx*dx + dy*dy), nil
	})
	samples, err := New().Fit(context.Background(), m, a, backend.Config{Samples: 3000, Walkers: 30, Seed: 11})
	assert.Nil(t, err)
	assert.Nil(t, samples.LogEvidence, "an optimiser estimates no evidence")

	best, bestLogL := samples.Best()
	assert.Greater(t, bestLogL, -0.05)
	assert.InDelta(t, 0.5, samples.Values[best][0], 0.2)
	assert.InDelta(t, -0.5, samples.Values[best][1], 0.2)
	assert.False(t, math.IsInf(bestLogL, 0))
}
