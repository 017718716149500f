package runner

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/model/prior"
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/backend"
	"github.com/viant/chainfit/service/backend/sampler"
	"github.com/viant/chainfit/service/dao"
	"github.com/viant/chainfit/service/sink"
)

func newRunner(t *testing.T, options ...Option) *Service {
	t.Helper()
	registry := backend.NewRegistry()
	registry.Register(sampler.New())
	s, err := New(append([]Option{WithRegistry(registry)}, options...)...)
	assert.Nil(t, err)
	return s
}

func sphereModel() *model.Composite {
	return model.NewComposite().Put("lens",
		model.NewComponent().Put("mass",
			model.NewComponent().Put("einsteinRadius", model.Free(prior.NewUniform(0.5, 2.5)))))
}

func sphereAnalysis() analysis.Analysis {
	return analysis.Func(func(_ context.Context, instance model.Instance) (float64, error) {
		radius := instance["lens.mass.einsteinRadius"]
		return -0.5 * math.Pow((radius-1.6)/0.1, 2), nil
	})
}

func TestService_Run(t *testing.T) {
	s := newRunner(t, WithSink(sink.New("mem://localhost/chainfit/runner-test")))
	ret, err := s.Run(context.Background(), &Request{
		Stage:      "source",
		PathPrefix: "run-1",
		Model:      sphereModel(),
		Analysis:   sphereAnalysis(),
		Search:     model.Search{Backend: "sampler", Samples: 800, Seed: 3},
	})
	assert.Nil(t, err)
	assert.NotNil(t, ret.LogEvidence())
	summary, err := ret.Summary(model.ParsePath("lens.mass.einsteinRadius"), 1.0)
	assert.Nil(t, err)
	assert.InDelta(t, 1.6, summary.Median, 0.1)

	// fit record reached completed state
	records, err := s.Fits().List(context.Background(), dao.NewParameter("stage", "source"))
	assert.Nil(t, err)
	if assert.Len(t, records, 1) {
		assert.Equal(t, fit.StateCompleted, records[0].State)
		assert.Equal(t, 1, records[0].FreeParameters)
	}
}

func TestService_RunRejectsZeroFreeParameters(t *testing.T) {
	s := newRunner(t)
	m := model.NewComposite().Put("lens", model.NewComponent().Put("mass", model.Fixed(1.0)))
	_, err := s.Run(context.Background(), &Request{Stage: "source", Model: m, Analysis: sphereAnalysis()})
	assert.True(t, errors.Is(err, model.ErrNoFreeParameters))
}

func TestService_RunRejectsUnknownBackend(t *testing.T) {
	s := newRunner(t)
	_, err := s.Run(context.Background(), &Request{
		Stage:    "source",
		Model:    sphereModel(),
		Analysis: sphereAnalysis(),
		Search:   model.Search{Backend: "dynesty"},
	})
	assert.True(t, errors.Is(err, backend.ErrUnknownBackend))
}

func TestService_RunUsesDefaultBackend(t *testing.T) {
	s := newRunner(t)
	ret, err := s.Run(context.Background(), &Request{
		Stage:    "source",
		Model:    sphereModel(),
		Analysis: sphereAnalysis(),
		Search:   model.Search{Samples: 100, Seed: 5},
	})
	assert.Nil(t, err)
	assert.Equal(t, "source", ret.Stage())
}

func TestService_RunDoesNotMutateModel(t *testing.T) {
	s := newRunner(t)
	m := sphereModel()
	_, err := s.Run(context.Background(), &Request{
		Stage:    "source",
		Model:    m,
		Analysis: sphereAnalysis(),
		Search:   model.Search{Samples: 50, Seed: 5},
	})
	assert.Nil(t, err)
	node, err := m.Resolve(model.ParsePath("lens.mass.einsteinRadius"))
	assert.Nil(t, err)
	assert.Equal(t, model.KindFree, node.Kind())
}
