// Package swarm implements a particle-swarm optimisation backend.  It is an
// optimiser, not a sampler: it returns its full evaluation trace with uniform
// weights and no log evidence, exercising the engine's undefined-evidence
// path.  Useful for cheap initialisation stages whose result is only chained
// forward as a fixed instance.
package swarm

import (
	"context"
	"math"
	"math/rand"

	"github.com/viant/chainfit/internal/clock"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/backend"
)

// Name is the registry name of this backend.
const Name = "swarm"

// Velocity update coefficients; conventional PSO values.
const (
	inertia   = 0.72
	cognitive = 1.49
	social    = 1.49
)

// Service is the particle swarm backend.
type Service struct{}

// Name returns the registry name.
func (s *Service) Name() string { return Name }

// Fit runs config.Samples/config.Walkers swarm iterations in the unit cube
// and maps positions through the priors for every evaluation.
func (s *Service) Fit(ctx context.Context, m *model.Composite, a analysis.Analysis, config backend.Config) (*fit.Samples, error) {
	config = config.WithDefaults()
	paths := m.FreePaths()
	if len(paths) == 0 {
		return nil, model.ErrNoFreeParameters
	}
	seed := config.Seed
	if seed == 0 {
		seed = clock.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	dim := len(paths)
	iterations := config.Samples / config.Walkers
	if iterations < 1 {
		iterations = 1
	}

	type particle struct {
		position []float64
		velocity []float64
		best     []float64
		bestLogL float64
	}

	evaluate := func(position []float64) ([]float64, float64, error) {
		instance, err := m.InstanceAt(position)
		if err != nil {
			return nil, 0, err
		}
		logL, err := a.LogLikelihood(ctx, instance)
		if err != nil {
			return nil, 0, err
		}
		row := make([]float64, dim)
		for j, path := range paths {
			row[j], _ = instance.At(path)
		}
		return row, logL, nil
	}

	samples := &fit.Samples{Paths: paths}
	record := func(row []float64, logL float64) {
		samples.Values = append(samples.Values, row)
		samples.LogLikelihoods = append(samples.LogLikelihoods, logL)
	}

	particles := make([]*particle, config.Walkers)
	globalBest := make([]float64, dim)
	globalBestLogL := math.Inf(-1)
	for i := range particles {
		position := make([]float64, dim)
		velocity := make([]float64, dim)
		for j := range position {
			position[j] = rng.Float64()
			velocity[j] = (rng.Float64() - 0.5) * 0.1
		}
		row, logL, err := evaluate(position)
		if err != nil {
			return nil, err
		}
		record(row, logL)
		particles[i] = &particle{
			position: position,
			velocity: velocity,
			best:     append([]float64(nil), position...),
			bestLogL: logL,
		}
		if logL > globalBestLogL {
			globalBestLogL = logL
			copy(globalBest, position)
		}
	}

	for iteration := 1; iteration < iterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, p := range particles {
			for j := 0; j < dim; j++ {
				p.velocity[j] = inertia*p.velocity[j] +
					cognitive*rng.Float64()*(p.best[j]-p.position[j]) +
					social*rng.Float64()*(globalBest[j]-p.position[j])
				p.position[j] = clamp(p.position[j] + p.velocity[j])
			}
			row, logL, err := evaluate(p.position)
			if err != nil {
				return nil, err
			}
			record(row, logL)
			if logL > p.bestLogL {
				p.bestLogL = logL
				copy(p.best, p.position)
			}
			if logL > globalBestLogL {
				globalBestLogL = logL
				copy(globalBest, p.position)
			}
		}
	}
	return samples, samples.Validate()
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// New creates the swarm backend.
func New() *Service { return &Service{} }
