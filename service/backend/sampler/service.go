// Package sampler implements the default reference backend: prior importance
// sampling.  It draws the whole sample budget from the prior, weights each
// draw by its likelihood and estimates the log evidence as the log mean
// likelihood.  Crude but deterministic under a fixed seed, which makes it the
// workhorse of tests and small chained fits.
package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/viant/chainfit/internal/clock"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/backend"
)

// Name is the registry name of this backend.
const Name = "sampler"

// Service is the prior importance sampling backend.
type Service struct{}

// Name returns the registry name.
func (s *Service) Name() string { return Name }

// Fit draws config.Samples points from the prior, evaluates them with up to
// config.Cores goroutines and returns likelihood-weighted samples with a log
// evidence estimate.  Draw order is fixed by the seed, so results do not
// depend on scheduling.
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

	// All unit draws come from a single generator before any parallel work.
	units := make([][]float64, config.Samples)
	for i := range units {
		unit := make([]float64, len(paths))
		for j := range unit {
			unit[j] = rng.Float64()
		}
		units[i] = unit
	}

	values := make([][]float64, config.Samples)
	logLikelihoods := make([]float64, config.Samples)
	errs := make([]error, config.Samples)

	var wg sync.WaitGroup
	jobs := make(chan int)
	for worker := 0; worker < config.Cores; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				instance, err := m.InstanceAt(units[i])
				if err != nil {
					errs[i] = err
					continue
				}
				logL, err := a.LogLikelihood(ctx, instance)
				if err != nil {
					errs[i] = err
					continue
				}
				row := make([]float64, len(paths))
				for j, path := range paths {
					row[j], _ = instance.At(path)
				}
				values[i] = row
				logLikelihoods[i] = logL
			}
		}()
	}
	for i := 0; i < config.Samples; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("sampler: evaluation %v failed: %w", i, err)
		}
	}

	// Importance weights relative to the best likelihood keep the exponentials
	// finite.
	_, best := bestOf(logLikelihoods)
	weights := make([]float64, len(logLikelihoods))
	sumWeights := 0.0
	for i, logL := range logLikelihoods {
		weights[i] = math.Exp(logL - best)
		sumWeights += weights[i]
	}
	logZ := best + math.Log(sumWeights) - math.Log(float64(len(logLikelihoods)))

	samples := &fit.Samples{
		Paths:          paths,
		Values:         values,
		LogLikelihoods: logLikelihoods,
		Weights:        weights,
		LogEvidence:    &logZ,
	}
	return samples, samples.Validate()
}

func bestOf(values []float64) (int, float64) {
	best, bestValue := -1, math.Inf(-1)
	for i, value := range values {
		if value > bestValue {
			best, bestValue = i, value
		}
	}
	return best, bestValue
}

// New creates the sampler backend.
func New() *Service { return &Service{} }
