package sensitivity

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/progress"
	"github.com/viant/chainfit/runtime/result"
	"github.com/viant/chainfit/service/analysis"
	"github.com/viant/chainfit/service/messaging/memory"
	"github.com/viant/chainfit/service/runner"
	"github.com/viant/chainfit/tracing"
)

// Runner executes a single stage fit.
type Runner interface {
	Run(ctx context.Context, request *runner.Request) (*result.Result, error)
}

// Simulator produces a synthetic dataset from a concrete instance.
type Simulator func(ctx context.Context, instance model.Instance) (any, error)

// AnalysisFactory builds the analysis that scores models against a simulated
// dataset.
type AnalysisFactory func(dataset any) analysis.Analysis

// Config represents sensitivity mapper configuration.
type Config struct {
	// Workers caps concurrent cell fits
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// Steps is the default per-axis grid resolution
	Steps int `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// DefaultConfig returns the default mapper configuration.
func DefaultConfig() Config {
	return Config{Workers: 4, Steps: 4}
}

// Request describes one sensitivity mapping.
type Request struct {
	// Stage names the mapping; also the persistence sub-path
	Stage string

	// PathPrefix scopes artifacts of one run
	PathPrefix string

	// Simulation is the true science instance injected into every simulation
	Simulation model.Instance

	// Base is the science model fitted in every cell
	Base *model.Composite

	// Perturbation's free leaves define the grid axes; its priors set the
	// axis ranges
	Perturbation *model.Composite

	// Steps is the per-axis grid resolution; zero falls back to the config
	Steps int

	// Workers overrides the configured concurrency; zero falls back
	Workers int

	// Simulate renders a dataset for one cell
	Simulate Simulator

	// AnalysisOf scores models against a cell's dataset
	AnalysisOf AnalysisFactory

	// Search selects and budgets the backend of every cell fit
	Search model.Search
}

// Validate checks the request before any cell work starts.
func (r *Request) Validate() error {
	if r.Base == nil {
		return fmt.Errorf("sensitivity: request has no base model")
	}
	if r.Perturbation == nil {
		return fmt.Errorf("sensitivity: request has no perturbation model")
	}
	if err := r.Perturbation.Validate(); err != nil {
		return fmt.Errorf("sensitivity: perturbation: %w", err)
	}
	if r.Simulate == nil {
		return fmt.Errorf("sensitivity: request has no simulator")
	}
	if r.AnalysisOf == nil {
		return fmt.Errorf("sensitivity: request has no analysis factory")
	}
	for _, name := range r.Perturbation.ComponentNames() {
		if r.Base.Component(name) != nil {
			return fmt.Errorf("sensitivity: perturbation component %q collides with base model", name)
		}
	}
	return nil
}

// Service maps model evidence sensitivity over a grid of injected
// perturbations.  Every cell simulates a dataset with the perturbation fixed
// at the cell value, then fits the base model with and without a free
// perturbation component.  Cells are independent; one failed cell never
// aborts the grid.
type Service struct {
	runner Runner
	config Config
}

// Option customises the sensitivity service.
type Option func(*Service)

// WithConfig sets the configuration for the service.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithWorkers sets the default cell-fit concurrency.
func WithWorkers(workers int) Option {
	return func(s *Service) { s.config.Workers = workers }
}

type cellJob struct {
	index int
}

// Run executes the full grid and returns it.  The grid has exactly
// steps^axes cells regardless of individual cell failures.
func (s *Service) Run(ctx context.Context, request *Request) (*Grid, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	steps := request.Steps
	if steps <= 0 {
		steps = s.config.Steps
	}
	if steps <= 0 {
		return nil, fmt.Errorf("sensitivity: steps must be positive")
	}
	workers := request.Workers
	if workers <= 0 {
		workers = s.config.Workers
	}
	if workers <= 0 {
		workers = 1
	}

	ctx, span := tracing.StartSpan(ctx, "sensitivity.map", "INTERNAL")
	defer span.OnDone()
	span.WithAttributes(map[string]string{"stage": request.Stage})

	grid, err := s.layout(request, steps)
	if err != nil {
		span.SetStatus(err)
		return nil, err
	}
	progress.UpdateCtx(ctx, progress.Delta{Cells: len(grid.Cells)})

	queue := memory.NewQueue[cellJob](memory.Config{QueueBuffer: len(grid.Cells)})
	for i := range grid.Cells {
		if err := queue.Publish(ctx, &cellJob{index: i}); err != nil {
			span.SetStatus(err)
			return nil, err
		}
	}

	var wg sync.WaitGroup
	wg.Add(len(grid.Cells))
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for i := 0; i < workers; i++ {
		go func() {
			for {
				message, err := queue.Consume(workerCtx)
				if err != nil {
					return
				}
				cell := grid.Cells[message.T().index]
				s.runCell(ctx, request, cell)
				if cell.Err != nil {
					progress.UpdateCtx(ctx, progress.Delta{CellsFailed: 1})
				} else {
					progress.UpdateCtx(ctx, progress.Delta{CellsCompleted: 1})
				}
				_ = message.Ack()
				wg.Done()
			}
		}()
	}
	wg.Wait()
	span.SetStatus(nil)
	return grid, nil
}

// layout enumerates axes and cells in row-major order over the perturbation's
// free paths.
func (s *Service) layout(request *Request, steps int) (*Grid, error) {
	paths := request.Perturbation.FreePaths()
	axes := make([]Axis, len(paths))
	for i, path := range paths {
		node, err := request.Perturbation.Resolve(path)
		if err != nil {
			return nil, err
		}
		values := make([]float64, steps)
		for j := 0; j < steps; j++ {
			values[j] = node.Prior().Quantile((float64(j) + 0.5) / float64(steps))
		}
		axes[i] = Axis{Path: path, Values: values}
	}

	total := 1
	for range axes {
		total *= steps
	}
	cells := make([]*Cell, total)
	for flat := 0; flat < total; flat++ {
		index := make([]int, len(axes))
		rest := flat
		for i := len(axes) - 1; i >= 0; i-- {
			index[i] = rest % steps
			rest /= steps
		}
		values := model.Instance{}
		for i, axis := range axes {
			values[axis.Path.String()] = axis.Values[index[i]]
		}
		cells[flat] = &Cell{Index: index, Values: values}
	}
	return &Grid{Axes: axes, Steps: steps, Cells: cells}, nil
}

// runCell simulates the cell's dataset and performs both fits.  Failures are
// recorded on the cell.
func (s *Service) runCell(ctx context.Context, request *Request, cell *Cell) {
	ctx, span := tracing.StartSpan(ctx, "sensitivity.cell", "INTERNAL")
	defer span.OnDone()
	span.WithAttributes(map[string]string{"stage": request.Stage, "cell": cell.Label()})

	truth := model.Instance{}
	for k, v := range request.Simulation {
		truth[k] = v
	}
	for k, v := range cell.Values {
		truth[k] = v
	}
	dataset, err := request.Simulate(ctx, truth)
	if err != nil {
		cell.Err = fmt.Errorf("sensitivity: %v simulation failed: %w", cell.Label(), err)
		span.SetStatus(cell.Err)
		return
	}
	anAnalysis := request.AnalysisOf(dataset)

	cell.Base, err = s.runner.Run(ctx, &runner.Request{
		Stage:      request.Stage + "/" + cell.Label() + "/base",
		PathPrefix: request.PathPrefix,
		Model:      request.Base,
		Analysis:   anAnalysis,
		Search:     request.Search,
	})
	if err != nil {
		cell.Err = err
		span.SetStatus(err)
		return
	}

	perturbed := request.Base.Clone()
	for _, name := range request.Perturbation.ComponentNames() {
		perturbed.Put(name, request.Perturbation.Component(name).Clone())
	}
	cell.Perturbed, err = s.runner.Run(ctx, &runner.Request{
		Stage:      request.Stage + "/" + cell.Label() + "/perturbed",
		PathPrefix: request.PathPrefix,
		Model:      perturbed,
		Analysis:   anAnalysis,
		Search:     request.Search,
	})
	if err != nil {
		cell.Err = err
		span.SetStatus(err)
		return
	}
	span.SetStatus(nil)
}

// New creates a sensitivity service backed by the supplied stage runner.
func New(aRunner Runner, options ...Option) (*Service, error) {
	if aRunner == nil {
		return nil, fmt.Errorf("sensitivity: runner is required")
	}
	s := &Service{runner: aRunner, config: DefaultConfig()}
	for _, option := range options {
		option(s)
	}
	return s, nil
}
