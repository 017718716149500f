// Package fit holds the runtime state of individual fitting runs: the raw
// weighted samples returned by an optimisation backend and the bookkeeping
// record a stage runner persists for every invocation.
package fit

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/viant/chainfit/model"
)

// State represents a fit lifecycle state.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Fit is the bookkeeping record of one stage-runner invocation.
type Fit struct {
	ID             string     `json:"id"`
	Stage          string     `json:"stage"`
	PathPrefix     string     `json:"pathPrefix,omitempty"`
	State          State      `json:"state"`
	FreeParameters int        `json:"freeParameters"`
	ScheduledAt    time.Time  `json:"scheduledAt"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Samples is the weighted posterior sample set produced by an optimisation
// backend.  Values are stored in physical parameter space; column i of every
// row corresponds to Paths[i].  LogEvidence is nil when the backend does not
// estimate evidence or failed to converge.
type Samples struct {
	Paths          []model.Path `json:"paths"`
	Values         [][]float64  `json:"values"`
	LogLikelihoods []float64    `json:"logLikelihoods"`
	Weights        []float64    `json:"weights,omitempty"`
	LogEvidence    *float64     `json:"logEvidence,omitempty"`
}

// Len returns the number of samples.
func (s *Samples) Len() int { return len(s.Values) }

// Column returns the index of the column holding values for path, or -1.
func (s *Samples) Column(path model.Path) int {
	for i, candidate := range s.Paths {
		if candidate.Equal(path) {
			return i
		}
	}
	return -1
}

// Best returns the index and value of the maximum log likelihood sample.
func (s *Samples) Best() (int, float64) {
	best, bestValue := -1, math.Inf(-1)
	for i, value := range s.LogLikelihoods {
		if value > bestValue {
			best, bestValue = i, value
		}
	}
	return best, bestValue
}

// Quantile returns the weighted quantile q of the supplied column.  Uniform
// weights are assumed when Weights is empty.
func (s *Samples) Quantile(column int, q float64) (float64, error) {
	if column < 0 || column >= len(s.Paths) {
		return 0, fmt.Errorf("fit: column %v out of range", column)
	}
	if s.Len() == 0 {
		return 0, fmt.Errorf("fit: no samples")
	}
	type weighted struct {
		value  float64
		weight float64
	}
	entries := make([]weighted, 0, s.Len())
	total := 0.0
	for i, row := range s.Values {
		weight := 1.0
		if len(s.Weights) == len(s.Values) {
			weight = s.Weights[i]
		}
		if weight <= 0 {
			continue
		}
		entries = append(entries, weighted{value: row[column], weight: weight})
		total += weight
	}
	if total <= 0 {
		return 0, fmt.Errorf("fit: samples carry no weight")
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].value < entries[j].value })
	target := q * total
	cumulative := 0.0
	for _, entry := range entries {
		cumulative += entry.weight
		if cumulative >= target {
			return entry.value, nil
		}
	}
	return entries[len(entries)-1].value, nil
}

// Validate reports structural inconsistencies in the sample set.
func (s *Samples) Validate() error {
	if len(s.Values) != len(s.LogLikelihoods) {
		return fmt.Errorf("fit: %v sample rows but %v log likelihoods", len(s.Values), len(s.LogLikelihoods))
	}
	if len(s.Weights) != 0 && len(s.Weights) != len(s.Values) {
		return fmt.Errorf("fit: %v sample rows but %v weights", len(s.Values), len(s.Weights))
	}
	for i, row := range s.Values {
		if len(row) != len(s.Paths) {
			return fmt.Errorf("fit: sample row %v has %v columns, expected %v", i, len(row), len(s.Paths))
		}
	}
	return nil
}

// SigmaToProbability converts a gaussian sigma level into the enclosed
// central probability mass, e.g. 1 sigma -> 0.6827.
func SigmaToProbability(sigma float64) float64 {
	return math.Erf(sigma / math.Sqrt2)
}
