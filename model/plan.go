package model

import (
	"fmt"
)

// Plan is a declarative definition of a chained fitting pipeline, typically
// loaded from a YAML document.  Each stage names the components it introduces
// and the components it carries forward from earlier stages via pass rules.
type Plan struct {
	// Source provides information about the origin of the plan
	Source *Source `json:"source,omitempty" yaml:"source,omitempty"`

	// Name is the unique identifier for the plan
	Name string `json:"name" yaml:"name"`

	// Description provides a human-readable description of the plan
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Version specifies the plan version
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Stages defines the ordered fitting stages
	Stages []*PlanStage `json:"stages" yaml:"stages"`
}

// Source describes where a plan definition was loaded from.
type Source struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// PlanStage is one fitting stage of a plan.
type PlanStage struct {
	// Name identifies the stage; also used as the persistence sub-path
	Name string `json:"name" yaml:"name"`

	// Search selects and budgets the optimisation backend
	Search Search `json:"search" yaml:"search"`

	// New maps component name to a registered component builder providing
	// fresh default priors, e.g. {"lens.shear": "shear"}
	New map[string]string `json:"new,omitempty" yaml:"new,omitempty"`

	// Passes carries components forward from earlier stages, expressed as
	// pass rules, e.g. "lens.mass[model](source)"
	Passes []string `json:"passes,omitempty" yaml:"passes,omitempty"`
}

// Search budgets an optimisation backend run.
type Search struct {
	// Backend names a registered optimisation backend
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Samples is the sample budget
	Samples int `json:"samples,omitempty" yaml:"samples,omitempty"`

	// Walkers is the population size for population based backends
	Walkers int `json:"walkers,omitempty" yaml:"walkers,omitempty"`

	// Tolerance is the evidence/likelihood stopping tolerance
	Tolerance float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`

	// Cores is the parallelism degree delegated to the backend
	Cores int `json:"cores,omitempty" yaml:"cores,omitempty"`

	// Seed makes a run reproducible when non zero
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Validate performs a best-effort structural validation of the plan.  The
// returned slice is empty when the plan is sound; otherwise it contains
// human-readable error descriptions.
func (p *Plan) Validate() []error {
	var issues []error
	if len(p.Stages) == 0 {
		issues = append(issues, fmt.Errorf("plan has no stages"))
		return issues
	}
	seen := map[string]bool{}
	for i, stage := range p.Stages {
		if stage.Name == "" {
			issues = append(issues, fmt.Errorf("stage %d has no name", i))
			continue
		}
		if seen[stage.Name] {
			issues = append(issues, fmt.Errorf("duplicate stage name %s", stage.Name))
		}
		if len(stage.New) == 0 && len(stage.Passes) == 0 {
			issues = append(issues, fmt.Errorf("stage %s defines no components", stage.Name))
		}
		seen[stage.Name] = true
	}
	return issues
}

// StageNames returns stage names in plan order.
func (p *Plan) StageNames() []string {
	names := make([]string, 0, len(p.Stages))
	for _, stage := range p.Stages {
		names = append(names, stage.Name)
	}
	return names
}

// Stage returns a stage by name or nil.
func (p *Plan) Stage(name string) *PlanStage {
	for _, stage := range p.Stages {
		if stage.Name == name {
			return stage
		}
	}
	return nil
}

// NewPlan creates a new plan with the given name.
func NewPlan(name string) *Plan {
	return &Plan{Name: name}
}

// WithStage appends a stage to the plan.
func (p *Plan) WithStage(stage *PlanStage) *Plan {
	p.Stages = append(p.Stages, stage)
	return p
}
