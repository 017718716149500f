// Package plan loads declarative pipeline plans from YAML documents.  Parsed
// plans are cached by location; Refresh and Upsert implement the hot-swap
// idiom so a running service can pick up edited plans without a restart.
package plan

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/chainfit/internal/yml"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/service/dao/plan/passes"
	"github.com/viant/chainfit/service/meta"
	"github.com/viant/toolbox"
	"gopkg.in/yaml.v3"
)

// Service is the plan DAO.
type Service struct {
	metaService *meta.Service
	mux         sync.RWMutex
	cache       map[string]*model.Plan
}

// DecodeYAML decodes a plan from YAML.
func (s *Service) DecodeYAML(encoded []byte) (*model.Plan, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	return s.ParsePlan("", &node)
}

// Load loads a plan from YAML at the specified URL, consulting the cache
// first.
func (s *Service) Load(ctx context.Context, URL string) (*model.Plan, error) {
	if URL != "" {
		if filepath.Ext(URL) == "" {
			URL += ".yaml"
		}
		s.mux.RLock()
		cached, ok := s.cache[URL]
		s.mux.RUnlock()
		if ok {
			return cached, nil
		}
	}
	var node yaml.Node
	if err := s.metaService.Load(ctx, URL, &node); err != nil {
		return nil, fmt.Errorf("failed to load plan from %s: %w", URL, err)
	}
	plan, err := s.ParsePlan(URL, &node)
	if err != nil {
		return nil, err
	}
	s.Upsert(URL, plan)
	return plan, nil
}

// Refresh discards the cached copy of the plan at location; the next Load
// reloads it through the meta service.
func (s *Service) Refresh(location string) {
	if filepath.Ext(location) == "" {
		location += ".yaml"
	}
	s.mux.Lock()
	delete(s.cache, location)
	s.mux.Unlock()
}

// Upsert stores a plan in the cache under location, replacing any previous
// definition.
func (s *Service) Upsert(location string, plan *model.Plan) {
	if location == "" {
		return
	}
	if filepath.Ext(location) == "" {
		location += ".yaml"
	}
	s.mux.Lock()
	s.cache[location] = plan
	s.mux.Unlock()
}

// ParsePlan converts a YAML document into a validated plan.
func (s *Service) ParsePlan(URL string, node *yaml.Node) (*model.Plan, error) {
	plan := &model.Plan{
		Source: &model.Source{URL: URL},
		Name:   getPlanNameFromURL(URL),
	}
	if err := s.parsePlan((*yml.Node)(node), plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan from %s: %w", URL, err)
	}
	if issues := plan.Validate(); len(issues) > 0 {
		return nil, issues[0]
	}
	if err := validatePasses(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// getPlanNameFromURL extracts the plan name from URL (file name without extension)
func getPlanNameFromURL(URL string) string {
	base := filepath.Base(URL)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// validatePasses parses every stage's pass rules, checking each rule against
// the stages declared before it.
func validatePasses(plan *model.Plan) error {
	prior := map[string]bool{}
	for _, stage := range plan.Stages {
		if _, err := passes.ParseAll(stage.Passes, prior); err != nil {
			return fmt.Errorf("plan %s stage %s: %w", plan.Name, stage.Name, err)
		}
		prior[stage.Name] = true
	}
	return nil
}

// parsePlan converts a YAML node to the plan model
func (s *Service) parsePlan(node *yml.Node, plan *model.Plan) error {
	rootNode := node
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		rootNode = (*yml.Node)(node.Content[0])
	}
	return rootNode.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "name":
			if valueNode.Kind == yaml.ScalarNode {
				plan.Name = valueNode.Value
			}
		case "description":
			if valueNode.Kind == yaml.ScalarNode {
				plan.Description = valueNode.Value
			}
		case "version":
			if valueNode.Kind == yaml.ScalarNode {
				plan.Version = valueNode.Value
			}
		case "stages":
			if valueNode.Kind != yaml.MappingNode {
				return fmt.Errorf("stages node should be a mapping")
			}
			return valueNode.Pairs(func(stageName string, stageNode *yml.Node) error {
				stage, err := parseStage(stageName, stageNode)
				if err != nil {
					return err
				}
				plan.Stages = append(plan.Stages, stage)
				return nil
			})
		}
		return nil
	})
}

// parseStage converts a YAML node to a plan stage
func parseStage(name string, node *yml.Node) (*model.PlanStage, error) {
	stage := &model.PlanStage{Name: name}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("stage %s node should be a mapping", name)
	}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "search":
			search, err := parseSearch(valueNode)
			if err != nil {
				return fmt.Errorf("stage %s: %w", name, err)
			}
			stage.Search = search
		case "new":
			if valueNode.Kind != yaml.MappingNode {
				return fmt.Errorf("stage %s: new should be a mapping", name)
			}
			stage.New = map[string]string{}
			return valueNode.Pairs(func(component string, builderNode *yml.Node) error {
				stage.New[component] = builderNode.Value
				return nil
			})
		case "passes":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("stage %s: passes should be a sequence", name)
			}
			return valueNode.Items(func(_ int, item *yml.Node) error {
				stage.Passes = append(stage.Passes, item.Value)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stage, nil
}

// parseSearch converts a YAML node to a search budget
func parseSearch(node *yml.Node) (model.Search, error) {
	search := model.Search{}
	if node.Kind != yaml.MappingNode {
		return search, fmt.Errorf("search node should be a mapping")
	}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		value := valueNode.Interface()
		switch strings.ToLower(key) {
		case "backend":
			search.Backend = valueNode.Value
		case "samples":
			samples, err := toolbox.ToInt(value)
			if err != nil {
				return fmt.Errorf("invalid samples: %w", err)
			}
			search.Samples = samples
		case "walkers":
			walkers, err := toolbox.ToInt(value)
			if err != nil {
				return fmt.Errorf("invalid walkers: %w", err)
			}
			search.Walkers = walkers
		case "tolerance":
			tolerance, err := toolbox.ToFloat(value)
			if err != nil {
				return fmt.Errorf("invalid tolerance: %w", err)
			}
			search.Tolerance = tolerance
		case "cores":
			cores, err := toolbox.ToInt(value)
			if err != nil {
				return fmt.Errorf("invalid cores: %w", err)
			}
			search.Cores = cores
		case "seed":
			seed, err := toolbox.ToInt(value)
			if err != nil {
				return fmt.Errorf("invalid seed: %w", err)
			}
			search.Seed = int64(seed)
		}
		return nil
	})
	return search, err
}

// New creates a new plan service instance
func New(opts ...Option) *Service {
	ret := &Service{
		metaService: meta.New(afs.New(), ""),
		cache:       map[string]*model.Plan{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
