// Package memory provides the in-memory fit-record store used by default and
// in tests.
package memory

import (
	"context"

	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/service/dao"
	"github.com/viant/chainfit/service/dao/store"
)

// Service stores fit records in memory, keyed by fit ID.
type Service struct {
	*store.MemoryStore[string, fit.Fit]
}

// Ensure Service implements dao.Service
var _ dao.Service[string, fit.Fit] = (*Service)(nil)

// List returns records matching the optional "stage" and "state" filters.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*fit.Fit, error) {
	records, err := s.MemoryStore.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(parameters) == 0 {
		return records, nil
	}
	var filtered []*fit.Fit
	for _, record := range records {
		if matches(record, parameters) {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

func matches(record *fit.Fit, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		switch parameter.Name {
		case "stage":
			if !parameter.Matches(record.Stage) {
				return false
			}
		case "state":
			if !parameter.Matches(string(record.State)) {
				return false
			}
		}
	}
	return true
}

// New creates an in-memory fit-record service.
func New() *Service {
	return &Service{MemoryStore: store.NewMemoryStore[string, fit.Fit](func(f *fit.Fit) string { return f.ID })}
}
