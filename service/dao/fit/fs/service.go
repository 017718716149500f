// Package fs persists fit records as JSON documents on any afs-addressable
// file system (file, mem, s3, gs, embed...).
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/chainfit/runtime/fit"
	"github.com/viant/chainfit/service/dao"
)

// Service implements a filesystem-based fit-record store.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

// Ensure Service implements dao.Service
var _ dao.Service[string, fit.Fit] = (*Service)(nil)

// Save persists a fit record.
func (s *Service) Save(ctx context.Context, record *fit.Fit) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal fit %v: %w", record.ID, err)
	}
	location := s.recordURL(record.ID)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save fit to %v: %w", location, err)
	}
	return nil
}

// Load retrieves a fit record by ID.
func (s *Service) Load(ctx context.Context, id string) (*fit.Fit, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	location := s.recordURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check fit %v: %w", id, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read fit %v: %w", id, err)
	}
	record := &fit.Fit{}
	if err = json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fit %v: %w", id, err)
	}
	return record, nil
}

// Delete removes a fit record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Delete(ctx, s.recordURL(id))
}

// List returns records matching the optional "stage" and "state" filters.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*fit.Fit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list fits: %w", err)
	}
	var records []*fit.Fit
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.DownloadWithURL(ctx, object.URL())
		if err != nil {
			return nil, fmt.Errorf("failed to read %v: %w", object.URL(), err)
		}
		record := &fit.Fit{}
		if err = json.Unmarshal(data, record); err != nil {
			continue
		}
		if matches(record, parameters) {
			records = append(records, record)
		}
	}
	return records, nil
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

func (s *Service) recordURL(id string) string {
	return url.Join(s.baseURL, id+".json")
}

// New creates a filesystem fit-record service rooted at baseURL.
func New(baseURL string) *Service {
	return &Service{baseURL: baseURL, fs: afs.New()}
}
