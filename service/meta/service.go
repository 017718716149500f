// Package meta loads declarative documents (plans, width policies, configs)
// from any afs-addressable location, expanding ${env.KEY} expressions before
// decoding.
package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service loads YAML documents relative to a base URL.
type Service struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
}

// Load downloads the document at URI (joined with the base URL unless URI is
// absolute), expands environment expressions and decodes the YAML into
// target.
func (s *Service) Load(ctx context.Context, URI string, target interface{}) error {
	location := s.normalize(URI)
	data, err := s.fs.DownloadWithURL(ctx, location, s.options...)
	if err != nil {
		return fmt.Errorf("meta: failed to load %v: %w", location, err)
	}
	data = []byte(expandEnvExpr(string(data)))
	if err = yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("meta: failed to decode %v: %w", location, err)
	}
	return nil
}

// Exists checks whether the document at URI exists.
func (s *Service) Exists(ctx context.Context, URI string) (bool, error) {
	return s.fs.Exists(ctx, s.normalize(URI), s.options...)
}

func (s *Service) normalize(URI string) string {
	if strings.Contains(URI, "://") || s.baseURL == "" {
		return URI
	}
	return url.Join(s.baseURL, URI)
}

// New creates a meta service rooted at baseURL; options are passed to every
// file system operation (e.g. an embed.FS).
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs, baseURL: baseURL, options: options}
}
