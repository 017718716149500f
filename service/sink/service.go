// Package sink persists stage artifacts (sample tables, fit summaries) to a
// hierarchical path-addressed store.  Every stage writes under its own
// sub-path derived from the run prefix and stage name, so no two stages ever
// collide.  Backed by afs, so file, mem and cloud schemes all work.
package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/chainfit/runtime/fit"
	"gopkg.in/yaml.v3"
)

// Summary is the per-stage document written next to the raw samples.
type Summary struct {
	Stage            string             `yaml:"stage"`
	FitID            string             `yaml:"fitId"`
	FreeParameters   int                `yaml:"freeParameters"`
	LogEvidence      *float64           `yaml:"logEvidence,omitempty"`
	MaxLogLikelihood float64            `yaml:"maxLogLikelihood"`
	Medians          map[string]float64 `yaml:"medians,omitempty"`
}

// Service writes artifacts under a base URL.
type Service struct {
	fs      afs.Service
	baseURL string
}

// StageURL returns the artifact location of a stage.
func (s *Service) StageURL(pathPrefix, stage string) string {
	if pathPrefix == "" {
		return url.Join(s.baseURL, stage)
	}
	return url.Join(s.baseURL, pathPrefix, stage)
}

// SaveSummary writes the stage summary as YAML.
func (s *Service) SaveSummary(ctx context.Context, pathPrefix, stage string, summary *Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("sink: failed to marshal summary for %v: %w", stage, err)
	}
	location := url.Join(s.StageURL(pathPrefix, stage), "summary.yaml")
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("sink: failed to write %v: %w", location, err)
	}
	return nil
}

// SaveSamples writes the raw weighted samples as a CSV table: one column per
// parameter path plus logLikelihood and weight.
func (s *Service) SaveSamples(ctx context.Context, pathPrefix, stage string, samples *fit.Samples) error {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	header := make([]string, 0, len(samples.Paths)+2)
	for _, path := range samples.Paths {
		header = append(header, path.String())
	}
	header = append(header, "logLikelihood", "weight")
	if err := writer.Write(header); err != nil {
		return err
	}
	for i, row := range samples.Values {
		record := make([]string, 0, len(header))
		for _, value := range row {
			record = append(record, strconv.FormatFloat(value, 'g', -1, 64))
		}
		record = append(record, strconv.FormatFloat(samples.LogLikelihoods[i], 'g', -1, 64))
		weight := 1.0
		if len(samples.Weights) == len(samples.Values) {
			weight = samples.Weights[i]
		}
		record = append(record, strconv.FormatFloat(weight, 'g', -1, 64))
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	location := url.Join(s.StageURL(pathPrefix, stage), "samples.csv")
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(buffer.Bytes())); err != nil {
		return fmt.Errorf("sink: failed to write %v: %w", location, err)
	}
	return nil
}

// Exists checks whether an artifact was written for the stage.
func (s *Service) Exists(ctx context.Context, pathPrefix, stage, artifact string) (bool, error) {
	return s.fs.Exists(ctx, url.Join(s.StageURL(pathPrefix, stage), artifact))
}

// New creates a sink rooted at baseURL.
func New(baseURL string) *Service {
	return &Service{fs: afs.New(), baseURL: baseURL}
}
