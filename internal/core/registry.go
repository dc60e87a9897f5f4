package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Decoder turns a file buffer into LogicalRecords.
type Decoder interface {
	CanHandle(mediaType string) bool
	Decode(data []byte) ([]LogicalRecord, error)
}

// Pipeline is everything needed to import one file format.
type Pipeline struct {
	Name        string // "csv", "xml"
	Decoder     Decoder
	Validator   Validator
	Transformer Transformer
	Persister   Persister
}

// Selector maps declared media types to pipelines.
type Selector struct {
	mu        sync.RWMutex
	pipelines []Pipeline
}

// NewSelector creates a selector with the given pipelines registered.
func NewSelector(pipelines ...Pipeline) *Selector {
	s := &Selector{}
	for _, p := range pipelines {
		s.Register(p)
	}
	return s
}

// DefaultPipelines returns the CSV and SpreadsheetML pipelines. Both share
// the record validator, the transformer and the given persister.
func DefaultPipelines(persister Persister) []Pipeline {
	validator := NewRecordValidator(nil)
	transformer := RecordTransformer{}
	return []Pipeline{
		{Name: "csv", Decoder: CSVDecoder{}, Validator: validator, Transformer: transformer, Persister: persister},
		{Name: "xml", Decoder: XMLSpreadsheetDecoder{}, Validator: validator, Transformer: transformer, Persister: persister},
	}
}

// Register adds a pipeline.
// Panics if a pipeline with the same name is already registered.
func (s *Selector) Register(p Pipeline) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.pipelines {
		if existing.Name == p.Name {
			panic(fmt.Sprintf("pipeline already registered: %s", p.Name))
		}
	}
	s.pipelines = append(s.pipelines, p)
}

// Select returns the first pipeline whose decoder handles mediaType.
// Returns *UnsupportedFormatError when none does.
func (s *Selector) Select(mediaType string) (Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.pipelines {
		if p.Decoder.CanHandle(mediaType) {
			return p, nil
		}
	}
	return Pipeline{}, &UnsupportedFormatError{MediaType: mediaType}
}

// Formats returns the registered pipeline names.
// Sorted alphabetically.
func (s *Selector) Formats() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.pipelines))
	for _, p := range s.pipelines {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// MediaTypeForFile guesses the media type of an export from its extension.
// Unknown extensions yield "".
func MediaTypeForFile(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".xml":
		return "application/xml"
	}
	return ""
}
