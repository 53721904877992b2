// Package pipeline persists downloaded documents and the download manifest.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aluiziolira/go-novel-spider/models"
)

// ErrPipelineClosed is returned when Save or Record is called after Close.
var ErrPipelineClosed = errors.New("pipeline: closed")

// OutputWriter defines the interface for manifest output.
type OutputWriter interface {
	Write(records []models.DownloadRecord) error
	Close() error
	Validate() error
}

// NewOutputWriter builds the manifest writer for format. "none" returns nil.
func NewOutputWriter(format, filename string) (OutputWriter, error) {
	var (
		w   OutputWriter
		err error
	)
	switch format {
	case "none", "":
		return nil, nil
	case "json":
		w, err = NewJSONWriter(filename)
	case "csv":
		w, err = NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".jsonl"
		w, err = NewDualWriter(filename, jsonFilename)
	case "sqlite":
		w, err = NewSQLiteWriter(filename)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Pipeline writes documents through a TextStore and mirrors every attempt
// into an optional manifest.
type Pipeline struct {
	store    *TextStore
	manifest OutputWriter

	mu      sync.Mutex
	closed  bool
	metrics metrics
}

// NewPipeline builds a pipeline; manifest may be nil.
func NewPipeline(store *TextStore, manifest OutputWriter) *Pipeline {
	return &Pipeline{
		store:    store,
		manifest: manifest,
		metrics:  newMetrics(),
	}
}

// Save persists one decoded document.
func (p *Pipeline) Save(entry models.ListingEntry, doc models.DecodedDocument) (string, error) {
	if p.isClosed() {
		return "", ErrPipelineClosed
	}
	path, err := p.store.Save(entry, doc)
	if err != nil {
		p.metrics.add("write_errors")
		return "", err
	}
	p.metrics.add("written_files")
	return path, nil
}

// Record appends one manifest record.
func (p *Pipeline) Record(rec models.DownloadRecord) error {
	if p.isClosed() {
		return ErrPipelineClosed
	}
	p.metrics.add("records")
	if p.manifest == nil {
		return nil
	}
	if err := p.manifest.Write([]models.DownloadRecord{rec}); err != nil {
		p.metrics.add("manifest_errors")
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Close closes the manifest and prevents more writes.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if p.manifest == nil {
		return nil
	}
	return p.manifest.Close()
}

// Validate checks the manifest output once records were written.
func (p *Pipeline) Validate() error {
	if p.manifest == nil || p.metrics.get("records") == 0 {
		return nil
	}
	return p.manifest.Validate()
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]int {
	return p.metrics.snapshot()
}

func (p *Pipeline) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type metrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMetrics() metrics {
	return metrics{counts: make(map[string]int)}
}

func (m *metrics) add(kind string) {
	m.mu.Lock()
	m.counts[kind]++
	m.mu.Unlock()
}

func (m *metrics) get(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[kind]
}

func (m *metrics) snapshot() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}
