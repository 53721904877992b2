package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-novel-spider/models"
)

// DualWriter mirrors the manifest into a CSV file and a JSONL file.
type DualWriter struct {
	mu      sync.Mutex
	names   []string
	writers []OutputWriter
}

// NewDualWriter opens both manifests; on failure nothing is left open.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("create CSV writer: %w", err)
	}
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("create JSON writer: %w", err)
	}

	return &DualWriter{
		names:   []string{"CSV", "JSON"},
		writers: []OutputWriter{csvWriter, jsonWriter},
	}, nil
}

// Write stops at the first failing output.
func (dw *DualWriter) Write(records []models.DownloadRecord) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	for i, w := range dw.writers {
		if err := w.Write(records); err != nil {
			return fmt.Errorf("%s write failed: %w", dw.names[i], err)
		}
	}
	return nil
}

// Close closes every output and joins the errors.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.each("close", OutputWriter.Close)
}

// Validate checks every output and joins the errors.
func (dw *DualWriter) Validate() error {
	return dw.each("validation", OutputWriter.Validate)
}

func (dw *DualWriter) each(op string, fn func(OutputWriter) error) error {
	var errs []error
	for i, w := range dw.writers {
		if err := fn(w); err != nil {
			errs = append(errs, fmt.Errorf("%s %s failed: %w", dw.names[i], op, err))
		}
	}
	return errors.Join(errs...)
}
