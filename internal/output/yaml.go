package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes all records as one YAML sequence on Close.
type YAMLWriter struct {
	w       *bufio.Writer
	records []Record
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:       bufio.NewWriter(w),
		records: make([]Record, 0),
	}
}

// Write buffers a batch.
func (w *YAMLWriter) Write(records []Record) error {
	w.records = append(w.records, records...)
	return nil
}

// Close writes the buffered records.
func (w *YAMLWriter) Close() error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	if err := encoder.Encode(w.records); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
