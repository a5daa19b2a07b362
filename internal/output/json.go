package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter writes all records as one JSON array on Close. An empty result
// is written as [] so consumers can always decode a list.
type JSONWriter struct {
	w       *bufio.Writer
	pretty  bool
	indent  string
	records []Record
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:       bufio.NewWriter(w),
		pretty:  pretty,
		indent:  indent,
		records: make([]Record, 0),
	}
}

// Write buffers a batch.
func (w *JSONWriter) Write(records []Record) error {
	w.records = append(w.records, records...)
	return nil
}

// Close writes the buffered records.
func (w *JSONWriter) Close() error {
	var (
		data []byte
		err  error
	)
	if w.pretty {
		data, err = json.MarshalIndent(w.records, "", w.indent)
	} else {
		data, err = json.Marshal(w.records)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(data); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// JSONLWriter streams one record per line as batches arrive.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	return &JSONLWriter{w: bw, enc: json.NewEncoder(bw)}
}

// Write encodes each record on its own line and flushes the batch.
func (w *JSONLWriter) Write(records []Record) error {
	for _, r := range records {
		if err := w.enc.Encode(r); err != nil {
			return err
		}
	}
	return w.w.Flush()
}

// Close flushes the buffer.
func (w *JSONLWriter) Close() error {
	return w.w.Flush()
}
