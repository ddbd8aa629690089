package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// newEncoder returns a JSON encoder that leaves '&', '<' and '>' alone, since
// post URLs and captions are full of them.
func newEncoder(w io.Writer, indent string) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc
}

// JSONWriter buffers items and writes them as one JSON document: the item
// itself when there is exactly one, an array otherwise.
type JSONWriter struct {
	w       *bufio.Writer
	indent  string
	items   []any
	flushed bool
}

// NewJSONWriter creates a JSON writer. indent is ignored unless pretty is set.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	if !pretty {
		indent = ""
	}
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		indent: indent,
		items:  make([]any, 0),
	}
}

// Write buffers a single item.
func (w *JSONWriter) Write(data any) error {
	w.items = append(w.items, data)
	return nil
}

// WriteAll buffers multiple items.
func (w *JSONWriter) WriteAll(data []any) error {
	w.items = append(w.items, data...)
	return nil
}

// Flush writes the buffered items. Flushing again with nothing new buffered
// writes nothing.
func (w *JSONWriter) Flush() error {
	if w.flushed && len(w.items) == 0 {
		return w.w.Flush()
	}

	var doc any = w.items
	if len(w.items) == 1 {
		doc = w.items[0]
	}

	if err := newEncoder(w.w, w.indent).Encode(doc); err != nil {
		return err
	}
	w.items = w.items[:0]
	w.flushed = true
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes newline-delimited JSON, one item per line.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	return &JSONLWriter{
		w:   bw,
		enc: newEncoder(bw, ""),
	}
}

// Write writes a single item as a JSON line and flushes it.
func (w *JSONLWriter) Write(data any) error {
	if err := w.enc.Encode(data); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes multiple items as JSON lines.
func (w *JSONLWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
