package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Texter is implemented by values with a human-readable rendering.
type Texter interface {
	Text() string
}

// TextWriter writes each item's Text rendering, separated by a blank line.
// Items without one are printed with %v.
type TextWriter struct {
	w       *bufio.Writer
	written int
}

// NewTextWriter creates a text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// Write renders a single item.
func (w *TextWriter) Write(data any) error {
	var text string
	if t, ok := data.(Texter); ok {
		text = t.Text()
	} else {
		text = fmt.Sprintf("%v", data)
	}

	if w.written > 0 {
		if _, err := w.w.WriteString("\n"); err != nil {
			return err
		}
	}
	if _, err := w.w.WriteString(strings.TrimRight(text, "\n") + "\n"); err != nil {
		return err
	}
	w.written++
	return w.w.Flush()
}

// WriteAll renders multiple items.
func (w *TextWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *TextWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *TextWriter) Close() error {
	return w.Flush()
}
