package stream

import (
	"fmt"

	"datagen/common"
	"datagen/internal/shape"

	json "github.com/json-iterator/go"
)

// documentEncoding writes one streamable document shape.
type documentEncoding struct {
	shape shape.Streamable
}

// NewDocumentSession creates a session emitting the given shape.
func NewDocumentSession(source BatchSource, s shape.Streamable, sizeKB float64, mode common.Mode, config ChunkConfig) *Session {
	return NewSession(source, &documentEncoding{shape: s}, sizeKB, config.BatchKB, mode)
}

func (e *documentEncoding) Open(buf *[]byte) error {
	*buf = append(*buf, e.shape.Prefix()...)
	return nil
}

func (e *documentEncoding) Item(buf *[]byte, r common.Record, first bool) error {
	data, err := json.Marshal(e.shape.Item(r))
	if err != nil {
		return fmt.Errorf("JSON marshal error: %w", err)
	}
	if !first {
		*buf = append(*buf, ',')
	}
	*buf = append(*buf, data...)
	return nil
}

func (e *documentEncoding) Close(buf *[]byte, count int) error {
	suffix, err := e.shape.Suffix(count)
	if err != nil {
		return err
	}
	*buf = append(*buf, suffix...)
	return nil
}

// Abort closes the document exactly as Close does: a truncated but
// parseable document is the only useful thing left to send.
func (e *documentEncoding) Abort(buf *[]byte, count int, _ error) error {
	return e.Close(buf, count)
}
