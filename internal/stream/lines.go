package stream

import (
	"fmt"
	"strconv"

	"datagen/common"

	"github.com/gin-contrib/sse"
	json "github.com/json-iterator/go"
)

// Framing selects how a line session delimits records.
type Framing int

const (
	// FramingNDJSON writes one JSON object per line.
	FramingNDJSON Framing = iota
	// FramingEvents writes one server-sent event per record and a final
	// "done" event.
	FramingEvents
)

// ContentType returns the response media type for the framing.
func (f Framing) ContentType() string {
	if f == FramingEvents {
		return "text/event-stream"
	}
	return "application/x-ndjson"
}

// Event names used by FramingEvents.
const (
	EventRecord = "record"
	EventDone   = "done"
	EventError  = "error"
)

// NewLineSession creates a session emitting one record per line or event,
// independent of any document shape.
func NewLineSession(source BatchSource, framing Framing, sizeKB float64, mode common.Mode, config ChunkConfig) *Session {
	var enc Encoding = ndjsonEncoding{}
	if framing == FramingEvents {
		enc = eventEncoding{}
	}
	return NewSession(source, enc, sizeKB, config.BatchKB, mode)
}

type ndjsonEncoding struct{}

func (ndjsonEncoding) Open(*[]byte) error { return nil }

func (ndjsonEncoding) Item(buf *[]byte, r common.Record, _ bool) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("JSON marshal error: %w", err)
	}
	*buf = append(*buf, data...)
	*buf = append(*buf, '\n')
	return nil
}

func (ndjsonEncoding) Close(*[]byte, int) error { return nil }

// Abort writes nothing: every line already sent is complete on its own.
func (ndjsonEncoding) Abort(*[]byte, int, error) error { return nil }

type eventEncoding struct{}

func (eventEncoding) Open(*[]byte) error { return nil }

func (eventEncoding) Item(buf *[]byte, r common.Record, _ bool) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("JSON marshal error: %w", err)
	}
	return sse.Encode(&sliceWriter{buf: buf}, sse.Event{
		Id:    strconv.Itoa(r.IntID),
		Event: EventRecord,
		Data:  string(data),
	})
}

type eventSummary struct {
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

func (eventEncoding) Close(buf *[]byte, count int) error {
	return writeSummaryEvent(buf, EventDone, eventSummary{Records: count})
}

func (eventEncoding) Abort(buf *[]byte, count int, cause error) error {
	return writeSummaryEvent(buf, EventError, eventSummary{Records: count, Error: cause.Error()})
}

func writeSummaryEvent(buf *[]byte, name string, summary eventSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("JSON marshal error: %w", err)
	}
	return sse.Encode(&sliceWriter{buf: buf}, sse.Event{Event: name, Data: string(data)})
}

// sliceWriter appends to a pooled buffer.
type sliceWriter struct {
	buf *[]byte
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

func (w *sliceWriter) WriteString(s string) (int, error) {
	*w.buf = append(*w.buf, s...)
	return len(s), nil
}
