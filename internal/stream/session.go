package stream

import (
	"math"
	"sync/atomic"
	"time"

	"datagen/common"
)

// unitBytes is the smallest sub-batch the source accepts (1KB).
const unitBytes = 1024

// Session is the state of one streamed response. It is owned by a single
// request and advanced one sub-batch at a time.
//
// Accounting Notes:
//   - generated advances by the size each sub-batch was asked for, not by
//     the bytes it actually produced, so it drifts from the true output
//   - the loop ends once less than one unit of budget remains
type Session struct {
	source   BatchSource
	encoding Encoding
	mode     common.Mode

	targetBytes int64
	batchBytes  int64
	generated   int64
	next        int
	deadline    time.Time

	written atomic.Int64
}

// NewSession creates a session streaming about sizeKB kilobytes from source
// framed by encoding, in sub-batches of at most batchKB.
func NewSession(source BatchSource, encoding Encoding, sizeKB, batchKB float64, mode common.Mode) *Session {
	return &Session{
		source:      source,
		encoding:    encoding,
		mode:        mode,
		targetBytes: int64(sizeKB * 1024),
		batchBytes:  int64(batchKB * 1024),
	}
}

// WithDeadline makes NextBatch fail with ErrDeadlineExceeded once t passes.
// A zero t disables the deadline.
func (s *Session) WithDeadline(t time.Time) *Session {
	s.deadline = t
	return s
}

// Done reports whether the remaining budget is below one unit.
func (s *Session) Done() bool {
	return s.targetBytes-s.generated < unitBytes
}

// NextBatch generates the next sub-batch. Records continue the index
// sequence of the previous batch.
func (s *Session) NextBatch() (common.Series, error) {
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return nil, ErrDeadlineExceeded
	}

	request := min(s.batchBytes, s.targetBytes-s.generated)
	sizeKB := math.Max(float64(request)/1024, 1)

	series, err := s.source.BuildFrom(s.next, sizeKB, s.mode)
	if err != nil {
		return nil, err
	}

	s.next += len(series)
	s.generated += request
	return series, nil
}

// Open writes the stream preamble.
func (s *Session) Open(buf *[]byte) error {
	return s.encoding.Open(buf)
}

// Append encodes one record and counts it as written.
func (s *Session) Append(buf *[]byte, r common.Record) error {
	if err := s.encoding.Item(buf, r, s.written.Load() == 0); err != nil {
		return err
	}
	s.written.Add(1)
	return nil
}

// Close writes the stream epilogue for the records written so far.
func (s *Session) Close(buf *[]byte) error {
	return s.encoding.Close(buf, s.Written())
}

// Abort writes the failure epilogue for the records written so far.
func (s *Session) Abort(buf *[]byte, cause error) error {
	return s.encoding.Abort(buf, s.Written(), cause)
}

// Written returns the number of records encoded so far. It is safe to call
// from another goroutine.
func (s *Session) Written() int {
	return int(s.written.Load())
}

// GeneratedBytes returns the estimated number of bytes produced so far.
func (s *Session) GeneratedBytes() int64 {
	return s.generated
}

// TargetBytes returns the requested byte budget.
func (s *Session) TargetBytes() int64 {
	return s.targetBytes
}
