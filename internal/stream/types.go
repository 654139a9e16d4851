// Package stream emits generated records incrementally with bounded memory.
// It drives a record source in sub-batches, encodes each record into pooled
// buffers and hands filled buffers to the response layer as chunks.
//
// Key Features:
// - Document encoding: shape prefix, comma separated items, shape suffix
// - Line encoding: one JSON object per line, or one server-sent event per record
// - Buffer pooling to minimize GC pressure
// - Context-aware cancellation checked before every batch and record
// - Compatible with middleware.StreamResponse
//
// Usage Example:
//
//	streamer := stream.NewStreamer(stream.DefaultChunkConfig())
//	session := stream.NewDocumentSession(builder, shape, sizeKB, common.Deterministic, streamer.GetConfig())
//	streamResp := streamer.Stream(ctx, session)
package stream

import (
	"errors"
	"time"

	"datagen/common"
)

// ErrDeadlineExceeded is reported when a session runs past its generation
// deadline. The document is still closed before the stream ends.
var ErrDeadlineExceeded = errors.New("generation deadline exceeded")

// BatchSource produces sub-batches of records.
//
// Implementation Notes:
//   - start is the index of the first record of the batch
//   - sizeKB is the approximate serialized size of the batch
//   - generator.Builder satisfies this interface
type BatchSource interface {
	BuildFrom(start int, sizeKB float64, mode common.Mode) (common.Series, error)
}

// Encoding frames the records of one stream.
//
// Methods append to the buffer they are given; they never write to the
// network directly.
type Encoding interface {
	// Open writes whatever precedes the first record.
	Open(buf *[]byte) error

	// Item writes one record. first is true only for the first record of
	// the whole stream.
	Item(buf *[]byte, r common.Record, first bool) error

	// Close writes whatever follows the last record, given the number of
	// records written.
	Close(buf *[]byte, count int) error

	// Abort terminates the stream after a failure so that what the client
	// already received stays well-formed.
	Abort(buf *[]byte, count int, cause error) error
}

// ChunkConfig defines configuration for chunk-based streaming.
// All fields are optional and have sensible defaults.
type ChunkConfig struct {
	// ChunkThreshold is the size in bytes at which a chunk is sent.
	// When the buffer exceeds this size, it's flushed to the client.
	//
	// Default: 32 * 1024 (32KB)
	ChunkThreshold int

	// BatchKB is the approximate size of each generated sub-batch.
	// It bounds how many records are resident at once.
	//
	// Default: 1024 (1MB)
	BatchKB float64

	// BufferSize is the initial capacity of buffers from the pool.
	//
	// Default: 50 * 1024 (50KB)
	BufferSize int

	// ChannelBuffer is the buffer size for the chunk channel.
	//
	// Default: 4
	ChannelBuffer int

	// Pause is the cooperative pause between sub-batches. Zero yields the
	// processor without sleeping.
	Pause time.Duration
}

// DefaultChunkConfig returns the default streaming configuration.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkThreshold: 32 * 1024,
		BatchKB:        1024,
		BufferSize:     50 * 1024,
		ChannelBuffer:  4,
	}
}

// Validate checks if the configuration is valid and applies defaults.
func (c *ChunkConfig) Validate() error {
	if c.ChunkThreshold <= 0 {
		c.ChunkThreshold = 32 * 1024
	}
	if c.BatchKB <= 0 {
		c.BatchKB = 1024
	}
	if c.BatchKB < 1 {
		return errors.New("batch size must be at least 1KB")
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 50 * 1024
	}
	if c.ChannelBuffer <= 0 {
		c.ChannelBuffer = 4
	}
	if c.Pause < 0 {
		return errors.New("pause must not be negative")
	}
	return nil
}

// BufferPool manages a pool of byte buffers to reduce allocations.
// It uses sync.Pool internally for efficient reuse.
type BufferPool interface {
	// Get retrieves a buffer from the pool.
	// The buffer is reset to zero length but retains its capacity.
	Get() *[]byte

	// Put returns a buffer to the pool for reuse.
	// The buffer should not be used after calling Put().
	// Passing nil is safe (no-op).
	Put(buf *[]byte)

	// GetInitialSize returns the initial capacity of buffers from this pool.
	GetInitialSize() int
}
