package stream

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"datagen/middleware"
)

// Streamer drives sessions and turns their output into response chunks.
//
// Implementation Notes:
//   - Implementations MUST be safe for concurrent use
//   - Each Stream() call runs its session in its own goroutine
type Streamer interface {
	// Stream advances session until its budget is spent and returns a
	// StreamResponse whose channel carries the encoded chunks.
	//
	// Behavior:
	//   - Checks ctx before every sub-batch and before every record
	//   - On cancellation stops without writing the epilogue
	//   - On a source or encoding failure writes the failure epilogue,
	//     then sends the error as the last chunk
	//   - On a failure before any chunk was sent, sends only the error
	Stream(ctx context.Context, session *Session) middleware.StreamResponse

	// GetConfig returns the current streaming configuration
	GetConfig() ChunkConfig
}

// streamer is the default implementation of the Streamer interface.
//
// Thread Safety:
//   - Safe for concurrent use
//   - Each Stream() call runs in isolation
//   - BufferPool is thread-safe via sync.Pool
type streamer struct {
	config     ChunkConfig
	bufferPool BufferPool
}

// NewStreamer creates a new Streamer with the given configuration.
func NewStreamer(config ChunkConfig) Streamer {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}

	return &streamer{
		config:     config,
		bufferPool: NewBufferPool(config.BufferSize),
	}
}

// NewDefaultStreamer creates a streamer with default configuration.
func NewDefaultStreamer() Streamer {
	return NewStreamer(DefaultChunkConfig())
}

// GetConfig returns the current streaming configuration.
func (s *streamer) GetConfig() ChunkConfig {
	return s.config
}

// Stream runs session in a goroutine.
//
// Flow:
//  1. Write the session preamble
//  2. Generate a sub-batch
//  3. Encode each record, flushing a chunk whenever the threshold is passed
//  4. Pause cooperatively, repeat from 2 until the budget is spent
//  5. Write the epilogue and send the final chunk
func (s *streamer) Stream(ctx context.Context, session *Session) middleware.StreamResponse {
	chunkChan := make(chan middleware.StreamChunk, s.config.ChannelBuffer)

	go func() {
		defer close(chunkChan)

		jsonBuf := s.bufferPool.Get()
		defer func() {
			if jsonBuf != nil {
				s.bufferPool.Put(jsonBuf)
			}
		}()

		sent := false
		emit := func() bool {
			select {
			case chunkChan <- middleware.StreamChunk{JSONBuf: jsonBuf, Recycle: s.bufferPool.Put}:
				jsonBuf = s.bufferPool.Get()
				sent = true
				return true
			case <-ctx.Done():
				return false
			}
		}
		fail := func(err error) {
			if sent {
				if abortErr := session.Abort(jsonBuf, err); abortErr == nil && len(*jsonBuf) > 0 {
					if !emit() {
						return
					}
				}
			}
			select {
			case chunkChan <- middleware.StreamChunk{Error: err}:
			case <-ctx.Done():
			}
		}

		if err := session.Open(jsonBuf); err != nil {
			fail(fmt.Errorf("stream open error: %w", err))
			return
		}

		for !session.Done() {
			if ctx.Err() != nil {
				return
			}

			batch, err := session.NextBatch()
			if err != nil {
				fail(fmt.Errorf("generation error: %w", err))
				return
			}

			for _, record := range batch {
				if ctx.Err() != nil {
					return
				}
				if err := session.Append(jsonBuf, record); err != nil {
					fail(fmt.Errorf("encode error: %w", err))
					return
				}
				if len(*jsonBuf) > s.config.ChunkThreshold {
					if !emit() {
						return
					}
				}
			}

			if !s.pause(ctx) {
				return
			}
		}

		if err := session.Close(jsonBuf); err != nil {
			fail(fmt.Errorf("stream close error: %w", err))
			return
		}
		if len(*jsonBuf) > 0 {
			emit()
		}
	}()

	return middleware.StreamResponse{
		TotalCount: -1,
		ChunkChan:  chunkChan,
		Code:       http.StatusOK,
	}
}

// pause yields between sub-batches and reports whether to continue.
func (s *streamer) pause(ctx context.Context) bool {
	if s.config.Pause <= 0 {
		runtime.Gosched()
		return ctx.Err() == nil
	}

	timer := time.NewTimer(s.config.Pause)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
