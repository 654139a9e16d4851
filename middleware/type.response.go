package middleware

import (
	"time"
)

type Response struct {
	Data    any
	Message string
	Code    int
	Error   error
	// Tag is the machine-readable error tag, e.g. "invalid_size".
	Tag string
	// Hint is extra guidance returned with validation failures.
	Hint any
}

type ResponseAPIDebug struct {
	Version   string    `json:"version"`
	Error     *string   `json:"error"`
	StartTime time.Time `json:"startTime"` // ISO8601 format, e.g., "2025-01-09T15:04:05Z07:00"
	EndTime   time.Time `json:"endTime"`   // ISO8601 format for consistency with StartTime
	RuntimeMs int64     `json:"runtimeMs"` // Runtime in milliseconds for better precision
}

type ResponseAPI struct {
	RequestID string            `json:"requestId"`
	Error     string            `json:"error,omitempty"`
	Message   string            `json:"message"`
	Data      any               `json:"data"`
	Hint      any               `json:"hint,omitempty"`
	Debug     *ResponseAPIDebug `json:"debug,omitempty"`
}

type StreamChunk struct {
	JSONBuf *[]byte           // Pointer to pooled buffer
	Recycle func(buf *[]byte) // Returns JSONBuf to its pool once written, may be nil
	Error   error             // Error if any occurred during processing
}

// StreamResponse represents a streaming response configuration
type StreamResponse struct {
	TotalCount  int64              // Total count of records (sent as X-Total-Count header when >= 0)
	ChunkChan   <-chan StreamChunk // Channel to receive data chunks
	Error       error              // Error to return if streaming fails before starting
	Code        int                // HTTP status code (default 200)
	ContentType string             // Response media type (default application/json)
}

// StreamResult describes how a streamed response ended.
type StreamResult struct {
	Bytes    int64
	Chunks   int
	Canceled bool
	Err      error
}
