package stream

import "sync"

// bufferPool implements BufferPool using sync.Pool for efficient buffer reuse.
// It maintains a pool of []byte buffers with a fixed initial capacity.
//
// Memory Behavior:
//   - Buffers are allocated on heap (required for sync.Pool)
//   - Unused buffers are garbage collected during GC
//   - Buffers that grew past maxRetainedSize are dropped instead of pooled
type bufferPool struct {
	pool        *sync.Pool
	initialSize int
}

// maxRetainedSize keeps a single oversized chunk from pinning memory.
const maxRetainedSize = 1024 * 1024

// NewBufferPool creates a new buffer pool with the specified initial capacity.
//
// Parameters:
//   - initialSize: Initial capacity in bytes for each buffer
//
// Returns:
//   - BufferPool: Thread-safe buffer pool
func NewBufferPool(initialSize int) BufferPool {
	if initialSize <= 0 {
		initialSize = 50 * 1024
	}

	return &bufferPool{
		initialSize: initialSize,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, 0, initialSize)
				return &buf
			},
		},
	}
}

// Get retrieves a buffer from the pool.
// The returned buffer has len=0 but retains its capacity.
func (p *bufferPool) Get() *[]byte {
	buf := p.pool.Get().(*[]byte)

	// Reset length to 0 while preserving capacity
	*buf = (*buf)[:0]

	return buf
}

// Put returns a buffer to the pool for future reuse.
// The buffer should not be accessed after calling Put().
func (p *bufferPool) Put(buf *[]byte) {
	if buf == nil || cap(*buf) > maxRetainedSize {
		return
	}

	// No need to reset buffer here - Get() handles it
	p.pool.Put(buf)
}

// GetInitialSize returns the initial capacity of buffers from this pool.
func (p *bufferPool) GetInitialSize() int {
	return p.initialSize
}
