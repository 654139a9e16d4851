package domain

import (
	"context"

	"datagen/common"
	"datagen/internal/admission"
	"datagen/internal/shape"
	"datagen/internal/stream"
	"datagen/middleware"
)

// Service defines the generation operations used by the handler.
type Service interface {
	// Admit reserves an admission slot for a request of sizeKB.
	Admit(sizeKB float64) (*admission.Ticket, error)

	// BuildDocument generates the whole series in memory and wraps it.
	BuildDocument(ctx context.Context, req Request, s shape.Shape) (body []byte, records int, err error)

	// StreamDocument streams a streamable shape.
	StreamDocument(ctx context.Context, req Request, s shape.Streamable) (*stream.Session, middleware.StreamResponse)

	// StreamLines streams one record per line or event.
	StreamLines(ctx context.Context, req Request, framing stream.Framing) (*stream.Session, middleware.StreamResponse)

	// Shapes describes every document shape.
	Shapes() []shape.Info

	// Finish records the outcome of a request.
	Finish(ctx context.Context, entry *common.Generation)
}
