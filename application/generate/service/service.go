package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datagen/application/generate/domain"
	"datagen/application/journal"
	"datagen/common"
	"datagen/internal/admission"
	"datagen/internal/generator"
	"datagen/internal/metrics"
	"datagen/internal/shape"
	"datagen/internal/stream"
	"datagen/middleware"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Options carries the tunables of the generation service.
type Options struct {
	Stream stream.ChunkConfig
	// Timeout bounds each generation; zero disables it.
	Timeout time.Duration
}

// service implements the domain.Service interface
type service struct {
	builder   *generator.Builder
	admission *admission.Controller
	streamer  stream.Streamer
	journal   *journal.Service
	metrics   *metrics.Collectors
	logger    *zap.Logger
	timeout   time.Duration
}

// NewService creates a new Service instance. journal and metrics may be nil.
func NewService(
	builder *generator.Builder,
	controller *admission.Controller,
	journalSvc *journal.Service,
	collectors *metrics.Collectors,
	logger *zap.Logger,
	opts Options,
) domain.Service {
	return &service{
		builder:   builder,
		admission: controller,
		streamer:  stream.NewStreamer(opts.Stream),
		journal:   journalSvc,
		metrics:   collectors,
		logger:    logger,
		timeout:   opts.Timeout,
	}
}

func (s *service) Admit(sizeKB float64) (*admission.Ticket, error) {
	return s.admission.Acquire(sizeKB)
}

// BuildDocument generates the complete series and serializes the wrapped
// document.
func (s *service) BuildDocument(ctx context.Context, req domain.Request, sh shape.Shape) ([]byte, int, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	series, err := s.builder.Build(req.SizeKB, req.Mode())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build series: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	body, err := json.Marshal(sh.Wrap(series))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode document: %w", err)
	}
	return body, len(series), nil
}

func (s *service) StreamDocument(ctx context.Context, req domain.Request, st shape.Streamable) (*stream.Session, middleware.StreamResponse) {
	session := stream.NewDocumentSession(s.builder, st, req.SizeKB, req.Mode(), s.streamer.GetConfig())
	return session, s.run(ctx, session, "application/json")
}

func (s *service) StreamLines(ctx context.Context, req domain.Request, framing stream.Framing) (*stream.Session, middleware.StreamResponse) {
	session := stream.NewLineSession(s.builder, framing, req.SizeKB, req.Mode(), s.streamer.GetConfig())
	return session, s.run(ctx, session, framing.ContentType())
}

func (s *service) run(ctx context.Context, session *stream.Session, contentType string) middleware.StreamResponse {
	if s.timeout > 0 {
		session.WithDeadline(time.Now().Add(s.timeout))
	}
	resp := s.streamer.Stream(ctx, session)
	resp.ContentType = contentType
	return resp
}

func (s *service) Shapes() []shape.Info {
	all := shape.All()
	out := make([]shape.Info, len(all))
	for i, sh := range all {
		out[i] = shape.Describe(sh)
	}
	return out
}

// Finish logs the request, updates metrics and writes the journal row.
func (s *service) Finish(ctx context.Context, entry *common.Generation) {
	path := "document"
	if entry.Streaming {
		path = entry.Endpoint
	}

	s.metrics.Finished(path, entry.Outcome)
	s.metrics.Emitted(path, entry.Records)

	fields := []zap.Field{
		zap.String("requestId", entry.RequestID),
		zap.String("endpoint", entry.Endpoint),
		zap.Float64("sizeKB", entry.SizeKB),
		zap.Bool("random", entry.Random),
		zap.Bool("streaming", entry.Streaming),
		zap.Int("records", entry.Records),
		zap.Int64("bytes", entry.Bytes),
		zap.Int64("durationMs", entry.DurationMs),
		zap.String("outcome", entry.Outcome),
	}
	if entry.Structure.Valid {
		fields = append(fields, zap.Int64("structure", entry.Structure.Int64))
	}
	if entry.Error.Valid {
		fields = append(fields, zap.String("error", entry.Error.String))
	}
	s.logger.Info("generation finished", fields...)

	s.journal.Record(ctx, entry)
}

// Outcome classifies the error a request ended with.
func Outcome(err error, canceled bool) string {
	var rejected *admission.RejectedError
	switch {
	case errors.As(err, &rejected):
		return common.OutcomeRejected
	case canceled || errors.Is(err, context.Canceled):
		return common.OutcomeCanceled
	case err != nil:
		return common.OutcomeError
	}
	return common.OutcomeSuccess
}
