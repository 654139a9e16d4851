package journal

import (
	"context"
	"errors"

	"datagen/common"

	"go.uber.org/zap"
)

const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// ErrDisabled is returned by reads when no journal database is configured.
var ErrDisabled = errors.New("generation journal is disabled")

type Service struct {
	repo   *Repository
	logger *zap.Logger
}

// NewService returns a journal service. A nil repo disables persistence.
func NewService(repo *Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record stores entry. Failures are logged, never returned: the journal must
// not affect the response the client already received.
func (s *Service) Record(ctx context.Context, entry *common.Generation) {
	if s == nil || s.repo == nil {
		return
	}
	if err := s.repo.Save(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to record generation",
			zap.String("requestId", entry.RequestID),
			zap.Error(err),
		)
	}
}

// Recent lists the latest entries, clamping limit to [1, MaxLimit].
func (s *Service) Recent(ctx context.Context, limit int) ([]common.Generation, error) {
	if s == nil || s.repo == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return s.repo.Recent(ctx, limit)
}

// Ping checks the journal database. A disabled journal reports ErrDisabled.
func (s *Service) Ping() error {
	if s == nil || s.repo == nil {
		return ErrDisabled
	}
	return s.repo.Ping()
}
