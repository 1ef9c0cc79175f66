package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// Clock abstracts time.Now so the day window can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns a Clock backed by the system time.
func NewRealClock() Clock { return realClock{} }

// dayWindowUTC returns the [00:00, 24:00) UTC window containing t. The quota
// window is a fixed UTC day, not a per-user-timezone one.
func dayWindowUTC(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// QuotaService reports a user's unlock usage for the current UTC day. Pure
// read; the write path lives in ViewService.
type QuotaService interface {
	Status(ctx context.Context, userID string) (model.QuotaStatus, error)
}

type quotaService struct {
	viewRepo repository.ViewRepository
	limit    int
	clock    Clock
	logger   zerolog.Logger
}

// NewQuotaService creates a new QuotaService with a scoped logger.
func NewQuotaService(viewRepo repository.ViewRepository, limit int, clock Clock, logger zerolog.Logger) QuotaService {
	return &quotaService{
		viewRepo: viewRepo,
		limit:    limit,
		clock:    clock,
		logger:   logger.With().Str("service", "QuotaService").Logger(),
	}
}

func (s *quotaService) Status(ctx context.Context, userID string) (model.QuotaStatus, error) {
	start, end := dayWindowUTC(s.clock.Now())
	usage, err := s.viewRepo.CountViewsInRange(ctx, userID, start, end)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to count views")
		return model.QuotaStatus{}, err
	}

	remaining := s.limit - usage
	if remaining < 0 {
		remaining = 0
	}
	return model.QuotaStatus{
		Usage:     usage,
		Remaining: remaining,
		AtLimit:   usage >= s.limit,
	}, nil
}
