package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrContactNotFound is returned when the referenced contact does not exist.
var ErrContactNotFound = errors.New("contact not found")

// LimitExceededError reports a rejected unlock together with the quota
// context the caller needs to prompt an upgrade path.
type LimitExceededError struct {
	Usage     int
	Remaining int
	Requested int // batch size for bulk rejections, 0 for single unlocks
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("daily view limit reached (usage %d, remaining %d)", e.Usage, e.Remaining)
}

// ViewResult is the outcome of a single unlock attempt.
type ViewResult struct {
	AlreadyViewed bool
}

// BulkViewResult is the outcome of an accepted batch unlock.
type BulkViewResult struct {
	Accepted  int
	Skipped   int
	Usage     int // usage after the accepted inserts
	Remaining int
}

// ViewService is the unlock coordinator: it decides which requested contacts
// are new, enforces the daily cap atomically, and appends ledger rows for the
// accepted subset. The quota check always re-reads the ledger inside the
// store transaction; cached listings play no part in the decision.
type ViewService interface {
	ViewContact(ctx context.Context, user *model.User, contactID string) (ViewResult, error)
	BulkView(ctx context.Context, user *model.User, contactIDs []string) (BulkViewResult, error)
}

type viewService struct {
	viewRepo    repository.ViewRepository
	userRepo    repository.UserRepository
	contactRepo repository.ContactRepository
	limit       int
	clock       Clock
	logger      zerolog.Logger
}

// NewViewService creates a new ViewService with a scoped logger.
func NewViewService(
	viewRepo repository.ViewRepository,
	userRepo repository.UserRepository,
	contactRepo repository.ContactRepository,
	limit int,
	clock Clock,
	logger zerolog.Logger,
) ViewService {
	return &viewService{
		viewRepo:    viewRepo,
		userRepo:    userRepo,
		contactRepo: contactRepo,
		limit:       limit,
		clock:       clock,
		logger:      logger.With().Str("service", "ViewService").Logger(),
	}
}

func (s *viewService) ViewContact(ctx context.Context, user *model.User, contactID string) (ViewResult, error) {
	contact, err := s.contactRepo.GetContactByID(ctx, contactID)
	if err != nil {
		return ViewResult{}, err
	}
	if contact == nil {
		return ViewResult{}, ErrContactNotFound
	}

	// The ledger row references the local user projection, which may not
	// exist yet for identities managed upstream.
	if err := s.userRepo.EnsureUser(ctx, user); err != nil {
		return ViewResult{}, err
	}

	start, end := dayWindowUTC(s.clock.Now())
	alreadyViewed, err := s.viewRepo.CheckAndRecordView(ctx, user.UserID, contactID, start, end, s.limit)
	if err != nil {
		if errors.Is(err, repository.ErrDailyViewLimitExceeded) {
			return ViewResult{}, s.limitError(ctx, user.UserID, start, end, 0)
		}
		s.logger.Error().Err(err).Str("user_id", user.UserID).Str("contact_id", contactID).Msg("Failed to record view")
		return ViewResult{}, err
	}
	return ViewResult{AlreadyViewed: alreadyViewed}, nil
}

func (s *viewService) BulkView(ctx context.Context, user *model.User, contactIDs []string) (BulkViewResult, error) {
	// The request is a set; collapse duplicates before the length guard.
	ids := dedupe(contactIDs)
	if len(ids) == 0 {
		return BulkViewResult{}, nil
	}

	if err := s.userRepo.EnsureUser(ctx, user); err != nil {
		return BulkViewResult{}, err
	}

	start, end := dayWindowUTC(s.clock.Now())
	out, err := s.viewRepo.CheckAndRecordBulkViews(ctx, user.UserID, ids, start, end, s.limit)
	if err != nil {
		if errors.Is(err, repository.ErrDailyViewLimitExceeded) {
			return BulkViewResult{}, s.limitError(ctx, user.UserID, start, end, len(ids))
		}
		s.logger.Error().Err(err).Str("user_id", user.UserID).Int("batch_size", len(ids)).Msg("Failed to record bulk views")
		return BulkViewResult{}, err
	}

	usage := out.Usage + out.Accepted
	remaining := s.limit - usage
	if remaining < 0 {
		remaining = 0
	}
	return BulkViewResult{
		Accepted:  out.Accepted,
		Skipped:   out.Skipped,
		Usage:     usage,
		Remaining: remaining,
	}, nil
}

// limitError re-reads usage to attach current quota context to the rejection.
func (s *viewService) limitError(ctx context.Context, userID string, start, end time.Time, requested int) error {
	usage, err := s.viewRepo.CountViewsInRange(ctx, userID, start, end)
	if err != nil {
		// The rejection stands either way; fall back to a full window.
		usage = s.limit
	}
	remaining := s.limit - usage
	if remaining < 0 {
		remaining = 0
	}
	return &LimitExceededError{Usage: usage, Remaining: remaining, Requested: requested}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
