package service

import (
	"context"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// SavedService manages the per-user bookmark set. Saving does not require a
// prior unlock; a bookmarked contact stays masked until viewed.
type SavedService interface {
	Save(ctx context.Context, user *model.User, contactID string) error
	Unsave(ctx context.Context, userID, contactID string) error
	// List returns the user's bookmarks newest first, plus which of them the
	// user has unlocked. Unviewed bookmarks stay masked in the response.
	List(ctx context.Context, userID string) ([]model.SavedContact, map[string]bool, error)
}

type savedService struct {
	savedRepo   repository.SavedRepository
	userRepo    repository.UserRepository
	contactRepo repository.ContactRepository
	viewRepo    repository.ViewRepository
	logger      zerolog.Logger
}

// NewSavedService creates a new SavedService with a scoped logger.
func NewSavedService(
	savedRepo repository.SavedRepository,
	userRepo repository.UserRepository,
	contactRepo repository.ContactRepository,
	viewRepo repository.ViewRepository,
	logger zerolog.Logger,
) SavedService {
	return &savedService{
		savedRepo:   savedRepo,
		userRepo:    userRepo,
		contactRepo: contactRepo,
		viewRepo:    viewRepo,
		logger:      logger.With().Str("service", "SavedService").Logger(),
	}
}

func (s *savedService) Save(ctx context.Context, user *model.User, contactID string) error {
	contact, err := s.contactRepo.GetContactByID(ctx, contactID)
	if err != nil {
		return err
	}
	if contact == nil {
		return ErrContactNotFound
	}

	if err := s.userRepo.EnsureUser(ctx, user); err != nil {
		return err
	}
	return s.savedRepo.Save(ctx, user.UserID, contactID)
}

func (s *savedService) Unsave(ctx context.Context, userID, contactID string) error {
	return s.savedRepo.Unsave(ctx, userID, contactID)
}

func (s *savedService) List(ctx context.Context, userID string) ([]model.SavedContact, map[string]bool, error) {
	saved, err := s.savedRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list saved contacts")
		return nil, nil, err
	}

	ids := make([]string, 0, len(saved))
	for _, sc := range saved {
		ids = append(ids, sc.ContactID)
	}
	viewed, err := s.viewRepo.ViewedContactIDs(ctx, userID, ids)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch viewed decoration")
		return nil, nil, err
	}
	return saved, viewed, nil
}
