package service

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/cache"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ContactListing is one cached page of the contact collection. The per-user
// viewed decoration is deliberately not part of the cached value: it is
// re-read from the ledger on every request so a fresh unlock shows up
// immediately even while the page itself is served from cache.
type ContactListing struct {
	Contacts   []model.Contact `json:"contacts"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}

type ContactService interface {
	// List returns a page of contacts plus the set of page row ids the user
	// has already viewed.
	List(ctx context.Context, search string, filter repository.ViewFilter, userID string, page int) (*ContactListing, map[string]bool, error)
	// InvalidateListings expires every cached contact page, for use after the
	// collection is reloaded.
	InvalidateListings(ctx context.Context) error
}

type contactService struct {
	repo     repository.ContactRepository
	viewRepo repository.ViewRepository
	cache    cache.Store
	pageSize int
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewContactService creates a new ContactService with a scoped logger.
func NewContactService(
	repo repository.ContactRepository,
	viewRepo repository.ViewRepository,
	store cache.Store,
	pageSize int,
	ttl time.Duration,
	logger zerolog.Logger,
) ContactService {
	return &contactService{
		repo:     repo,
		viewRepo: viewRepo,
		cache:    store,
		pageSize: pageSize,
		ttl:      ttl,
		logger:   logger.With().Str("service", "ContactService").Logger(),
	}
}

func (s *contactService) List(ctx context.Context, search string, filter repository.ViewFilter, userID string, page int) (*ContactListing, map[string]bool, error) {
	if page < 1 {
		page = 1
	}
	switch filter {
	case repository.ViewFilterViewed, repository.ViewFilterUnviewed:
	default:
		filter = repository.ViewFilterAll
	}

	// Only the content tuple is cached, and only for unfiltered pages. The
	// viewed/unviewed predicate depends on the user's ledger state, which
	// moves with every unlock, so filtered pages always go to the store.
	var listing *ContactListing
	var err error
	if filter == repository.ViewFilterAll {
		key := cache.Key("contacts", search, cache.IntPart(page), cache.IntPart(s.pageSize))
		listing, err = s.listCached(ctx, key, search, page)
	} else {
		listing, err = s.listFresh(ctx, search, filter, userID, page)
	}
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(listing.Contacts))
	for _, c := range listing.Contacts {
		ids = append(ids, c.ID)
	}
	viewed, err := s.viewRepo.ViewedContactIDs(ctx, userID, ids)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch viewed decoration")
		return nil, nil, err
	}
	return listing, viewed, nil
}

func (s *contactService) listCached(ctx context.Context, key, search string, page int) (*ContactListing, error) {
	if raw, ok := s.cache.Get(ctx, key); ok {
		var listing ContactListing
		if err := json.Unmarshal(raw, &listing); err == nil {
			return &listing, nil
		}
	}

	listing, err := s.listFresh(ctx, search, repository.ViewFilterAll, "", page)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(listing); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl, TagContacts); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to cache contact listing")
		}
	}
	return listing, nil
}

func (s *contactService) listFresh(ctx context.Context, search string, filter repository.ViewFilter, userID string, page int) (*ContactListing, error) {
	offset := (page - 1) * s.pageSize
	contacts, total, err := s.repo.ListContacts(ctx, search, filter, userID, s.pageSize, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("search", search).Int("page", page).Msg("Failed to list contacts")
		return nil, err
	}
	return &ContactListing{
		Contacts:   contacts,
		TotalCount: total,
		Page:       page,
		TotalPages: totalPages(total, s.pageSize),
	}, nil
}

func (s *contactService) InvalidateListings(ctx context.Context) error {
	return s.cache.Invalidate(ctx, TagContacts)
}
