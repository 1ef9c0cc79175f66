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

// Cache tags grouping listing entries so a collection reload can expire them
// in bulk.
const (
	TagAgencies  = "agencies"
	TagContacts  = "contacts"
	TagDashboard = "dashboard"
)

// AgencyListing is one cached page of the agency collection.
type AgencyListing struct {
	Agencies   []model.Agency `json:"agencies"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

type AgencyService interface {
	List(ctx context.Context, search string, page int) (*AgencyListing, error)
	// InvalidateListings expires every cached agency page, for use after the
	// collection is reloaded.
	InvalidateListings(ctx context.Context) error
}

type agencyService struct {
	repo     repository.AgencyRepository
	cache    cache.Store
	pageSize int
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewAgencyService creates a new AgencyService with a scoped logger.
func NewAgencyService(repo repository.AgencyRepository, store cache.Store, pageSize int, ttl time.Duration, logger zerolog.Logger) AgencyService {
	return &agencyService{
		repo:     repo,
		cache:    store,
		pageSize: pageSize,
		ttl:      ttl,
		logger:   logger.With().Str("service", "AgencyService").Logger(),
	}
}

func (s *agencyService) List(ctx context.Context, search string, page int) (*AgencyListing, error) {
	if page < 1 {
		page = 1
	}
	key := cache.Key("agencies", search, cache.IntPart(page), cache.IntPart(s.pageSize))

	if raw, ok := s.cache.Get(ctx, key); ok {
		var listing AgencyListing
		if err := json.Unmarshal(raw, &listing); err == nil {
			return &listing, nil
		}
		// A corrupt entry falls through to the store.
	}

	offset := (page - 1) * s.pageSize
	agencies, total, err := s.repo.ListAgencies(ctx, search, s.pageSize, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("search", search).Int("page", page).Msg("Failed to list agencies")
		return nil, err
	}

	listing := &AgencyListing{
		Agencies:   agencies,
		TotalCount: total,
		Page:       page,
		TotalPages: totalPages(total, s.pageSize),
	}
	if raw, err := json.Marshal(listing); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl, TagAgencies); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to cache agency listing")
		}
	}
	return listing, nil
}

func (s *agencyService) InvalidateListings(ctx context.Context) error {
	return s.cache.Invalidate(ctx, TagAgencies)
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
