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

// chartNameLimit truncates long agency names for the dashboard chart labels.
const chartNameLimit = 20

// DashboardStats are the collection-wide aggregates shown on the landing
// page. They contain no per-user data and are cached under a single key.
type DashboardStats struct {
	TotalAgencies int                        `json:"total_agencies"`
	TotalContacts int                        `json:"total_contacts"`
	TopAgencies   []model.AgencyContactCount `json:"top_agencies"`
}

type DashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
	// Invalidate expires the cached aggregates, for use after the collections
	// are reloaded.
	Invalidate(ctx context.Context) error
}

type dashboardService struct {
	agencyRepo  repository.AgencyRepository
	contactRepo repository.ContactRepository
	cache       cache.Store
	topCount    int
	ttl         time.Duration
	logger      zerolog.Logger
}

// NewDashboardService creates a new DashboardService with a scoped logger.
func NewDashboardService(
	agencyRepo repository.AgencyRepository,
	contactRepo repository.ContactRepository,
	store cache.Store,
	topCount int,
	ttl time.Duration,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		agencyRepo:  agencyRepo,
		contactRepo: contactRepo,
		cache:       store,
		topCount:    topCount,
		ttl:         ttl,
		logger:      logger.With().Str("service", "DashboardService").Logger(),
	}
}

func (s *dashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	key := cache.Key("dashboard", cache.IntPart(s.topCount))

	if raw, ok := s.cache.Get(ctx, key); ok {
		var stats DashboardStats
		if err := json.Unmarshal(raw, &stats); err == nil {
			return &stats, nil
		}
	}

	totalAgencies, err := s.agencyRepo.CountAgencies(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count agencies")
		return nil, err
	}
	totalContacts, err := s.contactRepo.CountContacts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count contacts")
		return nil, err
	}
	top, err := s.agencyRepo.TopAgenciesByContactCount(ctx, s.topCount)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch top agencies")
		return nil, err
	}
	for i := range top {
		// Truncate on runes so a multi-byte name never ends mid-character.
		if name := []rune(top[i].Name); len(name) > chartNameLimit {
			top[i].Name = string(name[:chartNameLimit]) + "..."
		}
	}

	stats := &DashboardStats{
		TotalAgencies: totalAgencies,
		TotalContacts: totalContacts,
		TopAgencies:   top,
	}
	if raw, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl, TagDashboard); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to cache dashboard stats")
		}
	}
	return stats, nil
}

func (s *dashboardService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, TagDashboard)
}
