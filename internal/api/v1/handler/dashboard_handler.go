package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// DashboardHandler serves the landing-page aggregates and the cache
// invalidation hook used after collection reloads.
type DashboardHandler struct {
	dashboardSvc service.DashboardService
	quotaSvc     service.QuotaService
	agencySvc    service.AgencyService
	contactSvc   service.ContactService
	logger       zerolog.Logger
}

func NewDashboardHandler(
	dashboardSvc service.DashboardService,
	quotaSvc service.QuotaService,
	agencySvc service.AgencyService,
	contactSvc service.ContactService,
	logger zerolog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		dashboardSvc: dashboardSvc,
		quotaSvc:     quotaSvc,
		agencySvc:    agencySvc,
		contactSvc:   contactSvc,
		logger:       logger,
	}
}

// RegisterRoutes mounts v1 dashboard routes
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/dashboard", authMw(http.HandlerFunc(h.getDashboard)))
	mux.Handle("/cache/invalidate", authMw(http.HandlerFunc(h.invalidateCache)))
}

func (h *DashboardHandler) getDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	stats, err := h.dashboardSvc.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch dashboard stats")
		http.Error(w, "Failed to fetch dashboard stats", http.StatusInternalServerError)
		return
	}
	quota, err := h.quotaSvc.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch quota status")
		http.Error(w, "Failed to fetch quota status", http.StatusInternalServerError)
		return
	}

	top := make([]dto.TopAgencyDTO, 0, len(stats.TopAgencies))
	for _, t := range stats.TopAgencies {
		top = append(top, dto.TopAgencyDTO{Name: t.Name, ContactCount: t.ContactCount})
	}
	resp := dto.DashboardResponseDTO{
		TotalAgencies: stats.TotalAgencies,
		TotalContacts: stats.TotalContacts,
		TopAgencies:   top,
		Quota: dto.QuotaResponseDTO{
			Usage:     quota.Usage,
			Remaining: quota.Remaining,
			AtLimit:   quota.AtLimit,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// invalidateCache expires listing and aggregate caches by tag. Called by the
// data loader after reimporting the collections.
func (h *DashboardHandler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Tags) == 0 {
		req.Tags = []string{service.TagAgencies, service.TagContacts, service.TagDashboard}
	}

	for _, tag := range req.Tags {
		var err error
		switch tag {
		case service.TagAgencies:
			err = h.agencySvc.InvalidateListings(r.Context())
		case service.TagContacts:
			err = h.contactSvc.InvalidateListings(r.Context())
		case service.TagDashboard:
			err = h.dashboardSvc.Invalidate(r.Context())
		default:
			http.Error(w, "Unknown cache tag: "+tag, http.StatusBadRequest)
			return
		}
		if err != nil {
			h.logger.Error().Err(err).Str("tag", tag).Msg("failed to invalidate cache tag")
			http.Error(w, "Failed to invalidate cache", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.SuccessResponseDTO{Success: true})
}
