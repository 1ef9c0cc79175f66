package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// AgencyHandler serves the agency listing.
type AgencyHandler struct {
	agencySvc service.AgencyService
	logger    zerolog.Logger
}

func NewAgencyHandler(agencySvc service.AgencyService, logger zerolog.Logger) *AgencyHandler {
	return &AgencyHandler{agencySvc: agencySvc, logger: logger}
}

// RegisterRoutes mounts v1 agency routes
func (h *AgencyHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/agencies", authMw(http.HandlerFunc(h.listAgencies)))
}

func (h *AgencyHandler) listAgencies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	search := r.URL.Query().Get("search")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	listing, err := h.agencySvc.List(r.Context(), search, page)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list agencies")
		http.Error(w, "Failed to list agencies", http.StatusInternalServerError)
		return
	}

	rows := make([]dto.AgencyRowDTO, 0, len(listing.Agencies))
	for _, a := range listing.Agencies {
		rows = append(rows, dto.AgencyRowDTO{
			ID:            a.ID,
			Name:          a.Name,
			State:         a.State,
			Type:          a.Type,
			County:        a.County,
			Population:    a.Population,
			Website:       a.Website,
			TotalSchools:  a.TotalSchools,
			TotalStudents: a.TotalStudents,
			Phone:         a.Phone,
			Status:        a.Status,
		})
	}
	resp := dto.AgencyListResponseDTO{
		Agencies:   rows,
		TotalCount: listing.TotalCount,
		Page:       listing.Page,
		TotalPages: listing.TotalPages,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
