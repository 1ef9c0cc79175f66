package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// QuotaHandler serves the user's daily unlock quota status.
type QuotaHandler struct {
	quotaSvc service.QuotaService
	logger   zerolog.Logger
}

func NewQuotaHandler(quotaSvc service.QuotaService, logger zerolog.Logger) *QuotaHandler {
	return &QuotaHandler{quotaSvc: quotaSvc, logger: logger}
}

// RegisterRoutes mounts v1 quota routes
func (h *QuotaHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/quota", authMw(http.HandlerFunc(h.getQuota)))
}

// getQuota godoc
// @Summary Current daily view quota status
// @Produce json
// @Success 200 {object} dto.QuotaResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Router /quota [get]
func (h *QuotaHandler) getQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	status, err := h.quotaSvc.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch quota status")
		http.Error(w, "Failed to fetch quota status", http.StatusInternalServerError)
		return
	}

	resp := dto.QuotaResponseDTO{
		Usage:     status.Usage,
		Remaining: status.Remaining,
		AtLimit:   status.AtLimit,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
