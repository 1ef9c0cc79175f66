package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maskedValue replaces gated contact fields in listings until the row is
// unlocked by the requesting user.
const maskedValue = "•••••"

// ContactHandler serves contact listings and the unlock/save endpoints.
type ContactHandler struct {
	contactSvc service.ContactService
	viewSvc    service.ViewService
	savedSvc   service.SavedService
	quotaSvc   service.QuotaService
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewContactHandler(
	contactSvc service.ContactService,
	viewSvc service.ViewService,
	savedSvc service.SavedService,
	quotaSvc service.QuotaService,
	v *validator.Validate,
	logger zerolog.Logger,
) *ContactHandler {
	return &ContactHandler{
		contactSvc: contactSvc,
		viewSvc:    viewSvc,
		savedSvc:   savedSvc,
		quotaSvc:   quotaSvc,
		validate:   v,
		logger:     logger,
	}
}

// RegisterRoutes mounts v1 contact routes
func (h *ContactHandler) RegisterRoutes(mux *http.ServeMux, authMw, rateLimitMw func(http.Handler) http.Handler) {
	mux.Handle("/contacts", authMw(http.HandlerFunc(h.listContacts)))
	mux.Handle("/contacts/view", authMw(rateLimitMw(http.HandlerFunc(h.viewContact))))
	mux.Handle("/contacts/bulk-view", authMw(rateLimitMw(http.HandlerFunc(h.bulkView))))
	mux.Handle("/contacts/save", authMw(http.HandlerFunc(h.handleSave)))
	mux.Handle("/contacts/saved", authMw(http.HandlerFunc(h.listSaved)))
}

func (h *ContactHandler) listContacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	search := r.URL.Query().Get("search")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	filter := repository.ViewFilter(r.URL.Query().Get("filter"))

	listing, viewed, err := h.contactSvc.List(r.Context(), search, filter, userID, page)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list contacts")
		http.Error(w, "Failed to list contacts", http.StatusInternalServerError)
		return
	}
	quota, err := h.quotaSvc.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch quota status")
		http.Error(w, "Failed to fetch quota status", http.StatusInternalServerError)
		return
	}

	rows := make([]dto.ContactRowDTO, 0, len(listing.Contacts))
	for _, c := range listing.Contacts {
		rows = append(rows, contactRow(c, viewed[c.ID]))
	}
	resp := dto.ContactListResponseDTO{
		Contacts:   rows,
		TotalCount: listing.TotalCount,
		Page:       listing.Page,
		TotalPages: listing.TotalPages,
		Quota: dto.QuotaResponseDTO{
			Usage:     quota.Usage,
			Remaining: quota.Remaining,
			AtLimit:   quota.AtLimit,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// viewContact godoc
// @Summary Unlock a single contact
// @Description Charges one daily-quota unit unless the contact was already unlocked by this user.
// @Accept json
// @Produce json
// @Param view body dto.ContactViewRequestDTO true "Contact to unlock"
// @Success 200 {object} dto.ContactViewResponseDTO
// @Failure 403 {object} dto.LimitExceededDTO "daily limit reached"
// @Failure 404 {string} string "contact not found"
// @Router /contacts/view [post]
func (h *ContactHandler) viewContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	user, ok := userFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ContactViewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.viewSvc.ViewContact(r.Context(), user, req.ContactID)
	if err != nil {
		h.writeViewError(w, err)
		return
	}

	resp := dto.ContactViewResponseDTO{Success: true, AlreadyViewed: result.AlreadyViewed}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// bulkView godoc
// @Summary Unlock a batch of contacts
// @Description Rejects the whole batch when current usage plus the requested count would exceed the daily cap; otherwise skips already-unlocked ids and applies the rest atomically.
// @Accept json
// @Produce json
// @Param view body dto.BulkViewRequestDTO true "Contacts to unlock"
// @Success 200 {object} dto.BulkViewResponseDTO
// @Failure 400 {string} string "empty or invalid batch"
// @Failure 403 {object} dto.LimitExceededDTO "daily limit reached"
// @Router /contacts/bulk-view [post]
func (h *ContactHandler) bulkView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	user, ok := userFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.BulkViewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.viewSvc.BulkView(r.Context(), user, req.ContactIDs)
	if err != nil {
		h.writeViewError(w, err)
		return
	}

	resp := dto.BulkViewResponseDTO{
		Accepted:  result.Accepted,
		Skipped:   result.Skipped,
		Usage:     result.Usage,
		Remaining: result.Remaining,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *ContactHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.saveContact(w, r)
	case http.MethodDelete:
		h.unsaveContact(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ContactHandler) saveContact(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ContactSaveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.savedSvc.Save(r.Context(), user, req.ContactID); err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			http.Error(w, "Contact not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to save contact")
		http.Error(w, "Failed to save contact", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.SuccessResponseDTO{Success: true})
}

func (h *ContactHandler) unsaveContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	contactID := r.URL.Query().Get("contact_id")
	if contactID == "" {
		http.Error(w, "contact_id is required", http.StatusBadRequest)
		return
	}

	if err := h.savedSvc.Unsave(r.Context(), userID, contactID); err != nil {
		h.logger.Error().Err(err).Msg("failed to unsave contact")
		http.Error(w, "Failed to unsave contact", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.SuccessResponseDTO{Success: true})
}

func (h *ContactHandler) listSaved(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	saved, viewed, err := h.savedSvc.List(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list saved contacts")
		http.Error(w, "Failed to list saved contacts", http.StatusInternalServerError)
		return
	}

	items := make([]dto.SavedContactDTO, 0, len(saved))
	for _, sc := range saved {
		item := dto.SavedContactDTO{
			ContactID: sc.ContactID,
			SavedAt:   sc.SavedAt,
			Viewed:    viewed[sc.ContactID],
		}
		if sc.Contact != nil {
			c := *sc.Contact
			item.FirstName = c.FirstName
			item.LastName = c.LastName
			item.Title = c.Title
			item.Department = c.Department
			item.AgencyName = c.AgencyName
			item.Email = maskUnlessViewed(c.Email, item.Viewed)
			item.Phone = maskUnlessViewed(c.Phone, item.Viewed)
		}
		items = append(items, item)
	}

	resp := dto.SavedListResponseDTO{Saved: items, Count: len(items)}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeViewError maps coordinator errors onto the API taxonomy.
func (h *ContactHandler) writeViewError(w http.ResponseWriter, err error) {
	var limitErr *service.LimitExceededError
	switch {
	case errors.As(err, &limitErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(dto.LimitExceededDTO{
			Error:     "LimitExceeded",
			Usage:     limitErr.Usage,
			Remaining: limitErr.Remaining,
			Requested: limitErr.Requested,
		})
	case errors.Is(err, service.ErrContactNotFound):
		http.Error(w, "Contact not found", http.StatusNotFound)
	default:
		h.logger.Error().Err(err).Msg("failed to record view")
		http.Error(w, "Failed to record view", http.StatusInternalServerError)
	}
}

func contactRow(c model.Contact, isViewed bool) dto.ContactRowDTO {
	return dto.ContactRowDTO{
		ID:         c.ID,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      maskUnlessViewed(c.Email, isViewed),
		Phone:      maskUnlessViewed(c.Phone, isViewed),
		Title:      c.Title,
		Department: c.Department,
		AgencyName: c.AgencyName,
		Viewed:     isViewed,
	}
}

func maskUnlessViewed(v *string, isViewed bool) *string {
	if isViewed || v == nil || *v == "" {
		return v
	}
	masked := maskedValue
	return &masked
}

// userFromContext builds the user projection for lazy materialization from
// the token claims.
func userFromContext(r *http.Request) (*model.User, bool) {
	claims, ok := middleware.UserClaims(r.Context())
	if !ok || claims.Subject == "" {
		return nil, false
	}
	return &model.User{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
	}, true
}
