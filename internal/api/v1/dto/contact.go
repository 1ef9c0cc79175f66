package dto

// ContactViewRequestDTO unlocks a single contact.
type ContactViewRequestDTO struct {
	ContactID string `json:"contact_id" validate:"required"`
}

// ContactViewResponseDTO reports a single unlock outcome.
type ContactViewResponseDTO struct {
	Success       bool `json:"success"`
	AlreadyViewed bool `json:"already_viewed"`
}

// BulkViewRequestDTO unlocks a batch of contacts.
type BulkViewRequestDTO struct {
	ContactIDs []string `json:"contact_ids" validate:"required,min=1,dive,required"`
}

// BulkViewResponseDTO reports how a batch was applied.
type BulkViewResponseDTO struct {
	Accepted  int `json:"accepted"`
	Skipped   int `json:"skipped"`
	Usage     int `json:"usage"`
	Remaining int `json:"remaining"`
}

// ContactSaveRequestDTO bookmarks a contact.
type ContactSaveRequestDTO struct {
	ContactID string `json:"contact_id" validate:"required"`
}

// ContactRowDTO is one listing row. Email and phone are masked unless the
// user has unlocked the contact.
type ContactRowDTO struct {
	ID         string  `json:"id"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Title      *string `json:"title,omitempty"`
	Department *string `json:"department,omitempty"`
	AgencyName *string `json:"agency_name,omitempty"`
	Viewed     bool    `json:"viewed"`
}

// ContactListResponseDTO is one page of the contact listing, with the
// caller's quota snapshot attached for the limit banner.
type ContactListResponseDTO struct {
	Contacts   []ContactRowDTO  `json:"contacts"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Quota      QuotaResponseDTO `json:"quota"`
}
