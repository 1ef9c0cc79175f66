package dto

import "time"

// SavedContactDTO is one bookmarked contact, newest first in listings.
type SavedContactDTO struct {
	ContactID  string    `json:"contact_id"`
	SavedAt    time.Time `json:"saved_at"`
	FirstName  *string   `json:"first_name,omitempty"`
	LastName   *string   `json:"last_name,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Title      *string   `json:"title,omitempty"`
	Department *string   `json:"department,omitempty"`
	AgencyName *string   `json:"agency_name,omitempty"`
	Viewed     bool      `json:"viewed"`
}

// SavedListResponseDTO is the user's bookmark list.
type SavedListResponseDTO struct {
	Saved []SavedContactDTO `json:"saved"`
	Count int               `json:"count"`
}

// SuccessResponseDTO is the generic idempotent-success payload.
type SuccessResponseDTO struct {
	Success bool `json:"success"`
}
