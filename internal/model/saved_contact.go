package model

import "time"

// SavedContact is a per-user bookmark on a contact record. Saving is
// independent of the view quota.
type SavedContact struct {
	UserID    string    `db:"user_id" json:"user_id"`
	ContactID string    `db:"contact_id" json:"contact_id"`
	SavedAt   time.Time `db:"saved_at" json:"saved_at"`
	Contact   *Contact  `json:"contact,omitempty"`
}
