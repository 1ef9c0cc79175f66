package model

import "time"

// Contact represents a contact record belonging to an agency. Email and
// phone are the gated fields: they stay masked in listings until the user
// has unlocked the row.
type Contact struct {
	ID         string    `db:"id" json:"id"`
	FirstName  *string   `db:"first_name" json:"first_name,omitempty"`
	LastName   *string   `db:"last_name" json:"last_name,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Title      *string   `db:"title" json:"title,omitempty"`
	Department *string   `db:"department" json:"department,omitempty"`
	AgencyID   *string   `db:"agency_id" json:"agency_id,omitempty"`
	AgencyName *string   `db:"agency_name" json:"agency_name,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
