package model

import "time"

// User is the local projection of an externally-managed identity. It is
// created lazily on a user's first unlock so that contact view rows always
// have a parent to reference.
type User struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
