package model

import "time"

// Agency represents an organization record. Rows are externally owned; this
// service only reads them.
type Agency struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	State               *string   `db:"state" json:"state,omitempty"`
	StateCode           *string   `db:"state_code" json:"state_code,omitempty"`
	Type                *string   `db:"type" json:"type,omitempty"`
	Population          *int      `db:"population" json:"population,omitempty"`
	Website             *string   `db:"website" json:"website,omitempty"`
	TotalSchools        *int      `db:"total_schools" json:"total_schools,omitempty"`
	TotalStudents       *int      `db:"total_students" json:"total_students,omitempty"`
	County              *string   `db:"county" json:"county,omitempty"`
	Phone               *string   `db:"phone" json:"phone,omitempty"`
	Status              *string   `db:"status" json:"status,omitempty"`
	StudentTeacherRatio *float64  `db:"student_teacher_ratio" json:"student_teacher_ratio,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// AgencyContactCount pairs an agency name with its number of contact
// records, used for the dashboard chart.
type AgencyContactCount struct {
	Name         string `json:"name"`
	ContactCount int    `json:"contact_count"`
}
