package dto

// AgencyRowDTO is one agency listing row.
type AgencyRowDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	State         *string `json:"state,omitempty"`
	Type          *string `json:"type,omitempty"`
	County        *string `json:"county,omitempty"`
	Population    *int    `json:"population,omitempty"`
	Website       *string `json:"website,omitempty"`
	TotalSchools  *int    `json:"total_schools,omitempty"`
	TotalStudents *int    `json:"total_students,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Status        *string `json:"status,omitempty"`
}

// AgencyListResponseDTO is one page of the agency listing.
type AgencyListResponseDTO struct {
	Agencies   []AgencyRowDTO `json:"agencies"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

// DashboardResponseDTO combines the cached collection aggregates with the
// caller's live quota snapshot.
type DashboardResponseDTO struct {
	TotalAgencies int              `json:"total_agencies"`
	TotalContacts int              `json:"total_contacts"`
	TopAgencies   []TopAgencyDTO   `json:"top_agencies"`
	Quota         QuotaResponseDTO `json:"quota"`
}

// TopAgencyDTO is one bar of the dashboard chart.
type TopAgencyDTO struct {
	Name         string `json:"name"`
	ContactCount int    `json:"contact_count"`
}
