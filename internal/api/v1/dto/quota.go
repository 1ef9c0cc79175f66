package dto

// QuotaResponseDTO reports the user's unlock usage for the current UTC day.
type QuotaResponseDTO struct {
	Usage     int  `json:"usage"`
	Remaining int  `json:"remaining"`
	AtLimit   bool `json:"at_limit"`
}

// LimitExceededDTO is the 403 payload when an unlock is rejected by the cap.
type LimitExceededDTO struct {
	Error     string `json:"error"`
	Usage     int    `json:"usage"`
	Remaining int    `json:"remaining"`
	Requested int    `json:"requested,omitempty"`
}
