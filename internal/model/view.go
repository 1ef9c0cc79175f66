package model

// QuotaStatus is the user's unlock usage for the current UTC day.
type QuotaStatus struct {
	Usage     int  `json:"usage"`
	Remaining int  `json:"remaining"`
	AtLimit   bool `json:"at_limit"`
}
