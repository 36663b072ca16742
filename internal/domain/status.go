package domain

import "time"

// RefreshStatus summarises the most recent refresh attempts for one resource.
type RefreshStatus struct {
	Resource    string    `json:"resource"`
	LastAttempt time.Time `json:"last_attempt,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	Records     int       `json:"records"`
	RunID       string    `json:"run_id,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}
