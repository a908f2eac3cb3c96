package models

import "time"

// CommandOutcome is the per-TV result of one command attempt. It is
// produced once per requested address, for both successes and failures.
type CommandOutcome struct {
	IPAddress    string  `json:"ip"`
	Command      string  `json:"command"`
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	ResponseTime float64 `json:"response_time"` // seconds, rounded to ms
}

// BulkReport aggregates the outcomes of one bulk dispatch. Results are
// ordered by the caller-supplied address list, never by completion order.
type BulkReport struct {
	Results      []CommandOutcome `json:"results"`
	TotalTime    float64          `json:"total_time"` // wall-clock seconds
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
}

// TVStatus is one entry of the polled status cache.
type TVStatus struct {
	Reachable  bool      `json:"reachable"`
	PoweredOn  bool      `json:"powered_on"`
	TokenValid bool      `json:"token_valid"`
	CheckedAt  time.Time `json:"checked_at"`
}
