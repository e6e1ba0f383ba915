package models

import "time"

// ProbeRecord is one persisted probe outcome, tagged with the benchmark run
// that produced it.
type ProbeRecord struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	ProfileName string    `json:"profile_name"`
	Server      string    `json:"server"`
	LatencyMS   *int      `json:"latency_ms,omitempty"` // NULL if the probe failed
	Status      string    `json:"status"`               // ok, timeout, unreachable, error
	Failure     string    `json:"failure,omitempty"`
	TestedAt    time.Time `json:"tested_at"`
}

// ApplyRecord is one persisted apply attempt, successful or not.
type ApplyRecord struct {
	ID           int64     `json:"id"`
	ProfileName  string    `json:"profile_name"`
	Servers      []string  `json:"servers"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	AppliedAt    time.Time `json:"applied_at"`
}

// ActiveConfig is the persisted snapshot of the applied DNS configuration.
// A single row: the currently applied profile and the one before it, kept
// for rollback across restarts.
type ActiveConfig struct {
	ProfileName     string    `json:"profile_name"`
	Servers         []string  `json:"servers"`
	AppliedAt       time.Time `json:"applied_at"`
	PreviousName    string    `json:"previous_name,omitempty"`
	PreviousServers []string  `json:"previous_servers,omitempty"`
}
