package domain

import "time"

// DiagnosticStatus indicates whether a single startup check passed.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusWarn DiagnosticStatus = "warn"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one startup check result with optional hint.
type DiagnosticItem struct {
	ID      string           `json:"id" yaml:"id"`
	Name    string           `json:"name" yaml:"name"`
	Status  DiagnosticStatus `json:"status" yaml:"status"`
	Message string           `json:"message" yaml:"message"`
	Hint    string           `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// DiagnosticReport aggregates startup checks for UI and CLI output.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt" yaml:"generated_at"`
	HasFailures bool             `json:"hasFailures" yaml:"has_failures"`
	Items       []DiagnosticItem `json:"items" yaml:"items"`
}

// Count returns how many items finished with status.
func (r DiagnosticReport) Count(status DiagnosticStatus) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}
