package domain

import "time"

// Filter is the derived triage record produced by grade analysis, at most one
// per candidate. Its existence is the idempotency marker that prevents
// duplicate analysis runs.
type Filter struct {
	Email        string    `json:"email"`
	GPAForm      float64   `json:"gpaF"`
	GPAAI        float64   `json:"gpaA"`
	F            float64   `json:"F"`
	Completeness float64   `json:"completeness"`
	Done         bool      `json:"done"`
	CreatedAt    time.Time `json:"created_at"`
}

// GradeAnalysis is the parsed payload of the external scoring service.
type GradeAnalysis struct {
	GPA float64 `json:"GPA"`
	F   float64 `json:"F"`
}

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}
