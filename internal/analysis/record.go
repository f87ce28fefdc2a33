// Package analysis runs the end-to-end diagnosis pipeline: decode an image
// payload, normalize it to the model input shape, resolve the domain, classify,
// attach the static advisory, and assemble an immutable analysis record.
package analysis

import (
	"time"

	"github.com/mediscan-ai/mediscan/internal/advisory"
)

// Record is the immutable result of one classification attempt. JSON field
// names are the public API's field names; the history file stores records in
// this exact shape. Exactly one of (Prediction/Confidence/Distribution/
// Advisory) or Error is populated.
type Record struct {
	ID           string             `json:"analysis_id"`
	FileName     string             `json:"file_name"`
	Domain       string             `json:"model_type,omitempty"`
	Prediction   string             `json:"prediction,omitempty"`
	Confidence   float64            `json:"confidence,omitempty"`
	Distribution map[string]float64 `json:"all_predictions,omitempty"`
	Advisory     *advisory.Entry    `json:"medical_info,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
	Success      bool               `json:"success"`
	Error        string             `json:"error,omitempty"`
}

// Severity returns the advisory severity, or empty when the record failed.
func (r *Record) Severity() advisory.Severity {
	if r == nil || r.Advisory == nil {
		return ""
	}
	return r.Advisory.Severity
}
