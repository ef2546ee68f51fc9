package types

import "time"

// Batch is the analysis request body accepted by carepulse-server and sent by
// the analyzer's shipper. BatchID and Source are optional.
type Batch struct {
	BatchID  string `json:"batch_id,omitempty"`
	Source   string `json:"source,omitempty"`
	Patients []Row  `json:"patients"`
	Hospital Row    `json:"hospital"`
}

// Run is one stored analysis as returned by the server API.
type Run struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id,omitempty"`
	Source     string    `json:"source,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	Analysis   Analysis  `json:"analysis"`
}

// RunSummary is the list view of a Run.
type RunSummary struct {
	ID           string    `json:"id"`
	BatchID      string    `json:"batch_id,omitempty"`
	Source       string    `json:"source,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
	HospitalID   string    `json:"hospital_id"`
	HSI          float64   `json:"hsi"`
	StressStatus string    `json:"stress_status"`
	ERStatus     string    `json:"er_status"`
	Summary      Summary   `json:"summary"`
}

// Summarize returns the list view of r.
func (r *Run) Summarize() RunSummary {
	return RunSummary{
		ID:           r.ID,
		BatchID:      r.BatchID,
		Source:       r.Source,
		ReceivedAt:   r.ReceivedAt,
		HospitalID:   r.Analysis.Hospital.HospitalID,
		HSI:          r.Analysis.Hospital.HSI,
		StressStatus: r.Analysis.Hospital.StressStatus,
		ERStatus:     r.Analysis.Hospital.ERStatus,
		Summary:      r.Analysis.Summary,
	}
}
