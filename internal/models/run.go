package models

// RunStatus represents the status of an analysis run.
type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusError    RunStatus = "error"
)

// AnalysisRun tracks one background analysis from start to completion.
type AnalysisRun struct {
	ID               string    `json:"id"`
	Status           RunStatus `json:"status"`
	Progress         float64   `json:"progress"` // 0-100
	Stage            string    `json:"stage,omitempty"`
	FileCount        int       `json:"fileCount"`
	ProcessingTimeMs int64     `json:"processingTimeMs,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// NewAnalysisRun creates a run in pending status.
func NewAnalysisRun(id string, fileCount int) *AnalysisRun {
	return &AnalysisRun{
		ID:        id,
		Status:    RunStatusPending,
		Progress:  0,
		FileCount: fileCount,
	}
}

// Finished reports whether the run reached a terminal status.
func (r *AnalysisRun) Finished() bool {
	return r.Status == RunStatusComplete || r.Status == RunStatusError
}
