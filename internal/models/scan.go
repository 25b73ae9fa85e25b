package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestRun contains metadata about one ingestion of a report directory
type IngestRun struct {
	ID           string     `json:"id"`
	ReportDir    string     `json:"report_dir"`
	OutputDir    string     `json:"output_dir"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Status       RunStatus  `json:"status"`
	FilesSeen    int        `json:"files_seen"`
	HostsParsed  int        `json:"hosts_parsed"`
	FilesSkipped int        `json:"files_skipped"`
	Deltas       int        `json:"deltas"`
	Errors       []string   `json:"errors,omitempty"`
}

// NewIngestRun creates a new run instance with initialized metadata
func NewIngestRun(reportDir, outputDir string) *IngestRun {
	return &IngestRun{
		ID:        uuid.New().String(),
		ReportDir: reportDir,
		OutputDir: outputDir,
		StartedAt: time.Now(),
		Status:    StatusPending,
		Errors:    []string{},
	}
}
