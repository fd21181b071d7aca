package models

import "time"

// Load run statuses.
const (
	LoadRunSucceeded = "succeeded"
	LoadRunFailed    = "failed"
)

// LoadRun is the audit record for one pipeline run.
type LoadRun struct {
	ID            string    `db:"id" json:"id"`
	SourceFile    string    `db:"source_file" json:"source_file"`
	Status        string    `db:"status" json:"status"`
	Attempts      int       `db:"attempts" json:"attempts"`
	RecordsRead   int       `db:"records_read" json:"records_read"`
	RecordsLoaded int       `db:"records_loaded" json:"records_loaded"`
	Error         string    `db:"error" json:"error,omitempty"`
	StartedAt     time.Time `db:"started_at" json:"started_at"`
	FinishedAt    time.Time `db:"finished_at" json:"finished_at"`
}
