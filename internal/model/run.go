package model

import "time"

// RunMode identifies how a sync run was started.
type RunMode string

// Run mode constants.
const (
	RunModeManual RunMode = "manual"
	RunModeRobot  RunMode = "robot"
)

// RunStatus is the terminal state of a sync run.
type RunStatus string

// Run status constants.
const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusDryRun    RunStatus = "dry-run"
	RunStatusCancelled RunStatus = "cancelled"
)

// SyncRun records one execution of the sync pipeline in the local
// run journal.
type SyncRun struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	ID            string
	Mode          RunMode
	Status        RunStatus
	Error         string
	MessagesFound int
	Parsed        int
	LowConfidence int
	Duplicates    int
	NewRows       int
	Appended      int
}

// Duration returns the wall-clock length of the run.
func (r SyncRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
