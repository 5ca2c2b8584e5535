package models

import "time"

// MigrationState is a step of the migration state machine:
// NotStarted → BackingUp → Migrating ⇄ RewritingIndex → Done, with
// RolledBack reachable from Done and Failed for aborted runs.
type MigrationState string

// Migration states.
const (
	StateNotStarted     MigrationState = "NotStarted"
	StateBackingUp      MigrationState = "BackingUp"
	StateMigrating      MigrationState = "Migrating"
	StateRewritingIndex MigrationState = "RewritingIndex"
	StateDone           MigrationState = "Done"
	StateRolledBack     MigrationState = "RolledBack"
	StateFailed         MigrationState = "Failed"
)

// MigrationResult is the outcome for one legacy record.
type MigrationResult struct {
	ItemID      string      `json:"itemId"`
	File        string      `json:"file"`
	ContentType ContentType `json:"contentType,omitempty"`
	Success     bool        `json:"success"`
	Skipped     bool        `json:"skipped,omitempty"`
	DryRun      bool        `json:"dryRun,omitempty"`
	FilePath    string      `json:"filePath,omitempty"` // storage-relative
	Message     string      `json:"message,omitempty"`
	Error       string      `json:"error,omitempty"`
	ErrorType   string      `json:"errorType,omitempty"`
	Suggestion  string      `json:"suggestion,omitempty"`
}

// MigrationSummary aggregates one migrate or rollback run. SuccessCount
// includes skipped items; Errors holds run-level failures only.
type MigrationSummary struct {
	RunID        string            `json:"runId"`
	Operation    string            `json:"operation"`
	DryRun       bool              `json:"dryRun"`
	State        MigrationState    `json:"state"`
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   time.Time         `json:"finishedAt"`
	BackupDir    string            `json:"backupDir,omitempty"`
	TotalItems   int               `json:"totalItems"`
	SuccessCount int               `json:"successCount"`
	FailureCount int               `json:"failureCount"`
	SkippedCount int               `json:"skippedCount"`
	Results      []MigrationResult `json:"results"`
	Errors       []string          `json:"errors"`
}

// Add records r and updates the counters.
func (s *MigrationSummary) Add(r MigrationResult) {
	s.Results = append(s.Results, r)
	s.TotalItems++
	switch {
	case !r.Success:
		s.FailureCount++
	case r.Skipped:
		s.SuccessCount++
		s.SkippedCount++
	default:
		s.SuccessCount++
	}
}

// FileStatus is the migration progress of one legacy index file.
type FileStatus struct {
	File          string `json:"file"`
	TotalItems    int    `json:"totalItems"`
	MigratedItems int    `json:"migratedItems"`
	PendingItems  int    `json:"pendingItems"`
	Error         string `json:"error,omitempty"`
}

// MigrationStatus is the aggregate progress across legacy index files.
type MigrationStatus struct {
	State         MigrationState `json:"state"`
	TotalItems    int            `json:"totalItems"`
	MigratedItems int            `json:"migratedItems"`
	PendingItems  int            `json:"pendingItems"`
	Files         []FileStatus   `json:"files"`
	LastRunID     string         `json:"lastRunId,omitempty"`
}
