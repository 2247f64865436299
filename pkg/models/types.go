package models

import "time"

// Release is one entry of the service's release list
type Release struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ReleaseModule is one module listed for a release and language
type ReleaseModule struct {
	Module string `json:"module"`
	Branch string `json:"branch"`
	Stats  string `json:"stats"` // server-relative detail resource path
}

// StatRef identifies a detail resource either by path or by its identifiers
type StatRef struct {
	Path     string
	Module   string
	Branch   string
	Domain   string
	Language string
}

// Sync run sources and statuses
const (
	SourceCache  = "cache"
	SourceRemote = "remote"

	RunDone     = "done"
	RunFailed   = "failed"
	RunCanceled = "canceled"
)

// SyncFailure records one module that could not be fetched
type SyncFailure struct {
	Module string `json:"module"`
	Branch string `json:"branch"`
	Error  string `json:"error"`
}

// SyncRun is the journal record of one sync operation
type SyncRun struct {
	ID         string        `json:"id"`
	Release    string        `json:"release"`
	Language   string        `json:"language"`
	Source     string        `json:"source"`
	Status     string        `json:"status"`
	Total      int           `json:"total"`
	Fetched    int           `json:"fetched"`
	Skipped    int           `json:"skipped"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Failures   []SyncFailure `json:"failures,omitempty"`
}

// Duration returns how long the run took
func (r SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
