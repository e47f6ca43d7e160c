package ingest

import (
	"errors"
	"time"
)

// ErrSyncInProgress is returned when a manual sync is requested while one is running.
var ErrSyncInProgress = errors.New("sync already in progress")

// Outcome records which path produced a game's data.
type Outcome string

const (
	OutcomeStructured Outcome = "structured"
	OutcomeFallback   Outcome = "fallback"
	OutcomeSkipped    Outcome = "skipped"
)

const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// Result describes one FetchOne call.
type Result struct {
	AppID     int64
	Outcome   Outcome
	GameID    string
	Followers int64
}

// Run is the bookkeeping row for one SyncMany pass.
type Run struct {
	ID         string
	Trigger    string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Processed  int
	Succeeded  int
	Failed     int
	Skipped    int
	Error      string
}
