// Package runstore defines the port interface for run aggregate storage.
//
// The store is the single shared-mutable-state boundary of the service: every
// operation is serialized internally and reads return deep copies, so callers
// never observe a partially-mutated run. Mutators against an unknown run id
// are silent no-ops ("best-effort append"): background processing must not
// fail on ids that retention has already evicted.
package runstore

import (
	"time"

	"github.com/promptarena/promptarena/internal/domain/event"
	"github.com/promptarena/promptarena/internal/domain/run"
)

// Snapshot is an immutable deep copy of full run state as of call time.
type Snapshot struct {
	run.Run
	EventLog []event.Event `json:"event_log"`
}

// Summary is the trimmed shape returned by recent-run listings.
type Summary struct {
	RunID           string     `json:"run_id"`
	InputText       string     `json:"input_text"`
	Status          run.Status `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	WinnerVariantID string     `json:"winner_variant_id,omitempty"`
}

// Stats describes the store's current occupancy.
type Stats struct {
	TotalRuns    int            `json:"total_runs"`
	StatusCounts map[string]int `json:"status_counts"`
	MaxRuns      int            `json:"max_runs"`
}

// Store owns the Run aggregate and everything nested under it.
type Store interface {
	// CreateRun allocates a pending run with a task config snapshot and
	// returns its id. Creation may evict the oldest runs beyond the
	// retention cap, never the run being created.
	CreateRun(inputText string, task run.TaskConfig) string

	// GetRun returns a deep copy of the run, or domain.ErrNotFound.
	GetRun(runID string) (*Snapshot, error)

	// UpdateStatus sets the run status. Forward-only ordering is the
	// orchestrator's responsibility, not enforced here.
	UpdateStatus(runID string, status run.Status)

	AppendVariant(runID string, v run.Variant)
	AppendScore(runID string, s run.Score)
	SetWinner(runID, variantID string)

	// AppendEvent appends to the run's event log. Timestamps are clamped
	// so the log stays non-decreasing within the run.
	AppendEvent(runID string, ev event.Event)

	// ListEvents returns the full event history as of call time, oldest first.
	// An unknown run id yields an empty slice.
	ListEvents(runID string) []event.Event

	// ListRecent returns up to limit run summaries, newest first.
	ListRecent(limit int) []Summary

	Stats() Stats
}
