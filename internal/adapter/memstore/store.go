// Package memstore provides the in-memory runstore.Store implementation.
package memstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promptarena/promptarena/internal/domain"
	"github.com/promptarena/promptarena/internal/domain/event"
	"github.com/promptarena/promptarena/internal/domain/run"
	"github.com/promptarena/promptarena/internal/port/runstore"
)

// entry is the store-owned mutable state for one run.
type entry struct {
	run    run.Run
	events []event.Event
}

// Store keeps all runs in process memory under a single mutex. When the run
// count exceeds maxRuns, creation evicts the oldest runs first; the run being
// created is never evicted.
type Store struct {
	mu      sync.Mutex
	runs    map[string]*entry
	order   []string // run ids, oldest first
	maxRuns int
	now     func() time.Time
}

// New creates a Store retaining at most maxRuns runs.
func New(maxRuns int) *Store {
	return &Store{
		runs:    make(map[string]*entry),
		maxRuns: maxRuns,
		now:     time.Now,
	}
}

// CreateRun allocates a pending run and returns its id.
func (s *Store) CreateRun(inputText string, task run.TaskConfig) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.runs[id] = &entry{
		run: run.Run{
			RunID:     id,
			InputText: inputText,
			CreatedAt: s.now().UTC(),
			Status:    run.StatusPending,
			TaskConfig: run.TaskConfig{
				Labels:          append([]string(nil), task.Labels...),
				SummaryRequired: task.SummaryRequired,
			},
		},
	}
	s.order = append(s.order, id)
	s.evictLocked()
	return id
}

// evictLocked drops the oldest runs until the count fits the cap.
// The caller must hold s.mu.
func (s *Store) evictLocked() {
	for len(s.order) > s.maxRuns {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
}

// GetRun returns a deep copy of the run and its event log.
func (s *Store) GetRun(runID string) (*runstore.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &runstore.Snapshot{
		Run:      copyRun(&e.run),
		EventLog: append([]event.Event(nil), e.events...),
	}, nil
}

// UpdateStatus sets the run status. Unknown ids are ignored.
func (s *Store) UpdateStatus(runID string, status run.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.runs[runID]; ok {
		e.run.Status = status
	}
}

// AppendVariant records an executed variant. Unknown ids are ignored.
func (s *Store) AppendVariant(runID string, v run.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.runs[runID]; ok {
		e.run.Variants = append(e.run.Variants, copyVariant(v))
	}
}

// AppendScore records a variant score. Unknown ids are ignored.
func (s *Store) AppendScore(runID string, sc run.Score) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.runs[runID]; ok {
		e.run.Scores = append(e.run.Scores, sc)
	}
}

// SetWinner records the winning variant id. Unknown run ids are ignored.
func (s *Store) SetWinner(runID, variantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.runs[runID]; ok {
		e.run.WinnerVariantID = variantID
	}
}

// AppendEvent appends to the run's event log, clamping the timestamp so the
// log stays non-decreasing. Unknown ids are ignored.
func (s *Store) AppendEvent(runID string, ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[runID]
	if !ok {
		return
	}
	if n := len(e.events); n > 0 && ev.TS < e.events[n-1].TS {
		ev.TS = e.events[n-1].TS
	}
	e.events = append(e.events, ev)
}

// ListEvents returns a copy of the run's event log, oldest first.
func (s *Store) ListEvents(runID string) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[runID]
	if !ok {
		return []event.Event{}
	}
	return append([]event.Event(nil), e.events...)
}

// ListRecent returns up to limit run summaries, newest first.
func (s *Store) ListRecent(limit int) []runstore.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]runstore.Summary, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.runs[s.order[i]]
		out = append(out, runstore.Summary{
			RunID:           e.run.RunID,
			InputText:       e.run.InputText,
			Status:          e.run.Status,
			CreatedAt:       e.run.CreatedAt,
			WinnerVariantID: e.run.WinnerVariantID,
		})
	}
	return out
}

// Stats reports the store's occupancy and status breakdown.
func (s *Store) Stats() runstore.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, e := range s.runs {
		counts[string(e.run.Status)]++
	}
	return runstore.Stats{
		TotalRuns:    len(s.runs),
		StatusCounts: counts,
		MaxRuns:      s.maxRuns,
	}
}

func copyRun(r *run.Run) run.Run {
	out := *r
	out.TaskConfig.Labels = append([]string(nil), r.TaskConfig.Labels...)
	out.Variants = make([]run.Variant, len(r.Variants))
	for i, v := range r.Variants {
		out.Variants[i] = copyVariant(v)
	}
	out.Scores = append([]run.Score(nil), r.Scores...)
	return out
}

func copyVariant(v run.Variant) run.Variant {
	if v.Output != nil {
		o := *v.Output
		v.Output = &o
	}
	if v.LatencyMS != nil {
		l := *v.LatencyMS
		v.LatencyMS = &l
	}
	return v
}
