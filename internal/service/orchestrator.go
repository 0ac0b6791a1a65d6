// Package service implements the run orchestration and scoring engine.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptarena/promptarena/internal/adapter/otel"
	"github.com/promptarena/promptarena/internal/config"
	"github.com/promptarena/promptarena/internal/domain"
	"github.com/promptarena/promptarena/internal/domain/event"
	"github.com/promptarena/promptarena/internal/domain/run"
	"github.com/promptarena/promptarena/internal/port/broadcast"
	"github.com/promptarena/promptarena/internal/port/runstore"
)

// RunService coordinates runs end to end: it validates submissions, drives
// the variant loop, feeds results into the Scorer and the run store, tracks
// the leader, selects the winner, and serves reads. It holds no per-run state
// of its own; everything temporal lives in the store.
type RunService struct {
	cfg         config.Config
	store       runstore.Store
	runner      *Runner
	scorer      *Scorer
	specs       []VariantSpec
	broadcaster broadcast.Broadcaster
	metrics     *otel.Metrics
	log         *slog.Logger
}

// NewRunService wires the orchestrator. broadcaster and metrics may be nil.
func NewRunService(cfg config.Config, store runstore.Store, runner *Runner, broadcaster broadcast.Broadcaster, metrics *otel.Metrics, log *slog.Logger) *RunService {
	return &RunService{
		cfg:         cfg,
		store:       store,
		runner:      runner,
		scorer:      NewScorer(cfg.Task.Labels, cfg.Arena.Weights),
		specs:       buildVariantSpecs(cfg.Arena.VariantCount, cfg.Provider.Temperature),
		broadcaster: broadcaster,
		metrics:     metrics,
		log:         log,
	}
}

// Submit validates the input, creates a pending run, and starts processing in
// the background. The returned id is immediately pollable.
func (s *RunService) Submit(ctx context.Context, inputText string) (string, error) {
	trimmed := strings.TrimSpace(inputText)
	if trimmed == "" {
		return "", fmt.Errorf("%w: input_text must not be empty", domain.ErrValidation)
	}
	if len(inputText) > s.cfg.Task.MaxInputChars {
		return "", fmt.Errorf("%w: input_text exceeds %d characters", domain.ErrValidation, s.cfg.Task.MaxInputChars)
	}

	runID := s.store.CreateRun(inputText, run.TaskConfig{
		Labels:          s.cfg.Task.Labels,
		SummaryRequired: s.cfg.Task.SummaryRequired,
	})

	if s.metrics != nil {
		s.metrics.RunsStarted.Add(ctx, 1)
	}
	s.log.Info("run submitted", "run_id", runID, "input_chars", len(inputText))

	// The run outlives the submitting request.
	go s.executeRun(context.WithoutCancel(ctx), runID, inputText)

	return runID, nil
}

// executeRun drives one run through the full state machine. Per-variant
// failures are recorded and the loop continues; only unexpected failures (or
// the run-total deadline) abort the run.
func (s *RunService) executeRun(ctx context.Context, runID, inputText string) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Arena.RunTimeout)
	defer cancel()

	ctx, span := otel.StartRunSpan(ctx, runID, len(s.specs))
	defer span.End()

	s.store.UpdateStatus(runID, run.StatusProcessing)

	leader := ""
	for i, spec := range s.specs {
		if err := ctx.Err(); err != nil {
			s.failRun(ctx, runID, span, fmt.Errorf("run timeout exceeded: %w", err))
			return
		}

		variantID := run.VariantID(i)
		s.appendEvent(ctx, runID, event.New(event.VariantStart{
			VariantID:  variantID,
			PromptSpec: spec.PromptSpec(),
		}))

		vctx, vspan := otel.StartVariantSpan(ctx, runID, variantID)
		v := s.runner.Run(vctx, variantID, spec, inputText)
		vspan.End()

		s.store.AppendVariant(runID, v)
		s.appendEvent(ctx, runID, event.New(event.VariantOutput{
			VariantID: v.VariantID,
			Output:    v.Output,
			LatencyMS: v.LatencyMS,
			Error:     v.Error,
		}))

		if v.Error != "" {
			s.log.Warn("variant failed", "run_id", runID, "variant_id", variantID, "error", v.Error)
		}

		if v.Output != nil {
			score := s.scorer.Score(v, inputText)
			s.store.AppendScore(runID, score)
			s.appendEvent(ctx, runID, event.New(event.VariantScored{
				VariantID: v.VariantID,
				Score:     score,
			}))
			s.recordVariantMetrics(ctx, v, score)
		}

		if newLeader := s.currentLeader(runID); newLeader != "" && newLeader != leader {
			s.appendEvent(ctx, runID, event.New(event.LeaderChange{
				PreviousLeader: leader,
				NewLeader:      newLeader,
			}))
			leader = newLeader
		}
	}

	winner := s.selectWinner(runID)
	if winner != "" {
		s.store.SetWinner(runID, winner)
	}

	s.appendEvent(ctx, runID, event.New(event.RunComplete{
		WinnerVariantID: winner,
		TotalVariants:   len(s.specs),
	}))
	s.store.UpdateStatus(runID, run.StatusComplete)

	if s.metrics != nil {
		s.metrics.RunsCompleted.Add(ctx, 1)
	}
	s.log.Info("run complete", "run_id", runID, "winner", winner)
}

// failRun records a run-fatal error: Error event, terminal error status, no
// winner.
func (s *RunService) failRun(ctx context.Context, runID string, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	s.appendEvent(ctx, runID, event.New(event.Failure{Error: err.Error()}))
	s.store.UpdateStatus(runID, run.StatusError)

	if s.metrics != nil {
		s.metrics.RunsFailed.Add(ctx, 1)
	}
	s.log.Error("run failed", "run_id", runID, "error", err)
}

// appendEvent persists the event (the store clamps its timestamp) and then
// fans it out to live consumers. Broadcast is best effort.
func (s *RunService) appendEvent(ctx context.Context, runID string, ev event.Event) {
	s.store.AppendEvent(runID, ev)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRunEvent(ctx, runID, ev)
	}
}

func (s *RunService) recordVariantMetrics(ctx context.Context, v run.Variant, score run.Score) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("variant.id", v.VariantID))
	if v.LatencyMS != nil {
		s.metrics.VariantLatency.Record(ctx, float64(*v.LatencyMS), attrs)
	}
	s.metrics.ScoreTotal.Record(ctx, score.Total, attrs)
}

// currentLeader returns the variant with the highest total among scores
// recorded so far. Ties resolve to the earliest recorded score. Empty when
// nothing is scored yet.
func (s *RunService) currentLeader(runID string) string {
	snap, err := s.store.GetRun(runID)
	if err != nil {
		return ""
	}

	leader := ""
	best := 0.0
	for _, sc := range snap.Scores {
		if leader == "" || sc.Total > best {
			leader = sc.VariantID
			best = sc.Total
		}
	}
	return leader
}

// selectWinner sorts scored variants by (-total, latency ascending) and
// returns the first, or empty when no variant scored.
func (s *RunService) selectWinner(runID string) string {
	snap, err := s.store.GetRun(runID)
	if err != nil || len(snap.Scores) == 0 {
		return ""
	}

	latency := make(map[string]int64, len(snap.Variants))
	for _, v := range snap.Variants {
		if v.LatencyMS != nil {
			latency[v.VariantID] = *v.LatencyMS
		}
	}

	scores := append([]run.Score(nil), snap.Scores...)
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return latency[scores[i].VariantID] < latency[scores[j].VariantID]
	})
	return scores[0].VariantID
}

// Get returns a full run snapshot.
func (s *RunService) Get(runID string) (*runstore.Snapshot, error) {
	return s.store.GetRun(runID)
}

// List returns up to limit recent run summaries, newest first.
func (s *RunService) List(limit int) []runstore.Summary {
	return s.store.ListRecent(limit)
}

// Events returns the run's full event history so far, oldest first.
func (s *RunService) Events(runID string) ([]event.Event, error) {
	if _, err := s.store.GetRun(runID); err != nil {
		return nil, err
	}
	return s.store.ListEvents(runID), nil
}

// Watch streams the run's events: the full existing log first, then a live
// tail polled at the configured interval until the run reaches a terminal
// status. The returned channel closes when the run terminates or ctx is done.
func (s *RunService) Watch(ctx context.Context, runID string) (<-chan event.Event, error) {
	if _, err := s.store.GetRun(runID); err != nil {
		return nil, err
	}

	out := make(chan event.Event)
	go func() {
		defer close(out)

		cursor := 0
		ticker := time.NewTicker(s.cfg.Store.PollInterval)
		defer ticker.Stop()

		for {
			events := s.store.ListEvents(runID)
			for ; cursor < len(events); cursor++ {
				select {
				case out <- events[cursor]:
				case <-ctx.Done():
					return
				}
			}

			snap, err := s.store.GetRun(runID)
			if err != nil || snap.Status.Terminal() {
				// Drain anything appended between the list and the
				// status read.
				events = s.store.ListEvents(runID)
				for ; cursor < len(events); cursor++ {
					select {
					case out <- events[cursor]:
					case <-ctx.Done():
						return
					}
				}
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// PublicConfig is the read-only configuration projection served to clients.
type PublicConfig struct {
	Labels        []string `json:"labels"`
	MaxInputChars int      `json:"max_input_chars"`
	VariantCount  int      `json:"variant_count"`
	DemoExamples  []string `json:"demo_examples"`
}

// Config returns the public configuration projection.
func (s *RunService) Config() PublicConfig {
	return PublicConfig{
		Labels:        s.cfg.Task.Labels,
		MaxInputChars: s.cfg.Task.MaxInputChars,
		VariantCount:  len(s.specs),
		DemoExamples:  s.cfg.DemoExamples,
	}
}

// Stats returns store occupancy statistics.
func (s *RunService) Stats() runstore.Stats {
	return s.store.Stats()
}

// Explain returns the score breakdown for one variant of a run.
func (s *RunService) Explain(runID, variantID string) (*Explanation, error) {
	snap, err := s.store.GetRun(runID)
	if err != nil {
		return nil, err
	}

	var variant *run.Variant
	for i := range snap.Variants {
		if snap.Variants[i].VariantID == variantID {
			variant = &snap.Variants[i]
			break
		}
	}
	if variant == nil {
		return nil, fmt.Errorf("%w: variant %s", domain.ErrNotFound, variantID)
	}

	var score run.Score
	for _, sc := range snap.Scores {
		if sc.VariantID == variantID {
			score = sc
			break
		}
	}

	exp := s.scorer.Explain(score, *variant, snap.InputText)
	return &exp, nil
}
