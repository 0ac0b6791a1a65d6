// Package run defines the Run aggregate for a single optimization attempt.
package run

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a run.
// Transitions only move forward: pending -> processing -> {complete, error}.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// TaskConfig is the classification task snapshot taken at run creation.
// It never changes afterwards, even if the global configuration is reloaded.
type TaskConfig struct {
	Labels          []string `json:"labels"`
	SummaryRequired bool     `json:"summary_required"`
}

// VariantOutput is the provider's answer for one variant. Immutable once produced.
type VariantOutput struct {
	Category string `json:"category"`
	Summary  string `json:"summary"`
}

// Variant is one prompt specification executed against the provider for a run.
// After execution exactly one of Output and Error is set; both absent means
// the variant has not run yet.
type Variant struct {
	VariantID  string         `json:"variant_id"`
	PromptSpec string         `json:"prompt_spec"`
	Output     *VariantOutput `json:"output,omitempty"`
	LatencyMS  *int64         `json:"latency_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Components holds the five deterministic rubric scores. Each is in [0,1];
// SummaryLenOK decays linearly past the word limit and is floored at 0.
type Components struct {
	LabelValid   float64 `json:"label_valid"`
	LabelMatch   float64 `json:"label_match"`
	SummaryLenOK float64 `json:"summary_len_ok"`
	NoHedging    float64 `json:"no_hedging"`
	FormatOK     float64 `json:"format_ok"`
}

// Score is the weighted rubric result for one variant. VariantID is a
// reference into Run.Variants, not ownership.
type Score struct {
	VariantID  string     `json:"variant_id"`
	Total      float64    `json:"total"`
	Components Components `json:"components"`
}

// Run is one end-to-end optimization attempt for a single input text.
// The run store exclusively owns instances; everyone else sees copies.
type Run struct {
	RunID           string     `json:"run_id"`
	InputText       string     `json:"input_text"`
	CreatedAt       time.Time  `json:"created_at"`
	Status          Status     `json:"status"`
	Variants        []Variant  `json:"variants"`
	Scores          []Score    `json:"scores"`
	WinnerVariantID string     `json:"winner_variant_id,omitempty"`
	TaskConfig      TaskConfig `json:"task_config"`
}

// VariantID returns the stable id for the variant at the given index: v1, v2, ...
func VariantID(index int) string {
	return fmt.Sprintf("v%d", index+1)
}
