// Package event defines the append-only entries of a run's event log.
//
// Each entry carries a millisecond timestamp, a Type, and one payload from a
// closed set — one payload struct per Type, so consumers switching on the
// payload stay exhaustive at compile time.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/promptarena/promptarena/internal/domain/run"
)

// Type identifies the kind of run event.
type Type string

const (
	TypeVariantStart  Type = "VariantStart"
	TypeVariantOutput Type = "VariantOutput"
	TypeVariantScored Type = "VariantScored"
	TypeLeaderChange  Type = "LeaderChange"
	TypeRunComplete   Type = "RunComplete"
	TypeError         Type = "Error"
)

// Payload is implemented by exactly one struct per Type.
type Payload interface {
	eventType() Type
}

// VariantStart marks the beginning of one variant's execution.
type VariantStart struct {
	VariantID  string `json:"variant_id"`
	PromptSpec string `json:"prompt_spec"`
}

// VariantOutput carries the result of one variant's execution. Output is nil
// and Error is set when the variant timed out or the provider failed.
type VariantOutput struct {
	VariantID string             `json:"variant_id"`
	Output    *run.VariantOutput `json:"output"`
	LatencyMS *int64             `json:"latency_ms"`
	Error     string             `json:"error,omitempty"`
}

// VariantScored carries the deterministic score of a successful variant.
type VariantScored struct {
	VariantID string    `json:"variant_id"`
	Score     run.Score `json:"score"`
}

// LeaderChange records the highest-scoring variant overtaking the previous one.
// PreviousLeader is empty for the first leader of a run.
type LeaderChange struct {
	PreviousLeader string `json:"previous_leader,omitempty"`
	NewLeader      string `json:"new_leader"`
}

// RunComplete marks the end of a run. WinnerVariantID is empty when no
// variant produced a score.
type RunComplete struct {
	WinnerVariantID string `json:"winner_variant_id,omitempty"`
	TotalVariants   int    `json:"total_variants"`
}

// Failure records a run-fatal error that aborted the variant loop.
type Failure struct {
	Error string `json:"error"`
}

func (VariantStart) eventType() Type  { return TypeVariantStart }
func (VariantOutput) eventType() Type { return TypeVariantOutput }
func (VariantScored) eventType() Type { return TypeVariantScored }
func (LeaderChange) eventType() Type  { return TypeLeaderChange }
func (RunComplete) eventType() Type   { return TypeRunComplete }
func (Failure) eventType() Type       { return TypeError }

// Event is a single immutable entry in a run's event log. TS is wall-clock
// milliseconds; the store keeps it non-decreasing within a run.
type Event struct {
	TS      float64 `json:"ts"`
	Type    Type    `json:"type"`
	Payload Payload `json:"payload"`
}

// New stamps the payload with the current wall clock.
func New(p Payload) Event {
	return Event{
		TS:      float64(time.Now().UnixNano()) / 1e6,
		Type:    p.eventType(),
		Payload: p,
	}
}

// UnmarshalJSON decodes the payload into the concrete struct for the
// event's type, preserving the wire shape {ts, type, payload}.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		TS      float64         `json:"ts"`
		Type    Type            `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.TS = raw.TS
	e.Type = raw.Type

	switch raw.Type {
	case TypeVariantStart:
		var p VariantStart
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		e.Payload = p
	case TypeVariantOutput:
		var p VariantOutput
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		e.Payload = p
	case TypeVariantScored:
		var p VariantScored
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		e.Payload = p
	case TypeLeaderChange:
		var p LeaderChange
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		e.Payload = p
	case TypeRunComplete:
		var p RunComplete
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		e.Payload = p
	case TypeError:
		var p Failure
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		e.Payload = p
	default:
		return fmt.Errorf("unknown event type %q", raw.Type)
	}

	return nil
}
