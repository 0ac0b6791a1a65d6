package event

import (
	"encoding/json"
	"testing"

	"github.com/promptarena/promptarena/internal/domain/run"
)

func TestNewStampsTypeFromPayload(t *testing.T) {
	ev := New(LeaderChange{NewLeader: "v2"})
	if ev.Type != TypeLeaderChange {
		t.Errorf("expected LeaderChange type, got %s", ev.Type)
	}
	if ev.TS <= 0 {
		t.Errorf("expected positive timestamp, got %v", ev.TS)
	}
}

func TestEventRoundTrip(t *testing.T) {
	latency := int64(120)
	ev := Event{
		TS:   1700000000123.5,
		Type: TypeVariantOutput,
		Payload: VariantOutput{
			VariantID: "v1",
			Output:    &run.VariantOutput{Category: "billing", Summary: "double charge"},
			LatencyMS: &latency,
		},
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}

	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}

	if got.TS != ev.TS || got.Type != ev.Type {
		t.Errorf("envelope mismatch: %+v", got)
	}
	payload, ok := got.Payload.(VariantOutput)
	if !ok {
		t.Fatalf("unexpected payload type %T", got.Payload)
	}
	if payload.Output == nil || payload.Output.Category != "billing" {
		t.Errorf("unexpected payload %+v", payload)
	}
	if payload.LatencyMS == nil || *payload.LatencyMS != 120 {
		t.Errorf("latency lost in round trip: %+v", payload)
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	var ev Event
	err := json.Unmarshal([]byte(`{"ts":1,"type":"Bogus","payload":{}}`), &ev)
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestErrorEventPayload(t *testing.T) {
	ev := New(Failure{Error: "run timeout exceeded"})
	if ev.Type != TypeError {
		t.Errorf("Failure payload must map to the Error type, got %s", ev.Type)
	}

	data, _ := json.Marshal(ev)
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if p, ok := got.Payload.(Failure); !ok || p.Error != "run timeout exceeded" {
		t.Errorf("unexpected payload %+v", got.Payload)
	}
}
