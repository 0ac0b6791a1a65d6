package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/promptarena/promptarena/internal/domain/event"
)

// MessageTypeRunEvent is the envelope type for run event broadcasts.
const MessageTypeRunEvent = "run.event"

// BroadcastRunEvent fans a run event out to every connected client.
// Implements the broadcast.Broadcaster port. Delivery is best effort: a
// marshal or write failure is logged and never surfaces to the run.
func (h *Hub) BroadcastRunEvent(ctx context.Context, runID string, ev event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshal run event", "run_id", runID, "type", ev.Type, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    MessageTypeRunEvent,
		RunID:   runID,
		Payload: json.RawMessage(data),
	})
}
