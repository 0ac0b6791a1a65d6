// Package broadcast defines the port for pushing run events to live consumers.
package broadcast

import (
	"context"

	"github.com/promptarena/promptarena/internal/domain/event"
)

// Broadcaster delivers a run event to connected consumers. Delivery is
// best-effort: the event log in the run store remains the source of truth.
type Broadcaster interface {
	BroadcastRunEvent(ctx context.Context, runID string, ev event.Event)
}

// Multi fans a run event out to several broadcasters.
type Multi []Broadcaster

// BroadcastRunEvent implements Broadcaster.
func (m Multi) BroadcastRunEvent(ctx context.Context, runID string, ev event.Event) {
	for _, b := range m {
		b.BroadcastRunEvent(ctx, runID, ev)
	}
}
