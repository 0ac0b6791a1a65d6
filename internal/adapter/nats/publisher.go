// Package nats mirrors run events onto NATS JetStream for external consumers.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/promptarena/promptarena/internal/domain/event"
)

const streamName = "ARENA"

// Publisher implements the broadcast.Broadcaster port on JetStream. Each run
// event is published to "<prefix>.<run_id>.events"; publish failures are
// logged and never surface to the run.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	prefix string
}

// Connect establishes a NATS connection and ensures the event stream exists.
func Connect(ctx context.Context, url, subjectPrefix string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	prefix := strings.TrimSuffix(subjectPrefix, ".")
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{prefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName, "prefix", prefix)
	return &Publisher{nc: nc, js: js, prefix: prefix}, nil
}

// BroadcastRunEvent publishes the event to the run's subject. Best effort.
func (p *Publisher) BroadcastRunEvent(ctx context.Context, runID string, ev event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshal run event for nats", "run_id", runID, "type", ev.Type, "error", err)
		return
	}

	subject := fmt.Sprintf("%s.%s.events", p.prefix, runID)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		slog.Error("nats publish failed", "subject", subject, "error", err)
	}
}

// Close shuts down the NATS connection.
func (p *Publisher) Close() error {
	p.nc.Close()
	return nil
}
