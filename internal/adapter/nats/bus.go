// Package nats implements an external event sink on NATS JetStream.
// Store-mutation events published here let off-process subscribers react to
// new deliverables without holding a websocket open.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName    = "TASKDOCK"
	subjectPrefix = "events."
)

// Bus publishes deliverable events to NATS JetStream.
// Implements broadcast.Broadcaster.
type Bus struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the events stream exists.
func Connect(ctx context.Context, url string) (*Bus, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ">"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Bus{nc: nc, js: js}, nil
}

// BroadcastEvent publishes the event to events.<type>. Delivery is
// best-effort: failures are logged, never surfaced to the publisher.
func (b *Bus) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal nats event payload", "type", eventType, "error", err)
		return
	}

	if _, err := b.js.Publish(ctx, subjectPrefix+eventType, data); err != nil {
		slog.Error("nats publish failed", "type", eventType, "error", err)
	}
}

// KeyValue ensures the named KV bucket exists and returns it. Entries expire
// at the bucket level with the given TTL.
func (b *Bus) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := b.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("jetstream kv bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// IsConnected reports whether the underlying connection is alive.
func (b *Bus) IsConnected() bool {
	return b.nc.IsConnected()
}

// Close shuts down the NATS connection.
func (b *Bus) Close() {
	b.nc.Close()
}
