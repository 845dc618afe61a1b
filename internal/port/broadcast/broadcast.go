// Package broadcast defines the port for pushing store-mutation events to
// external sinks (connected viewers, message brokers).
package broadcast

import "context"

// Broadcaster delivers a typed event to an external sink. Delivery is
// fire-and-forget and best-effort; implementations must not block publishes
// on slow consumers.
type Broadcaster interface {
	// BroadcastEvent sends a typed event with a JSON-serializable payload.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
