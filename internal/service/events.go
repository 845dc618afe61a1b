// Package service contains application services.
package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/taskdock/taskdock/internal/port/broadcast"
)

// Event type constants for store-mutation notifications.
const (
	EventDeliverableAdded = "deliverable.added"
	EventTaskCreated      = "task.created"
)

// Subscriber receives an event payload. Failures (including panics) are
// contained and never affect the publish outcome.
type Subscriber func(ctx context.Context, payload any)

// EventBus is the process-wide publish/subscribe channel for store
// mutations. In-process subscribers register and unregister explicitly;
// external sinks (websocket hub, message broker) are attached as
// broadcast.Broadcaster adapters. Delivery is fire-and-forget and
// at-most-once per publish call.
type EventBus struct {
	mu    sync.RWMutex
	next  int
	subs  map[string]map[int]Subscriber
	sinks []broadcast.Broadcaster
}

// NewEventBus creates an EventBus forwarding every event to the given sinks.
func NewEventBus(sinks ...broadcast.Broadcaster) *EventBus {
	return &EventBus{
		subs:  make(map[string]map[int]Subscriber),
		sinks: sinks,
	}
}

// Subscribe registers fn for the given event type and returns an
// unsubscribe function. Unsubscribing twice is harmless.
func (b *EventBus) Subscribe(eventType string, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[int]Subscriber)
	}
	id := b.next
	b.next++
	b.subs[eventType][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[eventType], id)
	}
}

// Publish delivers the event to all current subscribers of the type, then
// to every sink. Subscriber errors and panics are logged and swallowed.
func (b *EventBus) Publish(ctx context.Context, eventType string, payload any) {
	b.mu.RLock()
	fns := make([]Subscriber, 0, len(b.subs[eventType]))
	for _, fn := range b.subs[eventType] {
		fns = append(fns, fn)
	}
	sinks := b.sinks
	b.mu.RUnlock()

	for _, fn := range fns {
		deliver(ctx, eventType, payload, fn)
	}
	for _, sink := range sinks {
		deliver(ctx, eventType, payload, func(ctx context.Context, p any) {
			sink.BroadcastEvent(ctx, eventType, p)
		})
	}
}

// SubscriberCount returns the number of in-process subscribers for a type.
func (b *EventBus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[eventType])
}

func deliver(ctx context.Context, eventType string, payload any, fn Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event subscriber panicked", "type", eventType, "panic", r)
		}
	}()
	fn(ctx, payload)
}
