package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

// recordingSink collects forwarded events.
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) BroadcastEvent(_ context.Context, eventType string, _ any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, eventType)
}

func (s *recordingSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func TestEventBusPublishAndSubscribe(t *testing.T) {
	bus := NewEventBus()

	var got atomic.Value
	bus.Subscribe(EventDeliverableAdded, func(_ context.Context, payload any) {
		got.Store(payload)
	})

	bus.Publish(context.Background(), EventDeliverableAdded, "hello")
	if got.Load() != "hello" {
		t.Fatalf("expected payload delivered, got %v", got.Load())
	}
}

func TestEventBusTypeIsolation(t *testing.T) {
	bus := NewEventBus()

	var calls atomic.Int64
	bus.Subscribe(EventTaskCreated, func(context.Context, any) { calls.Add(1) })

	bus.Publish(context.Background(), EventDeliverableAdded, nil)
	if calls.Load() != 0 {
		t.Fatalf("subscriber for another type must not fire, got %d calls", calls.Load())
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()

	var calls atomic.Int64
	unsub := bus.Subscribe(EventDeliverableAdded, func(context.Context, any) { calls.Add(1) })

	bus.Publish(context.Background(), EventDeliverableAdded, nil)
	unsub()
	unsub() // second call is a no-op
	bus.Publish(context.Background(), EventDeliverableAdded, nil)

	if calls.Load() != 1 {
		t.Fatalf("expected 1 call after unsubscribe, got %d", calls.Load())
	}
	if n := bus.SubscriberCount(EventDeliverableAdded); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
}

func TestEventBusPanicContained(t *testing.T) {
	bus := NewEventBus()

	var after atomic.Int64
	bus.Subscribe(EventDeliverableAdded, func(context.Context, any) { panic("boom") })
	bus.Subscribe(EventDeliverableAdded, func(context.Context, any) { after.Add(1) })

	bus.Publish(context.Background(), EventDeliverableAdded, nil)
	if after.Load() != 1 {
		t.Fatalf("panic in one subscriber must not starve others, got %d", after.Load())
	}
}

func TestEventBusForwardsToSinks(t *testing.T) {
	sink := &recordingSink{}
	bus := NewEventBus(sink)

	bus.Publish(context.Background(), EventDeliverableAdded, nil)
	bus.Publish(context.Background(), EventTaskCreated, nil)

	got := sink.all()
	if len(got) != 2 || got[0] != EventDeliverableAdded || got[1] != EventTaskCreated {
		t.Fatalf("unexpected sink events: %v", got)
	}
}
