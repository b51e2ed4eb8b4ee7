package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus returned nil")
	}
	if bus.handlers == nil {
		t.Error("handlers map not initialized")
	}
	if bus.allHandlers == nil {
		t.Error("allHandlers map not initialized")
	}
}

func TestSubscribe(t *testing.T) {
	bus := NewBus()

	id := bus.Subscribe(TypeStateChanged, func(e Event) {})

	if id == "" {
		t.Error("Subscribe returned empty ID")
	}
	if !bus.HasSubscribers(TypeStateChanged) {
		t.Error("HasSubscribers returned false after Subscribe")
	}
}

func TestSubscribeMultiple(t *testing.T) {
	bus := NewBus()

	id1 := bus.Subscribe(TypeStateChanged, func(e Event) {})
	id2 := bus.Subscribe(TypeStateChanged, func(e Event) {})

	if id1 == id2 {
		t.Error("Subscribe returned duplicate IDs")
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus()

	id := bus.SubscribeAll(func(e Event) {})

	if id == "" {
		t.Error("SubscribeAll returned empty ID")
	}
	if !bus.HasSubscribers(TypeStateChanged) {
		t.Error("HasSubscribers returned false for TypeStateChanged after SubscribeAll")
	}
	if !bus.HasSubscribers(TypeError) {
		t.Error("HasSubscribers returned false for TypeError after SubscribeAll")
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	id := bus.Subscribe(TypeStateChanged, func(e Event) {})
	bus.Unsubscribe(id)

	if bus.HasSubscribers(TypeStateChanged) {
		t.Error("HasSubscribers returned true after Unsubscribe")
	}
}

func TestUnsubscribeAll(t *testing.T) {
	bus := NewBus()

	id := bus.SubscribeAll(func(e Event) {})
	bus.Unsubscribe(id)

	if bus.HasSubscribers(TypeStateChanged) {
		t.Error("HasSubscribers returned true after Unsubscribe of all-handler")
	}
}

func TestUnsubscribeNonexistent(t *testing.T) {
	bus := NewBus()

	// Should not panic
	bus.Unsubscribe("nonexistent")
}

func TestPublish(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(TypeStateChanged, func(e Event) {
		received = e
	})

	bus.Publish(StateChangedEvent{
		EpicID: "auth-service",
		From:   "contracts_locked",
		To:     "implementing",
	})

	if received.Type != TypeStateChanged {
		t.Errorf("received event type = %v, want %v", received.Type, TypeStateChanged)
	}
	if received.Data["from"] != "contracts_locked" {
		t.Errorf("received from = %v, want contracts_locked", received.Data["from"])
	}
	if received.Data["to"] != "implementing" {
		t.Errorf("received to = %v, want implementing", received.Data["to"])
	}
}

func TestPublishToMultipleSubscribers(t *testing.T) {
	bus := NewBus()

	var count atomic.Int32

	bus.Subscribe(TypeEpicAssigned, func(e Event) { count.Add(1) })
	bus.Subscribe(TypeEpicAssigned, func(e Event) { count.Add(1) })
	bus.Subscribe(TypeEpicAssigned, func(e Event) { count.Add(1) })

	bus.Publish(EpicAssignedEvent{EpicID: "auth-service", Worker: "w1"})

	if count.Load() != 3 {
		t.Errorf("count = %d, want 3", count.Load())
	}
}

func TestPublishRaw(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(TypeError, func(e Event) {
		received = e
	})

	bus.PublishRaw(Event{
		Type:      TypeError,
		Timestamp: time.Now(),
		Data:      map[string]any{"message": "test error"},
	})

	if received.Type != TypeError {
		t.Errorf("received event type = %v, want %v", received.Type, TypeError)
	}
	if received.Data["message"] != "test error" {
		t.Errorf("received message = %v, want 'test error'", received.Data["message"])
	}
}

func TestPublishDoesNotReachOtherTypes(t *testing.T) {
	bus := NewBus()

	var called bool
	bus.Subscribe(TypeError, func(e Event) {
		called = true
	})

	bus.Publish(StateChangedEvent{EpicID: "a", From: "planned", To: "blocked"})

	if called {
		t.Error("handler for TypeError was called for StateChanged event")
	}
}

func TestSubscribeAllReceivesAllTypes(t *testing.T) {
	bus := NewBus()

	var events []Event
	var mu sync.Mutex
	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	bus.Publish(StateChangedEvent{EpicID: "a", From: "review", To: "integrated"})
	bus.Publish(ErrorEvent{EpicID: "a"})

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Errorf("received %d events, want 2", len(events))
	}
}

func TestClear(t *testing.T) {
	bus := NewBus()

	bus.Subscribe(TypeStateChanged, func(e Event) {})
	bus.SubscribeAll(func(e Event) {})

	bus.Clear()

	if bus.HasSubscribers(TypeStateChanged) {
		t.Error("HasSubscribers returned true after Clear")
	}
}

func TestPublishAsync(t *testing.T) {
	bus := NewBus()

	done := make(chan Event, 1)
	bus.Subscribe(TypeWorkspaceCreated, func(e Event) {
		done <- e
	})

	bus.PublishAsync(WorkspaceCreatedEvent{EpicID: "auth-service", Path: "/tmp/ws", Branch: "epic/auth-service"})

	select {
	case e := <-done:
		if e.Data["epic_id"] != "auth-service" {
			t.Errorf("epic_id = %v, want auth-service", e.Data["epic_id"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("async event never delivered")
	}
}

func TestConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var count atomic.Int64
	bus.Subscribe(TypeEpicParked, func(e Event) {
		count.Add(1)
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			bus.Publish(EpicParkedEvent{EpicID: "a", Reason: "waiting on API contract"})
		})
	}

	wg.Wait()

	if count.Load() != 100 {
		t.Errorf("count = %d, want 100", count.Load())
	}
}

func TestConcurrentSubscribeUnsubscribe(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			id := bus.Subscribe(TypeEpicParked, func(e Event) {})
			bus.Unsubscribe(id)
		})
	}
	wg.Wait()

	if bus.HasSubscribers(TypeEpicParked) {
		t.Error("subscriptions leaked after concurrent subscribe/unsubscribe")
	}
}
