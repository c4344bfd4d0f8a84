package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/cellflow/pkg/ports"
)

type subscription struct {
	id      uint64
	handler ports.EventHandler
}

// EventBus implements ports.EventBus with in-process handler fan-out. It is
// the default backend for single-process deployments and tests.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]subscription
	nextID      uint64
	closed      bool
}

// NewEventBus creates a new in-memory event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]subscription),
	}
}

// Publish delivers an event to all subscribers of a topic. Handlers run
// asynchronously; their errors do not surface to the publisher.
func (e *EventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	subs := make([]subscription, len(e.subscribers[topic]))
	copy(subs, e.subscribers[topic])
	e.mu.RUnlock()

	for _, sub := range subs {
		go func(s subscription) {
			_ = s.handler(ctx, event)
		}(sub)
	}
	return nil
}

// Subscribe registers a handler for a topic. The subscription is removed
// when ctx is cancelled.
func (e *EventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("event bus is closed")
	}
	e.nextID++
	id := e.nextID
	e.subscribers[topic] = append(e.subscribers[topic], subscription{id: id, handler: handler})
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(topic, id)
	}()

	return nil
}

// Unsubscribe removes all subscriptions from a topic.
func (e *EventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.subscribers, topic)
	return nil
}

// Close drops all subscriptions.
func (e *EventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers = make(map[string][]subscription)
	e.closed = true
	return nil
}

func (e *EventBus) remove(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[topic]
	for i, s := range subs {
		if s.id == id {
			e.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
