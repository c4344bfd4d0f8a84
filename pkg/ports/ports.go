package ports

import (
	"context"
	"time"

	"github.com/aescanero/cellflow/pkg/domain"
)

// EventType identifies the kind of engine event.
type EventType string

const (
	EventTypeValueChanged   EventType = "value.changed"
	EventTypeCellComputed   EventType = "cell.computed"
	EventTypeCellErrored    EventType = "cell.errored"
	EventTypeGraphEvaluated EventType = "graph.evaluated"
)

// Topics the engine publishes on.
const (
	TopicCellEvents  = "cell.events"
	TopicGraphEvents = "graph.events"
)

// Event is the wire format published on the event bus.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Cell      string         `json:"cell,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventHandler processes a single event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and delivers engine events.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// SnapshotStore keeps the latest graph snapshot per session. It is a live
// cache, not durable storage: snapshots never outlive a session.
type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, snap domain.GraphSnapshot) error
	Load(ctx context.Context, sessionID string) (*domain.GraphSnapshot, error)
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// MetricsCollector records engine activity.
type MetricsCollector interface {
	RecordValueChanged(value string)
	RecordCellComputed(cell, status string, duration time.Duration)
	RecordEvaluatePass(status string, affected int, duration time.Duration)
	SetCellStates(stale, computing, fresh, errored int)
	SetStreamClients(count int)
}

// NopMetrics is a MetricsCollector that records nothing. Used by tests and
// by hosts that embed the engine without an observability stack.
type NopMetrics struct{}

func (NopMetrics) RecordValueChanged(string)                          {}
func (NopMetrics) RecordCellComputed(string, string, time.Duration)   {}
func (NopMetrics) RecordEvaluatePass(string, int, time.Duration)      {}
func (NopMetrics) SetCellStates(int, int, int, int)                   {}
func (NopMetrics) SetStreamClients(int)                               {}
