// Package analytics records tutoring events: one row per chat response or
// code analysis served, with the backend that answered and whether it fell
// back to the error shape.
package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const dbTimeout = 5 * time.Second

// Event types.
const (
	EventChatResponse = "chat_response"
	EventCodeAnalysis = "code_analysis"
)

// Event represents an analytics event persisted to the tutor_events table.
type Event struct {
	ID        string
	Variant   string
	EventType string
	ModelUsed string
	Fallback  bool
	Data      map[string]any
	CreatedAt time.Time
}

// EventLogger defines event logging behavior.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error {
	return nil
}

// MemoryEventLogger stores events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		events: []Event{},
	}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, event Event) error {
	if event.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// prepare validates event and fills the defaults shared by the SQL backends.
func prepare(event Event) (Event, error) {
	if event.EventType == "" {
		return event, fmt.Errorf("event_type is required")
	}
	if event.ID == "" {
		return event, fmt.Errorf("id is required")
	}
	if event.Data == nil {
		event.Data = map[string]any{}
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return event, nil
}
