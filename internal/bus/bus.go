// Package bus is the change-notification boundary between the engine and
// the rendering layer. Delivery is fire-and-forget from the engine's
// perspective: subscribers assume at-least-once and never acknowledge.
package bus

import (
	"log/slog"
	"sync"
)

// Kind identifies a change notification.
type Kind string

const (
	ElementCreated      Kind = "element-created"
	ElementUpdated      Kind = "element-updated"
	ElementDeleted      Kind = "element-deleted"
	RelationshipCreated Kind = "relationship-created"
	RelationshipUpdated Kind = "relationship-updated"
	RelationshipDeleted Kind = "relationship-deleted"
)

// Event is one change notification payload.
type Event struct {
	Kind           Kind   `json:"kind"`
	WorkspaceID    string `json:"workspaceId"`
	ElementID      string `json:"elementId,omitempty"`
	RelationshipID string `json:"relationshipId,omitempty"`
}

// Bus delivers change notifications to interested consumers.
type Bus interface {
	Emit(ev Event)
}

// Fanout delivers every event to all subscribers, synchronously and in
// subscription order. Subscribing after events were emitted does not replay
// them.
//
// Thread-safety: safe for concurrent use.
type Fanout struct {
	mu   sync.Mutex
	subs []func(Event)
}

// NewFanout creates an empty fan-out bus.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Subscribe registers a consumer. Consumers must not block; the engine
// emits inline during commit.
func (f *Fanout) Subscribe(fn func(Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}

// Emit delivers the event to every subscriber.
func (f *Fanout) Emit(ev Event) {
	f.mu.Lock()
	subs := make([]func(Event), len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Recorder captures events for tests and CLI output.
//
// Thread-safety: safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit records the event.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// LogSubscriber returns a subscriber that logs every event through slog.
func LogSubscriber(logger *slog.Logger) func(Event) {
	return func(ev Event) {
		logger.Debug("change notification",
			"kind", ev.Kind,
			"workspace", ev.WorkspaceID,
			"element_id", ev.ElementID,
			"relationship_id", ev.RelationshipID,
		)
	}
}
