// Package bus implements the per-run event log. Node executions append
// FlowEvents concurrently; readers get a history totally ordered by
// timestamp with emission sequence as the tie-break. The log is
// append-only: reset means a new Bus instance for the new run, so a
// finished run's history stays inspectable.
package bus

import (
	"sort"
	"sync"
	"time"

	"github.com/vk/gridflow/internal/idgen"
)

// EventType classifies a FlowEvent.
type EventType string

// FlowEvent types. Unknown types emitted by scripts are coerced to
// EventMessage.
const (
	EventMessage EventType = "message"
	EventLog     EventType = "log"
	EventError   EventType = "error"
)

// FlowEvent is one message produced by a node's emit call or by the
// sandbox surfacing script output.
type FlowEvent struct {
	ID        string
	Timestamp time.Time
	Seq       uint64
	NodeID    string
	NodeName  string
	Type      EventType
	Content   string
}

// Bus is a multi-writer append log safe for concurrent Emit calls from
// parallel node executions.
type Bus struct {
	ids *idgen.Generator

	mu      sync.Mutex
	events  []FlowEvent
	seq     uint64
	subs    map[int]func(FlowEvent)
	nextSub int
}

// New returns an empty Bus. A nil generator falls back to random ids;
// tests pass a seeded one for reproducible event ids.
func New(ids *idgen.Generator) *Bus {
	if ids == nil {
		ids = idgen.NewRandom()
	}
	return &Bus{
		ids:  ids,
		subs: make(map[int]func(FlowEvent)),
	}
}

// Emit appends an event, stamping id, timestamp and emission sequence, and
// fans it out to subscribers. The completed event is returned.
func (b *Bus) Emit(nodeID, nodeName string, typ EventType, content string) FlowEvent {
	switch typ {
	case EventMessage, EventLog, EventError:
	default:
		typ = EventMessage
	}

	b.mu.Lock()
	b.seq++
	evt := FlowEvent{
		ID:        b.ids.Next(),
		Timestamp: time.Now(),
		Seq:       b.seq,
		NodeID:    nodeID,
		NodeName:  nodeName,
		Type:      typ,
		Content:   content,
	}
	b.events = append(b.events, evt)
	observers := make([]func(FlowEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		observers = append(observers, fn)
	}
	b.mu.Unlock()

	// Observers run outside the lock so a slow sink never blocks writers.
	for _, fn := range observers {
		fn(evt)
	}
	return evt
}

// Subscribe registers an observer for future events and returns its
// unsubscribe function.
func (b *Bus) Subscribe(fn func(FlowEvent)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// History returns a copy of all events ordered by timestamp, ties broken
// by emission sequence. Ordering happens at read time; writers are never
// serialized beyond the append itself.
func (b *Bus) History() []FlowEvent {
	b.mu.Lock()
	out := append([]FlowEvent(nil), b.events...)
	b.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Len returns the number of events emitted so far.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
