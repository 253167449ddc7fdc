package eventstream

import (
	"sync"

	"github.com/rs/zerolog"
)

// Handler receives one dispatched event. Per spec §5, subscribers should not
// block the emitting thread for long — Emit calls handlers synchronously,
// the same signal-slot shape as the teacher's events.Manager.Emit.
type Handler func(Event)

type subscriberEntry struct {
	id      int
	filter  EventFilter
	handler Handler
}

// Connection represents one active subscription; Unsubscribe removes it.
type Connection struct {
	dispatcher *Dispatcher
	id         int
}

// Unsubscribe removes the subscription. Safe to call more than once.
func (c Connection) Unsubscribe() {
	if c.dispatcher == nil {
		return
	}
	c.dispatcher.unsubscribe(c.id)
}

// Dispatcher is the thread-safe, filtered event bus: subscription add/remove
// is serialized by an internal mutex, and emission copies the event by value
// into each matching subscriber's handler (spec §5's "signal-slot pattern").
type Dispatcher struct {
	mu          sync.Mutex
	subscribers []subscriberEntry
	nextID      int
	log         zerolog.Logger
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{log: log.With().Str("component", "eventstream.dispatcher").Logger()}
}

// Subscribe registers handler to receive every event that passes filter.
func (d *Dispatcher) Subscribe(filter EventFilter, handler Handler) Connection {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.subscribers = append(d.subscribers, subscriberEntry{id: id, filter: filter, handler: handler})
	return Connection{dispatcher: d, id: id}
}

func (d *Dispatcher) unsubscribe(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.subscribers {
		if s.id == id {
			d.subscribers = append(d.subscribers[:i], d.subscribers[i+1:]...)
			return
		}
	}
}

// Emit dispatches evt to every subscriber whose filter accepts it. The
// subscriber snapshot is taken under lock, then handlers run outside the
// lock so a handler that subscribes/unsubscribes cannot deadlock.
func (d *Dispatcher) Emit(evt Event) {
	d.mu.Lock()
	snapshot := make([]subscriberEntry, len(d.subscribers))
	copy(snapshot, d.subscribers)
	d.mu.Unlock()

	d.log.Debug().Str("event_type", evt.Type.String()).Msg("event emitted")

	for _, s := range snapshot {
		if s.filter.Accepts(evt.Type) {
			s.handler(evt)
		}
	}
}
