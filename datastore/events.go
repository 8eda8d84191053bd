package datastore

import "github.com/signalsfoundry/simdata/model"

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventEntityAdded EventType = iota
	EventEntityRemoved
	EventPrefsChanged
	EventFlushed
	EventTimeChanged
)

func (t EventType) String() string {
	switch t {
	case EventEntityAdded:
		return "entity_added"
	case EventEntityRemoved:
		return "entity_removed"
	case EventPrefsChanged:
		return "prefs_changed"
	case EventFlushed:
		return "flushed"
	case EventTimeChanged:
		return "time_changed"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers after a change has been applied.
type Event struct {
	Type EventType
	ID   model.ObjectID
	Kind model.EntityKind
	// Time is the store time when the event was raised.
	Time float64
	// Fields is set for EventFlushed.
	Fields FlushFields
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers a callback for store events. Callbacks run on the
// mutating goroutine, outside the store lock. It returns an unsubscribe
// function.
func (ds *DataStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.nextSub++
	id := ds.nextSub
	ds.subs = append(ds.subs, subscriber{id: id, fn: fn})

	return func() {
		ds.mu.Lock()
		defer ds.mu.Unlock()
		for i, s := range ds.subs {
			if s.id == id {
				ds.subs = append(ds.subs[:i:i], ds.subs[i+1:]...)
				return
			}
		}
	}
}

func (ds *DataStore) subscribersLocked() []subscriber {
	if len(ds.subs) == 0 {
		return nil
	}
	return append([]subscriber(nil), ds.subs...)
}

func (ds *DataStore) prefsEventLocked(id model.ObjectID) Event {
	return Event{Type: EventPrefsChanged, ID: id, Kind: ds.entities[id].properties().Kind, Time: ds.currentTime}
}

// Notify subscribers outside the lock to avoid deadlocks.
func notify(subs []subscriber, events []Event) {
	for _, ev := range events {
		for _, s := range subs {
			s.fn(ev)
		}
	}
}
