package drafts

import "time"

// EventKind identifies what happened to a draft.
type EventKind string

const (
	EventPending   EventKind = "pending"   // a write was scheduled
	EventSaved     EventKind = "saved"     // the debounced write succeeded
	EventSkipped   EventKind = "skipped"   // all fields were empty, nothing written
	EventFailed    EventKind = "failed"    // the write failed after recovery
	EventCancelled EventKind = "cancelled" // a pending write was dropped
	EventCleared   EventKind = "cleared"   // ClearDraft removed the entry
	EventExpired   EventKind = "expired"   // a stale entry was deleted on read
	EventDiscarded EventKind = "discarded" // an unreadable entry was deleted
)

// Event is delivered to subscribers after the store's state has changed.
type Event struct {
	Key     string
	Kind    EventKind
	SavedAt time.Time
	Err     error
}

// Subscribe registers fn to receive every Event. Events are delivered on
// the goroutine that caused them, never while the store's lock is held, so
// fn may call back into the Store. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
