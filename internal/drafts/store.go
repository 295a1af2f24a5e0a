// Package drafts autosaves in-progress form state to local storage.
//
// Every field edit is handed to RecordChange, which debounces: only the last
// edit in a quiet window of ChangeOptions.Debounce is written. Forms restore
// with LoadDraft at mount and call ClearDraft once the user submits or
// discards. Entries older than the retention window are treated as absent
// and deleted the next time they are read; there is no background sweep.
//
// A failed write never reaches the form. It is reported through Status and
// Subscribe so the UI can show a "draft not saved" hint while the user's
// in-memory edits stay where they are.
package drafts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fentz26/hourglass/internal/localstore"
	"github.com/jonboulle/clockwork"
)

// Defaults applied when the corresponding Config or ChangeOptions field is zero.
const (
	DefaultDebounce      = 500 * time.Millisecond
	DefaultRetention     = 24 * time.Hour
	DefaultPrefix        = "draft:"
	DefaultOversizeBytes = 256 * 1024
)

// Sentinel errors for draft operations.
var (
	ErrEmptyKey = errors.New("draft key is empty")
	ErrClosed   = errors.New("draft store is closed")
)

// State is where a key sits in the draft lifecycle.
type State int

const (
	StateAbsent State = iota
	StatePending
	StateSaved
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSaved:
		return "saved"
	default:
		return "absent"
	}
}

// Status is the advisory autosave state of one key. Err holds the last
// write failure and is cleared by the next successful write or a clear.
type Status struct {
	State   State
	SavedAt time.Time
	Err     error
}

// Failed reports whether the most recent write attempt failed.
func (s Status) Failed() bool { return s.Err != nil }

// Entry is a persisted draft.
type Entry struct {
	Key     string
	Payload Payload
	SavedAt time.Time
}

// ChangeOptions tune a single RecordChange call.
type ChangeOptions struct {
	// Debounce is the quiet period before the write. Zero means DefaultDebounce.
	Debounce time.Duration
	// Disabled turns RecordChange into a no-op.
	Disabled bool
}

// Config wires a Store. Storage is required.
type Config struct {
	Storage localstore.Storage
	Clock   clockwork.Clock
	Logger  *slog.Logger

	// Prefix namespaces draft keys inside the shared storage.
	Prefix string
	// Retention is how long a saved draft stays valid.
	Retention time.Duration
	// OversizeBytes marks other drafts as reclaimable during quota recovery.
	OversizeBytes int
}

// Store is the process-wide draft store. It is safe for concurrent use.
type Store struct {
	storage   localstore.Storage
	clock     clockwork.Clock
	logger    *slog.Logger
	prefix    string
	retention time.Duration
	oversize  int

	mu      sync.Mutex
	gen     uint64
	pending map[string]*pendingWrite
	status  map[string]Status
	closed  bool

	// flushing counts timer callbacks that are writing right now.
	flushing sync.WaitGroup

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

type pendingWrite struct {
	gen     uint64
	payload Payload
	due     time.Time
	timer   clockwork.Timer
}

// record is the stored encoding of an Entry.
type record struct {
	Payload Payload   `json:"payload"`
	SavedAt time.Time `json:"saved_at"`
}

// New creates a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("drafts: Storage is required")
	}
	s := &Store{
		storage:   cfg.Storage,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		prefix:    cfg.Prefix,
		retention: cfg.Retention,
		oversize:  cfg.OversizeBytes,
		pending:   make(map[string]*pendingWrite),
		status:    make(map[string]Status),
		subs:      make(map[int]func(Event)),
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.prefix == "" {
		s.prefix = DefaultPrefix
	}
	if s.retention <= 0 {
		s.retention = DefaultRetention
	}
	if s.oversize <= 0 {
		s.oversize = DefaultOversizeBytes
	}
	return s, nil
}

// RecordChange schedules payload to be written for key once no further
// change arrives within the debounce window. It never writes synchronously.
// A later call for the same key replaces the pending payload and restarts
// the window.
func (s *Store) RecordChange(key string, payload Payload, opts ChangeOptions) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if opts.Disabled {
		return nil
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	snapshot := payload.Clone()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if p := s.pending[key]; p != nil {
		p.timer.Stop()
	}
	s.gen++
	gen := s.gen
	p := &pendingWrite{gen: gen, payload: snapshot, due: s.clock.Now().Add(debounce)}
	s.pending[key] = p
	st := s.status[key]
	st.State = StatePending
	s.status[key] = st
	p.timer = s.clock.AfterFunc(debounce, func() { s.flush(key, gen) })
	s.mu.Unlock()

	s.publish(Event{Key: key, Kind: EventPending})
	return nil
}

// Cancel drops the pending write for key, if any. Forms call it when they
// unmount so nothing is written after they are gone.
func (s *Store) Cancel(key string) {
	s.mu.Lock()
	cancelled := s.cancelLocked(key)
	s.mu.Unlock()

	if cancelled {
		s.publish(Event{Key: key, Kind: EventCancelled})
	}
}

// Close cancels every pending write and waits for a write already in
// progress. Later RecordChange calls fail with ErrClosed; reads and clears
// keep working. It must not be called from a subscriber.
func (s *Store) Close() {
	s.mu.Lock()
	var keys []string
	for key := range s.pending {
		keys = append(keys, key)
	}
	for _, key := range keys {
		s.cancelLocked(key)
	}
	s.closed = true
	s.mu.Unlock()

	for _, key := range keys {
		s.publish(Event{Key: key, Kind: EventCancelled})
	}
	s.flushing.Wait()
}

// LoadDraft returns the saved draft for key. Missing, stale and corrupt
// entries are all reported as absent; stale and corrupt ones are deleted.
func (s *Store) LoadDraft(key string) (Entry, bool) {
	s.mu.Lock()
	entry, ok, ev := s.loadLocked(key)
	s.mu.Unlock()

	if ev != nil {
		s.publish(*ev)
	}
	return entry, ok
}

// ClearDraft deletes the draft for key and cancels any pending write for
// it. Clearing a key that has no draft is a no-op.
func (s *Store) ClearDraft(key string) error {
	s.mu.Lock()
	s.cancelLocked(key)
	delete(s.status, key)
	err := s.storage.Remove(s.storageKey(key))
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clear draft %s: %w", key, err)
	}
	s.publish(Event{Key: key, Kind: EventCleared})
	return nil
}

// List returns every live draft ordered by key. Stale and corrupt entries
// found along the way are deleted exactly as LoadDraft would.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	keys, err := s.storage.Keys(s.prefix)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	var (
		entries []Entry
		events  []Event
	)
	for _, sk := range keys {
		entry, ok, ev := s.loadLocked(strings.TrimPrefix(sk, s.prefix))
		if ev != nil {
			events = append(events, *ev)
		}
		if ok {
			entries = append(entries, entry)
		}
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.publish(ev)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Status returns the autosave state of key.
func (s *Store) Status(key string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[key]
}

// flush is the timer callback and runs on its own goroutine. A generation
// mismatch means the write was superseded or cancelled after the timer had
// already fired.
func (s *Store) flush(key string, gen uint64) {
	s.mu.Lock()
	p := s.pending[key]
	if p == nil || p.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.flushing.Add(1)
	defer s.flushing.Done()
	ev := s.persistLocked(key, p.payload)
	s.mu.Unlock()

	s.publish(ev)
}

func (s *Store) persistLocked(key string, payload Payload) Event {
	st := s.status[key]
	st.State = settledState(st)

	if payload.IsEmpty() {
		s.status[key] = st
		return Event{Key: key, Kind: EventSkipped}
	}

	now := s.clock.Now().UTC()
	data, err := json.Marshal(record{Payload: payload, SavedAt: now})
	if err != nil {
		st.Err = fmt.Errorf("encode draft: %w", err)
		s.status[key] = st
		return Event{Key: key, Kind: EventFailed, Err: st.Err}
	}

	sk := s.storageKey(key)
	err = s.storage.Set(sk, string(data))
	if errors.Is(err, localstore.ErrQuotaExceeded) {
		freed := s.reclaimLocked(sk)
		s.logger.Warn("draft storage full, retrying",
			"key", key,
			"bytes", len(data),
			"reclaimed", freed,
		)
		err = s.storage.Set(sk, string(data))
	}
	if err != nil {
		s.logger.Error("draft not saved", "key", key, "error", err)
		st.Err = err
		s.status[key] = st
		return Event{Key: key, Kind: EventFailed, Err: err}
	}

	s.status[key] = Status{State: StateSaved, SavedAt: now}
	s.logger.Debug("draft saved", "key", key, "bytes", len(data))
	return Event{Key: key, Kind: EventSaved, SavedAt: now}
}

// reclaimLocked deletes other drafts that are stale, unreadable or larger
// than the oversize limit. It returns how many entries were removed.
func (s *Store) reclaimLocked(exclude string) int {
	keys, err := s.storage.Keys(s.prefix)
	if err != nil {
		s.logger.Warn("list drafts for reclaim", "error", err)
		return 0
	}

	freed := 0
	for _, sk := range keys {
		if sk == exclude {
			continue
		}
		raw, ok, err := s.storage.Get(sk)
		if err != nil || !ok {
			continue
		}
		rec, decodeErr := decodeRecord(raw)
		if decodeErr == nil && !s.isStale(rec.SavedAt) && len(raw) <= s.oversize {
			continue
		}
		if err := s.storage.Remove(sk); err != nil {
			s.logger.Warn("reclaim draft", "key", sk, "error", err)
			continue
		}
		key := strings.TrimPrefix(sk, s.prefix)
		if st, ok := s.status[key]; ok && st.State == StateSaved {
			delete(s.status, key)
		}
		freed++
	}
	return freed
}

// loadLocked reads and validates the entry for key. The returned event is
// non-nil when the entry had to be deleted.
func (s *Store) loadLocked(key string) (Entry, bool, *Event) {
	sk := s.storageKey(key)
	raw, ok, err := s.storage.Get(sk)
	if err != nil {
		s.logger.Warn("read draft", "key", key, "error", err)
		s.dropLocked(key)
		return Entry{}, false, &Event{Key: key, Kind: EventDiscarded, Err: err}
	}
	if !ok {
		return Entry{}, false, nil
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		s.logger.Warn("discarding unreadable draft", "key", key, "error", err)
		s.dropLocked(key)
		return Entry{}, false, &Event{Key: key, Kind: EventDiscarded, Err: err}
	}
	if s.isStale(rec.SavedAt) {
		s.logger.Info("draft expired", "key", key, "saved_at", rec.SavedAt)
		s.dropLocked(key)
		return Entry{}, false, &Event{Key: key, Kind: EventExpired, SavedAt: rec.SavedAt}
	}

	st := s.status[key]
	if st.State != StatePending {
		st.State = StateSaved
	}
	st.SavedAt = rec.SavedAt
	s.status[key] = st
	return Entry{Key: key, Payload: rec.Payload, SavedAt: rec.SavedAt}, true, nil
}

// dropLocked removes the stored entry for key, keeping any pending write.
func (s *Store) dropLocked(key string) {
	if err := s.storage.Remove(s.storageKey(key)); err != nil {
		s.logger.Warn("remove draft", "key", key, "error", err)
	}
	st := s.status[key]
	st.SavedAt = time.Time{}
	if st.State == StateSaved {
		st.State = StateAbsent
	}
	s.status[key] = st
}

func (s *Store) cancelLocked(key string) bool {
	p := s.pending[key]
	if p == nil {
		return false
	}
	p.timer.Stop()
	delete(s.pending, key)
	st := s.status[key]
	st.State = settledState(st)
	s.status[key] = st
	return true
}

func (s *Store) isStale(savedAt time.Time) bool {
	return s.clock.Now().Sub(savedAt) > s.retention
}

func (s *Store) storageKey(key string) string {
	return s.prefix + key
}

// settledState is the state a key falls back to once nothing is pending.
func settledState(st Status) State {
	if st.SavedAt.IsZero() {
		return StateAbsent
	}
	return StateSaved
}

func decodeRecord(raw string) (record, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return record{}, err
	}
	if rec.SavedAt.IsZero() {
		return record{}, errors.New("draft has no saved_at")
	}
	return rec, nil
}
