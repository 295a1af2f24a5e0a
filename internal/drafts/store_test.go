package drafts

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/hourglass/internal/localstore"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// countingStorage records Set calls and can inject failures.
type countingStorage struct {
	localstore.Storage

	mu      sync.Mutex
	sets    []string
	failSet error
	failGet error
}

func (c *countingStorage) Set(key, value string) error {
	c.mu.Lock()
	c.sets = append(c.sets, key)
	fail := c.failSet
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.Storage.Set(key, value)
}

func (c *countingStorage) Get(key string) (string, bool, error) {
	c.mu.Lock()
	fail := c.failGet
	c.mu.Unlock()
	if fail != nil {
		return "", false, fail
	}
	return c.Storage.Get(key)
}

func (c *countingStorage) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sets)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// testClock is a fake clock whose Advance returns only once the draft
// writes it made due have finished. clockwork runs AfterFunc callbacks on
// their own goroutines.
type testClock struct {
	*clockwork.FakeClock
	t     *testing.T
	store *Store
}

func (c *testClock) Advance(d time.Duration) {
	c.t.Helper()
	c.FakeClock.Advance(d)
	c.store.waitForDueWrites(c.t)
}

// waitForDueWrites blocks until no write whose debounce window has elapsed
// is still queued or in progress.
func (s *Store) waitForDueWrites(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		now := s.clock.Now()
		for _, p := range s.pending {
			if !p.due.After(now) {
				return false
			}
		}
		return true
	}, 2*time.Second, time.Millisecond)
	s.flushing.Wait()
}

func newTestStore(t *testing.T, storage localstore.Storage) (*Store, *testClock) {
	t.Helper()
	return newTestStoreWith(t, Config{Storage: storage})
}

func newTestStoreWith(t *testing.T, cfg Config) (*Store, *testClock) {
	t.Helper()
	c := &testClock{FakeClock: clockwork.NewFakeClockAt(epoch), t: t}
	cfg.Clock = c.FakeClock
	s, err := New(cfg)
	require.NoError(t, err)
	c.store = s
	t.Cleanup(s.Close)
	return s, c
}

func taskPayload(name string, hours float64) Payload {
	return NewPayload(
		Field{Name: "date", Value: "2024-01-01"},
		Field{Name: "task_name", Value: name},
		Field{Name: "hours", Value: hours},
		Field{Name: "reflection", Value: ""},
	)
}

func TestRecordChangeCoalescesBurst(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0)}
	s, c := newTestStore(t, storage)

	names := []string{"R", "Re", "Rea", "Read", "Reading"}
	for _, n := range names {
		require.NoError(t, s.RecordChange("new_task_draft", taskPayload(n, 1), ChangeOptions{}))
		c.Advance(100 * time.Millisecond)
	}
	assert.Equal(t, 0, storage.setCount(), "no write while edits keep arriving")

	// The window is timed from the last edit: 100ms already elapsed.
	c.Advance(399 * time.Millisecond)
	assert.Equal(t, 0, storage.setCount())
	c.Advance(time.Millisecond)
	assert.Equal(t, 1, storage.setCount())

	entry, ok := s.LoadDraft("new_task_draft")
	require.True(t, ok)
	assert.Equal(t, taskPayload("Reading", 1).Fields(), entry.Payload.Fields())

	c.Advance(time.Hour)
	assert.Equal(t, 1, storage.setCount(), "a burst produces exactly one write")
}

func TestRecordChangeCustomDebounce(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0)}
	s, c := newTestStore(t, storage)

	require.NoError(t, s.RecordChange("k", taskPayload("x", 1), ChangeOptions{Debounce: 2 * time.Second}))
	c.Advance(time.Second)
	assert.Equal(t, 0, storage.setCount())
	c.Advance(time.Second)
	assert.Equal(t, 1, storage.setCount())
}

func TestRecordChangeSnapshotsPayload(t *testing.T) {
	s, c := newTestStore(t, localstore.NewMemory(0))

	p := taskPayload("before", 1)
	require.NoError(t, s.RecordChange("k", p, ChangeOptions{}))
	p.Set("task_name", "after")
	c.Advance(DefaultDebounce)

	entry, ok := s.LoadDraft("k")
	require.True(t, ok)
	assert.Equal(t, "before", entry.Payload.String("task_name"))
}

func TestEmptyPayloadIsNeverPersisted(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0)}
	s, c := newTestStore(t, storage)
	log := &eventLog{}
	s.Subscribe(log.add)

	empty := NewPayload(
		Field{Name: "title", Value: "   "},
		Field{Name: "hours", Value: 0},
		Field{Name: "minutes", Value: -5},
		Field{Name: "done", Value: false},
		Field{Name: "goal", Value: nil},
	)
	require.NoError(t, s.RecordChange("new_note_draft", empty, ChangeOptions{}))
	c.Advance(DefaultDebounce)

	assert.Equal(t, 0, storage.setCount())
	_, ok := s.LoadDraft("new_note_draft")
	assert.False(t, ok)
	assert.Equal(t, []EventKind{EventPending, EventSkipped}, log.kinds())
	assert.Equal(t, StateAbsent, s.Status("new_note_draft").State)
}

func TestEmptyPayloadDoesNotTouchExistingDraft(t *testing.T) {
	s, c := newTestStore(t, localstore.NewMemory(0))

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{}))
	c.Advance(DefaultDebounce)
	first, ok := s.LoadDraft("k")
	require.True(t, ok)

	c.Advance(time.Minute)
	require.NoError(t, s.RecordChange("k", NewPayload(Field{Name: "task_name", Value: ""}), ChangeOptions{}))
	c.Advance(DefaultDebounce)

	again, ok := s.LoadDraft("k")
	require.True(t, ok)
	assert.Equal(t, first.SavedAt, again.SavedAt, "savedAt must not move for an empty write")
	assert.Equal(t, first.Payload.Fields(), again.Payload.Fields())
}

func TestRoundTrip(t *testing.T) {
	s, c := newTestStore(t, localstore.NewMemory(0))

	payload := NewPayload(
		Field{Name: "title", Value: "Weekly review"},
		Field{Name: "hours", Value: 1.5},
		Field{Name: "pinned", Value: true},
		Field{Name: "goal_id", Value: nil},
		Field{Name: "content", Value: "line one\nline two"},
	)
	require.NoError(t, s.RecordChange("note_draft_42", payload, ChangeOptions{}))
	c.Advance(DefaultDebounce)

	entry, ok := s.LoadDraft("note_draft_42")
	require.True(t, ok)
	assert.Equal(t, "note_draft_42", entry.Key)
	assert.Equal(t, payload.Fields(), entry.Payload.Fields())
	assert.Equal(t, epoch.Add(DefaultDebounce), entry.SavedAt)

	names := make([]string, 0)
	for _, f := range entry.Payload.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"title", "hours", "pinned", "goal_id", "content"}, names)
}

func TestStaleDraftExpiresOnRead(t *testing.T) {
	mem := localstore.NewMemory(0)
	s, c := newTestStore(t, mem)
	log := &eventLog{}

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 2), ChangeOptions{}))
	c.Advance(DefaultDebounce)

	c.Advance(24 * time.Hour)
	_, ok := s.LoadDraft("k")
	assert.True(t, ok, "exactly 24h old is still valid")

	s.Subscribe(log.add)
	c.Advance(time.Millisecond)
	_, ok = s.LoadDraft("k")
	assert.False(t, ok)
	assert.Equal(t, []EventKind{EventExpired}, log.kinds())

	_, stored, err := mem.Get(DefaultPrefix + "k")
	require.NoError(t, err)
	assert.False(t, stored, "stale entry is deleted as a side effect")
}

func TestCustomRetention(t *testing.T) {
	s, c := newTestStoreWith(t, Config{Storage: localstore.NewMemory(0), Retention: time.Hour})

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 2), ChangeOptions{}))
	c.Advance(DefaultDebounce)

	c.Advance(time.Hour)
	_, ok := s.LoadDraft("k")
	assert.True(t, ok, "exactly one retention window old is still valid")

	c.Advance(time.Second)
	_, ok = s.LoadDraft("k")
	assert.False(t, ok)
}

func TestClearDraftIsIdempotent(t *testing.T) {
	s, c := newTestStore(t, localstore.NewMemory(0))

	require.NoError(t, s.ClearDraft("never-created"))
	require.NoError(t, s.ClearDraft("never-created"))
	_, ok := s.LoadDraft("never-created")
	assert.False(t, ok)

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{}))
	c.Advance(DefaultDebounce)
	require.NoError(t, s.ClearDraft("k"))
	require.NoError(t, s.ClearDraft("k"))
	_, ok = s.LoadDraft("k")
	assert.False(t, ok)
	assert.Equal(t, Status{}, s.Status("k"))
}

func TestClearDraftCancelsPendingWrite(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0)}
	s, c := newTestStore(t, storage)

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{}))
	require.NoError(t, s.ClearDraft("k"))
	c.Advance(time.Minute)

	assert.Equal(t, 0, storage.setCount())
	_, ok := s.LoadDraft("k")
	assert.False(t, ok)
}

func TestCancelOnUnmount(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0)}
	s, c := newTestStore(t, storage)
	log := &eventLog{}
	s.Subscribe(log.add)

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{}))
	s.Cancel("k")
	c.Advance(time.Minute)

	assert.Equal(t, 0, storage.setCount())
	assert.Equal(t, []EventKind{EventPending, EventCancelled}, log.kinds())

	s.Cancel("k")
	assert.Len(t, log.kinds(), 2, "cancelling with nothing pending publishes nothing")
}

func TestDisabledIsNoop(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0)}
	s, c := newTestStore(t, storage)

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{Disabled: true}))
	c.Advance(time.Minute)
	assert.Equal(t, 0, storage.setCount())
	assert.Equal(t, StateAbsent, s.Status("k").State)
}

func TestEmptyKeyRejected(t *testing.T) {
	s, _ := newTestStore(t, localstore.NewMemory(0))
	assert.ErrorIs(t, s.RecordChange("", taskPayload("x", 1), ChangeOptions{}), ErrEmptyKey)
	assert.ErrorIs(t, s.RecordChange("  ", taskPayload("x", 1), ChangeOptions{}), ErrEmptyKey)
}

func TestStateTransitions(t *testing.T) {
	s, c := newTestStore(t, localstore.NewMemory(0))

	assert.Equal(t, StateAbsent, s.Status("k").State)
	require.NoError(t, s.RecordChange("k", taskPayload("R", 1), ChangeOptions{}))
	assert.Equal(t, StatePending, s.Status("k").State)
	require.NoError(t, s.RecordChange("k", taskPayload("Re", 1), ChangeOptions{}))
	assert.Equal(t, StatePending, s.Status("k").State)

	c.Advance(DefaultDebounce)
	st := s.Status("k")
	assert.Equal(t, StateSaved, st.State)
	assert.Equal(t, epoch.Add(DefaultDebounce), st.SavedAt)

	require.NoError(t, s.RecordChange("k", taskPayload("Rea", 1), ChangeOptions{}))
	st = s.Status("k")
	assert.Equal(t, StatePending, st.State)
	assert.False(t, st.SavedAt.IsZero(), "previous save time is kept while pending")

	s.Cancel("k")
	assert.Equal(t, StateSaved, s.Status("k").State)

	require.NoError(t, s.ClearDraft("k"))
	assert.Equal(t, StateAbsent, s.Status("k").State)
}

func TestKeysAreIndependent(t *testing.T) {
	mem := localstore.NewMemory(0)
	require.NoError(t, mem.Set("website-background", "linear-gradient(red, blue)"))
	s, c := newTestStore(t, mem)

	require.NoError(t, s.RecordChange("new_note_draft", NewPayload(Field{Name: "title", Value: "A"}), ChangeOptions{}))
	c.Advance(200 * time.Millisecond)
	require.NoError(t, s.RecordChange("note_draft_7", NewPayload(Field{Name: "title", Value: "B"}), ChangeOptions{}))
	c.Advance(300 * time.Millisecond)

	// Only the first key's window has elapsed.
	_, ok := s.LoadDraft("new_note_draft")
	assert.True(t, ok)
	_, ok = s.LoadDraft("note_draft_7")
	assert.False(t, ok)

	c.Advance(200 * time.Millisecond)
	a, _ := s.LoadDraft("new_note_draft")
	b, _ := s.LoadDraft("note_draft_7")
	assert.Equal(t, "A", a.Payload.String("title"))
	assert.Equal(t, "B", b.Payload.String("title"))

	require.NoError(t, s.ClearDraft("new_note_draft"))
	_, ok = s.LoadDraft("note_draft_7")
	assert.True(t, ok)

	bg, ok, _ := mem.Get("website-background")
	assert.True(t, ok)
	assert.Equal(t, "linear-gradient(red, blue)", bg)
}

func TestCorruptDraftSelfHeals(t *testing.T) {
	mem := localstore.NewMemory(0)
	s, _ := newTestStore(t, mem)
	log := &eventLog{}
	s.Subscribe(log.add)

	for _, raw := range []string{"not json", `{"payload":{"title":"x"}}`, `{"payload":{"a":[1]},"saved_at":"2024-01-01T09:00:00Z"}`} {
		require.NoError(t, mem.Set(DefaultPrefix+"k", raw))
		_, ok := s.LoadDraft("k")
		assert.False(t, ok, raw)
		_, stored, _ := mem.Get(DefaultPrefix + "k")
		assert.False(t, stored, "corrupt entry %q should be removed", raw)
	}
	assert.Equal(t, []EventKind{EventDiscarded, EventDiscarded, EventDiscarded}, log.kinds())
}

func TestReadFailureTreatedAsAbsent(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0)}
	s, c := newTestStore(t, storage)

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{}))
	c.Advance(DefaultDebounce)

	storage.failGet = errors.New("disk error")
	_, ok := s.LoadDraft("k")
	assert.False(t, ok)
}

func TestQuotaRecoveryReclaimsStaleDrafts(t *testing.T) {
	mem := localstore.NewMemory(600)
	require.NoError(t, mem.Set("theme", "dark"))
	s, c := newTestStore(t, mem)
	log := &eventLog{}

	long := strings.Repeat("x", 300)
	require.NoError(t, s.RecordChange("old", NewPayload(Field{Name: "content", Value: long}), ChangeOptions{}))
	c.Advance(DefaultDebounce)
	_, ok, _ := mem.Get(DefaultPrefix + "old")
	require.True(t, ok)

	c.Advance(25 * time.Hour)
	s.Subscribe(log.add)
	require.NoError(t, s.RecordChange("new", NewPayload(Field{Name: "content", Value: long}), ChangeOptions{}))
	c.Advance(DefaultDebounce)

	assert.Equal(t, []EventKind{EventPending, EventSaved}, log.kinds())
	_, ok, _ = mem.Get(DefaultPrefix + "old")
	assert.False(t, ok, "stale draft reclaimed")
	entry, ok := s.LoadDraft("new")
	require.True(t, ok)
	assert.Equal(t, long, entry.Payload.String("content"))

	theme, ok, _ := mem.Get("theme")
	assert.True(t, ok, "non-draft keys are never reclaimed")
	assert.Equal(t, "dark", theme)
}

func TestQuotaRecoveryKeepsFreshDrafts(t *testing.T) {
	mem := localstore.NewMemory(600)
	s, c := newTestStore(t, mem)

	long := strings.Repeat("x", 300)
	require.NoError(t, s.RecordChange("fresh", NewPayload(Field{Name: "content", Value: long}), ChangeOptions{}))
	c.Advance(DefaultDebounce)
	require.NoError(t, s.RecordChange("new", NewPayload(Field{Name: "content", Value: long}), ChangeOptions{}))
	c.Advance(DefaultDebounce)

	_, ok := s.LoadDraft("fresh")
	assert.True(t, ok, "fresh drafts survive recovery")
	st := s.Status("new")
	assert.True(t, st.Failed())
	assert.ErrorIs(t, st.Err, localstore.ErrQuotaExceeded)
}

func TestWriteFailureIsAdvisory(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0), failSet: localstore.ErrQuotaExceeded}
	s, c := newTestStore(t, storage)
	log := &eventLog{}
	s.Subscribe(log.add)

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{}))
	c.Advance(DefaultDebounce)

	assert.Equal(t, 2, storage.setCount(), "one write plus one retry")
	assert.Equal(t, []EventKind{EventPending, EventFailed}, log.kinds())
	st := s.Status("k")
	assert.True(t, st.Failed())
	assert.Equal(t, StateAbsent, st.State)

	// A later successful write clears the failure.
	storage.failSet = nil
	require.NoError(t, s.RecordChange("k", taskPayload("Read more", 1), ChangeOptions{}))
	c.Advance(DefaultDebounce)
	st = s.Status("k")
	assert.False(t, st.Failed())
	assert.Equal(t, StateSaved, st.State)
}

func TestNonQuotaFailureIsNotRetried(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0), failSet: errors.New("read-only")}
	s, c := newTestStore(t, storage)

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{}))
	c.Advance(DefaultDebounce)
	assert.Equal(t, 1, storage.setCount())
	assert.True(t, s.Status("k").Failed())
}

func TestListExpiresStaleEntries(t *testing.T) {
	mem := localstore.NewMemory(0)
	s, c := newTestStore(t, mem)

	require.NoError(t, s.RecordChange("b_old", taskPayload("old", 1), ChangeOptions{}))
	c.Advance(DefaultDebounce)
	c.Advance(23 * time.Hour)
	require.NoError(t, s.RecordChange("c_new", taskPayload("new", 1), ChangeOptions{}))
	require.NoError(t, s.RecordChange("a_new", taskPayload("new", 1), ChangeOptions{}))
	c.Advance(DefaultDebounce)
	c.Advance(2 * time.Hour)

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a_new", entries[0].Key)
	assert.Equal(t, "c_new", entries[1].Key)

	_, ok, _ := mem.Get(DefaultPrefix + "b_old")
	assert.False(t, ok)
}

func TestUnsubscribe(t *testing.T) {
	s, c := newTestStore(t, localstore.NewMemory(0))
	log := &eventLog{}
	unsubscribe := s.Subscribe(log.add)

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{}))
	unsubscribe()
	c.Advance(DefaultDebounce)

	assert.Equal(t, []EventKind{EventPending}, log.kinds())
}

func TestSubscriberMayCallStore(t *testing.T) {
	s, c := newTestStore(t, localstore.NewMemory(0))
	var seen Status
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventSaved {
			seen = s.Status(ev.Key)
		}
	})

	require.NoError(t, s.RecordChange("k", taskPayload("Read", 1), ChangeOptions{}))
	c.Advance(DefaultDebounce)
	assert.Equal(t, StateSaved, seen.State)
}

func TestCloseCancelsPending(t *testing.T) {
	storage := &countingStorage{Storage: localstore.NewMemory(0)}
	s, c := newTestStore(t, storage)

	require.NoError(t, s.RecordChange("a", taskPayload("a", 1), ChangeOptions{}))
	require.NoError(t, s.RecordChange("b", taskPayload("b", 1), ChangeOptions{}))
	s.Close()
	c.Advance(time.Minute)

	assert.Equal(t, 0, storage.setCount())
	assert.ErrorIs(t, s.RecordChange("a", taskPayload("a", 1), ChangeOptions{}), ErrClosed)
	require.NoError(t, s.ClearDraft("a"))
}

func TestRealClockDebounce(t *testing.T) {
	s, err := New(Config{Storage: localstore.NewMemory(0)})
	require.NoError(t, err)
	defer s.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.RecordChange("k", taskPayload("Read", float64(i)), ChangeOptions{Debounce: 20 * time.Millisecond}))
	}

	require.Eventually(t, func() bool {
		entry, ok := s.LoadDraft("k")
		return ok && entry.Payload.String("hours") == "3"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewRequiresStorage(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
