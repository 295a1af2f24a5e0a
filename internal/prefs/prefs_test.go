package prefs

import (
	"errors"
	"strings"
	"testing"

	"github.com/fentz26/hourglass/internal/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNickname(t *testing.T) {
	assert.Equal(t, "ada", DefaultNickname("ada@example.com"))
	assert.Equal(t, "User", DefaultNickname(""))
	assert.Equal(t, "User", DefaultNickname("@example.com"))
}

func TestProfileDefaultsWhenMissing(t *testing.T) {
	s := New(localstore.NewMemory(0), nil)
	p, err := s.LoadProfile("u1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, Profile{Email: "ada@example.com", Nickname: "ada"}, p)
}

func TestProfileSaveAndLoad(t *testing.T) {
	storage := localstore.NewMemory(0)
	s := New(storage, nil)

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	_, err := s.SaveProfile("u1", "ada@example.com", " Countess ", "avatar-1")
	require.NoError(t, err)

	p, err := s.LoadProfile("u1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Countess", p.Nickname)
	assert.Equal(t, "avatar-1", p.Avatar)

	raw, ok, err := storage.Get("user-profile-u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"nickname":"Countess","avatar":"avatar-1"}`, raw)

	// Blank nickname falls back, empty avatar keeps the current one.
	p, err = s.SaveProfile("u1", "ada@example.com", "  ", "")
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Nickname)
	assert.Equal(t, "avatar-1", p.Avatar)

	require.Len(t, changes, 2)
	assert.Equal(t, ProfileChanged, changes[0].Kind)
}

func TestProfileCorruptFallsBack(t *testing.T) {
	storage := localstore.NewMemory(0)
	require.NoError(t, storage.Set("user-profile-u1", "{broken"))

	p, err := New(storage, nil).LoadProfile("u1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Nickname)
}

func TestProfileRequiresUserID(t *testing.T) {
	_, err := New(localstore.NewMemory(0), nil).LoadProfile("", "ada@example.com")
	assert.ErrorIs(t, err, localstore.ErrEmptyKey)
}

func TestBackgroundPresetRoundTrip(t *testing.T) {
	s := New(localstore.NewMemory(0), nil)

	_, ok, err := s.Background()
	require.NoError(t, err)
	assert.False(t, ok)

	ocean, found := FindPreset("Ocean")
	require.True(t, found)
	require.NoError(t, s.SetBackground(ocean.Value))

	v, ok, err := s.Background()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ocean.Value, v)
	assert.Equal(t, ocean.Accent, AccentFor(v))

	require.NoError(t, s.SetBackground(""))
	_, ok, err = s.Background()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Presets[0].Accent, AccentFor("url(custom.png)"))
}

func TestBackgroundImageTooLarge(t *testing.T) {
	s := New(localstore.NewMemory(0), nil)
	big := "data:image/jpeg;base64," + strings.Repeat("A", MaxImageBackgroundBytes)

	err := s.SetBackground(big)
	assert.ErrorIs(t, err, ErrBackgroundTooLarge)
	_, ok, _ := s.Background()
	assert.False(t, ok)
}

func TestBackgroundQuotaPurgesBackgroundKeys(t *testing.T) {
	storage := localstore.NewMemory(1024)
	require.NoError(t, storage.Set("old-background-cache", strings.Repeat("x", 100)))
	require.NoError(t, storage.Set("draft:new_task_draft", `{"payload":{}}`))

	s := New(storage, nil)
	var changes int
	s.Subscribe(func(Change) { changes++ })

	err := s.SetBackground("url(" + strings.Repeat("y", 2000) + ")")
	require.Error(t, err)
	assert.True(t, errors.Is(err, localstore.ErrQuotaExceeded))

	_, ok, _ := storage.Get("old-background-cache")
	assert.False(t, ok, "background keys are purged on quota failure")
	_, ok, _ = storage.Get("draft:new_task_draft")
	assert.True(t, ok, "unrelated keys survive")
	assert.Zero(t, changes)
}

func TestBackgroundImageReplacesPreviousImage(t *testing.T) {
	storage := localstore.NewMemory(0)
	require.NoError(t, storage.Set("website-background-prev", "data:image/png;base64,AAAA"))
	s := New(storage, nil)

	require.NoError(t, s.SetBackground("data:image/png;base64,BBBB"))
	_, ok, _ := storage.Get("website-background-prev")
	assert.False(t, ok)

	v, _, _ := s.Background()
	assert.Equal(t, "data:image/png;base64,BBBB", v)
}

func TestUnsubscribe(t *testing.T) {
	s := New(localstore.NewMemory(0), nil)
	calls := 0
	unsub := s.Subscribe(func(Change) { calls++ })
	require.NoError(t, s.SetBackground(Presets[1].Value))
	unsub()
	require.NoError(t, s.ClearBackground())
	assert.Equal(t, 1, calls)
}

func TestImageDataURL(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n")
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", ImageDataURL("bg.png", png))
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", ImageDataURL("bg.unknown", png), "sniffed from content")
}
