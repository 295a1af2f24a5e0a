// Package prefs keeps per-device preferences (the user profile and the
// background theme) in the same local storage that holds drafts. Unlike
// drafts, preferences never expire.
package prefs

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fentz26/hourglass/internal/localstore"
)

const (
	// BackgroundKey holds the active background value.
	BackgroundKey = "website-background"

	// MaxImageBackgroundBytes bounds inline data-image backgrounds.
	MaxImageBackgroundBytes = 2 * 1024 * 1024

	profileKeyPrefix = "user-profile-"
	defaultNickname  = "User"
)

// ErrBackgroundTooLarge rejects inline images over MaxImageBackgroundBytes.
var ErrBackgroundTooLarge = errors.New("background image too large")

// Preset is a named built-in background. Accent is the terminal colour the
// TUI uses for the same theme.
type Preset struct {
	Name   string
	Value  string
	Accent string
}

// Presets are the built-in backgrounds. The first entry is the default and
// stores no value.
var Presets = []Preset{
	{Name: "default", Value: "", Accent: "#764ba2"},
	{Name: "ocean", Value: "linear-gradient(135deg, #74b9ff 0%, #0984e3 100%)", Accent: "#0984e3"},
	{Name: "forest", Value: "linear-gradient(135deg, #00b894 0%, #00a085 100%)", Accent: "#00a085"},
	{Name: "sunset", Value: "linear-gradient(135deg, #fd79a8 0%, #e84393 100%)", Accent: "#e84393"},
	{Name: "dream", Value: "linear-gradient(135deg, #a29bfe 0%, #6c5ce7 100%)", Accent: "#6c5ce7"},
	{Name: "dusk", Value: "linear-gradient(135deg, #fdcb6e 0%, #e17055 100%)", Accent: "#e17055"},
}

// FindPreset looks a preset up by name.
func FindPreset(name string) (Preset, bool) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// AccentFor returns the accent colour of the preset whose value is v, or
// the default accent for custom and empty backgrounds.
func AccentFor(v string) string {
	for _, p := range Presets {
		if p.Value != "" && p.Value == v {
			return p.Accent
		}
	}
	return Presets[0].Accent
}

// Profile is a user's display identity.
type Profile struct {
	Email    string `json:"-"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

// ChangeKind names what a Change touched.
type ChangeKind string

const (
	ProfileChanged    ChangeKind = "profile"
	BackgroundChanged ChangeKind = "background"
)

// Change notifies subscribers that a preference was written.
type Change struct {
	Kind ChangeKind
	Key  string
}

// Store reads and writes preferences.
type Store struct {
	storage localstore.Storage
	logger  *slog.Logger

	mu     sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// New creates a preference store. A nil logger discards output.
func New(storage localstore.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{storage: storage, logger: logger, subs: make(map[int]func(Change))}
}

// Subscribe registers fn to run after every successful preference write.
// The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// DefaultNickname is the local part of email, or "User".
func DefaultNickname(email string) string {
	if local, _, _ := strings.Cut(email, "@"); strings.TrimSpace(local) != "" {
		return local
	}
	return defaultNickname
}

func profileKey(userID string) string { return profileKeyPrefix + userID }

// LoadProfile returns the saved profile for userID, or the default profile
// when none is saved or the saved one cannot be read.
func (s *Store) LoadProfile(userID, email string) (Profile, error) {
	p := Profile{Email: email, Nickname: DefaultNickname(email)}
	if userID == "" {
		return p, localstore.ErrEmptyKey
	}

	raw, ok, err := s.storage.Get(profileKey(userID))
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if !ok {
		return p, nil
	}

	var saved Profile
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Warn("ignoring corrupt profile", "user", userID, "err", err)
		return p, nil
	}
	if n := strings.TrimSpace(saved.Nickname); n != "" {
		p.Nickname = n
	}
	p.Avatar = saved.Avatar
	return p, nil
}

// SaveProfile stores a nickname and avatar. A blank nickname falls back to
// the default; an empty avatar keeps the current one.
func (s *Store) SaveProfile(userID, email, nickname, avatar string) (Profile, error) {
	current, err := s.LoadProfile(userID, email)
	if err != nil {
		return current, err
	}

	p := Profile{Email: email, Nickname: strings.TrimSpace(nickname), Avatar: avatar}
	if p.Nickname == "" {
		p.Nickname = DefaultNickname(email)
	}
	if p.Avatar == "" {
		p.Avatar = current.Avatar
	}

	data, err := json.Marshal(p)
	if err != nil {
		return current, fmt.Errorf("encode profile: %w", err)
	}
	if err := s.storage.Set(profileKey(userID), string(data)); err != nil {
		return current, fmt.Errorf("save profile: %w", err)
	}

	s.notify(Change{Kind: ProfileChanged, Key: profileKey(userID)})
	return p, nil
}

// Background returns the saved background value. ok is false when the
// default background is in use.
func (s *Store) Background() (value string, ok bool, err error) {
	value, ok, err = s.storage.Get(BackgroundKey)
	if err != nil {
		return "", false, fmt.Errorf("read background: %w", err)
	}
	return value, ok && value != "", nil
}

func isImage(v string) bool { return strings.Contains(v, "data:image") }

// ImageDataURL encodes an image file as an inline data URL background. The
// MIME type comes from the file extension, falling back to content sniffing.
func ImageDataURL(name string, data []byte) string {
	typ := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if !strings.HasPrefix(typ, "image/") {
		typ = http.DetectContentType(data)
	}
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = typ[:i]
	}
	return "data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// SetBackground stores value as the active background. An empty value
// restores the default. Inline images are capped at
// MaxImageBackgroundBytes and replace any earlier inline image. When the
// write exceeds the storage quota every background key is purged and the
// quota error is returned.
func (s *Store) SetBackground(value string) error {
	if value == "" {
		return s.ClearBackground()
	}

	if isImage(value) {
		if len(value) > MaxImageBackgroundBytes {
			return fmt.Errorf("%w: %d bytes, limit %d", ErrBackgroundTooLarge, len(value), MaxImageBackgroundBytes)
		}
		s.removeKeys(func(key, v string) bool {
			return strings.HasPrefix(key, BackgroundKey) && isImage(v)
		})
	}

	if err := s.storage.Set(BackgroundKey, value); err != nil {
		if errors.Is(err, localstore.ErrQuotaExceeded) {
			s.logger.Warn("background exceeded storage quota, purging background keys", "bytes", len(value))
			s.removeKeys(func(key, _ string) bool { return strings.Contains(key, "background") })
		}
		return fmt.Errorf("save background: %w", err)
	}

	s.notify(Change{Kind: BackgroundChanged, Key: BackgroundKey})
	return nil
}

// ClearBackground restores the default background.
func (s *Store) ClearBackground() error {
	if err := s.storage.Remove(BackgroundKey); err != nil {
		return fmt.Errorf("clear background: %w", err)
	}
	s.notify(Change{Kind: BackgroundChanged, Key: BackgroundKey})
	return nil
}

// removeKeys deletes every key for which match is true. Failures are
// logged; cleanup never fails the caller.
func (s *Store) removeKeys(match func(key, value string) bool) {
	keys, err := s.storage.Keys("")
	if err != nil {
		s.logger.Warn("list storage keys", "err", err)
		return
	}
	for _, key := range keys {
		v, ok, err := s.storage.Get(key)
		if err != nil || !ok || !match(key, v) {
			continue
		}
		if err := s.storage.Remove(key); err != nil {
			s.logger.Warn("remove storage key", "key", key, "err", err)
		}
	}
}
