// Package localstore provides the process-local key-value storage that
// backs drafts and preferences. It plays the role a browser's localStorage
// plays for a web client: string keys, string values, a shared byte quota.
package localstore

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// DefaultQuotaBytes mirrors the usual per-origin localStorage budget.
const DefaultQuotaBytes = 5 * 1024 * 1024

// Sentinel errors for storage operations.
var (
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrEmptyKey      = errors.New("storage key is empty")
)

// Storage is a flat string-keyed mapping shared by every local consumer.
// Get reports ok=false for missing keys. Set fails with ErrQuotaExceeded
// when the write would push the total size over the quota; a failed Set
// leaves every key, including the one being written, untouched.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Keys(prefix string) ([]string, error)
}

// entrySize is the number of bytes a key/value pair counts against the quota.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

// Memory is an in-process Storage. It is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	data  map[string]string
	used  int64
	quota int64
}

// NewMemory creates an empty Memory storage. A quota <= 0 means unlimited.
func NewMemory(quotaBytes int64) *Memory {
	return &Memory{
		data:  make(map[string]string),
		quota: quotaBytes,
	}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key, replacing any previous value.
func (m *Memory) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used
	if old, ok := m.data[key]; ok {
		used -= entrySize(key, old)
	}
	used += entrySize(key, value)
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}
	m.data[key] = value
	m.used = used
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.data, key)
	}
	return nil
}

// Keys returns every key starting with prefix, sorted.
func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Used returns the bytes currently counted against the quota.
func (m *Memory) Used() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}
