package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/hourglass/internal/client"
	"github.com/fentz26/hourglass/internal/drafts"
	"github.com/fentz26/hourglass/internal/localstore"
	"github.com/fentz26/hourglass/internal/models"
	"github.com/fentz26/hourglass/internal/prefs"
	"github.com/jonboulle/clockwork"
)

func newClient() *client.Client {
	return client.New(apiAddr)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), client.DefaultClientTimeout)
}

// localEnv is the on-device state shared by drafts and preferences.
type localEnv struct {
	storage *localstore.SQLite
	drafts  *drafts.Store
	prefs   *prefs.Store
}

func openLocal() (*localEnv, error) {
	path := cfg.LocalStorePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create local store directory: %w", err)
	}
	storage, err := localstore.OpenSQLite(path, cfg.Storage.QuotaBytes)
	if err != nil {
		return nil, err
	}
	ds, err := drafts.New(drafts.Config{
		Storage:       storage,
		Clock:         clockwork.NewRealClock(),
		Logger:        logger.With("component", "drafts"),
		Prefix:        cfg.Drafts.Prefix,
		Retention:     cfg.DraftRetention(),
		OversizeBytes: cfg.Drafts.OversizeBytes,
	})
	if err != nil {
		storage.Close()
		return nil, err
	}
	return &localEnv{
		storage: storage,
		drafts:  ds,
		prefs:   prefs.New(storage, logger.With("component", "prefs")),
	}, nil
}

// Close drops pending draft writes and closes the storage.
func (e *localEnv) Close() {
	e.drafts.Close()
	if err := e.storage.Close(); err != nil {
		logger.Warn("close local store", "error", err)
	}
}

// today is the current local date.
func today() string {
	return models.FormatDate(time.Now())
}

// resolveID expands a short id prefix, as printed by list commands, to the
// full id among candidates.
func resolveID(prefix string, candidates []string) (string, error) {
	var match string
	for _, id := range candidates {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("no match for id %q", prefix)
	}
	return match, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
