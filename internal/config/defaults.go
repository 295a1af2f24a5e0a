package config

import (
	"os"
	"path/filepath"

	"github.com/fentz26/hourglass/internal/drafts"
	"github.com/fentz26/hourglass/internal/localstore"
)

// DirName is the per-user state directory under the home directory.
const DirName = ".hourglass"

// DefaultListen is the daemon's default bind address.
const DefaultListen = "127.0.0.1:7467"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Listen:  DefaultListen,
			Address: "http://" + DefaultListen,
		},
		Paths: PathsConfig{
			Database:   "~/" + DirName + "/hourglass.db",
			LocalStore: "~/" + DirName + "/local.db",
		},
		Drafts: DraftsConfig{
			DebounceMS:     int(drafts.DefaultDebounce.Milliseconds()),
			RetentionHours: int(drafts.DefaultRetention.Hours()),
			Prefix:         drafts.DefaultPrefix,
			OversizeBytes:  drafts.DefaultOversizeBytes,
		},
		Storage: StorageConfig{
			QuotaBytes: localstore.DefaultQuotaBytes,
		},
		Week: WeekConfig{StartDay: "monday"},
		Log:  LogConfig{Level: "info"},
		User: UserConfig{ID: "local"},
	}
}

// Dir returns the per-user state directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DirName)
}

// DefaultPath returns the path of the config file.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}
