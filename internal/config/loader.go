// Package config loads and saves the hourglass configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. HOURGLASS_API_LISTEN.
const EnvPrefix = "HOURGLASS"

// Load reads the config file at path over the defaults and applies
// environment overrides. A missing file is not an error. An empty path
// selects DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so that environment overrides apply even
// when the file omits it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.address", d.API.Address)
	v.SetDefault("paths.database", d.Paths.Database)
	v.SetDefault("paths.local_store", d.Paths.LocalStore)
	v.SetDefault("drafts.debounce_ms", d.Drafts.DebounceMS)
	v.SetDefault("drafts.retention_hours", d.Drafts.RetentionHours)
	v.SetDefault("drafts.prefix", d.Drafts.Prefix)
	v.SetDefault("drafts.oversize_bytes", d.Drafts.OversizeBytes)
	v.SetDefault("storage.quota_bytes", d.Storage.QuotaBytes)
	v.SetDefault("week.start_day", d.Week.StartDay)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("user.id", d.User.ID)
	v.SetDefault("user.email", d.User.Email)
}

// Save writes cfg as YAML to path, creating its directory.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	header := "# hourglass configuration\n"
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var problems []string
	if c.API.Listen == "" {
		problems = append(problems, "api.listen is required")
	}
	if c.API.Address == "" {
		problems = append(problems, "api.address is required")
	}
	if c.Paths.Database == "" {
		problems = append(problems, "paths.database is required")
	}
	if c.Paths.LocalStore == "" {
		problems = append(problems, "paths.local_store is required")
	}
	if c.Drafts.DebounceMS <= 0 {
		problems = append(problems, "drafts.debounce_ms must be positive")
	}
	if c.Drafts.RetentionHours <= 0 {
		problems = append(problems, "drafts.retention_hours must be positive")
	}
	if c.Drafts.Prefix == "" {
		problems = append(problems, "drafts.prefix is required")
	}
	if c.Drafts.OversizeBytes < 0 {
		problems = append(problems, "drafts.oversize_bytes must not be negative")
	}
	if c.Storage.QuotaBytes < 0 {
		problems = append(problems, "storage.quota_bytes must not be negative")
	}
	if _, err := ParseWeekday(c.Week.StartDay); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// DraftDebounce is the autosave quiet period.
func (c *Config) DraftDebounce() time.Duration {
	return time.Duration(c.Drafts.DebounceMS) * time.Millisecond
}

// DraftRetention is how long saved drafts stay valid.
func (c *Config) DraftRetention() time.Duration {
	return time.Duration(c.Drafts.RetentionHours) * time.Hour
}

// WeekStart is the configured first day of the week.
func (c *Config) WeekStart() time.Weekday {
	d, _ := ParseWeekday(c.Week.StartDay)
	return d
}

// LogLevel is the configured log level.
func (c *Config) LogLevel() slog.Level {
	l, _ := ParseLevel(c.Log.Level)
	return l
}

// DatabasePath is paths.database with ~ expanded.
func (c *Config) DatabasePath() string { return ExpandHome(c.Paths.Database) }

// LocalStorePath is paths.local_store with ~ expanded.
func (c *Config) LocalStorePath() string { return ExpandHome(c.Paths.LocalStore) }

// ExpandHome replaces a leading ~ with the home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// ParseWeekday accepts full or three-letter English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("week.start_day %q is not a weekday", s)
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level %q is not a level", s)
	}
	return l, nil
}
