package config

// Config represents the full hourglass configuration.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Drafts  DraftsConfig  `yaml:"drafts" mapstructure:"drafts"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Week    WeekConfig    `yaml:"week" mapstructure:"week"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	User    UserConfig    `yaml:"user" mapstructure:"user"`
}

// APIConfig configures the daemon and the clients that talk to it.
type APIConfig struct {
	// Listen is the daemon's bind address.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// Address is the base URL clients use.
	Address string `yaml:"address" mapstructure:"address"`
}

// PathsConfig locates on-disk state. A leading ~ expands to the home
// directory.
type PathsConfig struct {
	Database   string `yaml:"database" mapstructure:"database"`
	LocalStore string `yaml:"local_store" mapstructure:"local_store"`
}

// DraftsConfig tunes form autosave.
type DraftsConfig struct {
	DebounceMS     int    `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	RetentionHours int    `yaml:"retention_hours" mapstructure:"retention_hours"`
	Prefix         string `yaml:"prefix" mapstructure:"prefix"`
	OversizeBytes  int    `yaml:"oversize_bytes" mapstructure:"oversize_bytes"`
}

// StorageConfig bounds the local key-value store.
type StorageConfig struct {
	QuotaBytes int64 `yaml:"quota_bytes" mapstructure:"quota_bytes"`
}

// WeekConfig selects the weekday goal weeks start on.
type WeekConfig struct {
	StartDay string `yaml:"start_day" mapstructure:"start_day"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// UserConfig identifies the local user for profile preferences.
type UserConfig struct {
	ID    string `yaml:"id" mapstructure:"id"`
	Email string `yaml:"email" mapstructure:"email"`
}
