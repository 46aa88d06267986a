// Package config loads the cdrq defaults file: where the accounting
// logs live and the site-local tuning constants.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all cdrq configuration.
type Config struct {
	Source SourceConfig `toml:"source"`
	Tuning TuningConfig `toml:"tuning"`
}

// SourceConfig describes the CDR log feed.
type SourceConfig struct {
	Dir            string `toml:"dir"`
	Host           string `toml:"host,omitempty"` // header label; hostname when empty
	Extension      string `toml:"extension"`
	CompressSuffix string `toml:"compress_suffix"`
	SaltPattern    string `toml:"salt_pattern"`
	SaltWindowMins int    `toml:"salt_window_mins"`
}

// TuningConfig holds the inherited heuristics, kept configurable rather
// than hard-coded.
type TuningConfig struct {
	// Leading characters of the start-time field in the dedup
	// fingerprint ("HH:MM" at 5).
	DedupMinutePrefix int `toml:"dedup_minute_prefix"`
	// Leading characters of the time of day in report buckets
	// ("HH:M" at 4 = ten-minute buckets).
	ReportBucketPrefix int `toml:"report_bucket_prefix"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Dir:            "/var/log/cdr",
			Extension:      ".ACT",
			CompressSuffix: ".gz",
			SaltPattern:    `^[0-9A-F]{8}\.ACT$`,
			SaltWindowMins: 35,
		},
		Tuning: TuningConfig{
			DedupMinutePrefix:  5,
			ReportBucketPrefix: 4,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cdrq")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cdrq")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// HostLabel resolves the header host label: configured value first,
// then the local hostname.
func (c Config) HostLabel() string {
	if c.Source.Host != "" {
		return c.Source.Host
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
