package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultCooldownMs     = 2000
	DefaultSyncIntervalMs = 3000
	DefaultBaudRate       = 9600
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	interval := DefaultSyncIntervalMs
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: "http://127.0.0.1:8888/callback",
		},
		Scan: ScanConfig{
			Source:     SourceStdin,
			BaudRate:   DefaultBaudRate,
			CooldownMs: DefaultCooldownMs,
		},
		Sync: SyncConfig{
			IntervalMs: &interval,
		},
		Storage: StorageConfig{
			Dir: defaultStorageDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}

	if c.Scan.Source == "" {
		c.Scan.Source = d.Scan.Source
	}
	if c.Scan.BaudRate == 0 {
		c.Scan.BaudRate = d.Scan.BaudRate
	}
	if c.Scan.CooldownMs == 0 {
		c.Scan.CooldownMs = d.Scan.CooldownMs
	}

	if c.Sync.IntervalMs == nil {
		c.Sync.IntervalMs = d.Sync.IntervalMs
	}

	if c.Storage.Dir == "" {
		c.Storage.Dir = d.Storage.Dir
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Cooldown returns the scan cooldown as a duration.
func (c *ScanConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// Interval returns the poll period, zero when polling is disabled.
func (c *SyncConfig) Interval() time.Duration {
	if c.IntervalMs == nil {
		return DefaultSyncIntervalMs * time.Millisecond
	}
	return time.Duration(*c.IntervalMs) * time.Millisecond
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "cuecard")
	}
	return filepath.Join(home, ".config", "cuecard")
}
