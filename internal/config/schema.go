package config

// Config is the root configuration structure.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify" envPrefix:"SPOTIFY_"`
	Scan    ScanConfig    `toml:"scan" envPrefix:"SCAN_"`
	Sync    SyncConfig    `toml:"sync" envPrefix:"SYNC_"`
	Storage StorageConfig `toml:"storage" envPrefix:"STORAGE_"`
	Notify  NotifyConfig  `toml:"notify" envPrefix:"NOTIFY_"`
	Log     LogConfig     `toml:"log" envPrefix:"LOG_"`
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id" env:"CLIENT_ID"`
	RedirectURI string `toml:"redirect_uri" env:"REDIRECT_URI"`
}

// Scan sources.
const (
	SourceStdin  = "stdin"
	SourceSerial = "serial"
	SourceNone   = "none"
)

// ScanConfig selects where card codes come from.
type ScanConfig struct {
	Source     string `toml:"source" env:"SOURCE"`
	SerialPort string `toml:"serial_port" env:"SERIAL_PORT"`
	BaudRate   int    `toml:"baud_rate" env:"BAUD_RATE"`
	CooldownMs int    `toml:"cooldown_ms" env:"COOLDOWN_MS"`
}

// SyncConfig controls playback drift reconciliation.
type SyncConfig struct {
	// IntervalMs is the poll period. Zero disables polling; omit the key
	// to get the default.
	IntervalMs *int `toml:"interval_ms" env:"INTERVAL_MS"`
}

// StorageConfig holds local state locations.
type StorageConfig struct {
	Dir string `toml:"dir" env:"DIR"`
}

// NotifyConfig holds notification settings.
type NotifyConfig struct {
	Desktop bool `toml:"desktop" env:"DESKTOP"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file" env:"FILE"`
}
