package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Spotify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spotify: %w", err))
	}
	if err := c.Scan.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scan: %w", err))
	}
	if err := c.Sync.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sync: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks SpotifyConfig for errors.
func (c *SpotifyConfig) Validate() error {
	if c.RedirectURI == "" {
		return nil
	}
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return fmt.Errorf("invalid redirect_uri: %w", err)
	}
	if u.Scheme != "http" || u.Port() == "" {
		return fmt.Errorf("redirect_uri must be a loopback http URL with a port: %s", c.RedirectURI)
	}
	return nil
}

// Validate checks ScanConfig for errors.
func (c *ScanConfig) Validate() error {
	switch c.Source {
	case "", SourceStdin, SourceNone:
	case SourceSerial:
		if c.SerialPort == "" {
			return errors.New("serial_port is required when source is serial")
		}
	default:
		return fmt.Errorf("invalid source: %s (must be stdin, serial, or none)", c.Source)
	}
	if c.BaudRate < 0 {
		return errors.New("baud_rate must be non-negative")
	}
	if c.CooldownMs < 0 {
		return errors.New("cooldown_ms must be non-negative")
	}
	return nil
}

// Validate checks SyncConfig for errors.
func (c *SyncConfig) Validate() error {
	if c.IntervalMs != nil && *c.IntervalMs < 0 {
		return errors.New("interval_ms must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
