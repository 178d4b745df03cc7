package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/tessro/cuecard/internal/errors"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[spotify]
client_id = "abc123"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Spotify.ClientID != "abc123" {
		t.Errorf("ClientID = %q", cfg.Spotify.ClientID)
	}
	if cfg.Spotify.RedirectURI != "http://127.0.0.1:8888/callback" {
		t.Errorf("RedirectURI = %q", cfg.Spotify.RedirectURI)
	}
	if cfg.Scan.Source != SourceStdin {
		t.Errorf("Source = %q", cfg.Scan.Source)
	}
	if cfg.Scan.Cooldown() != 2*time.Second {
		t.Errorf("Cooldown = %v", cfg.Scan.Cooldown())
	}
	if cfg.Sync.Interval() != 3*time.Second {
		t.Errorf("Interval = %v", cfg.Sync.Interval())
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	if cfg.Storage.Dir == "" {
		t.Error("Storage.Dir should default")
	}
}

func TestLoadFromKeepsExplicitZeroInterval(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[sync]
interval_ms = 0
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.Interval() != 0 {
		t.Errorf("Interval = %v, want disabled", cfg.Sync.Interval())
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[scan]
source = "stdin"
cooldown_ms = 500

[log]
level = "info"
`)
	t.Setenv("CUECARD_SCAN_SOURCE", "serial")
	t.Setenv("CUECARD_SCAN_SERIAL_PORT", "/dev/ttyUSB0")
	t.Setenv("CUECARD_LOG_LEVEL", "debug")
	t.Setenv("CUECARD_NOTIFY_DESKTOP", "true")
	t.Setenv("CUECARD_SYNC_INTERVAL_MS", "1500")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Scan.Source != SourceSerial || cfg.Scan.SerialPort != "/dev/ttyUSB0" {
		t.Errorf("Scan = %+v", cfg.Scan)
	}
	if cfg.Scan.CooldownMs != 500 {
		t.Errorf("CooldownMs = %d, file value should survive", cfg.Scan.CooldownMs)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	if !cfg.Notify.Desktop {
		t.Error("Desktop should be enabled by env")
	}
	if cfg.Sync.Interval() != 1500*time.Millisecond {
		t.Errorf("Interval = %v", cfg.Sync.Interval())
	}
}

func TestLoadFromBadEnv(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")
	t.Setenv("CUECARD_SCAN_COOLDOWN_MS", "soon")

	_, err := LoadFrom(path)
	if err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("error = %v, want parse env failure", err)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromMalformed(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[scan\nsource=")
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindConfigFile(t *testing.T) {
	home := t.TempDir()
	xdg := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if got := FindConfigFile(); got != "" {
		t.Errorf("FindConfigFile() = %q, want none", got)
	}

	xdgPath := filepath.Join(xdg, "cuecard", "config.toml")
	if err := os.MkdirAll(filepath.Dir(xdgPath), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(xdgPath, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(); got != xdgPath {
		t.Errorf("FindConfigFile() = %q, want %q", got, xdgPath)
	}
	if got := DefaultPath(); got != xdgPath {
		t.Errorf("DefaultPath() = %q, want %q", got, xdgPath)
	}

	rc := filepath.Join(home, ".cuecardrc")
	if err := os.WriteFile(rc, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(); got != rc {
		t.Errorf("FindConfigFile() = %q, want rc file first", got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode(Default())
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(data), "cooldown_ms = 2000") {
		t.Errorf("encoded config missing cooldown:\n%s", data)
	}

	path := writeConfig(t, t.TempDir(), string(data))
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromMissingFileNotFoundError(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, apperrors.ErrConfigNotFound) {
		t.Errorf("LoadFrom() error = %v, want ErrConfigNotFound", err)
	}
}
