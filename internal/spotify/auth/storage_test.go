package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenStorage(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "nested", "token.json")

	storage, err := NewTokenStorage(tokenPath)
	if err != nil {
		t.Fatalf("NewTokenStorage() error = %v", err)
	}

	if storage.Exists() {
		t.Error("Exists() = true, want false for new storage")
	}

	token, err := storage.Load()
	if err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if token != nil {
		t.Error("Load() should return nil for non-existent token")
	}

	testToken := &oauth2.Token{
		AccessToken:  "access_123",
		TokenType:    "Bearer",
		RefreshToken: "refresh_456",
		Expiry:       time.Now().Add(time.Hour).Round(time.Second),
	}
	if err := storage.Save(testToken); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !storage.Exists() {
		t.Error("Exists() = false after save, want true")
	}

	info, err := os.Stat(tokenPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}

	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != "access_123" || loaded.RefreshToken != "refresh_456" {
		t.Errorf("loaded = %+v", loaded)
	}
	if !loaded.Expiry.Equal(testToken.Expiry) {
		t.Errorf("Expiry = %v, want %v", loaded.Expiry, testToken.Expiry)
	}

	if err := storage.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if storage.Exists() {
		t.Error("Exists() = true after delete")
	}
	if err := storage.Delete(); err != nil {
		t.Errorf("Delete() of missing file error = %v", err)
	}
}

func TestTokenStorageCorrupt(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(tokenPath, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	storage, _ := NewTokenStorage(tokenPath)
	if _, err := storage.Load(); err == nil {
		t.Error("Load() should fail on corrupt file")
	}
}

func TestTokenStorageSaveNil(t *testing.T) {
	storage, _ := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	if err := storage.Save(nil); err == nil {
		t.Error("Save(nil) should fail")
	}
}

func TestNewTokenStorageDefaultPath(t *testing.T) {
	storage, err := NewTokenStorage("")
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if filepath.Base(storage.Path()) != DefaultTokenFileName {
		t.Errorf("Path() = %q", storage.Path())
	}
	if filepath.Base(filepath.Dir(storage.Path())) != "cuecard" {
		t.Errorf("Path() = %q, want cuecard dir", storage.Path())
	}
}
