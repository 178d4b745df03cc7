package devicestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tessro/cuecard/internal/core"
)

func TestStoreRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state"))

	if got := s.Load(); got != nil {
		t.Fatalf("Load() on empty store = %+v, want nil", got)
	}

	want := core.SavedDevice{ID: "dev1", Name: "Living Room", Type: core.DeviceTypeSpeaker}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := s.Load()
	if got == nil || *got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}

	next := core.SavedDevice{ID: "dev2", Name: "Kitchen", Type: core.DeviceTypeTV}
	if err := s.Save(next); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := s.Load(); got == nil || got.ID != "dev2" {
		t.Errorf("Load() after overwrite = %+v", got)
	}
}

func TestStoreLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"corrupt", "{oops"},
		{"missing id", `{"name":"Speaker","type":"speaker"}`},
		{"empty id", `{"id":"","name":"Speaker"}`},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(t.TempDir())
			if err := os.WriteFile(s.Path(), []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if got := s.Load(); got != nil {
				t.Errorf("Load() = %+v, want nil", got)
			}
		})
	}
}

func TestStoreClear(t *testing.T) {
	s := New(t.TempDir())

	if err := s.Clear(); err != nil {
		t.Errorf("Clear() on missing file error = %v", err)
	}

	if err := s.Save(core.SavedDevice{ID: "dev1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if got := s.Load(); got != nil {
		t.Errorf("Load() after Clear() = %+v", got)
	}
}

func TestStoreSaveRequiresID(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Save(core.SavedDevice{Name: "nameless"}); err == nil {
		t.Error("Save() without id should fail")
	}
}
