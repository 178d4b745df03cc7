package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer title", 10, "a longe..."},
		{"abcdef", 3, "abc"},
		{"Björk Guðmundsdóttir", 8, "Björk..."},
	}

	for _, tt := range tests {
		if got := TruncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{59, "0:59"},
		{61, "1:01"},
		{3725, "1:02:05"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		current, total, width int
		want                  string
	}{
		{0, 0, 4, "────"},
		{50, 100, 4, "━━──"},
		{200, 100, 4, "━━━━"},
		{-10, 100, 4, "────"},
	}

	for _, tt := range tests {
		if got := FormatProgress(tt.current, tt.total, tt.width); got != tt.want {
			t.Errorf("FormatProgress(%d, %d, %d) = %q, want %q", tt.current, tt.total, tt.width, got, tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableWriter(&buf, "NAME", "TYPE")
	table.Row("Kitchen", "speaker")
	table.Row("Laptop", "computer")
	table.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "Kitchen  ") {
		t.Errorf("row not aligned: %q", lines[1])
	}
	if strings.Index(lines[0], "TYPE") != strings.Index(lines[2], "computer") {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}
