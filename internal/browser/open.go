// Package browser opens URLs in the user's default web browser.
package browser

import (
	"fmt"
	"io"

	pkgbrowser "github.com/pkg/browser"
)

func init() {
	// Keep xdg-open chatter out of the TUI.
	pkgbrowser.Stdout = io.Discard
	pkgbrowser.Stderr = io.Discard
}

// Open opens url in the default browser.
func Open(url string) error {
	if err := pkgbrowser.OpenURL(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
