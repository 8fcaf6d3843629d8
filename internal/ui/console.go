// File: internal/ui/console.go
// Brief: Colored status tokens for build and info output.

package ui

import (
	"strings"

	"github.com/fatih/color"
)

// Heading renders a section title.
func Heading(text string) string {
	return color.New(color.FgCyan, color.Bold).Sprint(text)
}

// Attention prefixes a warning line.
func Attention(text string) string {
	return color.New(color.FgHiYellow).Sprint("Attention") + ": " + text
}

// ColorizeStatus colors a short status word.
func ColorizeStatus(status string) string {
	switch strings.ToLower(status) {
	case "ok", "done", "verified", "succeeded", "built":
		return color.New(color.FgGreen).Sprint(status)
	case "fail", "failed", "error", "mismatch":
		return color.New(color.FgRed).Sprint(status)
	case "dry-run", "skipped":
		return color.New(color.FgYellow).Sprint(status)
	default:
		return color.New(color.FgHiBlack).Sprint(status)
	}
}

// SetColorMode applies --color: "always", "never" or "auto".
func SetColorMode(mode string, isTerminal bool) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal
	}
}
