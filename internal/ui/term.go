// File: internal/ui/term.go
// Brief: Internal ui package implementation for 'terminal helpers'.

package ui

import (
	"io"
	"strings"

	"golang.org/x/term"
)

const (
	defaultRuleWidth = 52
	maxRuleWidth     = 100
)

func TerminalWidth(w io.Writer) (int, bool) {
	type fdProvider interface {
		Fd() uintptr
	}
	if v, ok := w.(fdProvider); ok {
		if cols, _, err := term.GetSize(int(v.Fd())); err == nil {
			return cols, true
		}
	}
	return 0, false
}

// Rule returns a dashed separator sized to w when it is a terminal.
func Rule(w io.Writer) string {
	width := defaultRuleWidth
	if cols, ok := TerminalWidth(w); ok && cols > 0 {
		width = cols
		if width > maxRuleWidth {
			width = maxRuleWidth
		}
	}
	return strings.Repeat("-", width)
}
