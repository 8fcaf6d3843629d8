package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestRuleFallsBackForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if got := Rule(&buf); got != strings.Repeat("-", defaultRuleWidth) {
		t.Fatalf("unexpected rule %q", got)
	}
}

func TestColorizeStatusHonoursNoColor(t *testing.T) {
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })

	SetColorMode("never", true)
	if got := ColorizeStatus("failed"); got != "failed" {
		t.Fatalf("expected plain text with color disabled, got %q", got)
	}
	if got := Attention("disk low"); got != "Attention: disk low" {
		t.Fatalf("unexpected attention line %q", got)
	}

	SetColorMode("always", false)
	if got := ColorizeStatus("failed"); !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected escape codes with color forced on, got %q", got)
	}
}
