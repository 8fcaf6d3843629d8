// File: internal/errdefs/errdefs.go
// Brief: Typed failures shared by the packaging pipeline.

// Package errdefs defines the error taxonomy used across cargo-revolve so the
// CLI can classify failures (and attach hints) with errors.As.
package errdefs

import (
	"fmt"
	"strings"
)

// ConfigKind classifies configuration failures.
type ConfigKind string

const (
	MissingConfig          ConfigKind = "missing-config"
	MissingField           ConfigKind = "missing-field"
	InvalidAssetSource     ConfigKind = "invalid-asset-source"
	InvalidAssetDest       ConfigKind = "invalid-asset-dest"
	DuplicateDestination   ConfigKind = "duplicate-destination"
	InvalidMode            ConfigKind = "invalid-mode"
	InvalidVersion         ConfigKind = "invalid-version"
	ArchiveCollision       ConfigKind = "archive-collision"
	UnsupportedInheritance ConfigKind = "unsupported-inheritance"
)

// ConfigError reports malformed or missing configuration.
type ConfigError struct {
	Kind   ConfigKind
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Field != "" {
		fmt.Fprintf(&b, " in %s", e.Field)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// ToolNotFoundError is returned when a required executable is not on PATH.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("'%s' command not found; ensure it is installed and in your PATH", e.Tool)
}

// ProcessError reports an external command that exited nonzero.
type ProcessError struct {
	Command  string
	ExitCode int
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("'%s' failed with exit code %d", e.Command, e.ExitCode)
}

// TemplateKind classifies control-file template failures.
type TemplateKind string

const (
	TemplateNotFound    TemplateKind = "template-not-found"
	TemplateRenderError TemplateKind = "template-render"
)

// TemplateError wraps a template load or render failure.
type TemplateError struct {
	Kind TemplateKind
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	switch e.Kind {
	case TemplateNotFound:
		return fmt.Sprintf("spec template not found at %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("render spec template %s: %v", e.Path, e.Err)
	}
}

func (e *TemplateError) Unwrap() error { return e.Err }

// MissingAssetError reports a declared asset absent on disk.
type MissingAssetError struct {
	Path string
	Hint string
}

func (e *MissingAssetError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("asset source file not found: %s", e.Path)
	}
	return fmt.Sprintf("asset source file not found: %s (%s)", e.Path, e.Hint)
}

// VerificationError carries every mismatch found while verifying a package.
type VerificationError struct {
	Path   string
	Issues []error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%d verification issue(s) found in %s", len(e.Issues), e.Path)
}

// Count returns the number of recorded issues.
func (e *VerificationError) Count() int {
	return len(e.Issues)
}
