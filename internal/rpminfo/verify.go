// File: internal/rpminfo/verify.go
// Brief: Checks a built RPM against the declared identity and asset manifest.

package rpminfo

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/normano/cargo-revolve/internal/errdefs"
)

// ExpectedFile is a declared destination and optional octal mode.
type ExpectedFile struct {
	Dest string
	Mode string
}

// Expectation is what the package must contain. Empty License and Summary
// are not checked.
type Expectation struct {
	Name    string
	Version string
	License string
	Summary string
	Files   []ExpectedFile
}

// Check compares h against exp and returns every mismatch found.
func Check(h *Header, exp Expectation) error {
	var issues error
	if h.Name != exp.Name {
		issues = multierr.Append(issues, fmt.Errorf("name mismatch: expected %q, found %q", exp.Name, h.Name))
	}
	if h.Version != exp.Version {
		issues = multierr.Append(issues, fmt.Errorf("version mismatch: expected %q, found %q", exp.Version, h.Version))
	}
	if exp.License != "" && h.License != exp.License {
		issues = multierr.Append(issues, fmt.Errorf("license mismatch: expected %q, found %q", exp.License, orNA(h.License)))
	}
	if exp.Summary != "" && h.Summary != exp.Summary {
		issues = multierr.Append(issues, fmt.Errorf("summary mismatch: expected %q, found %q", exp.Summary, orNA(h.Summary)))
	}

	idx := h.fileIndex()
	for _, want := range exp.Files {
		dest := path.Clean(want.Dest)
		got, ok := idx[dest]
		if !ok {
			issues = multierr.Append(issues, fmt.Errorf("expected file not found in package: %s", dest))
			continue
		}
		if strings.TrimSpace(want.Mode) == "" {
			continue
		}
		mode, err := strconv.ParseUint(strings.TrimSpace(want.Mode), 8, 32)
		if err != nil {
			issues = multierr.Append(issues, fmt.Errorf("invalid octal mode %q for %s", want.Mode, dest))
			continue
		}
		if got.Mode != uint32(mode)&0o7777 {
			issues = multierr.Append(issues, fmt.Errorf("mode mismatch for %s: expected %04o, found %04o", dest, mode, got.Mode))
		}
	}
	return issues
}

// Verify opens the RPM at rpmPath and checks it. Each mismatch is logged as
// it is found; the returned VerificationError carries all of them.
func Verify(log logr.Logger, rpmPath string, exp Expectation) error {
	h, err := Open(rpmPath)
	if err != nil {
		return err
	}
	log.V(1).Info("verifying package", "path", rpmPath, "files", len(exp.Files))
	issues := multierr.Errors(Check(h, exp))
	for _, issue := range issues {
		log.Error(issue, "verification failed", "path", rpmPath)
	}
	if len(issues) > 0 {
		return &errdefs.VerificationError{Path: rpmPath, Issues: issues}
	}
	return nil
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
