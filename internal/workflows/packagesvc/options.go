// File: internal/workflows/packagesvc/options.go
// Brief: Options and IO streams for the packaging workflow.

package packagesvc

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"golang.org/x/term"

	"github.com/normano/cargo-revolve/internal/config"
)

// Streams defines the IO handles a workflow should use.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

func (s Streams) OutWriter() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return os.Stdout
}

func (s Streams) ErrWriter() io.Writer {
	if s.Err != nil {
		return s.Err
	}
	if s.Out != nil {
		return s.Out
	}
	return os.Stderr
}

func (s Streams) IsTerminal(w io.Writer) bool {
	type fdProvider interface {
		Fd() uintptr
	}
	if v, ok := w.(fdProvider); ok {
		return term.IsTerminal(int(v.Fd()))
	}
	return false
}

// Options contains everything needed to execute one packaging run.
type Options struct {
	Project *config.Project
	// DryRun renders the spec and reports the rpmbuild command without
	// running rpmbuild or copying artifacts.
	DryRun    bool
	NoArchive bool
	Verify    bool
	// Diff prints the change against the previously rendered spec (dry run only).
	Diff    bool
	Streams Streams
	Logger  logr.Logger
}
