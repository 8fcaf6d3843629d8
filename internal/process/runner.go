// File: internal/process/runner.go
// Brief: Spawns external commands and streams their output line by line.

// Package process runs the compiler, custom build steps and rpmbuild while
// forwarding both output streams to the terminal as they are produced.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/mattn/go-shellwords"
	"golang.org/x/sync/errgroup"

	"github.com/normano/cargo-revolve/internal/errdefs"
)

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are appended to the parent environment.
	Env []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// ExitStatus is the raw result of a finished process.
type ExitStatus struct {
	Code int
}

func (s ExitStatus) Success() bool { return s.Code == 0 }

// Runner executes commands. The zero value streams to os.Stdout and os.Stderr.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger logr.Logger

	mu sync.Mutex
}

func (r *Runner) out() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) errOut() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

// Run starts the command and blocks until both output readers have drained
// and the process has exited. A nonzero exit is reported through ExitStatus,
// not the error; the error covers spawn and IO failures.
func (r *Runner) Run(ctx context.Context, c Command) (ExitStatus, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ExitStatus{}, fmt.Errorf("stdout pipe for %s: %w", c.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return ExitStatus{}, fmt.Errorf("stderr pipe for %s: %w", c.Name, err)
	}

	r.Logger.V(1).Info("spawning process", "command", c.String(), "dir", c.Dir)
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ExitStatus{}, &errdefs.ToolNotFoundError{Tool: c.Name}
		}
		return ExitStatus{}, fmt.Errorf("spawn %s: %w", c.Name, err)
	}

	var eg errgroup.Group
	eg.Go(func() error { return r.copyLines(stdout, r.out()) })
	eg.Go(func() error { return r.copyLines(stderr, r.errOut()) })
	copyErr := eg.Wait()

	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ExitStatus{Code: -1}, fmt.Errorf("%s interrupted: %w", c.Name, ctxErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return ExitStatus{}, fmt.Errorf("wait for %s: %w", c.Name, waitErr)
		}
	}
	status := ExitStatus{Code: cmd.ProcessState.ExitCode()}
	if copyErr != nil {
		return status, fmt.Errorf("stream output of %s: %w", c.Name, copyErr)
	}
	r.Logger.V(1).Info("process finished", "command", c.Name, "exitCode", status.Code)
	return status, nil
}

func (r *Runner) copyLines(src io.Reader, dst io.Writer) error {
	reader := bufio.NewReader(src)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			r.mu.Lock()
			_, werr := io.WriteString(dst, line)
			r.mu.Unlock()
			if werr != nil {
				// Keep draining so the child never blocks on a full pipe.
				_, _ = io.Copy(io.Discard, reader)
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Check converts a nonzero status into a ProcessError naming command.
func Check(status ExitStatus, command string) error {
	if status.Success() {
		return nil
	}
	return &errdefs.ProcessError{Command: command, ExitCode: status.Code}
}

// RunSteps runs shell-like command strings in order and stops at the first
// failing step. Quoting follows POSIX shell word splitting; no shell is spawned.
func (r *Runner) RunSteps(ctx context.Context, steps []string, dir string, env []string) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		args, err := shellwords.Parse(step)
		if err != nil {
			return fmt.Errorf("parse build step %d %q: %w", i+1, step, err)
		}
		if len(args) == 0 {
			return fmt.Errorf("build step %d is empty", i+1)
		}
		r.Logger.Info("running build step", "step", i+1, "of", len(steps), "command", step)
		status, err := r.Run(ctx, Command{Name: args[0], Args: args[1:], Dir: dir, Env: env})
		if err != nil {
			return err
		}
		if err := Check(status, step); err != nil {
			return err
		}
	}
	return nil
}

// LookPath resolves tool on PATH or returns a ToolNotFoundError.
func LookPath(tool string) (string, error) {
	p, err := exec.LookPath(tool)
	if err != nil {
		return "", &errdefs.ToolNotFoundError{Tool: tool}
	}
	return p, nil
}
