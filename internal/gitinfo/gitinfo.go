// gitinfo.go reads Git metadata to stamp rendered spec files.
package gitinfo

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Head returns the commit checked out in dir and whether the worktree is dirty.
// An empty dir means the current working directory.
func Head(ctx context.Context, dir string) (commit string, dirty bool, err error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", false, fmt.Errorf("git rev-parse: %w", err)
	}
	commit = strings.TrimSpace(string(output))
	statusCmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	statusCmd.Dir = dir
	statusOut, err := statusCmd.Output()
	if err != nil {
		return commit, false, fmt.Errorf("git status: %w", err)
	}
	dirty = len(strings.TrimSpace(string(statusOut))) > 0
	return commit, dirty, nil
}

// Describe formats a commit for display, marking dirty trees.
func Describe(commit string, dirty bool) string {
	if commit == "" {
		return ""
	}
	if dirty {
		return commit + "-dirty"
	}
	return commit
}
