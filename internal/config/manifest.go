package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindManifest walks up from start until it finds a Cargo.toml.
func FindManifest(start string) (string, error) {
	start = strings.TrimSpace(start)
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working dir: %w", err)
		}
		start = wd
	}
	info, err := os.Stat(start)
	if err == nil && !info.IsDir() {
		return start, nil
	}
	current, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	for {
		candidate := filepath.Join(current, ManifestFile)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", errors.New("could not find Cargo.toml in the current directory or any parent")
		}
		current = parent
	}
}
