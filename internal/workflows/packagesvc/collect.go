// File: internal/workflows/packagesvc/collect.go
// Brief: Artifact discovery, output_dir copies and primary-RPM selection.

package packagesvc

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"github.com/opencontainers/go-digest"
)

// Artifact is a produced package file of record.
type Artifact struct {
	Path   string
	Digest digest.Digest
}

// collectArtifacts finds every .rpm under rpmsDir. With outputDir set each
// file is copied there and the copy becomes the artifact of record.
func collectArtifacts(log logr.Logger, rpmsDir, outputDir string) ([]Artifact, error) {
	var found []string
	err := filepath.WalkDir(rpmsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == rpmsDir {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".rpm") {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", rpmsDir, err)
	}
	sort.Strings(found)

	if outputDir != "" && len(found) > 0 {
		log.Info("copying artifacts to output directory", "dir", outputDir)
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory at %s: %w", outputDir, err)
		}
	}

	artifacts := make([]Artifact, 0, len(found))
	for _, src := range found {
		log.Info("found RPM artifact", "path", src)
		final := src
		if outputDir != "" {
			final = filepath.Join(outputDir, filepath.Base(src))
			if err := copyFile(src, final); err != nil {
				return nil, fmt.Errorf("copy artifact from %s to %s: %w", src, final, err)
			}
		}
		d, err := fileDigest(final)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, Artifact{Path: final, Digest: d})
	}
	return artifacts, nil
}

// selectPrimary picks the one binary RPM named {name}-{version}*, skipping
// debuginfo, debugsource and source packages.
func selectPrimary(artifacts []Artifact, prefix string) (string, error) {
	var candidates []string
	for _, a := range artifacts {
		name := filepath.Base(a.Path)
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.Contains(name, "debuginfo") || strings.Contains(name, "debugsource") || strings.HasSuffix(name, ".src.rpm") {
			continue
		}
		candidates = append(candidates, a.Path)
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", fmt.Errorf("verification failed: could not find the main binary RPM for %s among %d artifact(s): %v", prefix, len(artifacts), artifactPaths(artifacts))
	default:
		return "", fmt.Errorf("verification failed: %d candidate RPMs match %s, cannot pick one: %v", len(candidates), prefix, candidates)
	}
}

func artifactPaths(artifacts []Artifact) []string {
	out := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, a.Path)
	}
	return out
}

func fileDigest(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return d, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
