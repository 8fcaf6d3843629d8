// Package rpmtest writes small but real RPM files for tests.
package rpmtest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/rpmpack"
)

// File is a payload entry; Mode holds permission bits only.
type File struct {
	Path string
	Body string
	Mode uint
}

// Package describes the RPM to write.
type Package struct {
	Name    string
	Version string
	Release string
	Arch    string
	Summary string
	License string
	Files   []File
}

// Write builds pkg into dir and returns the file path, named the way
// rpmbuild names binary packages.
func Write(t testing.TB, dir string, pkg Package) string {
	t.Helper()
	if pkg.Release == "" {
		pkg.Release = "1"
	}
	if pkg.Arch == "" {
		pkg.Arch = "x86_64"
	}
	r, err := rpmpack.NewRPM(rpmpack.RPMMetaData{
		Name:    pkg.Name,
		Version: pkg.Version,
		Release: pkg.Release,
		Arch:    pkg.Arch,
		Summary: pkg.Summary,
		Licence: pkg.License,
	})
	if err != nil {
		t.Fatalf("new rpm: %v", err)
	}
	for _, f := range pkg.Files {
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		r.AddFile(rpmpack.RPMFile{
			Name: f.Path,
			Body: []byte(f.Body),
			Mode: 0o100000 | mode,
		})
	}
	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		t.Fatalf("write rpm: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	out := filepath.Join(dir, pkg.Name+"-"+pkg.Version+"-"+pkg.Release+"."+pkg.Arch+".rpm")
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", out, err)
	}
	return out
}
