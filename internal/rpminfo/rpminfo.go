// File: internal/rpminfo/rpminfo.go
// Brief: Reads RPM headers for the info action and post-build verification.

package rpminfo

import (
	"fmt"
	"os"
	"sort"

	"github.com/cavaliergopher/rpm"
	"github.com/opencontainers/go-digest"
)

// File is one entry of a package's recorded file list.
type File struct {
	Path string
	// Mode holds the permission bits (setuid/setgid/sticky included).
	Mode uint32
}

// Header is the subset of RPM metadata cargo-revolve reads.
type Header struct {
	Name          string
	Version       string
	Release       string
	Arch          string
	InstalledSize uint64
	License       string
	Summary       string
	Files         []File
}

// Info is a Header plus facts about the package file itself.
type Info struct {
	Path   string
	Header *Header
	Digest digest.Digest
}

// Open parses the RPM at path.
func Open(path string) (*Header, error) {
	pkg, err := rpm.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open or parse rpm file at %s: %w", path, err)
	}
	files := pkg.Files()
	h := &Header{
		Name:          pkg.Name(),
		Version:       pkg.Version(),
		Release:       pkg.Release(),
		Arch:          pkg.Architecture(),
		InstalledSize: pkg.Size(),
		License:       pkg.License(),
		Summary:       pkg.Summary(),
		Files:         make([]File, 0, len(files)),
	}
	for i := range files {
		h.Files = append(h.Files, File{Path: files[i].Name(), Mode: permBits(files[i].Mode())})
	}
	return h, nil
}

// Inspect opens path and computes its sha256 digest.
func Inspect(path string) (*Info, error) {
	h, err := Open(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return nil, fmt.Errorf("digest %s: %w", path, err)
	}
	return &Info{Path: path, Header: h, Digest: d}, nil
}

// Paths returns the recorded file paths in header order.
func (h *Header) Paths() []string {
	out := make([]string, 0, len(h.Files))
	for _, f := range h.Files {
		out = append(out, f.Path)
	}
	return out
}

func (h *Header) fileIndex() map[string]File {
	idx := make(map[string]File, len(h.Files))
	for _, f := range h.Files {
		idx[f.Path] = f
	}
	return idx
}

// SortedPaths is Paths in lexical order.
func (h *Header) SortedPaths() []string {
	out := h.Paths()
	sort.Strings(out)
	return out
}

// permBits folds a file mode into the low 12 unix permission bits. Modes
// carrying raw unix special bits and modes using Go's flag bits both work.
func permBits(m os.FileMode) uint32 {
	bits := uint32(m.Perm()) | uint32(m)&0o7000
	if m&os.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if m&os.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if m&os.ModeSticky != 0 {
		bits |= 0o1000
	}
	return bits & 0o7777
}
