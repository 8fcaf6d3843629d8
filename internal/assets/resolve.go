// File: internal/assets/resolve.go
// Brief: Expands declared assets into a flat, conflict-checked file manifest.

// Package assets turns the declarative asset list into the concrete set of
// files and directories a package must contain.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/moby/patternmatcher"

	"github.com/normano/cargo-revolve/internal/config"
	"github.com/normano/cargo-revolve/internal/errdefs"
)

const (
	// MaxMode is the largest permission value an asset may declare.
	MaxMode = 0o7777
	// BuildOutputPrefix marks asset sources that live in the compiler's output root.
	BuildOutputPrefix = "target/"
)

// Asset is a single resolved file mapping. Directory assets never appear here.
type Asset struct {
	Source string
	Dest   string
	Mode   string
	Mkdir  bool
}

// Filename is the base name of the source file, which is also its archive entry name.
func (a Asset) Filename() string {
	return path.Base(filepath.ToSlash(a.Source))
}

// Manifest is the flattened result of expanding every declared asset.
type Manifest struct {
	Files       []Asset
	Directories []string
}

// Destinations returns every file destination in manifest order.
func (m Manifest) Destinations() []string {
	out := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		out = append(out, f.Dest)
	}
	return out
}

// IsDirSource reports whether a declared source names a directory tree.
func IsDirSource(source string) bool {
	return strings.HasSuffix(source, "/") || strings.HasSuffix(source, string(os.PathSeparator))
}

// SourcePath maps a declared asset source to its on-disk location. Sources
// under "target/" resolve against buildOutputRoot when it is set, so
// CARGO_TARGET_DIR redirects them.
func SourcePath(source, projectRoot, buildOutputRoot string) string {
	slashed := filepath.ToSlash(source)
	if buildOutputRoot != "" {
		if slashed == strings.TrimSuffix(BuildOutputPrefix, "/") {
			return buildOutputRoot
		}
		if strings.HasPrefix(slashed, BuildOutputPrefix) {
			return filepath.Join(buildOutputRoot, filepath.FromSlash(strings.TrimPrefix(slashed, BuildOutputPrefix)))
		}
	}
	return filepath.Join(projectRoot, filepath.FromSlash(slashed))
}

// ParseMode parses an octal permission string such as "0755".
func ParseMode(mode string) (uint32, error) {
	mode = strings.TrimSpace(mode)
	v, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q", mode)
	}
	if v > MaxMode {
		return 0, fmt.Errorf("mode %q exceeds %o", mode, MaxMode)
	}
	return uint32(v), nil
}

type expander struct {
	projectRoot     string
	buildOutputRoot string
	files       []Asset
	owners      map[string]string
	dirs        map[string]struct{}
}

// Expand resolves declared assets against projectRoot, with sources under
// "target/" read from buildOutputRoot when it is set. The filesystem is only read.
func Expand(declared []config.Asset, projectRoot, buildOutputRoot string) (Manifest, error) {
	e := &expander{
		projectRoot:     projectRoot,
		buildOutputRoot: buildOutputRoot,
		owners:          make(map[string]string),
		dirs:            make(map[string]struct{}),
	}
	for i, asset := range declared {
		if asset.Mode != "" {
			if _, err := ParseMode(asset.Mode); err != nil {
				return Manifest{}, &errdefs.ConfigError{
					Kind:   errdefs.InvalidMode,
					Field:  fmt.Sprintf("assets[%d]", i),
					Detail: fmt.Sprintf("%v for asset %s", err, asset.Source),
				}
			}
		}
		var err error
		if IsDirSource(asset.Source) {
			err = e.expandDir(asset)
		} else {
			err = e.addFile(Asset{
				Source: asset.Source,
				Dest:   asset.Dest,
				Mode:   asset.Mode,
				Mkdir:  asset.MkdirEnabled(),
			})
			if err == nil && asset.MkdirEnabled() {
				if parent := path.Dir(path.Clean(asset.Dest)); parent != "/" && parent != "." {
					e.dirs[parent] = struct{}{}
				}
			}
		}
		if err != nil {
			return Manifest{}, err
		}
	}

	dirs := make([]string, 0, len(e.dirs))
	for d := range e.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return Manifest{Files: e.files, Directories: dirs}, nil
}

func (e *expander) addFile(a Asset) error {
	dest := path.Clean(a.Dest)
	if prior, ok := e.owners[dest]; ok {
		return &errdefs.ConfigError{
			Kind:   errdefs.DuplicateDestination,
			Field:  "assets",
			Detail: fmt.Sprintf("destination %s is claimed by both %s and %s", dest, prior, a.Source),
		}
	}
	e.owners[dest] = a.Source
	a.Dest = dest
	e.files = append(e.files, a)
	return nil
}

func (e *expander) expandDir(asset config.Asset) error {
	declaredRoot := strings.TrimRight(filepath.ToSlash(asset.Source), "/")
	walkRoot := SourcePath(declaredRoot, e.projectRoot, e.buildOutputRoot)
	info, err := os.Stat(walkRoot)
	if err != nil || !info.IsDir() {
		detail := fmt.Sprintf("directory asset source %s does not exist or is not a directory", asset.Source)
		if err != nil && !os.IsNotExist(err) {
			detail = fmt.Sprintf("stat directory asset source %s: %v", asset.Source, err)
		}
		return &errdefs.ConfigError{Kind: errdefs.InvalidAssetSource, Field: "assets", Detail: detail}
	}

	matcher, err := patternmatcher.New(asset.Exclude)
	if err != nil {
		return &errdefs.ConfigError{
			Kind:   errdefs.InvalidAssetSource,
			Field:  "assets",
			Detail: fmt.Sprintf("invalid exclude pattern for %s: %v", asset.Source, err),
		}
	}

	mkdir := asset.MkdirEnabled()
	destRoot := path.Clean(asset.Dest)
	return filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk %s: %w", asset.Source, walkErr)
		}
		rel, err := filepath.Rel(walkRoot, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && len(asset.Exclude) > 0 {
			excluded, err := matcher.MatchesOrParentMatches(rel)
			if err != nil {
				return fmt.Errorf("match exclude patterns for %s: %w", rel, err)
			}
			if excluded {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		dest := destRoot
		if rel != "." {
			dest = path.Join(destRoot, rel)
		}
		if d.IsDir() {
			if mkdir {
				e.dirs[dest] = struct{}{}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return e.addFile(Asset{
			Source: path.Join(declaredRoot, rel),
			Dest:   dest,
			Mode:   asset.Mode,
			Mkdir:  mkdir,
		})
	})
}
