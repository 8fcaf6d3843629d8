// File: internal/archive/archive.go
// Brief: Content archive (tar.gz) assembly for the package builder.

package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"

	"github.com/normano/cargo-revolve/internal/assets"
	"github.com/normano/cargo-revolve/internal/errdefs"
)

type Options struct {
	Files []assets.Asset
	// ProjectRoot resolves every source that is not a build output.
	ProjectRoot string
	// BuildOutputRoot resolves sources under "target/", which may be
	// redirected with CARGO_TARGET_DIR.
	BuildOutputRoot string
	// RootDir is the single top-level directory inside the archive.
	RootDir    string
	OutputPath string
	DryRun     bool
}

type Result struct {
	Path       string
	FileCount  int
	TotalBytes int64
	Digest     digest.Digest
}

// Filename returns the canonical archive name for a root directory.
func Filename(rootDir string) string {
	return rootDir + ".tar.gz"
}

type entry struct {
	source string
	name   string
	info   os.FileInfo
}

// Create writes the content archive. In dry-run mode nothing is written and
// only the path the archive would have is returned.
func Create(ctx context.Context, opts Options) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(opts.RootDir) == "" {
		return nil, fmt.Errorf("archive root dir is required")
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		return nil, fmt.Errorf("archive output path is required")
	}
	if opts.DryRun {
		return &Result{Path: opts.OutputPath, FileCount: len(opts.Files)}, nil
	}

	entries, err := collect(opts)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Dir(opts.OutputPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(outDir, ".revolve-archive-*.tar.gz")
	if err != nil {
		return nil, fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmpFile.Name()
	cleanupTmp := func() { _ = os.Remove(tmpPath) }

	result, err := writeArchive(ctx, tmpFile, entries)
	if closeErr := tmpFile.Close(); err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, "close archive")
	}
	if err != nil {
		cleanupTmp()
		return nil, err
	}
	if err := os.Rename(tmpPath, opts.OutputPath); err != nil {
		cleanupTmp()
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	result.Path = opts.OutputPath
	return result, nil
}

func collect(opts Options) ([]entry, error) {
	owners := make(map[string]string, len(opts.Files))
	entries := make([]entry, 0, len(opts.Files))
	for _, f := range opts.Files {
		src := assets.SourcePath(f.Source, opts.ProjectRoot, opts.BuildOutputRoot)
		info, err := os.Stat(src)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &errdefs.MissingAssetError{
					Path: src,
					Hint: "run the compile step first or check the asset source path",
				}
			}
			return nil, fmt.Errorf("stat asset %s: %w", src, err)
		}
		if info.IsDir() {
			return nil, &errdefs.ConfigError{
				Kind:   errdefs.InvalidAssetSource,
				Field:  "assets",
				Detail: fmt.Sprintf("asset source %s is a directory; declare it with a trailing '/'", f.Source),
			}
		}
		base := filepath.Base(src)
		if prior, ok := owners[base]; ok {
			return nil, &errdefs.ConfigError{
				Kind:   errdefs.ArchiveCollision,
				Field:  "assets",
				Detail: fmt.Sprintf("%s and %s both map to archive entry %s/%s; rename one of them or build with --no-archive", prior, f.Source, opts.RootDir, base),
			}
		}
		owners[base] = f.Source
		entries = append(entries, entry{source: src, name: path.Join(opts.RootDir, base), info: info})
	}
	return entries, nil
}

func writeArchive(ctx context.Context, w io.Writer, entries []entry) (*Result, error) {
	hasher := digest.SHA256.Digester()
	gz := gzip.NewWriter(io.MultiWriter(w, hasher.Hash()))
	tw := tar.NewWriter(gz)

	result := &Result{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := appendFile(tw, e)
		if err != nil {
			return nil, err
		}
		result.FileCount++
		result.TotalBytes += n
	}
	if err := tw.Close(); err != nil {
		return nil, errors.Wrap(err, "close tar stream")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "close gzip stream")
	}
	result.Digest = hasher.Digest()
	return result, nil
}

func appendFile(tw *tar.Writer, e entry) (int64, error) {
	hdr, err := tar.FileInfoHeader(e.info, "")
	if err != nil {
		return 0, errors.Wrapf(err, "tar header for %s", e.source)
	}
	hdr.Name = e.name
	hdr.Uname, hdr.Gname = "", ""
	hdr.Uid, hdr.Gid = 0, 0
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, errors.Wrapf(err, "write header for %s", e.name)
	}
	f, err := os.Open(e.source)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", e.source)
	}
	defer f.Close()
	n, err := io.Copy(tw, f)
	if err != nil {
		return n, errors.Wrapf(err, "copy %s into archive", e.source)
	}
	return n, nil
}
