package archive

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"

	"github.com/normano/cargo-revolve/internal/assets"
	"github.com/normano/cargo-revolve/internal/config"
	"github.com/normano/cargo-revolve/internal/errdefs"
)

func mustWrite(t *testing.T, p, body string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), mode); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

func readEntries(t *testing.T, archivePath string) map[string]string {
	t.Helper()
	f, err := os.Open(archivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	tr := tar.NewReader(gz)
	out := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar next: %v", err)
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		out[hdr.Name] = string(body)
	}
	return out
}

func TestCreateFlatArchive(t *testing.T) {
	project := t.TempDir()
	buildRoot := filepath.Join(t.TempDir(), "shared-target")
	mustWrite(t, filepath.Join(buildRoot, "release", "app"), "binary", 0o755)
	mustWrite(t, filepath.Join(project, "config", "app.toml"), "k = 1", 0o644)

	out := filepath.Join(project, "target", Filename("app-1.0.0"))
	res, err := Create(context.Background(), Options{
		Files: []assets.Asset{
			{Source: "target/release/app", Dest: "/usr/bin/app"},
			{Source: "config/app.toml", Dest: "/etc/app/app.toml"},
		},
		ProjectRoot:     project,
		BuildOutputRoot: buildRoot,
		RootDir:         "app-1.0.0",
		OutputPath:      out,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Path != out || res.FileCount != 2 || res.TotalBytes != int64(len("binary")+len("k = 1")) {
		t.Fatalf("unexpected result: %+v", res)
	}

	got := readEntries(t, out)
	want := map[string]string{
		"app-1.0.0/app":      "binary",
		"app-1.0.0/app.toml": "k = 1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if res.Digest != digest.FromBytes(raw) {
		t.Fatalf("digest mismatch: %s vs %s", res.Digest, digest.FromBytes(raw))
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(out), ".revolve-archive-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestCreateMissingAssetSuggestsCompile(t *testing.T) {
	project := t.TempDir()
	_, err := Create(context.Background(), Options{
		Files:           []assets.Asset{{Source: "target/release/app", Dest: "/usr/bin/app"}},
		ProjectRoot:     project,
		BuildOutputRoot: filepath.Join(project, "target"),
		RootDir:         "app-1.0.0",
		OutputPath:      filepath.Join(project, "target", "app-1.0.0.tar.gz"),
	})
	var missing *errdefs.MissingAssetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingAssetError, got %v", err)
	}
	if missing.Path != filepath.Join(project, "target", "release", "app") || missing.Hint == "" {
		t.Fatalf("unexpected missing asset error: %+v", missing)
	}
	if _, statErr := os.Stat(filepath.Join(project, "target", "app-1.0.0.tar.gz")); !os.IsNotExist(statErr) {
		t.Fatalf("archive should not exist after failure")
	}
}

func TestCreateRejectsBasenameCollision(t *testing.T) {
	project := t.TempDir()
	mustWrite(t, filepath.Join(project, "a", "app.conf"), "a", 0o644)
	mustWrite(t, filepath.Join(project, "b", "app.conf"), "b", 0o644)
	_, err := Create(context.Background(), Options{
		Files: []assets.Asset{
			{Source: "a/app.conf", Dest: "/etc/a/app.conf"},
			{Source: "b/app.conf", Dest: "/etc/b/app.conf"},
		},
		ProjectRoot: project,
		RootDir:     "app-1.0.0",
		OutputPath:  filepath.Join(project, "target", "app-1.0.0.tar.gz"),
	})
	var cfgErr *errdefs.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Kind != errdefs.ArchiveCollision {
		t.Fatalf("expected archive collision, got %v", err)
	}
	if !strings.Contains(err.Error(), "--no-archive") {
		t.Fatalf("collision error should name the --no-archive workaround: %v", err)
	}
}

func TestCreateRejectsSameNameFilesFromOneDirectoryAsset(t *testing.T) {
	project := t.TempDir()
	mustWrite(t, filepath.Join(project, "config", "a.toml"), "a", 0o644)
	mustWrite(t, filepath.Join(project, "config", "nested", "a.toml"), "b", 0o644)
	manifest, err := assets.Expand([]config.Asset{{Source: "config/", Dest: "/etc/app/conf.d"}}, project, "")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	_, err = Create(context.Background(), Options{
		Files:       manifest.Files,
		ProjectRoot: project,
		RootDir:     "app-1.0.0",
		OutputPath:  filepath.Join(project, "target", "app-1.0.0.tar.gz"),
	})
	var cfgErr *errdefs.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Kind != errdefs.ArchiveCollision {
		t.Fatalf("expected archive collision, got %v", err)
	}
	for _, want := range []string{"config/a.toml", "config/nested/a.toml", "--no-archive"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("collision error missing %q: %v", want, err)
		}
	}
}

func TestCreateDryRunWritesNothing(t *testing.T) {
	project := t.TempDir()
	out := filepath.Join(project, "target", "app-1.0.0.tar.gz")
	res, err := Create(context.Background(), Options{
		Files:       []assets.Asset{{Source: "target/release/app", Dest: "/usr/bin/app"}},
		ProjectRoot: project,
		RootDir:     "app-1.0.0",
		OutputPath:  out,
		DryRun:      true,
	})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if res.Path != out {
		t.Fatalf("dry run should report %s, got %s", out, res.Path)
	}
	if _, err := os.Stat(filepath.Join(project, "target")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the target directory")
	}
}
