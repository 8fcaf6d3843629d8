package specfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"github.com/normano/cargo-revolve/internal/assets"
	"github.com/normano/cargo-revolve/internal/config"
	"github.com/normano/cargo-revolve/internal/errdefs"
	"github.com/normano/cargo-revolve/internal/logging"
)

const sampleTemplate = `Name:    {{ .Pkg.Name }}
Version: {{ .Pkg.Version }}
Release: 1%{?dist}
Summary: {{ .Pkg.Description | default "no description" }}
License: {{ .Pkg.License }}
Source0: {{ .Builder.ArchiveRootDir }}.tar.gz

%install
{{- range .Builder.Directories }}
mkdir -p %{buildroot}{{ . }}
{{- end }}
{{- range .Builder.Assets }}
install -m {{ .Mode | default "0644" }} %{_builddir}/{{ $.Builder.ArchiveRootDir }}/{{ .Filename }} %{buildroot}{{ .Dest }}
{{- end }}

%files
{{- range .Builder.Assets }}
{{ .Dest }}
{{- end }}
{{- if .Builder.Changelog }}

%changelog
{{ .Builder.Changelog | trim }}
{{- end }}
`

func sampleProject() *config.Project {
	return &config.Project{
		Root: "/work/app",
		Package: config.Package{
			Name:        "app",
			Version:     "1.2.3",
			Description: "Demo app",
			License:     "MIT",
		},
		Revolve: config.Revolve{
			SpecTemplate: "app.spec.tmpl",
			BuildFlags:   []string{"--release", "--locked"},
		},
	}
}

func sampleManifest() assets.Manifest {
	return assets.Manifest{
		Files: []assets.Asset{
			{Source: "target/release/app", Dest: "/usr/bin/app", Mode: "0755", Mkdir: true},
			{Source: "config/app.toml", Dest: "/etc/app/app.toml", Mkdir: true},
		},
		Directories: []string{"/etc/app", "/usr/bin"},
	}
}

func writeTemplate(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "app.spec.tmpl")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return p
}

func TestRenderWritesNamedSpec(t *testing.T) {
	tmpl := writeTemplate(t, sampleTemplate)
	out := t.TempDir()
	ctx := NewContext(sampleProject(), sampleManifest(), Extras{Changelog: "* Mon Jan 1 2024 dev - 1.2.3\n- first\n"})

	rendered, err := Render(ctx, tmpl, out)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if rendered.Path != filepath.Join(out, "app-1.2.3.spec") {
		t.Fatalf("unexpected spec path %s", rendered.Path)
	}
	onDisk, err := os.ReadFile(rendered.Path)
	if err != nil {
		t.Fatalf("read rendered spec: %v", err)
	}
	if string(onDisk) != rendered.Content {
		t.Fatalf("returned content differs from disk")
	}
	for _, want := range []string{
		"Name:    app",
		"Summary: Demo app",
		"Source0: app-1.2.3.tar.gz",
		"mkdir -p %{buildroot}/etc/app",
		"install -m 0755 %{_builddir}/app-1.2.3/app %{buildroot}/usr/bin/app",
		"install -m 0644 %{_builddir}/app-1.2.3/app.toml %{buildroot}/etc/app/app.toml",
		"%changelog\n* Mon Jan 1 2024 dev - 1.2.3\n- first",
	} {
		if !strings.Contains(rendered.Content, want) {
			t.Fatalf("rendered spec missing %q:\n%s", want, rendered.Content)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	tmpl := writeTemplate(t, sampleTemplate)
	ctx := NewContext(sampleProject(), sampleManifest(), Extras{})
	first, err := Render(ctx, tmpl, t.TempDir())
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Render(NewContext(sampleProject(), sampleManifest(), Extras{}), tmpl, t.TempDir())
		if err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
		if !bytes.Equal([]byte(first.Content), []byte(again.Content)) {
			t.Fatalf("render %d differs from the first", i)
		}
	}
	if strings.Contains(first.Content, "%changelog") {
		t.Fatalf("changelog section should be omitted when no changelog is set")
	}
}

func TestRenderTemplateNotFound(t *testing.T) {
	ctx := NewContext(sampleProject(), sampleManifest(), Extras{})
	_, err := Render(ctx, filepath.Join(t.TempDir(), "missing.tmpl"), t.TempDir())
	var tmplErr *errdefs.TemplateError
	if !errors.As(err, &tmplErr) || tmplErr.Kind != errdefs.TemplateNotFound {
		t.Fatalf("expected template-not-found, got %v", err)
	}
}

func TestRenderReportsEngineDiagnostics(t *testing.T) {
	cases := map[string]string{
		"syntax":        "Name: {{ .Pkg.Name ",
		"unknown field": "Name: {{ .Pkg.Nickname }}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			out := t.TempDir()
			_, err := Render(NewContext(sampleProject(), sampleManifest(), Extras{}), writeTemplate(t, body), out)
			var tmplErr *errdefs.TemplateError
			if !errors.As(err, &tmplErr) || tmplErr.Kind != errdefs.TemplateRenderError {
				t.Fatalf("expected render error, got %v", err)
			}
			if tmplErr.Err == nil {
				t.Fatalf("render error should carry the engine diagnostic")
			}
			if entries, _ := os.ReadDir(out); len(entries) != 0 {
				t.Fatalf("nothing should be written on a render failure")
			}
		})
	}
}

func TestNewContextIsIndependentOfConfig(t *testing.T) {
	project := sampleProject()
	manifest := sampleManifest()
	ctx := NewContext(project, manifest, Extras{GitCommit: "abc123", ToolVersion: "0.3.0"})

	project.Revolve.BuildFlags[0] = "--debug"
	manifest.Directories[0] = "/tampered"
	manifest.Files[0].Dest = "/tampered"

	if ctx.Builder.BuildFlags[0] != "--release" {
		t.Fatalf("build flags aliased the config: %v", ctx.Builder.BuildFlags)
	}
	if ctx.Builder.Directories[0] != "/etc/app" || ctx.Builder.Assets[0].Dest != "/usr/bin/app" {
		t.Fatalf("context aliased the manifest: %+v", ctx.Builder)
	}
	if ctx.Builder.ArchiveRootDir != "app-1.2.3" || ctx.Builder.GitCommit != "abc123" || ctx.Builder.ToolVersion != "0.3.0" {
		t.Fatalf("unexpected builder context: %+v", ctx.Builder)
	}
	if ctx.Builder.Assets[0].Filename != "app" {
		t.Fatalf("expected filename app, got %s", ctx.Builder.Assets[0].Filename)
	}
}

func TestNewContextLeavesUnsetFlagsNil(t *testing.T) {
	project := sampleProject()
	project.Revolve.BuildFlags = nil
	ctx := NewContext(project, sampleManifest(), Extras{})
	if ctx.Builder.BuildFlags != nil {
		t.Fatalf("expected nil build flags, got %v", ctx.Builder.BuildFlags)
	}
}

func TestLoadChangelogMissingIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.NewWithWriter("warn", &buf)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if got := LoadChangelog(log, filepath.Join(t.TempDir(), "CHANGELOG.md")); got != "" {
		t.Fatalf("expected empty changelog, got %q", got)
	}
	if !strings.Contains(buf.String(), "changelog could not be read") {
		t.Fatalf("expected a warning, got %q", buf.String())
	}
	if got := LoadChangelog(logr.Discard(), ""); got != "" {
		t.Fatalf("unset changelog should be empty")
	}
}

func TestDiff(t *testing.T) {
	same, err := Diff("a\nb\n", "a\nb\n", "app.spec")
	if err != nil || same != "" {
		t.Fatalf("identical input should have no diff, got %q, %v", same, err)
	}
	diff, err := Diff("Version: 1.0.0\nRelease: 1\n", "Version: 1.1.0\nRelease: 1\n", "app.spec")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(diff, "-Version: 1.0.0") || !strings.Contains(diff, "+Version: 1.1.0") {
		t.Fatalf("unexpected diff:\n%s", diff)
	}
}
