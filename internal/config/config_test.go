// File: internal/config/config_test.go
// Brief: Tests for Cargo.toml loading, overlay merging and validation.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/normano/cargo-revolve/internal/errdefs"
)

const sampleManifest = `[package]
name = "sample-project"
version = "0.1.0"
description = "A sample project"
license = "MIT"

[package.metadata.revolve]
spec_template = "sample.spec.tmpl"
output_dir = "dist"
changelog = "CHANGELOG.md"
build_command = ["echo one", "echo 'two words'"]
verify_license = "MIT"

[[package.metadata.revolve.assets]]
source = "target/release/sample-project"
dest = "/usr/bin/sample-project"
mode = "0755"

[[package.metadata.revolve.assets]]
source = "config/"
dest = "/etc/sample-project/conf.d"
mkdir = false
exclude = ["*.bak"]
`

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadParsesRevolveTable(t *testing.T) {
	t.Setenv(TargetDirEnv, "")
	path := writeManifest(t, sampleManifest)
	project, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if project.Package.Name != "sample-project" || project.Package.Version != "0.1.0" {
		t.Fatalf("unexpected package identity: %+v", project.Package)
	}
	if project.Package.License != "MIT" || project.Package.Description != "A sample project" {
		t.Fatalf("unexpected package metadata: %+v", project.Package)
	}
	if project.Revolve.SpecTemplate != "sample.spec.tmpl" {
		t.Fatalf("spec template mismatch: %q", project.Revolve.SpecTemplate)
	}
	if got := len(project.Revolve.BuildCommand); got != 2 {
		t.Fatalf("expected 2 build steps, got %d", got)
	}
	if project.Revolve.HasBuildFlags() {
		t.Fatalf("build flags should be unset")
	}
	if len(project.Revolve.Assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(project.Revolve.Assets))
	}
	if !project.Revolve.Assets[0].MkdirEnabled() {
		t.Fatalf("mkdir should default to true")
	}
	if project.Revolve.Assets[1].MkdirEnabled() {
		t.Fatalf("mkdir=false should be honoured")
	}
	if got := project.Revolve.Assets[1].Exclude; len(got) != 1 || got[0] != "*.bak" {
		t.Fatalf("unexpected exclude patterns: %v", got)
	}
	root := filepath.Dir(path)
	if project.TargetDir != filepath.Join(root, "target") {
		t.Fatalf("unexpected target dir %s", project.TargetDir)
	}
	if project.OutputDir() != filepath.Join(root, "dist") {
		t.Fatalf("unexpected output dir %s", project.OutputDir())
	}
	if project.ArchiveRootDir() != "sample-project-0.1.0" {
		t.Fatalf("unexpected archive root %s", project.ArchiveRootDir())
	}
}

func TestLoadBuildCommandString(t *testing.T) {
	path := writeManifest(t, `[package]
name = "demo"
version = "1.2.3"

[package.metadata.revolve]
spec_template = "demo.spec"
build_command = "./build-script.sh --fast"
build_flags = []
`)
	project, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(project.Revolve.BuildCommand) != 1 || project.Revolve.BuildCommand[0] != "./build-script.sh --fast" {
		t.Fatalf("unexpected build command: %v", project.Revolve.BuildCommand)
	}
	if !project.Revolve.HasBuildFlags() {
		t.Fatalf("explicit empty build_flags should count as configured")
	}
}

func TestLoadHonoursCargoTargetDir(t *testing.T) {
	path := writeManifest(t, `[package]
name = "demo"
version = "1.2.3"

[package.metadata.revolve]
spec_template = "demo.spec"
`)
	t.Setenv(TargetDirEnv, "/tmp/shared-target")
	project, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if project.TargetDir != "/tmp/shared-target" {
		t.Fatalf("expected CARGO_TARGET_DIR to win, got %s", project.TargetDir)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		kind errdefs.ConfigKind
	}{
		{
			name: "missing table",
			body: "[package]\nname = \"demo\"\nversion = \"0.1.0\"\n",
			kind: errdefs.MissingConfig,
		},
		{
			name: "missing spec template",
			body: "[package]\nname = \"demo\"\nversion = \"0.1.0\"\n[package.metadata.revolve]\noutput_dir = \"dist\"\n",
			kind: errdefs.MissingField,
		},
		{
			name: "bad version",
			body: "[package]\nname = \"demo\"\nversion = \"one\"\n[package.metadata.revolve]\nspec_template = \"x\"\n",
			kind: errdefs.InvalidVersion,
		},
		{
			name: "relative dest",
			body: "[package]\nname = \"demo\"\nversion = \"0.1.0\"\n[package.metadata.revolve]\nspec_template = \"x\"\n[[package.metadata.revolve.assets]]\nsource = \"a\"\ndest = \"usr/bin/a\"\n",
			kind: errdefs.InvalidAssetDest,
		},
		{
			name: "workspace inherited version",
			body: "[package]\nname = \"demo\"\nversion.workspace = true\n[package.metadata.revolve]\nspec_template = \"x\"\n",
			kind: errdefs.UnsupportedInheritance,
		},
		{
			name: "workspace inherited license",
			body: "[package]\nname = \"demo\"\nversion = \"0.1.0\"\nlicense = { workspace = true }\n[package.metadata.revolve]\nspec_template = \"x\"\n",
			kind: errdefs.UnsupportedInheritance,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeManifest(t, tc.body))
			var cfgErr *errdefs.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s (%v)", tc.kind, cfgErr.Kind, err)
			}
			if tc.kind == errdefs.UnsupportedInheritance && !strings.Contains(err.Error(), "workspace") {
				t.Fatalf("error should name the workspace inheritance: %v", err)
			}
		})
	}
}

func TestLoadMergesOverlay(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	overlay := `spec_template: alt.spec.tmpl
build_command: make package
verify_summary: Overlay summary
`
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), OverlayFile), []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	project, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if project.Revolve.SpecTemplate != "alt.spec.tmpl" {
		t.Fatalf("overlay spec_template not applied: %q", project.Revolve.SpecTemplate)
	}
	if len(project.Revolve.BuildCommand) != 1 || project.Revolve.BuildCommand[0] != "make package" {
		t.Fatalf("overlay build_command not applied: %v", project.Revolve.BuildCommand)
	}
	if project.Revolve.VerifyLicense != "MIT" {
		t.Fatalf("manifest value should survive when overlay is empty, got %q", project.Revolve.VerifyLicense)
	}
	if project.Revolve.VerifySummary != "Overlay summary" {
		t.Fatalf("overlay verify_summary not applied: %q", project.Revolve.VerifySummary)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	nested := filepath.Join(filepath.Dir(path), "src", "bin")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := FindManifest(nested)
	if err != nil {
		t.Fatalf("find manifest: %v", err)
	}
	if found != path {
		t.Fatalf("expected %s, got %s", path, found)
	}
}
