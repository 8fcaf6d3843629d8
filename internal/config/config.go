// File: internal/config/config.go
// Brief: Project manifest loading for the [package.metadata.revolve] table.

// Package config loads the packaging configuration from a project's Cargo.toml,
// merges the optional repository overlay, and validates the result into a
// strongly typed Project the packaging workflow consumes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/normano/cargo-revolve/internal/errdefs"
)

const (
	// ManifestFile is the project manifest the config table lives in.
	ManifestFile = "Cargo.toml"
	// TargetDirEnv overrides the compiler's output root, as Cargo does.
	TargetDirEnv = "CARGO_TARGET_DIR"
)

// Asset is one declared source-to-destination mapping as written by the user.
type Asset struct {
	Source  string   `toml:"source" yaml:"source"`
	Dest    string   `toml:"dest" yaml:"dest"`
	Mode    string   `toml:"mode" yaml:"mode,omitempty"`
	Mkdir   *bool    `toml:"mkdir" yaml:"mkdir,omitempty"`
	Exclude []string `toml:"exclude" yaml:"exclude,omitempty"`
}

// MkdirEnabled reports the effective mkdir flag (default true).
func (a Asset) MkdirEnabled() bool {
	return a.Mkdir == nil || *a.Mkdir
}

// BuildCommand is a custom build declared either as one string or a list of steps.
type BuildCommand []string

// UnmarshalTOML accepts `build_command = "..."` and `build_command = ["...", "..."]`.
func (c *BuildCommand) UnmarshalTOML(v any) error {
	steps, err := commandSteps(v)
	if err != nil {
		return err
	}
	*c = steps
	return nil
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (c *BuildCommand) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = BuildCommand{node.Value}
		return nil
	case yaml.SequenceNode:
		var steps []string
		if err := node.Decode(&steps); err != nil {
			return fmt.Errorf("build_command: %w", err)
		}
		*c = steps
		return nil
	default:
		return fmt.Errorf("build_command must be a string or a list of strings")
	}
}

func commandSteps(v any) (BuildCommand, error) {
	switch t := v.(type) {
	case string:
		return BuildCommand{t}, nil
	case []any:
		out := make(BuildCommand, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("build_command[%d] must be a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("build_command must be a string or a list of strings, got %T", v)
	}
}

// Revolve mirrors the [package.metadata.revolve] table.
type Revolve struct {
	SpecTemplate  string       `toml:"spec_template" yaml:"spec_template,omitempty"`
	OutputDir     string       `toml:"output_dir" yaml:"output_dir,omitempty"`
	Changelog     string       `toml:"changelog" yaml:"changelog,omitempty"`
	BuildFlags    []string     `toml:"build_flags" yaml:"build_flags,omitempty"`
	BuildCommand  BuildCommand `toml:"build_command" yaml:"build_command,omitempty"`
	Assets        []Asset      `toml:"assets" yaml:"assets,omitempty"`
	VerifyLicense string       `toml:"verify_license" yaml:"verify_license,omitempty"`
	VerifySummary string       `toml:"verify_summary" yaml:"verify_summary,omitempty"`
}

// HasBuildFlags distinguishes "no flags configured" from an explicit empty list.
func (r Revolve) HasBuildFlags() bool {
	return r.BuildFlags != nil
}

// Package is the identity read from the [package] table.
type Package struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	License     string `toml:"license"`
}

// identityFields are the [package] keys decoded into Package.
var identityFields = []string{"name", "version", "description", "license"}

// checkWorkspaceInheritance rejects identity fields written as
// `version.workspace = true`; their values live in the workspace root
// manifest, which is not read.
func checkWorkspaceInheritance(raw, manifestPath string) error {
	var probe struct {
		Package map[string]any `toml:"package"`
	}
	if _, err := toml.Decode(raw, &probe); err != nil {
		// Reported with full context by the typed decode.
		return nil
	}
	for _, key := range identityFields {
		table, ok := probe.Package[key].(map[string]any)
		if !ok {
			continue
		}
		if _, inherited := table["workspace"]; inherited {
			return &errdefs.ConfigError{
				Kind:  errdefs.UnsupportedInheritance,
				Field: "package." + key,
				Detail: fmt.Sprintf("%s.workspace = true in %s inherits from the workspace manifest, which is not supported; set package.%s explicitly",
					key, manifestPath, key),
			}
		}
	}
	return nil
}

// Project is a loaded and validated packaging configuration.
type Project struct {
	Root         string
	ManifestPath string
	// TargetDir is where the compiler writes build outputs; assets under
	// "target/" resolve against it.
	TargetDir string
	Package   Package
	Revolve   Revolve
}

type manifestFile struct {
	Package struct {
		Package
		Metadata struct {
			Revolve *Revolve `toml:"revolve"`
		} `toml:"metadata"`
	} `toml:"package"`
}

// Load reads manifestPath, applies the repository overlay and validates the result.
func Load(manifestPath string) (*Project, error) {
	manifestPath = strings.TrimSpace(manifestPath)
	if manifestPath == "" {
		return nil, &errdefs.ConfigError{Kind: errdefs.MissingConfig, Detail: "manifest path is required"}
	}
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read manifest file at %s: %w", abs, err)
	}
	if err := checkWorkspaceInheritance(string(raw), abs); err != nil {
		return nil, err
	}
	var mf manifestFile
	if _, err := toml.Decode(string(raw), &mf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", abs, err)
	}
	if mf.Package.Metadata.Revolve == nil {
		return nil, &errdefs.ConfigError{
			Kind:   errdefs.MissingConfig,
			Field:  "[package.metadata.revolve]",
			Detail: fmt.Sprintf("table is missing in %s", abs),
		}
	}

	root := filepath.Dir(abs)
	revolve := *mf.Package.Metadata.Revolve
	overlay, err := loadOverlay(OverlayPath(root))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", OverlayFile, err)
	}
	revolve = mergeRevolve(revolve, overlay)

	project := &Project{
		Root:         root,
		ManifestPath: abs,
		TargetDir:    resolveTargetDir(root, os.Getenv(TargetDirEnv)),
		Package:      mf.Package.Package,
		Revolve:      revolve,
	}
	if err := project.validate(); err != nil {
		return nil, err
	}
	if out := strings.TrimSpace(project.Revolve.OutputDir); out != "" {
		expanded, err := homedir.Expand(out)
		if err != nil {
			return nil, fmt.Errorf("expand output_dir: %w", err)
		}
		project.Revolve.OutputDir = expanded
	}
	return project, nil
}

func (p *Project) validate() error {
	if strings.TrimSpace(p.Package.Name) == "" {
		return &errdefs.ConfigError{Kind: errdefs.MissingField, Field: "package.name", Detail: "package name is required"}
	}
	if strings.TrimSpace(p.Package.Version) == "" {
		return &errdefs.ConfigError{Kind: errdefs.MissingField, Field: "package.version", Detail: "package version is required"}
	}
	if _, err := semver.StrictNewVersion(p.Package.Version); err != nil {
		return &errdefs.ConfigError{
			Kind:   errdefs.InvalidVersion,
			Field:  "package.version",
			Detail: fmt.Sprintf("%q is not a semantic version: %v", p.Package.Version, err),
		}
	}
	if strings.TrimSpace(p.Revolve.SpecTemplate) == "" {
		return &errdefs.ConfigError{Kind: errdefs.MissingField, Field: "spec_template", Detail: "spec_template is required"}
	}
	for i, asset := range p.Revolve.Assets {
		field := fmt.Sprintf("assets[%d]", i)
		if strings.TrimSpace(asset.Source) == "" {
			return &errdefs.ConfigError{Kind: errdefs.MissingField, Field: field, Detail: "asset source is required"}
		}
		if strings.TrimSpace(asset.Dest) == "" {
			return &errdefs.ConfigError{Kind: errdefs.MissingField, Field: field, Detail: fmt.Sprintf("asset %s has no dest", asset.Source)}
		}
		if !strings.HasPrefix(asset.Dest, "/") {
			return &errdefs.ConfigError{Kind: errdefs.InvalidAssetDest, Field: field, Detail: fmt.Sprintf("dest %q must be an absolute install path", asset.Dest)}
		}
	}
	for i, step := range p.Revolve.BuildCommand {
		if strings.TrimSpace(step) == "" {
			return &errdefs.ConfigError{Kind: errdefs.MissingField, Field: fmt.Sprintf("build_command[%d]", i), Detail: "build step is empty"}
		}
	}
	return nil
}

// ArchiveRootDir is the canonical `{name}-{version}` directory name.
func (p *Project) ArchiveRootDir() string {
	return fmt.Sprintf("%s-%s", p.Package.Name, p.Package.Version)
}

// OutputDir returns the absolute artifact copy destination, or "" when unset.
func (p *Project) OutputDir() string {
	out := strings.TrimSpace(p.Revolve.OutputDir)
	if out == "" {
		return ""
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(p.Root, out)
}

func resolveTargetDir(root, env string) string {
	env = strings.TrimSpace(env)
	if env == "" {
		return filepath.Join(root, "target")
	}
	if filepath.IsAbs(env) {
		return env
	}
	return filepath.Join(root, env)
}
