// File: internal/specfile/context.go
// Brief: Template context handed to the .spec renderer.

package specfile

import (
	"os"
	"strings"

	"github.com/go-logr/logr"

	"github.com/normano/cargo-revolve/internal/assets"
	"github.com/normano/cargo-revolve/internal/config"
	"github.com/normano/cargo-revolve/internal/logging"
)

// Pkg is the package identity exposed to templates as .Pkg.
type Pkg struct {
	Name        string
	Version     string
	Description string
	License     string
}

// Asset is a resolved file as templates see it.
type Asset struct {
	Source   string
	Dest     string
	Mode     string
	Mkdir    bool
	Filename string
}

// Builder is exposed to templates as .Builder.
type Builder struct {
	SpecTemplate   string
	ArchiveRootDir string
	Changelog      string
	Assets         []Asset
	BuildFlags     []string
	Directories    []string
	GitCommit      string
	ToolVersion    string
}

// BuildContext is the complete render input. It shares no memory with the
// configuration it was derived from.
type BuildContext struct {
	Pkg     Pkg
	Builder Builder
}

// Extras carries context values that do not come from the manifest.
type Extras struct {
	Changelog   string
	GitCommit   string
	ToolVersion string
}

// NewContext derives a fresh context from the loaded project and its resolved manifest.
func NewContext(project *config.Project, manifest assets.Manifest, extras Extras) BuildContext {
	files := make([]Asset, 0, len(manifest.Files))
	for _, f := range manifest.Files {
		files = append(files, Asset{
			Source:   f.Source,
			Dest:     f.Dest,
			Mode:     f.Mode,
			Mkdir:    f.Mkdir,
			Filename: f.Filename(),
		})
	}
	var flags []string
	if project.Revolve.HasBuildFlags() {
		flags = append([]string{}, project.Revolve.BuildFlags...)
	}
	return BuildContext{
		Pkg: Pkg{
			Name:        project.Package.Name,
			Version:     project.Package.Version,
			Description: project.Package.Description,
			License:     project.Package.License,
		},
		Builder: Builder{
			SpecTemplate:   project.Revolve.SpecTemplate,
			ArchiveRootDir: project.ArchiveRootDir(),
			Changelog:      extras.Changelog,
			Assets:         files,
			BuildFlags:     flags,
			Directories:    append([]string{}, manifest.Directories...),
			GitCommit:      extras.GitCommit,
			ToolVersion:    extras.ToolVersion,
		},
	}
}

// LoadChangelog reads an optional changelog. Failures are logged and yield "".
func LoadChangelog(log logr.Logger, path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	log.V(1).Info("reading changelog", "path", path)
	raw, err := os.ReadFile(path)
	if err != nil {
		logging.Warn(log, "changelog could not be read, continuing without it", "path", path, "error", err.Error())
		return ""
	}
	return string(raw)
}
