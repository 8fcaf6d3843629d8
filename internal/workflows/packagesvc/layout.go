// File: internal/workflows/packagesvc/layout.go
// Brief: Fixed working-directory layout under <project>/target/revolve.

package packagesvc

import (
	"path/filepath"

	"github.com/normano/cargo-revolve/internal/archive"
	"github.com/normano/cargo-revolve/internal/config"
)

// Layout is the per-run working state on disk.
type Layout struct {
	RevolveDir  string
	BuildDir    string
	TopDir      string
	SourcesDir  string
	SpecsDir    string
	RPMSDir     string
	ArchivePath string
}

// NewLayout derives the layout from the project root. It creates nothing.
func NewLayout(p *config.Project) Layout {
	revolve := filepath.Join(p.Root, "target", "revolve")
	top := filepath.Join(revolve, "rpmbuild")
	return Layout{
		RevolveDir:  revolve,
		BuildDir:    filepath.Join(revolve, "build"),
		TopDir:      top,
		SourcesDir:  filepath.Join(top, "SOURCES"),
		SpecsDir:    filepath.Join(top, "SPECS"),
		RPMSDir:     filepath.Join(top, "RPMS"),
		ArchivePath: filepath.Join(p.Root, "target", archive.Filename(p.ArchiveRootDir())),
	}
}

// rpmbuildArgs returns the builder arguments. With an archive the sources come
// from SOURCES; without one rpmbuild reads them from the project tree.
func (l Layout) rpmbuildArgs(specPath string, withArchive bool, projectRoot string) []string {
	args := []string{"--define=_topdir " + l.TopDir, "-bb", specPath}
	if !withArchive {
		args = append(args, "--define=_sourcedir "+projectRoot)
	}
	return args
}
