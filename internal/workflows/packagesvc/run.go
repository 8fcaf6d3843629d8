// File: internal/workflows/packagesvc/run.go
// Brief: The packaging pipeline from environment check to verification.

package packagesvc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/normano/cargo-revolve/internal/archive"
	"github.com/normano/cargo-revolve/internal/assets"
	"github.com/normano/cargo-revolve/internal/config"
	"github.com/normano/cargo-revolve/internal/gitinfo"
	"github.com/normano/cargo-revolve/internal/logging"
	"github.com/normano/cargo-revolve/internal/process"
	"github.com/normano/cargo-revolve/internal/rpminfo"
	"github.com/normano/cargo-revolve/internal/specfile"
	"github.com/normano/cargo-revolve/internal/ui"
	"github.com/normano/cargo-revolve/internal/version"
)

const (
	builderTool  = "rpmbuild"
	compilerTool = "cargo"
)

// Runner spawns external processes.
type Runner interface {
	Run(ctx context.Context, c process.Command) (process.ExitStatus, error)
	RunSteps(ctx context.Context, steps []string, dir string, env []string) error
}

// Dependencies configures a packaging Service. Nil fields get defaults.
type Dependencies struct {
	Runner   Runner
	LookPath func(tool string) (string, error)
	Verifier func(log logr.Logger, path string, exp rpminfo.Expectation) error
	GitHead  func(ctx context.Context, dir string) (string, bool, error)
}

// Result summarizes one packaging run.
type Result struct {
	RunID       string
	SpecPath    string
	SpecContent string
	ArchivePath string
	Command     []string
	Artifacts   []Artifact
	Verified    string
	DryRun      bool
}

type service struct {
	runner   Runner
	lookPath func(string) (string, error)
	verifier func(logr.Logger, string, rpminfo.Expectation) error
	gitHead  func(context.Context, string) (string, bool, error)
}

// New returns a packaging Service.
func New(deps Dependencies) Service {
	s := &service{
		runner:   deps.Runner,
		lookPath: deps.LookPath,
		verifier: deps.Verifier,
		gitHead:  deps.GitHead,
	}
	if s.lookPath == nil {
		s.lookPath = process.LookPath
	}
	if s.verifier == nil {
		s.verifier = rpminfo.Verify
	}
	if s.gitHead == nil {
		s.gitHead = gitinfo.Head
	}
	return s
}

// Run executes the packaging workflow with the provided options.
func (s *service) Run(ctx context.Context, opts Options) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	project := opts.Project
	if project == nil {
		return nil, errors.New("project configuration is required")
	}
	result := &Result{RunID: uuid.NewString(), DryRun: opts.DryRun}
	log := opts.Logger.WithValues("run", result.RunID, "package", project.ArchiveRootDir())
	streams := opts.Streams
	out := streams.OutWriter()

	runner := s.runner
	if runner == nil {
		runner = &process.Runner{Stdout: out, Stderr: streams.ErrWriter(), Logger: log}
	}

	log.Info("checking for builder executable", "tool", builderTool)
	builderPath, err := s.lookPath(builderTool)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("builder resolved", "path", builderPath)

	if err := s.compile(ctx, log, runner, opts); err != nil {
		return nil, err
	}

	manifest, err := assets.Expand(project.Revolve.Assets, project.Root, project.TargetDir)
	if err != nil {
		return nil, err
	}
	log.Info("expanded assets", "files", len(manifest.Files), "directories", len(manifest.Directories))

	layout := NewLayout(project)
	specName := specfile.Filename(project.Package.Name, project.Package.Version)
	previousSpec := readIfExists(filepath.Join(layout.BuildDir, specName))

	if !opts.DryRun {
		log.V(1).Info("removing previous run state", "dir", layout.RevolveDir)
		if err := os.RemoveAll(layout.RevolveDir); err != nil {
			return nil, fmt.Errorf("clean %s: %w", layout.RevolveDir, err)
		}
	}
	if err := os.MkdirAll(layout.BuildDir, 0o755); err != nil {
		return nil, fmt.Errorf("create build directory at %s: %w", layout.BuildDir, err)
	}

	if !opts.NoArchive {
		log.Info("creating artifact archive", "path", layout.ArchivePath)
		stop := func(bool) {}
		if errw := streams.ErrWriter(); !opts.DryRun && streams.IsTerminal(errw) {
			stop = ui.StartSpinner(errw, "Creating source archive")
		}
		arc, err := archive.Create(ctx, archive.Options{
			Files:           manifest.Files,
			ProjectRoot:     project.Root,
			BuildOutputRoot: project.TargetDir,
			RootDir:         project.ArchiveRootDir(),
			OutputPath:      layout.ArchivePath,
			DryRun:          opts.DryRun,
		})
		stop(err == nil)
		if err != nil {
			return nil, err
		}
		result.ArchivePath = arc.Path
		if arc.Digest != "" {
			log.V(1).Info("archive written", "files", arc.FileCount, "bytes", arc.TotalBytes, "digest", arc.Digest.String())
		}
	}

	bctx := specfile.NewContext(project, manifest, s.extras(ctx, log, project.Root, project.Revolve.Changelog))
	log.Info("rendering spec template", "template", project.Revolve.SpecTemplate)
	rendered, err := specfile.Render(bctx, resolvePath(project.Root, project.Revolve.SpecTemplate), layout.BuildDir)
	if err != nil {
		return nil, err
	}
	result.SpecPath = rendered.Path
	result.SpecContent = rendered.Content

	if opts.DryRun {
		result.Command = append([]string{builderTool}, layout.rpmbuildArgs(filepath.Join(layout.SpecsDir, specName), result.ArchivePath != "", project.Root)...)
		if err := writeDryRunReport(out, result, previousSpec, opts.Diff); err != nil {
			return nil, err
		}
		return result, nil
	}

	specPath, err := s.stage(log, layout, rendered.Path, result.ArchivePath)
	if err != nil {
		return nil, err
	}
	args := layout.rpmbuildArgs(specPath, result.ArchivePath != "", project.Root)
	result.Command = append([]string{builderPath}, args...)
	log.Info("executing rpmbuild", "spec", specPath)
	status, err := runner.Run(ctx, process.Command{Name: builderPath, Args: args, Dir: project.Root})
	if err != nil {
		return nil, err
	}
	if err := process.Check(status, builderTool); err != nil {
		return nil, err
	}

	artifacts, err := collectArtifacts(log, layout.RPMSDir, project.OutputDir())
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	if len(artifacts) == 0 {
		logging.Warn(log, "no RPM files were found in the output directory", "dir", layout.RPMSDir)
		fmt.Fprintln(out, ui.Attention(fmt.Sprintf("rpmbuild succeeded but produced no RPM files under %s", layout.RPMSDir)))
	} else {
		fmt.Fprintf(out, "Successfully built %d RPM package(s).\n", len(artifacts))
		for _, a := range artifacts {
			fmt.Fprintf(out, "  %s  %s\n", a.Path, a.Digest)
		}
	}

	if opts.Verify {
		log.Info("verifying package contents")
		primary, err := selectPrimary(artifacts, project.ArchiveRootDir())
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "Verifying %s...\n", primary)
		if err := s.verifier(log, primary, expectation(project, manifest)); err != nil {
			return nil, err
		}
		result.Verified = primary
		fmt.Fprintln(out, "Verification successful. Package contents match configuration.")
	}
	return result, nil
}

func (s *service) extras(ctx context.Context, log logr.Logger, root, changelog string) specfile.Extras {
	ex := specfile.Extras{ToolVersion: version.Get().Version}
	if strings.TrimSpace(changelog) != "" {
		ex.Changelog = specfile.LoadChangelog(log, resolvePath(root, changelog))
	}
	commit, dirty, err := s.gitHead(ctx, root)
	if err != nil {
		log.V(1).Info("git metadata unavailable", "error", err.Error())
	}
	ex.GitCommit = gitinfo.Describe(commit, dirty)
	return ex
}

// stage copies the spec and archive into rpmbuild's SPECS and SOURCES.
func (s *service) stage(log logr.Logger, layout Layout, specPath, archivePath string) (string, error) {
	for _, dir := range []string{layout.SourcesDir, layout.SpecsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	staged := filepath.Join(layout.SpecsDir, filepath.Base(specPath))
	if err := copyFile(specPath, staged); err != nil {
		return "", fmt.Errorf("copy spec file from %s to %s: %w", specPath, staged, err)
	}
	if archivePath != "" {
		dest := filepath.Join(layout.SourcesDir, filepath.Base(archivePath))
		log.V(1).Info("copying source archive", "from", archivePath, "to", dest)
		if err := copyFile(archivePath, dest); err != nil {
			return "", fmt.Errorf("copy source archive to %s: %w", dest, err)
		}
	}
	return staged, nil
}

func expectation(p *config.Project, m assets.Manifest) rpminfo.Expectation {
	exp := rpminfo.Expectation{
		Name:    p.Package.Name,
		Version: p.Package.Version,
		License: p.Revolve.VerifyLicense,
		Summary: p.Revolve.VerifySummary,
		Files:   make([]rpminfo.ExpectedFile, 0, len(m.Files)),
	}
	for _, f := range m.Files {
		exp.Files = append(exp.Files, rpminfo.ExpectedFile{Dest: f.Dest, Mode: f.Mode})
	}
	return exp
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func readIfExists(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(raw)
}
