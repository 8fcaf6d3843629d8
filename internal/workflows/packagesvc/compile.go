// File: internal/workflows/packagesvc/compile.go
// Brief: Default cargo build or the configured custom build steps.

package packagesvc

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/normano/cargo-revolve/internal/config"
	"github.com/normano/cargo-revolve/internal/process"
)

// Environment variables exposed to custom build steps.
const (
	EnvTargetDir  = "REVOLVE_TARGET_DIR"
	EnvPkgName    = "REVOLVE_PKG_NAME"
	EnvPkgVersion = "REVOLVE_PKG_VERSION"
	EnvProjectDir = "REVOLVE_PROJECT_DIR"
)

func (s *service) compile(ctx context.Context, log logr.Logger, runner Runner, opts Options) error {
	project := opts.Project
	if steps := project.Revolve.BuildCommand; len(steps) > 0 {
		log.Info("running custom build command", "steps", len(steps))
		return runner.RunSteps(ctx, steps, project.Root, buildEnv(project))
	}

	args := cargoBuildArgs(project)
	log.Info("compiling package with cargo build", "args", args)
	status, err := runner.Run(ctx, process.Command{Name: compilerTool, Args: args, Dir: project.Root})
	if err != nil {
		return err
	}
	return process.Check(status, "cargo build")
}

// cargoBuildArgs applies --release only when build_flags is absent; an
// explicit empty list means a plain debug build.
func cargoBuildArgs(p *config.Project) []string {
	args := []string{"build", "--target-dir", p.TargetDir}
	if p.Revolve.HasBuildFlags() {
		return append(args, p.Revolve.BuildFlags...)
	}
	return append(args, "--release")
}

func buildEnv(p *config.Project) []string {
	return []string{
		EnvTargetDir + "=" + p.TargetDir,
		EnvPkgName + "=" + p.Package.Name,
		EnvPkgVersion + "=" + p.Package.Version,
		EnvProjectDir + "=" + p.Root,
	}
}
