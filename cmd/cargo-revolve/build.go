package main

import (
	"github.com/spf13/cobra"

	"github.com/normano/cargo-revolve/internal/config"
	"github.com/normano/cargo-revolve/internal/workflows/packagesvc"
)

type buildOptions struct {
	manifestPath string
	dryRun       bool
	noArchive    bool
	verify       bool
	diff         bool
}

func newBuildCommand(g *globalOptions) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the project, render the .spec file and run rpmbuild",
		Args:  cobra.NoArgs,
		Example: `  cargo revolve build
  cargo revolve build --verify
  cargo revolve build --dry-run --diff
  cargo revolve build --manifest-path ./service/Cargo.toml --no-archive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, g, opts, packagesvc.New(packagesvc.Dependencies{}))
		},
	}
	cmd.Flags().StringVar(&opts.manifestPath, "manifest-path", "", "Path to Cargo.toml (defaults to the nearest one above the working directory)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Render the .spec file and print the rpmbuild command without running it")
	cmd.Flags().BoolVar(&opts.noArchive, "no-archive", false, "Skip the source archive and let rpmbuild read assets from the project root")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Check the built RPM against the configured assets")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "With --dry-run, show changes against the previously rendered .spec file")
	return cmd
}

func runBuild(cmd *cobra.Command, g *globalOptions, opts *buildOptions, svc packagesvc.Service) error {
	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	manifest, err := config.FindManifest(opts.manifestPath)
	if err != nil {
		return err
	}
	logger.V(1).Info("loading manifest", "path", manifest)
	project, err := config.Load(manifest)
	if err != nil {
		return err
	}
	_, err = svc.Run(cmd.Context(), packagesvc.Options{
		Project:   project,
		DryRun:    opts.dryRun,
		NoArchive: opts.noArchive,
		Verify:    opts.verify,
		Diff:      opts.diff,
		Streams:   packagesvc.Streams{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()},
		Logger:    logger,
	})
	return err
}
