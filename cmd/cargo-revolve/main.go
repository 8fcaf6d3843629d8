// main.go bootstraps cargo-revolve: it builds the root Cobra command and executes it with a signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/normano/cargo-revolve/internal/errdefs"
	"github.com/normano/cargo-revolve/internal/logging"
	"github.com/normano/cargo-revolve/internal/ui"
	"github.com/normano/cargo-revolve/internal/workflows/packagesvc"
)

// cargoSubcommand is the extra argv word Cargo inserts for `cargo revolve`.
const cargoSubcommand = "revolve"

func main() {
	os.Args = normalizeCargoArgs(os.Args)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(os.Stderr, err)
	if err != nil {
		os.Exit(1)
	}
}

type globalOptions struct {
	logLevel string
	verbose  int
	color    string
}

func (g *globalOptions) logger(w io.Writer) (logr.Logger, error) {
	return logging.NewWithWriter(logging.LevelFromVerbosity(g.verbose, g.logLevel), w)
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{logLevel: "warn", color: "auto"}
	cmd := &cobra.Command{
		Use:           "cargo-revolve",
		Short:         "Build RPM packages from Cargo projects",
		Long:          "cargo-revolve compiles a Cargo project, renders a templated .spec file and drives rpmbuild to produce verified RPM packages.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.SetColorMode(g.color, packagesvc.Streams{}.IsTerminal(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", g.logLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().CountVarP(&g.verbose, "verbose", "v", "Increase verbosity (-v info, -vv debug)")
	cmd.PersistentFlags().StringVar(&g.color, "color", g.color, "Colorize output (auto, always, never)")

	buildCmd := newBuildCommand(g)
	infoCmd := newInfoCommand(g)
	versionCmd := newVersionCommand()
	cmd.AddCommand(buildCmd, infoCmd, versionCmd)
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.Example = `  # Build the RPM for the project in the current directory
  cargo revolve build

  # Show the rendered .spec and rpmbuild command without building
  cargo revolve build --dry-run --diff

  # Build and check the package against the configured assets
  cargo revolve build --verify

  # Inspect a built package
  cargo revolve info target/revolve/rpmbuild/RPMS/x86_64/app-0.1.0-1.x86_64.rpm`
	bindViper(cmd, buildCmd, infoCmd)
	return cmd
}

// normalizeCargoArgs drops the "revolve" word Cargo passes when the binary is
// run as `cargo revolve ...`.
func normalizeCargoArgs(args []string) []string {
	if len(args) > 1 && args[1] == cargoSubcommand {
		out := make([]string, 0, len(args)-1)
		out = append(out, args[0])
		return append(out, args[2:]...)
	}
	return args
}

func bindViper(commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("REVOLVE")
	v.AutomaticEnv()

	cobra.OnInitialize(func() {
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
			if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		for _, cmd := range commands {
			flagSets := []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()}
			for _, fs := range flagSets {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Changed {
						return
					}
					if !v.IsSet(f.Name) {
						return
					}
					val := fmt.Sprintf("%v", v.Get(f.Name))
					if val != "" {
						_ = f.Value.Set(val)
					}
				})
			}
		}
	})
}

func handleError(w io.Writer, err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	var (
		notFound *errdefs.ToolNotFoundError
		missing  *errdefs.MissingAssetError
		cfgErr   *errdefs.ConfigError
		verr     *errdefs.VerificationError
	)
	switch {
	case errors.Is(err, context.Canceled):
		message = "interrupted"
	case errors.As(err, &notFound) && notFound.Tool == "rpmbuild":
		message = fmt.Sprintf("%s\nHint: install rpm-build (for example 'dnf install rpm-build'); --dry-run needs it too.", err)
	case errors.As(err, &notFound):
		message = fmt.Sprintf("%s\nHint: install %s or configure build_command in [package.metadata.revolve].", err, notFound.Tool)
	case errors.As(err, &missing):
		message = fmt.Sprintf("%s\nHint: run 'cargo build --release' first or fix the asset source path.", err)
	case errors.As(err, &cfgErr) && cfgErr.Kind == errdefs.MissingConfig:
		message = fmt.Sprintf("%s\nHint: add a [package.metadata.revolve] table with spec_template to Cargo.toml.", err)
	case errors.As(err, &verr):
		message = fmt.Sprintf("%s\nHint: rerun with -v to see each mismatch.", err)
	}
	fmt.Fprintf(w, "Error: %s\n", message)
}
