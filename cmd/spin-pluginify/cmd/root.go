package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/spin-pluginify/internal/config"
	"github.com/oshokin/spin-pluginify/internal/logger"
	"github.com/oshokin/spin-pluginify/internal/service/merger"
	"github.com/oshokin/spin-pluginify/internal/service/packager"
	"github.com/oshokin/spin-pluginify/internal/service/spin"
	"github.com/oshokin/spin-pluginify/internal/version"
)

// spinBinKey is the viper key holding the spin binary path.
const spinBinKey = "spin_bin_path"

var errInvalidFlag = errors.New("invalid flag value")

// flags holds the parsed command line.
type flags struct {
	file           string
	osOverride     string
	archOverride   string
	merge          bool
	releaseURLBase string
	verbose        bool
	logLevel       string
	install        bool
	reinstall      bool
	verify         bool
}

// newRootCommand builds the spin-pluginify command.
func newRootCommand() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "spin-pluginify",
		Short: "Package a build artifact as a Spin plugin",
		Long: "Package a build artifact into a tar.gz and write a Spin plugin manifest for it.\n" +
			"With --merge, fold the per-platform manifests found in subdirectories into one\n" +
			"release manifest printed to stdout.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if err := applyLogLevel(&f); err != nil {
				return err
			}

			if f.merge {
				return merger.Run(ctx, &merger.Options{
					ReleaseURLBase: f.releaseURLBase,
					Output:         cmd.OutOrStdout(),
				})
			}

			return runLocal(ctx, &f)
		},
	}

	flagSet := root.Flags()
	flagSet.StringVarP(&f.file, "file", "f", config.DefaultSettingsFilename, "the settings file")
	flagSet.StringVar(&f.osOverride, "os", "", "overrides the inferred OS, useful for cross compiling")
	flagSet.StringVar(&f.archOverride, "arch", "", "overrides the inferred architecture, useful for cross compiling")
	flagSet.BoolVar(&f.merge, "merge", false, "merge the per-platform manifests found in subdirectories")
	flagSet.StringVar(&f.releaseURLBase, "release-url-base", "", "URL the merged archives will be published under")
	flagSet.BoolVar(&f.verbose, "verbose", false, "additional logging for diagnostics (same as --log-level debug)")
	flagSet.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flagSet.BoolVarP(&f.install, "install", "i", false, "install the plugin when done")
	flagSet.BoolVar(&f.reinstall, "reinstall", false, "uninstall an installed copy first (implies --install)")
	flagSet.BoolVar(&f.verify, "verify", false, "run the installed plugin with --help (implies --install)")

	root.MarkFlagsMutuallyExclusive("merge", "file")
	root.MarkFlagsRequiredTogether("merge", "release-url-base")

	version.AttachCobraVersionCommand(root)

	return root
}

// applyLogLevel sets the global log level from --log-level and --verbose.
func applyLogLevel(f *flags) error {
	level, ok := logger.ParseLogLevel(f.logLevel)
	if !ok {
		return fmt.Errorf("%w: unknown log level %q", errInvalidFlag, f.logLevel)
	}

	if f.verbose {
		level = zapcore.DebugLevel
	}

	logger.SetLevel(level)

	return nil
}

// runLocal packages for a single platform.
func runLocal(ctx context.Context, f *flags) error {
	install := f.install || f.reinstall || f.verify

	opts := &packager.Options{
		SettingsPath: f.file,
		OS:           f.osOverride,
		Arch:         f.archOverride,
		Install:      install,
		Reinstall:    f.reinstall,
		Verify:       f.verify,
	}

	if install {
		bin, err := spinBinary()
		if err != nil {
			return err
		}

		opts.PluginManager = spin.NewCLI(bin, nil)
	}

	result, err := packager.Run(ctx, opts)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Packaged plugin", "manifest", result.ManifestPath, "packages", len(result.Manifest.Packages))

	return nil
}

// spinBinary resolves the spin executable from the environment.
func spinBinary() (string, error) {
	env := viper.New()
	env.SetDefault(spinBinKey, spin.DefaultBinary)

	if err := env.BindEnv(spinBinKey, spin.BinPathEnv); err != nil {
		return "", fmt.Errorf("bind %s: %w", spin.BinPathEnv, err)
	}

	return env.GetString(spinBinKey), nil
}

// Execute runs the spin-pluginify CLI and exits with non-zero status on error.
func Execute() {
	root := newRootCommand()

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.ErrorKV(context.Background(), "spin-pluginify failed", "error", err)
		os.Exit(1)
	}
}
