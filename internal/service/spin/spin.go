package spin

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/spin-pluginify/internal/logger"
	"github.com/oshokin/spin-pluginify/internal/service/common"
)

const (
	// BinPathEnv names the environment variable holding the spin binary path.
	BinPathEnv = "SPIN_BIN_PATH"

	// DefaultBinary is used when BinPathEnv is unset; it is resolved through PATH.
	DefaultBinary = "spin"
)

var errEmptyPluginName = errors.New("plugin name must be provided")

// PluginManager installs, removes and runs plugins.
type PluginManager interface {
	// Install installs the plugin described by a local manifest file.
	Install(ctx context.Context, manifestPath string) error
	// Uninstall removes an installed plugin by name.
	Uninstall(ctx context.Context, name string) error
	// Run invokes an installed plugin with args.
	Run(ctx context.Context, name string, args ...string) error
}

// CLI is a PluginManager backed by the spin executable.
type CLI struct {
	// bin is the spin executable.
	bin string
	// runner spawns the processes.
	runner common.Runner
}

// NewCLI returns a CLI using bin (DefaultBinary when empty) and runner
// (a common.ExecRunner when nil).
func NewCLI(bin string, runner common.Runner) *CLI {
	if bin == "" {
		bin = DefaultBinary
	}

	if runner == nil {
		runner = common.ExecRunner{}
	}

	return &CLI{
		bin:    bin,
		runner: runner,
	}
}

// Install runs `spin plugin install --file <manifest> --yes`.
func (c *CLI) Install(ctx context.Context, manifestPath string) error {
	logger.InfoKV(ctx, "Installing plugin", "manifest", manifestPath, "spin", c.bin)

	return c.exec(ctx, "plugin", "install", "--file", manifestPath, "--yes")
}

// Uninstall runs `spin plugin uninstall <name>`.
func (c *CLI) Uninstall(ctx context.Context, name string) error {
	if name == "" {
		return errEmptyPluginName
	}

	logger.InfoKV(ctx, "Uninstalling plugin", "name", name, "spin", c.bin)

	return c.exec(ctx, "plugin", "uninstall", name)
}

// Run runs `spin <name> <args...>`.
func (c *CLI) Run(ctx context.Context, name string, args ...string) error {
	if name == "" {
		return errEmptyPluginName
	}

	logger.DebugKV(ctx, "Running plugin", "name", name, "args", args)

	return c.exec(ctx, append([]string{name}, args...)...)
}

func (c *CLI) exec(ctx context.Context, args ...string) error {
	if err := c.runner.Run(ctx, common.Command{Program: c.bin, Args: args}); err != nil {
		return fmt.Errorf("spin %s: %w", args[0], err)
	}

	return nil
}
