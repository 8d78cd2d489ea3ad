package spin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/spin-pluginify/internal/service/common"
)

// recordingRunner remembers every command instead of running it.
type recordingRunner struct {
	commands []common.Command
	err      error
}

func (r *recordingRunner) Run(_ context.Context, cmd common.Command) error {
	r.commands = append(r.commands, cmd)
	return r.err
}

// TestCLIArguments verifies the command lines passed to spin.
func TestCLIArguments(t *testing.T) {
	t.Parallel()

	runner := new(recordingRunner)
	cli := NewCLI("/opt/spin/bin/spin", runner)
	ctx := context.Background()

	require.NoError(t, cli.Install(ctx, "/work/befunge2.json"))
	require.NoError(t, cli.Uninstall(ctx, "befunge2"))
	require.NoError(t, cli.Run(ctx, "befunge2", "--help"))

	require.Equal(t, []common.Command{
		{Program: "/opt/spin/bin/spin", Args: []string{"plugin", "install", "--file", "/work/befunge2.json", "--yes"}},
		{Program: "/opt/spin/bin/spin", Args: []string{"plugin", "uninstall", "befunge2"}},
		{Program: "/opt/spin/bin/spin", Args: []string{"befunge2", "--help"}},
	}, runner.commands)
}

// TestCLIDefaults falls back to the spin binary from PATH.
func TestCLIDefaults(t *testing.T) {
	t.Parallel()

	runner := new(recordingRunner)
	require.NoError(t, NewCLI("", runner).Run(context.Background(), "befunge2"))

	require.Equal(t, []common.Command{
		{Program: DefaultBinary, Args: []string{"befunge2"}},
	}, runner.commands)
}

// TestCLIErrors propagates runner failures and rejects empty names.
func TestCLIErrors(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{err: common.ErrExternalProcess}
	cli := NewCLI("spin", runner)

	err := cli.Install(context.Background(), "x.json")
	require.ErrorIs(t, err, common.ErrExternalProcess)

	require.True(t, errors.Is(cli.Uninstall(context.Background(), ""), errEmptyPluginName))
	require.ErrorIs(t, cli.Run(context.Background(), ""), errEmptyPluginName)
	require.Len(t, runner.commands, 1)
}
