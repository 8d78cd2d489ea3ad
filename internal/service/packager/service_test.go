package packager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/spin-pluginify/internal/config"
	"github.com/oshokin/spin-pluginify/internal/domain/plugin"
	"github.com/oshokin/spin-pluginify/internal/logger"
	"github.com/oshokin/spin-pluginify/internal/repository/manifest"
	"github.com/oshokin/spin-pluginify/internal/service/common"
)

// fakeRunner pretends to build by writing the artifact.
type fakeRunner struct {
	artifact string
	commands []common.Command
}

func (r *fakeRunner) Run(_ context.Context, cmd common.Command) error {
	r.commands = append(r.commands, cmd)
	return os.WriteFile(r.artifact, []byte("built"), 0o600)
}

// fakePluginManager records calls instead of invoking spin.
type fakePluginManager struct {
	calls        []string
	uninstallErr error
	installErr   error
}

func (m *fakePluginManager) Install(_ context.Context, manifestPath string) error {
	m.calls = append(m.calls, "install "+filepath.Base(manifestPath))
	return m.installErr
}

func (m *fakePluginManager) Uninstall(_ context.Context, name string) error {
	m.calls = append(m.calls, "uninstall "+name)
	return m.uninstallErr
}

func (m *fakePluginManager) Run(_ context.Context, name string, args ...string) error {
	m.calls = append(m.calls, fmt.Sprint("run ", name, " ", args))
	return nil
}

// writeSettings creates a settings file in dir and returns its path.
func writeSettings(t *testing.T, dir, build string) string {
	t.Helper()

	path := filepath.Join(dir, config.DefaultSettingsFilename)
	contents := `
name = "befunge2"
version = "1.2.3"
homepage = "https://example.com"
spin_compatibility = ">=2.0"
license = "Apache-2.0"

[target]
package = "befunge2.wasm"
` + build

	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

// TestRun_BuildPackageInstall runs the whole single-platform flow with fakes.
func TestRun_BuildPackageInstall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &fakeRunner{artifact: filepath.Join(dir, "befunge2.wasm")}
	pm := new(fakePluginManager)

	result, err := Run(context.Background(), &Options{
		SettingsPath:  writeSettings(t, dir, "[target.build]\ncommand = \"make\"\nargs = [\"wasm\"]\n"),
		OS:            "osx",
		Arch:          "x86_64",
		WorkDir:       dir,
		Install:       true,
		Reinstall:     true,
		Verify:        true,
		PluginManager: pm,
		Runner:        runner,
	})
	require.NoError(t, err)

	require.Equal(t, []common.Command{{Program: "make", Args: []string{"wasm"}}}, runner.commands)
	require.Equal(t, []string{"uninstall befunge2", "install befunge2.json", "run befunge2 [--help]"}, pm.calls)

	require.Equal(t, filepath.Join(dir, "befunge2.json"), result.ManifestPath)
	require.Len(t, result.Manifest.Packages, 1)
	require.Equal(t, plugin.OSMacos, result.Manifest.Packages[0].OS)
	require.Equal(t, plugin.ArchAmd64, result.Manifest.Packages[0].Arch)

	saved, err := manifest.NewFileRepository(result.ManifestPath).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.Manifest, saved)

	_, err = os.Stat(filepath.Join(dir, "befunge2-1.2.3-macos-amd64.tar.gz"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, common.MarkerFilename))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_InstallFailure propagates the installer status while tolerating a failed uninstall.
func TestRun_InstallFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "befunge2.wasm"), []byte("wasm"), 0o600))

	pm := &fakePluginManager{
		uninstallErr: errors.New("not installed"),
		installErr:   common.ErrExternalProcess,
	}

	_, err := Run(context.Background(), &Options{
		SettingsPath:  writeSettings(t, dir, ""),
		OS:            "linux",
		Arch:          "aarch64",
		WorkDir:       dir,
		Install:       true,
		Reinstall:     true,
		PluginManager: pm,
	})
	require.ErrorIs(t, err, common.ErrExternalProcess)
	require.Equal(t, []string{"uninstall befunge2", "install befunge2.json"}, pm.calls)
}

// TestRun_Failures covers failures that stop the run before or during packaging.
func TestRun_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	settingsPath := writeSettings(t, dir, "")

	_, err := Run(context.Background(), &Options{SettingsPath: settingsPath, OS: "bogus", WorkDir: dir})
	require.ErrorIs(t, err, plugin.ErrUnknownPlatform)

	_, err = Run(context.Background(), &Options{SettingsPath: settingsPath, OS: "linux", Arch: "amd64", WorkDir: dir})
	require.ErrorIs(t, err, ErrArtifactNotFound)

	_, err = Run(context.Background(), &Options{SettingsPath: filepath.Join(dir, "nope.toml"), WorkDir: dir})
	require.ErrorIs(t, err, config.ErrConfig)

	_, err = Run(context.Background(), &Options{
		SettingsPath: settingsPath, OS: "linux", Arch: "amd64", WorkDir: dir, Install: true,
	})
	require.ErrorIs(t, err, config.ErrConfig)

	_, err = os.Stat(filepath.Join(dir, "befunge2.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// memoryRepository keeps saved manifests in memory.
type memoryRepository struct {
	saved   []*plugin.Manifest
	saveErr error
}

func (r *memoryRepository) Load(_ context.Context) (*plugin.Manifest, error) {
	if len(r.saved) == 0 {
		return nil, manifest.ErrNotFound
	}

	return r.saved[len(r.saved)-1], nil
}

func (r *memoryRepository) Save(_ context.Context, m *plugin.Manifest) error {
	if r.saveErr != nil {
		return r.saveErr
	}

	r.saved = append(r.saved, m)

	return nil
}

// TestSaveManifestLogsJSON dumps the manifest at debug level before saving it.
func TestSaveManifestLogsJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := logger.ToContext(context.Background(), logger.NewWithWriter(&buf, zapcore.DebugLevel))
	repo := new(memoryRepository)
	m := &plugin.Manifest{
		Name:              "befunge2",
		Version:           "1.2.3",
		SpinCompatibility: ">=2.0",
		License:           "Apache-2.0",
		Packages: []plugin.Package{
			{OS: plugin.OSLinux, Arch: plugin.ArchAmd64, URL: "file:///tmp/befunge2.tar.gz", SHA256: "abc"},
		},
	}

	require.NoError(t, saveManifest(ctx, repo, m))
	require.Equal(t, []*plugin.Manifest{m}, repo.saved)

	out := buf.String()
	require.Contains(t, out, "Manifest JSON")
	require.Contains(t, out, "spinCompatibility")
	require.Contains(t, out, "file:///tmp/befunge2.tar.gz")
}

// TestSaveManifestQuietAtInfo keeps the JSON dump out of non-verbose output.
func TestSaveManifestQuietAtInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := logger.ToContext(context.Background(), logger.NewWithWriter(&buf, zapcore.InfoLevel))
	saveErr := errors.New("disk full")

	err := saveManifest(ctx, &memoryRepository{saveErr: saveErr}, &plugin.Manifest{Name: "befunge2"})
	require.ErrorIs(t, err, saveErr)
	require.Empty(t, buf.String())
}
