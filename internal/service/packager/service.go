package packager

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oshokin/spin-pluginify/internal/config"
	"github.com/oshokin/spin-pluginify/internal/domain/plugin"
	"github.com/oshokin/spin-pluginify/internal/logger"
	"github.com/oshokin/spin-pluginify/internal/repository/manifest"
	"github.com/oshokin/spin-pluginify/internal/service/common"
	"github.com/oshokin/spin-pluginify/internal/service/spin"
)

// verifyArgs are passed to the installed plugin when verification is requested.
//
//nolint:gochecknoglobals // Read-only argument list.
var verifyArgs = []string{"--help"}

// Options contains inputs for the single-platform packaging entry point.
type Options struct {
	// SettingsPath is the settings file (defaults to spin-pluginify.toml).
	SettingsPath string
	// OS overrides the detected host OS, e.g. when cross compiling.
	OS string
	// Arch overrides the detected host architecture.
	Arch string
	// WorkDir receives the archive and manifest and anchors a relative artifact path.
	// Empty means the working directory.
	WorkDir string
	// Install hands the manifest to PluginManager when packaging succeeds.
	Install bool
	// Reinstall uninstalls an installed copy before installing.
	Reinstall bool
	// Verify runs the installed plugin once with --help.
	Verify bool
	// PluginManager is used by Install, Reinstall and Verify.
	PluginManager spin.PluginManager
	// Runner executes the pre-build task; nil means common.ExecRunner.
	Runner common.Runner
}

// Result reports what a run produced.
type Result struct {
	// ManifestPath is the absolute path of the written manifest.
	ManifestPath string
	// Manifest is the written manifest.
	Manifest *plugin.Manifest
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "packager")

	settings, err := config.Load(opts.SettingsPath)
	if err != nil {
		return nil, err
	}

	osTag, arch, err := targetPlatform(opts.OS, opts.Arch)
	if err != nil {
		return nil, err
	}

	if opts.Install && opts.PluginManager == nil {
		return nil, fmt.Errorf("%w: install requested without a plugin manager", config.ErrConfig)
	}

	dir, err := workingDir(opts.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}

	ctx = logger.WithFields(ctx, map[string]any{"os": osTag.String(), "arch": arch.String()})

	release, err := common.AcquireMarker(ctx, dir)
	if err != nil {
		return nil, err
	}

	defer release()

	if err = runBuild(ctx, opts.Runner, settings.Target.Build); err != nil {
		return nil, err
	}

	artifact := settings.ArtifactPath()
	if !filepath.IsAbs(artifact) {
		artifact = filepath.Join(dir, artifact)
	}

	pkg, err := Package(ctx, &Request{
		ArtifactPath: artifact,
		OS:           osTag,
		Arch:         arch,
		Name:         settings.Name,
		Version:      settings.Version,
		OutputDir:    dir,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		ManifestPath: filepath.Join(dir, settings.ManifestFilename()),
		Manifest:     settings.Manifest(*pkg),
	}

	if err = saveManifest(ctx, manifest.NewFileRepository(result.ManifestPath), result.Manifest); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Manifest created", "path", result.ManifestPath)

	if opts.Install {
		if err = install(ctx, opts, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// targetPlatform normalizes the overrides or detects the host platform.
func targetPlatform(osOverride, archOverride string) (plugin.OS, plugin.Arch, error) {
	osName, archName := plugin.HostPlatformNames()
	if osOverride != "" {
		osName = osOverride
	}

	if archOverride != "" {
		archName = archOverride
	}

	osTag, err := plugin.ParseOS(osName)
	if err != nil {
		return plugin.OSUnknown, plugin.ArchUnknown, err
	}

	arch, err := plugin.ParseArch(archName)
	if err != nil {
		return plugin.OSUnknown, plugin.ArchUnknown, err
	}

	return osTag, arch, nil
}

// saveManifest persists m through repo, dumping the JSON at debug level first.
func saveManifest(ctx context.Context, repo manifest.Repository, m *plugin.Manifest) error {
	data, err := plugin.Marshal(m)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Manifest JSON", "manifest", string(data))

	return repo.Save(ctx, m)
}

// runBuild runs the pre-build task when one is configured.
func runBuild(ctx context.Context, runner common.Runner, task config.Task) error {
	if !task.IsSet() {
		return nil
	}

	if runner == nil {
		runner = common.ExecRunner{}
	}

	cmd := common.Command{Program: task.Command, Args: task.Args}

	logger.InfoKV(ctx, "Running build task", "command", cmd.String())

	if err := runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("build task: %w", err)
	}

	return nil
}

// install hands the manifest to the plugin manager.
// A failing installer fails the run.
func install(ctx context.Context, opts *Options, result *Result) error {
	pm := opts.PluginManager
	name := result.Manifest.Name

	if opts.Reinstall {
		if err := pm.Uninstall(ctx, name); err != nil {
			logger.WarnKV(ctx, "Uninstall before reinstall failed", "name", name, "error", err)
		}
	}

	if err := pm.Install(ctx, result.ManifestPath); err != nil {
		return fmt.Errorf("install plugin: %w", err)
	}

	if opts.Verify {
		if err := pm.Run(ctx, name, verifyArgs...); err != nil {
			return fmt.Errorf("verify plugin: %w", err)
		}
	}

	return nil
}
