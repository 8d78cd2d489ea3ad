package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/spin-pluginify/internal/domain/plugin"
)

const tomlSettings = `
name = "befunge2"
version = "1.2.3"
description = "Runs befunge"
spin_compatibility = ">=2.0"
license = "Apache-2.0"

[target]
package = "./target/release/befunge2"

[target.build]
command = "cargo"
args = ["build", "--release"]
`

const yamlSettings = `
name: befunge2
version: 1.2.3
description: Runs befunge
spin_compatibility: ">=2.0"
license: Apache-2.0
target:
  package: ./target/release/befunge2
  build:
    command: cargo
    args: [build, --release]
`

// TestParseFormats checks that TOML and YAML settings decode identically.
func TestParseFormats(t *testing.T) {
	t.Parallel()

	fromTOML, err := Parse([]byte(tomlSettings), ".toml")
	require.NoError(t, err)

	fromYAML, err := Parse([]byte(yamlSettings), ".yml")
	require.NoError(t, err)

	require.Equal(t, fromTOML, fromYAML)
	require.Equal(t, "./target/release/befunge2", fromTOML.Target.Package)
	require.True(t, fromTOML.Target.Build.IsSet())
	require.Equal(t, []string{"build", "--release"}, fromTOML.Target.Build.Args)
	require.Empty(t, fromTOML.Homepage)
}

// TestParseLegacyPackage accepts the top-level package key.
func TestParseLegacyPackage(t *testing.T) {
	t.Parallel()

	settings, err := Parse([]byte(`
name = "x"
version = "0.1.0"
spin_compatibility = ">=1.0"
license = "MIT"
package = "bin/x"
`), ".toml")
	require.NoError(t, err)
	require.Equal(t, "bin/x", settings.Target.Package)
	require.False(t, settings.Target.Build.IsSet())
}

// TestValidate reports every missing required field.
func TestValidate(t *testing.T) {
	t.Parallel()

	err := Validate(&Settings{Name: "x", Version: "1"})
	require.ErrorIs(t, err, ErrConfig)
	require.Contains(t, err.Error(), "spin_compatibility")
	require.Contains(t, err.Error(), "license")
	require.Contains(t, err.Error(), "target.package")

	require.ErrorIs(t, Validate(nil), ErrConfig)

	_, err = Parse([]byte("name = "), ".toml")
	require.ErrorIs(t, err, ErrConfig)
}

// TestLoad reads settings from disk and fails for missing files.
func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultSettingsFilename)
	require.NoError(t, os.WriteFile(path, []byte(tomlSettings), DefaultFilePermissions))

	settings, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "befunge2.json", settings.ManifestFilename())

	_, err = Load(filepath.Join(dir, "missing.toml"))
	require.ErrorIs(t, err, ErrConfig)
}

// TestSettingsManifest copies metadata and keeps package order.
func TestSettingsManifest(t *testing.T) {
	t.Parallel()

	settings, err := Parse([]byte(tomlSettings), ".toml")
	require.NoError(t, err)

	packages := []plugin.Package{
		{OS: plugin.OSLinux, Arch: plugin.ArchAmd64, URL: "file:///a.tar.gz"},
		{OS: plugin.OSWindows, Arch: plugin.ArchAmd64, URL: "file:///b.tar.gz"},
	}

	manifest := settings.Manifest(packages...)
	require.Equal(t, "befunge2", manifest.Name)
	require.Equal(t, "Runs befunge", manifest.Description)
	require.Equal(t, ">=2.0", manifest.SpinCompatibility)
	require.Equal(t, "Apache-2.0", manifest.License)
	require.Equal(t, packages, manifest.Packages)
}
