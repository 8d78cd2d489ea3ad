package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/spin-pluginify/internal/domain/plugin"
)

const (
	// DefaultSettingsFilename is the settings file used when none is given.
	DefaultSettingsFilename = "spin-pluginify.toml"

	// DefaultFilePermissions is the permission for files produced by the tool.
	DefaultFilePermissions = 0o644
)

// ErrConfig is returned when settings cannot be read or miss required fields.
var ErrConfig = errors.New("invalid settings")

// Settings holds plugin identity and the build target.
type Settings struct {
	// Name is the plugin name; it also names the manifest and archive files.
	Name string `toml:"name" yaml:"name"`
	// Version is the plugin version.
	Version string `toml:"version" yaml:"version"`
	// Homepage is an optional address of the plugin producer.
	Homepage string `toml:"homepage" yaml:"homepage"`
	// Description is an optional human-readable summary.
	Description string `toml:"description" yaml:"description"`
	// SpinCompatibility is the host version constraint string.
	SpinCompatibility string `toml:"spin_compatibility" yaml:"spin_compatibility"`
	// License is the plugin license identifier.
	License string `toml:"license" yaml:"license"`
	// Target names the artifact and its optional build task.
	Target Target `toml:"target" yaml:"target"`
	// Package is the pre-[target] spelling of Target.Package.
	Package string `toml:"package" yaml:"package"`
}

// Target describes what gets packaged.
type Target struct {
	// Package is the path of the built artifact.
	Package string `toml:"package" yaml:"package"`
	// Build is an optional command run before packaging.
	Build Task `toml:"build" yaml:"build"`
}

// Task is an external command with its arguments.
type Task struct {
	Command string   `toml:"command" yaml:"command"`
	Args    []string `toml:"args"    yaml:"args"`
}

// IsSet reports whether the task has a command to run.
func (t Task) IsSet() bool {
	return strings.TrimSpace(t.Command) != ""
}

// Load reads settings from path, choosing the decoder by file extension.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultSettingsFilename
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("%w: expand %s: %v", ErrConfig, path, err)
	}

	contents, err := os.ReadFile(filepath.Clean(expanded))
	if err != nil {
		return nil, fmt.Errorf("%w: read settings: %w", ErrConfig, err)
	}

	settings, err := Parse(contents, filepath.Ext(expanded))
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// Parse decodes settings from contents. The extension selects YAML (".yaml", ".yml")
// or TOML (anything else).
func Parse(contents []byte, ext string) (*Settings, error) {
	var settings Settings

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(contents, &settings); err != nil {
			return nil, fmt.Errorf("%w: unmarshal yaml: %w", ErrConfig, err)
		}
	default:
		if _, err := toml.Decode(string(contents), &settings); err != nil {
			return nil, fmt.Errorf("%w: unmarshal toml: %w", ErrConfig, err)
		}
	}

	if settings.Target.Package == "" {
		settings.Target.Package = settings.Package
	}

	if err := Validate(&settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Validate checks that all required fields are present.
func Validate(settings *Settings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings are not set", ErrConfig)
	}

	required := []struct {
		key   string
		value string
	}{
		{"name", settings.Name},
		{"version", settings.Version},
		{"spin_compatibility", settings.SpinCompatibility},
		{"license", settings.License},
		{"target.package", settings.Target.Package},
	}

	var missing []string

	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfig, strings.Join(missing, ", "))
	}

	return nil
}

// ArtifactPath returns the target package path with "~" expanded.
func (s *Settings) ArtifactPath() string {
	expanded, err := homedir.Expand(s.Target.Package)
	if err != nil {
		return s.Target.Package
	}

	return expanded
}

// ManifestFilename returns the file the single-platform manifest is written to.
func (s *Settings) ManifestFilename() string {
	return s.Name + ".json"
}

// Manifest builds a manifest carrying the settings metadata and the given packages.
func (s *Settings) Manifest(packages ...plugin.Package) *plugin.Manifest {
	return &plugin.Manifest{
		Name:              s.Name,
		Description:       s.Description,
		Homepage:          s.Homepage,
		Version:           s.Version,
		SpinCompatibility: s.SpinCompatibility,
		License:           s.License,
		Packages:          packages,
	}
}
