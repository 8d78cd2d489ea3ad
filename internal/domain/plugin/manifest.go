package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Manifest describes a plugin and the platform packages it ships.
// The JSON layout must match the Spin plugin manifest schema.
type Manifest struct {
	// Name is the plugin name.
	Name string `json:"name"`
	// Description is an optional human-readable summary.
	Description string `json:"description,omitempty"`
	// Homepage is an optional address of the plugin producer.
	Homepage string `json:"homepage,omitempty"`
	// Version is the plugin version.
	Version string `json:"version"`
	// SpinCompatibility is the host version constraint, e.g. ">=2.0".
	SpinCompatibility string `json:"spinCompatibility"`
	// License is the plugin license identifier.
	License string `json:"license"`
	// Packages lists one archive per platform, in encounter order.
	Packages []Package `json:"packages"`
}

// Package points to one platform-specific archive of the plugin.
type Package struct {
	// OS is the compatible operating system.
	OS OS `json:"os"`
	// Arch is the compatible architecture.
	Arch Arch `json:"arch"`
	// URL is where the archive can be fetched from.
	URL string `json:"url"`
	// SHA256 is the lowercase hex digest of the compressed archive.
	SHA256 string `json:"sha256"`
}

// Metadata returns a copy of the manifest without packages.
func (m *Manifest) Metadata() Manifest {
	return Manifest{
		Name:              m.Name,
		Description:       m.Description,
		Homepage:          m.Homepage,
		Version:           m.Version,
		SpinCompatibility: m.SpinCompatibility,
		License:           m.License,
	}
}

// SameMetadata reports whether both manifests describe the same plugin release.
func (m *Manifest) SameMetadata(other *Manifest) bool {
	return m.Name == other.Name &&
		m.Description == other.Description &&
		m.Homepage == other.Homepage &&
		m.Version == other.Version &&
		m.SpinCompatibility == other.SpinCompatibility &&
		m.License == other.License
}

// Marshal renders the manifest as indented JSON terminated by a newline.
func Marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes a manifest from JSON.
func Unmarshal(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	return &m, nil
}
