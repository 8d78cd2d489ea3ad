// Package packager bundles a built artifact into a Spin plugin.
//
// It writes a single-entry gzip tar archive named after the plugin, version
// and platform, computes the archive's SHA-256, and records the result in a
// single-platform manifest that may later be merged with other platforms.
package packager
