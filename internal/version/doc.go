// Package version exposes build metadata for spin-pluginify.
//
// Version, Commit and CommitDate are injected at build time via Go ldflags.
package version
