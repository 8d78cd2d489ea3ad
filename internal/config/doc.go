// Package config loads the packaging settings of a plugin.
//
// Settings are read from TOML (the default spin-pluginify.toml) or YAML and
// validated before any packaging work starts. The Target block names the
// artifact to bundle and an optional pre-build task.
package config
