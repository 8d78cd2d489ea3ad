// Package merger folds single-platform plugin manifests into one release manifest.
//
// Each immediate subdirectory holding exactly one archive and one manifest is
// a merge set. Package URLs are rewritten onto the release URL base and the
// merged manifest is written to the caller's output, usually stdout.
package merger
