package version

import "fmt"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// CommitDate is the date of Commit embedded at build time.
	CommitDate = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version followed by the commit it was built from.
func Full() string {
	return fmt.Sprintf("%s (%s %s)", Version, Commit, CommitDate)
}
