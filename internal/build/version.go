// Package build provides version and build information for codebuilder.
// It has no dependencies on other internal packages so both binaries can
// import it.
package build

import "fmt"

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("codebuilder %s (commit %s, built %s)", Version, Commit, BuildDate)
}
