// Package version holds build metadata set through -ldflags, for example:
// go build -ldflags "-X git.home.luguber.info/inful/contentbuild/internal/version.Version=v1.0.0".
package version

import "fmt"

// Version is the application version.
var Version = "unknown"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version line printed by --version.
func String() string {
	return fmt.Sprintf("contentbuild %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
