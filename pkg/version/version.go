// Package version carries the build metadata stamped into the binary at
// link time.
package version

import "fmt"

// Build metadata, overridden via -ldflags on release builds. The defaults
// identify a from-source build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build metadata for version banners.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
