// Package version holds build metadata injected via ldflags.
package version

// Version also tags every cache artifact; artifacts written by another
// version are treated as stale.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for --version output.
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
