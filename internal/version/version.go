// Package version carries the build identification stamped into the binary
// via -ldflags at release time.
package version

var (
	// Version is the release tag, or "dev" for an unstamped local build.
	Version = "dev"
	// GitSHA identifies the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)
