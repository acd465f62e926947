// Package version reports the build's version and commit, for the CLI
// version commands and the WebSocket hello.
package version

import "runtime/debug"

// Version and Commit are stamped by release builds:
//
//	go build -ldflags="-X github.com/lanlocate/lanlocate/internal/version.Version=v1.2.3 \
//	                   -X github.com/lanlocate/lanlocate/internal/version.Commit=abc123"
//
// Unstamped builds fall back to the VCS revision the Go toolchain embeds.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Commit == "" {
		Commit = shortRevision()
	}
	if Commit == "" {
		Commit = "unknown"
	}
	if Version == "" {
		Version = "dev"
	}
}

func shortRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			rev := setting.Value
			if len(rev) > 7 {
				rev = rev[:7]
			}
			return rev
		}
	}
	return ""
}

// Full returns the version together with the commit it was built from.
func Full() string {
	return Version + " (commit: " + Commit + ")"
}
