package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/docmerge/internal/version.Version=v1.2.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Banner returns the one-line version banner logged at startup.
func Banner() string {
	return fmt.Sprintf("docmerge %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
