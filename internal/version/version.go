package version

import "fmt"

// Version contains the application version information.
// Set via build-time ldflags:
// go build -ldflags "-X github.com/ant-design/antd-tools/internal/version.Version=v1.4.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `antd-tools version`.
func String() string {
	return fmt.Sprintf("antd-tools %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
