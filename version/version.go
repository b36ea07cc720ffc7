// Package version holds build metadata stamped in at link time via
// -ldflags "-X github.com/jackzampolin/wandr/version.GitRelease=...".
package version

import (
	"fmt"
	"runtime"
)

var (
	// GitRelease is the release tag the binary was built from.
	GitRelease = "dev"
	// GitCommit is the short commit hash.
	GitCommit = "unknown"
	// GitCommitDate is the commit date of GitCommit.
	GitCommitDate = "unknown"
	// GoInfo describes the Go toolchain and target platform.
	GoInfo = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)
