// Package version holds build metadata injected via ldflags.
package version

import (
	"fmt"
	"runtime"
)

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

const shortCommitLen = 12

// String renders the build metadata in one line, e.g.
// "v0.3.1 (commit 1a2b3c4d5e6f, built 2026-01-02, go1.24.1)".
func String() string {
	commit := Commit
	if len(commit) > shortCommitLen {
		commit = commit[:shortCommitLen]
	}
	return fmt.Sprintf("%s (commit %s, built %s, %s)", Version, commit, Date, runtime.Version())
}
