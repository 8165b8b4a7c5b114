package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// BuildInfo holds version information populated via -ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Info returns version information populated via -ldflags.
func Info() BuildInfo { return BuildInfo{Version: version, Commit: commit, Date: date} }

func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
