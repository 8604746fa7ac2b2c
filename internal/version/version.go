package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set through -ldflags "-X github.com/MrSnakeDoc/pulse/internal/version.Version=..."
var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// Info is the build metadata reported by the CLI and the infra endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// Get returns the build metadata. A binary built without ldflags falls back
// to the VCS revision recorded by the toolchain.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildDate: BuildDate, GoVersion: GoVersion}
	if info.Commit != "none" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = shortRevision(s.Value)
			case "vcs.time":
				if info.BuildDate == "unknown" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("pulse %s (commit=%s, built=%s, go=%s)", i.Version, i.Commit, i.BuildDate, i.GoVersion)
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
