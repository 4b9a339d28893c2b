// Package version provides application version and build info.
//
//nolint:revive
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	// Version is the current version of the application.
	// It can be overridden by ldflags at build time.
	Version = "dev"
	// CommitHash is the git commit hash at build time.
	// It can be overridden by ldflags at build time.
	CommitHash = ""
	// BuildTime is the time when the application was built.
	// It can be overridden by ldflags at build time.
	BuildTime = ""

	vcsOnce sync.Once
)

// fillFromBuildInfo falls back to the VCS stamp of the Go toolchain when ldflags left the
// commit empty.
func fillFromBuildInfo() {
	vcsOnce.Do(func() {
		if CommitHash != "" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				CommitHash = setting.Value
			case "vcs.time":
				if BuildTime == "" {
					BuildTime = setting.Value
				}
			}
		}
	})
}

// ShortCommit returns the first 7 characters of the commit hash, or "" when unknown.
func ShortCommit() string {
	fillFromBuildInfo()
	if len(CommitHash) > 7 {
		return CommitHash[:7]
	}
	return CommitHash
}

// GetInfo returns a formatted version string including the version and commit hash.
func GetInfo() string {
	res := Version
	if short := ShortCommit(); short != "" {
		res += fmt.Sprintf(" (%s)", short)
	}
	return res
}

// UserAgent identifies the bot in outgoing HTTP requests, e.g. "Searcharr/1.2.0".
func UserAgent() string {
	return "Searcharr/" + Version
}
