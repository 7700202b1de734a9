// Package misc keeps build time program identity.
package misc

import (
	"runtime/debug"
)

const appName = "spritec"

// set with -ldflags "-X spritec/misc.version=... -X spritec/misc.gitHash=..."
var (
	version = ""
	gitHash = ""
)

func GetAppName() string {
	return appName
}

// GetVersion returns program version, falling back to module version recorded
// in the binary when not set by the linker.
func GetVersion() string {
	if len(version) > 0 {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}

func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
