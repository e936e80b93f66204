// Package version provides build information for the gochip8 virtual machine
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/retroenv/retrogolib/buildinfo"
)

var (
	// These will be set at build time via -ldflags
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns detailed build information. Values not set at link
// time are taken from the VCS settings embedded by the Go toolchain.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = setting.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = setting.Value
				}
			}
		}
	}

	return info
}

// GetVersion returns the version string shown in the banner
func GetVersion() string {
	info := GetBuildInfo()
	return buildinfo.Version(info.Version, info.GitCommit, info.BuildTime)
}

// GetDetailedVersion returns the version string including toolchain and platform
func GetDetailedVersion() string {
	info := GetBuildInfo()
	return fmt.Sprintf("gochip8 version %s with %s for %s/%s",
		GetVersion(), info.GoVersion, info.Platform, info.Arch)
}
