package config

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X fedstatcli/internal/config.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// DataFormatVersion is bumped whenever the normalized table layout changes
const DataFormatVersion = "v1"

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      AppVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
	}
}

// GetVersionString returns a one-line version banner
func GetVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s v%s (commit: %s, built: %s, go: %s)",
		AppName, info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
}
