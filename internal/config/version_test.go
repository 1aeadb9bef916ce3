package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()

	assert.Equal(t, AppVersion, info.Version)
	assert.Equal(t, DataFormatVersion, info.DataFormat)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS, info.OS)
}

func TestGetVersionStringUsesBuildVars(t *testing.T) {
	prevCommit, prevTime := GitCommit, BuildTime
	t.Cleanup(func() { GitCommit, BuildTime = prevCommit, prevTime })

	GitCommit = "abc1234"
	BuildTime = "2026-01-02T03:04:05Z"

	s := GetVersionString()
	assert.Contains(t, s, "fedstat v"+AppVersion)
	assert.Contains(t, s, "commit: abc1234")
	assert.Contains(t, s, "built: 2026-01-02T03:04:05Z")
}
