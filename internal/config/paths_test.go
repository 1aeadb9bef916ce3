package config

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.ExecutableDir))
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "exports"), paths.ExportsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	paths := NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.ExportsDir, paths.LogsDir} {
		assert.True(t, FileExists(dir), dir)
	}
	// idempotent
	require.NoError(t, paths.EnsureDirectories())
}

func TestGetExportPath(t *testing.T) {
	base := t.TempDir()
	paths := NewPaths(base)

	assert.Equal(t, filepath.Join(base, "data", "exports", "men.csv"), paths.GetExportPath("men.csv"))

	abs := filepath.Join(base, "elsewhere", "men.xlsx")
	assert.Equal(t, abs, paths.GetExportPath(abs))
	assert.Equal(t, filepath.Join(base, "logs", "fedstat.log"), paths.GetLogPath("fedstat.log"))
}

func TestLogPathResolution(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	NewPaths("/opt/fedstat").LogPathResolution(logger)

	assert.Contains(t, buf.String(), "Path resolution summary")
	assert.Contains(t, buf.String(), "exports")
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	paths, err := ResolvePaths(base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "data", "exports"), paths.ExportsDir)

	paths, err = ResolvePaths("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(paths.ExecutableDir))
}
