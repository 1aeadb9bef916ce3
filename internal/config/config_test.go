package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without env or file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://www.fedstat.ru", cfg.FedStat.BaseURL)
				assert.Equal(t, 2*time.Minute, cfg.FedStat.RequestTimeout)
				assert.Equal(t, []string{"30611", "33560", "3"}, cfg.FedStat.ColumnObjectIDs)
				assert.Equal(t, []string{"57831", "58335"}, cfg.FedStat.LineObjectIDs)
				assert.Equal(t, "excel", cfg.FedStat.Format)
				assert.Equal(t, 4, cfg.FedStat.HeaderRow)
				assert.False(t, cfg.FedStat.Render)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.True(t, cfg.Export.BOMPrefix)
			},
		},
		{
			name: "environment overrides defaults",
			env: map[string]string{
				"FEDSTAT_SOURCE_BASE_URL":       "http://localhost:9000/",
				"FEDSTAT_SOURCE_LINE_OBJECT_IDS": "57831,58335,57956",
				"FEDSTAT_SERVER_PORT":           "9090",
				"FEDSTAT_LOGGING_LEVEL":         "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://localhost:9000", cfg.FedStat.BaseURL, "trailing slash is trimmed")
				assert.Equal(t, []string{"57831", "58335", "57956"}, cfg.FedStat.LineObjectIDs)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "file fills values the environment left unset",
			file: `
fedstat:
  base_url: http://mirror.local
  render: true
server:
  port: 7070
export:
  sqlite: out/fedstat.db
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://mirror.local", cfg.FedStat.BaseURL)
				assert.True(t, cfg.FedStat.Render)
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "out/fedstat.db", cfg.Export.SQLite)
			},
		},
		{
			name: "environment wins over file",
			env:  map[string]string{"FEDSTAT_SERVER_PORT": "6060"},
			file: "server:\n  port: 7070\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"FEDSTAT_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "invalid base url",
			env:     map[string]string{"FEDSTAT_SOURCE_BASE_URL": "ftp://fedstat.ru"},
			wantErr: true,
		},
		{
			name:    "malformed duration",
			env:     map[string]string{"FEDSTAT_SOURCE_REQUEST_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: true,
		},
		{
			name: "unknown log output falls back to console",
			env:  map[string]string{"FEDSTAT_LOGGING_OUTPUT": "syslog"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "console", cfg.Logging.Output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var path string
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadUsesConfigEnv(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 5050\n")
	t.Setenv("FEDSTAT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.Server.Port)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	assert.Equal(t, DefaultColumnObjectIDs, cfg.FedStat.ColumnObjectIDs)
	assert.Equal(t, DefaultLineObjectIDs, cfg.FedStat.LineObjectIDs)

	cfg.FedStat.LineObjectIDs[0] = "changed"
	assert.Equal(t, "57831", DefaultLineObjectIDs[0], "defaults must not alias package state")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero timeout", func(c *Config) { c.FedStat.RequestTimeout = 0 }, true},
		{"negative rps", func(c *Config) { c.FedStat.RequestsPerSecond = -1 }, true},
		{"no line ids", func(c *Config) { c.FedStat.LineObjectIDs = nil }, true},
		{"negative header row", func(c *Config) { c.FedStat.HeaderRow = -1 }, true},
		{"sample ratio above one", func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, true},
		{"empty format defaults to excel", func(c *Config) { c.FedStat.Format = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "excel", cfg.FedStat.Format)
		})
	}
}
