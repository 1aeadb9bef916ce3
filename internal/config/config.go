package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. FEDSTAT_SERVER_PORT
const EnvPrefix = "FEDSTAT"

// Config represents the complete application configuration
type Config struct {
	FedStat   FedStatConfig   `yaml:"fedstat" envconfig:"SOURCE"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// FedStatConfig describes the upstream statistics service
type FedStatConfig struct {
	BaseURL        string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://www.fedstat.ru"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"2m"`
	UserAgent      string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"fedstatcli/1.0"`
	// RequestsPerSecond throttles calls to the upstream; 0 disables throttling
	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"RPS" default:"2"`
	Burst             int     `yaml:"burst" envconfig:"BURST" default:"2"`
	// Render fetches indicator pages through a headless browser instead of a
	// plain GET
	Render   bool `yaml:"render" envconfig:"RENDER" default:"false"`
	Headless bool `yaml:"headless" envconfig:"HEADLESS" default:"true"`

	ColumnObjectIDs []string `yaml:"column_object_ids" envconfig:"COLUMN_OBJECT_IDS" default:"30611,33560,3"`
	LineObjectIDs   []string `yaml:"line_object_ids" envconfig:"LINE_OBJECT_IDS" default:"57831,58335"`
	Format          string   `yaml:"format" envconfig:"FORMAT" default:"excel"`
	HeaderRow       int      `yaml:"header_row" envconfig:"HEADER_ROW" default:"4"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"5m"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"5"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/fedstat.log"`
}

// ExportConfig controls where processed tables are written
type ExportConfig struct {
	Dir       string `yaml:"dir" envconfig:"DIR"`
	BOMPrefix bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX" default:"true"`
	SQLite    string `yaml:"sqlite" envconfig:"SQLITE"`
}

// TelemetryConfig toggles tracing and metrics
type TelemetryConfig struct {
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
}

// Load loads configuration from environment variables and an optional YAML
// file. Environment values win over the file.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file; an empty path skips the file
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs lets file values fill in whatever the environment left at its
// default. Explicitly set environment variables always win.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if fileConfig.FedStat.BaseURL != "" && !envSet("SOURCE_BASE_URL") {
		envConfig.FedStat.BaseURL = fileConfig.FedStat.BaseURL
	}
	if fileConfig.FedStat.RequestTimeout != 0 && !envSet("SOURCE_REQUEST_TIMEOUT") {
		envConfig.FedStat.RequestTimeout = fileConfig.FedStat.RequestTimeout
	}
	if fileConfig.FedStat.UserAgent != "" && !envSet("SOURCE_USER_AGENT") {
		envConfig.FedStat.UserAgent = fileConfig.FedStat.UserAgent
	}
	if fileConfig.FedStat.Render && !envSet("SOURCE_RENDER") {
		envConfig.FedStat.Render = true
	}
	if len(fileConfig.FedStat.ColumnObjectIDs) > 0 && !envSet("SOURCE_COLUMN_OBJECT_IDS") {
		envConfig.FedStat.ColumnObjectIDs = fileConfig.FedStat.ColumnObjectIDs
	}
	if len(fileConfig.FedStat.LineObjectIDs) > 0 && !envSet("SOURCE_LINE_OBJECT_IDS") {
		envConfig.FedStat.LineObjectIDs = fileConfig.FedStat.LineObjectIDs
	}
	if fileConfig.Server.Port != 0 && !envSet("SERVER_PORT") {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if fileConfig.Logging.Level != "" && !envSet("LOGGING_LEVEL") {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Output != "" && !envSet("LOGGING_OUTPUT") {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Logging.FilePath != "" && !envSet("LOGGING_FILE_PATH") {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if fileConfig.Export.Dir != "" && !envSet("EXPORT_DIR") {
		envConfig.Export.Dir = fileConfig.Export.Dir
	}
	if fileConfig.Export.SQLite != "" && !envSet("EXPORT_SQLITE") {
		envConfig.Export.SQLite = fileConfig.Export.SQLite
	}
	if fileConfig.Telemetry.EnableTracing && !envSet("TELEMETRY_ENABLE_TRACING") {
		envConfig.Telemetry.EnableTracing = true
	}
	if fileConfig.Telemetry.TraceExporter != "" && !envSet("TELEMETRY_TRACE_EXPORTER") {
		envConfig.Telemetry.TraceExporter = fileConfig.Telemetry.TraceExporter
	}

	return envConfig
}

func envSet(name string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + name)
	return ok
}

// validate validates the configuration
func (c *Config) validate() error {
	if !strings.HasPrefix(c.FedStat.BaseURL, "http://") && !strings.HasPrefix(c.FedStat.BaseURL, "https://") {
		return fmt.Errorf("invalid fedstat base url: %q", c.FedStat.BaseURL)
	}
	c.FedStat.BaseURL = strings.TrimRight(c.FedStat.BaseURL, "/")

	if c.FedStat.RequestTimeout <= 0 {
		return fmt.Errorf("fedstat request timeout must be positive")
	}
	if c.FedStat.RequestsPerSecond < 0 {
		return fmt.Errorf("fedstat requests per second must not be negative")
	}
	if len(c.FedStat.LineObjectIDs) == 0 {
		return fmt.Errorf("at least one line object id must be specified")
	}
	if c.FedStat.HeaderRow < 0 {
		return fmt.Errorf("header row must not be negative: %d", c.FedStat.HeaderRow)
	}
	if c.FedStat.Format == "" {
		c.FedStat.Format = "excel"
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("sample ratio must be within [0, 1]: %v", c.Telemetry.SampleRatio)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		FedStat: FedStatConfig{
			BaseURL:           "https://www.fedstat.ru",
			RequestTimeout:    2 * time.Minute,
			UserAgent:         "fedstatcli/1.0",
			RequestsPerSecond: 2,
			Burst:             2,
			Headless:          true,
			ColumnObjectIDs:   append([]string(nil), DefaultColumnObjectIDs...),
			LineObjectIDs:     append([]string(nil), DefaultLineObjectIDs...),
			Format:            "excel",
			HeaderRow:         4,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     5,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/fedstat.log",
		},
		Export: ExportConfig{
			BOMPrefix: true,
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: true,
			TraceExporter: "none",
			SampleRatio:   1,
			Environment:   "development",
		},
	}
}
