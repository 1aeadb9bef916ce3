// Package config loads runtime configuration for the fedstat tools.
//
// Values come from environment variables prefixed with FEDSTAT_ and an
// optional YAML file (FEDSTAT_CONFIG, config.yaml or configs/config.yaml).
// Explicitly set environment variables win over the file; the file wins over
// built-in defaults.
//
//	FEDSTAT_SOURCE_BASE_URL=https://www.fedstat.ru
//	FEDSTAT_SOURCE_REQUEST_TIMEOUT=2m
//	FEDSTAT_SOURCE_LINE_OBJECT_IDS=57831,58335
//	FEDSTAT_SERVER_PORT=8080
//	FEDSTAT_LOGGING_LEVEL=debug
//
// Paths resolves output and log directories relative to the executable.
package config
