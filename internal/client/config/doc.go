// Package config loads runtime configuration for the bizkeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string         address:port of the backend gRPC endpoint
//	-d string         path of the local SQLite database
//	-t string         access token (JWT) used when none is stored yet
//	-i int            online status check interval (seconds)
//	-sync duration    background reconciliation interval, e.g. 1m
//	-l string         log level: debug, info, warn, error
//	-log-format string  text or json
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "database_path": "bizkeeper.db",
//	  "access_token": "",
//	  "feature_flags": {"cloud_sync": true},
//	  "online_check_interval": "3s",
//	  "sync_interval": "1m",
//	  "sync_debounce": "2s",
//	  "request_timeout": "10s",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// Feature flags can additionally be overridden through BIZKEEPER_FEATURE_*
// environment variables, see package features.
package config
