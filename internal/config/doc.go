// Package config loads runtime configuration for the ghostpaste server and
// CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Keys absent from the JSON file keep their previous value.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "5m" or
// integer nanoseconds:
//
//	{
//	  "storage": "s3",
//	  "s3_bucket": "ghostpaste",
//	  "s3_endpoint": "http://127.0.0.1:9000",
//	  "s3_use_path_style": true,
//	  "base_url": "https://paste.example.com",
//	  "max_versions": 50,
//	  "sweep_interval": "10m",
//	  "retry_base_delay": "100ms"
//	}
package config
