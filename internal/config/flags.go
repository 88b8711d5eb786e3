package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/ghostpaste/internal/flagx"
)

// FlagNames lists the command-line flags owned by this package, including
// the JSON file selectors. Other parsers should strip them first.
func FlagNames() []string {
	return []string{
		"-c", "-config",
		"-storage", "-bolt", "-sqlite", "-dsn",
		"-s3-user", "-s3-password", "-s3-bucket", "-s3-region", "-s3-endpoint",
		"-log-level", "-log-format",
		"-base-url", "-max-versions",
		"-sweep-interval", "-sweep-batch",
		"-retry-attempts", "-retry-base-delay", "-retry-max-delay",
	}
}

// parseFlags populates Config fields from command-line flags.
//
//	-storage string          backend kind (memory, bolt, sqlite, postgres, s3)
//	-bolt string             bolt database file
//	-sqlite string           sqlite database file
//	-dsn string              PostgreSQL DSN
//	-s3-user string          S3 access key
//	-s3-password string      S3 secret key
//	-s3-bucket string        S3 bucket
//	-s3-region string        S3 region
//	-s3-endpoint string      S3 base endpoint (e.g. "http://127.0.0.1:9000")
//	-log-level string        debug, info, warn, error
//	-log-format string       text or json
//	-base-url string         share URL prefix
//	-max-versions int        versions kept per document
//	-sweep-interval duration expiry sweep interval
//	-sweep-batch int         documents per sweep page
//	-retry-attempts int      storage attempts per operation
//	-retry-base-delay dur    first retry delay
//	-retry-max-delay dur     retry delay cap
//
// Only the flags above are taken from os.Args (via flagx.FilterArgs), so
// subcommand flags do not collide. A malformed value panics.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], FlagNames()[2:])

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Storage, "storage", config.Storage, "storage backend")
	fs.StringVar(&config.BoltPath, "bolt", config.BoltPath, "bolt database file")
	fs.StringVar(&config.SQLitePath, "sqlite", config.SQLitePath, "sqlite database file")
	fs.StringVar(&config.DatabaseDSN, "dsn", config.DatabaseDSN, "database DSN")

	fs.StringVar(&config.S3User, "s3-user", config.S3User, "S3 access key")
	fs.StringVar(&config.S3Password, "s3-password", config.S3Password, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3Endpoint, "s3-endpoint", config.S3Endpoint, "S3 base endpoint")

	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format")

	fs.StringVar(&config.BaseURL, "base-url", config.BaseURL, "share URL prefix")
	fs.IntVar(&config.MaxVersions, "max-versions", config.MaxVersions, "versions kept per document")
	fs.DurationVar(&config.SweepInterval, "sweep-interval", config.SweepInterval, "expiry sweep interval")
	fs.IntVar(&config.SweepBatchSize, "sweep-batch", config.SweepBatchSize, "documents per sweep page")

	fs.IntVar(&config.RetryAttempts, "retry-attempts", config.RetryAttempts, "storage attempts per operation")
	fs.DurationVar(&config.RetryBaseDelay, "retry-base-delay", config.RetryBaseDelay, "first retry delay")
	fs.DurationVar(&config.RetryMaxDelay, "retry-max-delay", config.RetryMaxDelay, "retry delay cap")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
