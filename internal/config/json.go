package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ghostpaste/internal/flagx"
	"github.com/dmitrijs2005/ghostpaste/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling, with timex.Duration in
// place of time.Duration.
type JsonConfig struct {
	Storage        string `json:"storage"`
	S3User         string `json:"s3_user"`
	S3Password     string `json:"s3_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3Endpoint     string `json:"s3_endpoint"`
	S3UsePathStyle bool   `json:"s3_use_path_style"`
	BoltPath       string `json:"bolt_path"`
	SQLitePath     string `json:"sqlite_path"`
	DatabaseDSN    string `json:"database_dsn"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	BaseURL        string         `json:"base_url"`
	MaxVersions    int            `json:"max_versions"`
	SweepInterval  timex.Duration `json:"sweep_interval"`
	SweepBatchSize int            `json:"sweep_batch_size"`

	MaxFileSize       int `json:"max_file_size"`
	MaxTotalSize      int `json:"max_total_size"`
	MaxFileCount      int `json:"max_file_count"`
	MaxFilenameLength int `json:"max_filename_length"`
	MaxLanguageLength int `json:"max_language_length"`

	RetryAttempts  int            `json:"retry_attempts"`
	RetryBaseDelay timex.Duration `json:"retry_base_delay"`
	RetryMaxDelay  timex.Duration `json:"retry_max_delay"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		Storage:           c.Storage,
		S3User:            c.S3User,
		S3Password:        c.S3Password,
		S3Bucket:          c.S3Bucket,
		S3Region:          c.S3Region,
		S3Endpoint:        c.S3Endpoint,
		S3UsePathStyle:    c.S3UsePathStyle,
		BoltPath:          c.BoltPath,
		SQLitePath:        c.SQLitePath,
		DatabaseDSN:       c.DatabaseDSN,
		LogLevel:          c.LogLevel,
		LogFormat:         c.LogFormat,
		BaseURL:           c.BaseURL,
		MaxVersions:       c.MaxVersions,
		SweepInterval:     timex.Duration{Duration: c.SweepInterval},
		SweepBatchSize:    c.SweepBatchSize,
		MaxFileSize:       c.MaxFileSize,
		MaxTotalSize:      c.MaxTotalSize,
		MaxFileCount:      c.MaxFileCount,
		MaxFilenameLength: c.MaxFilenameLength,
		MaxLanguageLength: c.MaxLanguageLength,
		RetryAttempts:     c.RetryAttempts,
		RetryBaseDelay:    timex.Duration{Duration: c.RetryBaseDelay},
		RetryMaxDelay:     timex.Duration{Duration: c.RetryMaxDelay},
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.Storage = j.Storage
	c.S3User = j.S3User
	c.S3Password = j.S3Password
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3Endpoint = j.S3Endpoint
	c.S3UsePathStyle = j.S3UsePathStyle
	c.BoltPath = j.BoltPath
	c.SQLitePath = j.SQLitePath
	c.DatabaseDSN = j.DatabaseDSN
	c.LogLevel = j.LogLevel
	c.LogFormat = j.LogFormat
	c.BaseURL = j.BaseURL
	c.MaxVersions = j.MaxVersions
	c.SweepInterval = j.SweepInterval.Duration
	c.SweepBatchSize = j.SweepBatchSize
	c.MaxFileSize = j.MaxFileSize
	c.MaxTotalSize = j.MaxTotalSize
	c.MaxFileCount = j.MaxFileCount
	c.MaxFilenameLength = j.MaxFilenameLength
	c.MaxLanguageLength = j.MaxLanguageLength
	c.RetryAttempts = j.RetryAttempts
	c.RetryBaseDelay = j.RetryBaseDelay.Duration
	c.RetryMaxDelay = j.RetryMaxDelay.Duration
}

// parseJson overlays the file named by -c or -config onto config. The file
// is decoded on top of the current values, so missing keys are left as
// they are. It panics if the file cannot be read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	c.apply(config)
}
