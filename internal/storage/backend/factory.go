package backend

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
)

const (
	KindMemory   = "memory"
	KindBolt     = "bolt"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
	KindS3       = "s3"
)

// Config selects and configures a backend implementation.
type Config struct {
	Kind        string
	S3          S3Config
	BoltPath    string
	SQLitePath  string
	DatabaseDSN string
}

// Open builds the backend named by cfg.Kind.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Kind {
	case KindMemory, "":
		return NewMemory(), nil
	case KindBolt:
		if cfg.BoltPath == "" {
			return nil, common.E(common.KindValidation, "backend: bolt path is required")
		}
		return OpenBolt(cfg.BoltPath)
	case KindPostgres:
		if cfg.DatabaseDSN == "" {
			return nil, common.E(common.KindValidation, "backend: database dsn is required")
		}
		return OpenPostgres(ctx, cfg.DatabaseDSN)
	case KindSQLite:
		if cfg.SQLitePath == "" {
			return nil, common.E(common.KindValidation, "backend: sqlite path is required")
		}
		return OpenSQLite(ctx, cfg.SQLitePath)
	case KindS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, common.Wrap(common.KindValidation, "backend", fmt.Errorf("unknown kind %q", cfg.Kind))
	}
}
