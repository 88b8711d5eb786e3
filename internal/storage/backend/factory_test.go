package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	b, err = Open(ctx, Config{Kind: KindBolt, BoltPath: filepath.Join(t.TempDir(), "g.db")})
	require.NoError(t, err)
	assert.IsType(t, &BoltBackend{}, b)
	require.NoError(t, b.Close())

	b, err = Open(ctx, Config{Kind: KindSQLite, SQLitePath: filepath.Join(t.TempDir(), "g.sqlite")})
	require.NoError(t, err)
	assert.IsType(t, &SQLBackend{}, b)
	require.NoError(t, b.Close())
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	for _, cfg := range []Config{
		{Kind: "tape"},
		{Kind: KindBolt},
		{Kind: KindPostgres},
		{Kind: KindSQLite},
		{Kind: KindS3},
	} {
		_, err := Open(ctx, cfg)
		require.Error(t, err, cfg.Kind)
		assert.Equal(t, common.KindValidation, common.KindOf(err), cfg.Kind)
	}
}
