package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/dmitrijs2005/ghostpaste/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBackendSuite exercises the behaviour every implementation shares.
func runBackendSuite(t *testing.T, newBackend func(t *testing.T) Backend) {
	ctx := context.Background()

	t.Run("put get head", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Put(ctx, "metadata/abc", []byte(`{"id":"abc"}`)))

		got, err := b.Get(ctx, "metadata/abc")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"id":"abc"}`), got)

		obj, err := b.Head(ctx, "metadata/abc")
		require.NoError(t, err)
		assert.Equal(t, "metadata/abc", obj.Key)
		assert.Equal(t, int64(12), obj.Size)
	})

	t.Run("overwrite", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Put(ctx, "k", []byte("one")))
		require.NoError(t, b.Put(ctx, "k", []byte("two")))
		got, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
	})

	t.Run("empty object", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Put(ctx, "empty", nil))
		got, err := b.Get(ctx, "empty")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("missing", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = b.Head(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, b.Delete(ctx, "nope"))
	})

	t.Run("delete", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Put(ctx, "a", []byte("x")))
		require.NoError(t, b.Delete(ctx, "a"))
		_, err := b.Get(ctx, "a")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid key", func(t *testing.T) {
		b := newBackend(t)
		assert.ErrorIs(t, b.Put(ctx, "../etc/passwd", []byte("x")), ErrInvalidKey)
		_, err := b.Get(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("list pages by prefix", func(t *testing.T) {
		b := newBackend(t)
		for i := 0; i < 5; i++ {
			require.NoError(t, b.Put(ctx, fmt.Sprintf("versions/x/%d", i), []byte{byte(i)}))
		}
		require.NoError(t, b.Put(ctx, "versions/y/0", []byte("y")))
		require.NoError(t, b.Put(ctx, "metadata/x", []byte("m")))

		var keys []string
		cursor := ""
		pages := 0
		for {
			page, err := b.List(ctx, "versions/x/", cursor, 2)
			require.NoError(t, err)
			pages++
			for _, o := range page.Objects {
				keys = append(keys, o.Key)
			}
			if page.Cursor == "" {
				break
			}
			cursor = page.Cursor
		}

		assert.Equal(t, []string{
			"versions/x/0", "versions/x/1", "versions/x/2", "versions/x/3", "versions/x/4",
		}, keys)
		assert.Equal(t, 3, pages)
	})

	t.Run("list empty prefix", func(t *testing.T) {
		b := newBackend(t)
		page, err := b.List(ctx, "metadata/", "", 10)
		require.NoError(t, err)
		assert.Empty(t, page.Objects)
		assert.Empty(t, page.Cursor)
	})

	t.Run("delete many", func(t *testing.T) {
		b := newBackend(t)
		bd, ok := b.(BatchDeleter)
		require.True(t, ok)

		for _, k := range []string{"a/1", "a/2", "a/3"} {
			require.NoError(t, b.Put(ctx, k, []byte(k)))
		}
		require.NoError(t, bd.DeleteMany(ctx, []string{"a/1", "a/3", "a/missing"}))

		page, err := b.List(ctx, "a/", "", 0)
		require.NoError(t, err)
		require.Len(t, page.Objects, 1)
		assert.Equal(t, "a/2", page.Objects[0].Key)
	})

	t.Run("canceled context", func(t *testing.T) {
		b := newBackend(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, b.Put(cctx, "k", []byte("v")))
	})
}

func TestMemoryBackend(t *testing.T) {
	runBackendSuite(t, func(t *testing.T) Backend { return NewMemory() })
}

func TestMemoryBackend_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	data := []byte("abc")
	require.NoError(t, b.Put(ctx, "k", data))
	data[0] = 'X'

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[1] = 'Y'
	again, _ := b.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
	assert.Equal(t, 1, b.Len())
}

func TestBoltBackend(t *testing.T) {
	runBackendSuite(t, func(t *testing.T) Backend {
		b, err := OpenBolt(filepath.Join(t.TempDir(), "data", "ghostpaste.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}

func TestBoltBackend_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ghostpaste.db")

	b, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "versions/x/1", []byte("blob")))
	require.NoError(t, b.Close())

	b, err = OpenBolt(path)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Get(ctx, "versions/x/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got)

	obj, err := b.Head(ctx, "versions/x/1")
	require.NoError(t, err)
	assert.False(t, obj.LastModified.IsZero())
}

func TestValidateKey(t *testing.T) {
	valid := []string{
		"metadata/abc",
		"versions/abc-_x/2024-05-01T12:00:00.000000000Z",
		"a",
	}
	for _, k := range valid {
		assert.NoError(t, ValidateKey(k), k)
	}

	invalid := []string{
		"",
		"/abs",
		"trailing/",
		"a//b",
		"a/../b",
		"./a",
		"sp ace",
		"nul\x00",
		string(make([]byte, maxKeyLength+1)),
	}
	for _, k := range invalid {
		assert.ErrorIs(t, ValidateKey(k), ErrInvalidKey, "%q", k)
	}
}

func httpErr(code int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: code}},
		Err:      errors.New("response"),
	}
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", fmt.Errorf("%w: k", ErrNotFound), true},
		{"invalid key", ErrInvalidKey, true},
		{"validation kind", common.E(common.KindValidation, "bad"), true},
		{"conflict kind", common.ErrVersionConflict, true},
		{"forbidden", common.Wrap(common.KindStorage, "s3: put", httpErr(403)), true},
		{"throttled", common.Wrap(common.KindStorage, "s3: put", httpErr(429)), false},
		{"timeout", httpErr(408), false},
		{"unavailable", common.Wrap(common.KindStorage, "s3: put", httpErr(503)), false},
		{"api error without status", &smithy.GenericAPIError{Code: "SlowDown"}, false},
		{"plain", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsClientError(tt.err))
		})
	}
}
