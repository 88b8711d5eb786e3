package backend

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketObjects = []byte("objects")
	bucketModTime = []byte("objects_mtime")
)

// BoltBackend stores objects in a single bbolt database file.
type BoltBackend struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ Backend = (*BoltBackend)(nil)
var _ BatchDeleter = (*BoltBackend)(nil)

// OpenBolt opens or creates the database at path. The parent directory is
// created if needed.
func OpenBolt(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("bolt: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketObjects, bucketModTime} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: %w", err)
	}

	return &BoltBackend{db: db, now: time.Now}, nil
}

func (b *BoltBackend) Close() error { return b.db.Close() }

func encodeModTime(t time.Time) []byte {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(t.UnixNano()))
	return v
}

func decodeModTime(v []byte) time.Time {
	if len(v) != 8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(v))).UTC()
}

func (b *BoltBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		if data == nil {
			data = []byte{}
		}
		if err := tx.Bucket(bucketObjects).Put([]byte(key), data); err != nil {
			return fmt.Errorf("bolt: put %s: %w", key, err)
		}
		if err := tx.Bucket(bucketModTime).Put([]byte(key), encodeModTime(b.now())); err != nil {
			return fmt.Errorf("bolt: put mtime %s: %w", key, err)
		}
		return nil
	})
}

func (b *BoltBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketObjects).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		// v is only valid for the life of the transaction.
		out = bytes.Clone(v)
		if out == nil {
			out = []byte{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BoltBackend) Head(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if err := ValidateKey(key); err != nil {
		return Object{}, err
	}

	var obj Object
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketObjects).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		obj = Object{
			Key:          key,
			Size:         int64(len(v)),
			LastModified: decodeModTime(tx.Bucket(bucketModTime).Get([]byte(key))),
		}
		return nil
	})
	return obj, err
}

func (b *BoltBackend) Delete(ctx context.Context, key string) error {
	return b.DeleteMany(ctx, []string{key})
}

func (b *BoltBackend) DeleteMany(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		objs := tx.Bucket(bucketObjects)
		mtimes := tx.Bucket(bucketModTime)
		for _, k := range keys {
			if err := objs.Delete([]byte(k)); err != nil {
				return fmt.Errorf("bolt: delete %s: %w", k, err)
			}
			if err := mtimes.Delete([]byte(k)); err != nil {
				return fmt.Errorf("bolt: delete mtime %s: %w", k, err)
			}
		}
		return nil
	})
}

func (b *BoltBackend) List(ctx context.Context, prefix, cursor string, limit int) (ListPage, error) {
	if err := ctx.Err(); err != nil {
		return ListPage{}, err
	}
	limit, err := checkPage(prefix, limit)
	if err != nil {
		return ListPage{}, err
	}

	var page ListPage
	err = b.db.View(func(tx *bbolt.Tx) error {
		mtimes := tx.Bucket(bucketModTime)
		c := tx.Bucket(bucketObjects).Cursor()
		p := []byte(prefix)

		start := p
		if cursor > prefix {
			start = []byte(cursor)
		}

		k, v := c.Seek(start)
		if k != nil && string(k) == cursor {
			k, v = c.Next()
		}
		for ; k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			if len(page.Objects) == limit {
				page.Cursor = page.Objects[limit-1].Key
				break
			}
			page.Objects = append(page.Objects, Object{
				Key:          string(k),
				Size:         int64(len(v)),
				LastModified: decodeModTime(mtimes.Get(k)),
			})
		}
		return nil
	})
	if err != nil {
		return ListPage{}, fmt.Errorf("bolt: list %s: %w", prefix, err)
	}
	return page, nil
}
