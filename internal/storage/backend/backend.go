// Package backend provides the raw object capability the versioned store is
// built on: keyed get/put/delete plus prefix listing with opaque cursors.
//
// Implementations:
//   - S3Backend: any S3-compatible service (AWS, MinIO, R2).
//   - BoltBackend: a single bbolt file, for single-node deployments.
//   - SQLBackend: an objects table in PostgreSQL or SQLite, migrated with goose.
//   - MemoryBackend: process memory, for tests and ephemeral runs.
//
// Missing objects are reported as ErrNotFound. Keys are validated before
// they reach any implementation.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
)

const (
	// DefaultListLimit is used when List is called with limit <= 0.
	DefaultListLimit = 1000

	maxKeyLength = 1024
)

var (
	ErrNotFound   = common.E(common.KindNotFound, "backend: object not found")
	ErrInvalidKey = common.E(common.KindValidation, "backend: invalid key")
)

// Object describes a stored object without its content.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListPage is one page of a prefix listing. Cursor is empty on the last page.
type ListPage struct {
	Objects []Object
	Cursor  string
}

// Backend is a flat key/object store.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Head(ctx context.Context, key string) (Object, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns objects whose keys start with prefix, in key order,
	// resuming after cursor.
	List(ctx context.Context, prefix, cursor string, limit int) (ListPage, error)
	Close() error
}

// BatchDeleter is implemented by backends that can remove many keys in one
// round trip.
type BatchDeleter interface {
	DeleteMany(ctx context.Context, keys []string) error
}

// ValidateKey rejects keys that are empty, too long, absolute, contain
// traversal segments or characters outside [A-Za-z0-9._/:-].
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyLength)
	}
	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("%w: leading or trailing slash", ErrInvalidKey)
	}
	if strings.Contains(key, "//") {
		return fmt.Errorf("%w: empty segment", ErrInvalidKey)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("%w: traversal segment", ErrInvalidKey)
		}
	}
	for i, r := range key {
		if !isValidKeyChar(r) {
			return fmt.Errorf("%w: character %q at %d", ErrInvalidKey, r, i)
		}
	}
	return nil
}

func isValidKeyChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '-' || r == '_' || r == '.' || r == '/' || r == ':'
}

// IsClientError reports whether err was caused by the request rather than
// by the backend, so retrying cannot help. This covers missing objects,
// invalid keys, any non-storage error kind and HTTP 4xx responses other
// than 408 and 429.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey) {
		return true
	}

	if common.KindOf(err).ClientCaused() {
		return true
	}

	var se interface{ HTTPStatusCode() int }
	if errors.As(err, &se) {
		code := se.HTTPStatusCode()
		return code >= 400 && code < 500 && code != 408 && code != 429
	}
	return false
}

func checkPage(prefix string, limit int) (int, error) {
	if prefix != "" && strings.HasPrefix(prefix, "/") {
		return 0, fmt.Errorf("%w: prefix %q", ErrInvalidKey, prefix)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return limit, nil
}
