// Package storage implements the versioned object store: one mutable
// metadata record per document plus an append-only series of immutable
// version blobs, laid out over a flat backend as
//
//	metadata/{id}               JSON GistMetadata
//	versions/{id}/{timestamp}   packed encrypted container
//
// Timestamps use a fixed-width UTC layout, so key order is chronological.
// The store does not order metadata and blob writes; callers do.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
	"github.com/dmitrijs2005/ghostpaste/internal/models"
	"github.com/dmitrijs2005/ghostpaste/internal/storage/backend"
)

const (
	MetadataPrefix = "metadata/"
	VersionsPrefix = "versions/"

	// TimestampLayout names version blobs. Fixed width keeps lexical and
	// chronological order identical.
	TimestampLayout = "2006-01-02T15:04:05.000000000Z"

	maxIDLength = 128
)

var (
	ErrInvalidID      = common.E(common.KindValidation, "storage: invalid id")
	ErrInvalidVersion = common.E(common.KindValidation, "storage: invalid version timestamp")
	ErrInvalidKeep    = common.E(common.KindValidation, "storage: keep count must be at least 1")
	ErrCorruptMeta    = common.E(common.KindFormat, "storage: corrupt metadata")
)

// ListOptions pages through documents. Limit <= 0 uses the backend default.
type ListOptions struct {
	Limit  int
	Cursor string
}

// GistPage holds one page of document ids. Cursor is empty on the last page.
type GistPage struct {
	IDs    []string
	Cursor string
}

// VersionInfo describes one version blob.
type VersionInfo struct {
	Timestamp string
	Size      int64
}

// Stats aggregates every object in the backend.
type Stats struct {
	TotalObjects    int
	TotalSize       int64
	MetadataObjects int
	VersionObjects  int
}

// Store is safe for concurrent use.
type Store struct {
	b   backend.Backend
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

type Option func(*Store)

// WithClock replaces time.Now as the source of version timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(b backend.Backend, opts ...Option) *Store {
	s := &Store{b: b, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Backend exposes the underlying backend, mostly for Close.
func (s *Store) Backend() backend.Backend { return s.b }

// ValidateID checks that id can be embedded in object keys.
func ValidateID(id string) error {
	if id == "" || len(id) > maxIDLength {
		return fmt.Errorf("%w: length %d", ErrInvalidID, len(id))
	}
	for _, r := range id {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
		if !ok {
			return fmt.Errorf("%w: character %q", ErrInvalidID, r)
		}
	}
	return nil
}

func validateTimestamp(ts string) error {
	if len(ts) != len(TimestampLayout) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, ts)
	}
	if _, err := time.Parse(TimestampLayout, ts); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, ts)
	}
	return nil
}

func metadataKey(id string) string { return MetadataPrefix + id }

func versionsPrefix(id string) string { return VersionsPrefix + id + "/" }

func versionKey(id, ts string) string { return versionsPrefix(id) + ts }

// nextTimestamp returns a timestamp strictly after every one this store has
// issued before.
func (s *Store) nextTimestamp() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t.Format(TimestampLayout)
}

func (s *Store) PutMetadata(ctx context.Context, meta *models.GistMetadata) error {
	if meta == nil {
		return common.E(common.KindValidation, "storage: nil metadata")
	}
	if err := ValidateID(meta.ID); err != nil {
		return err
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("storage: encode metadata: %w", err)
	}
	return s.b.Put(ctx, metadataKey(meta.ID), data)
}

// GetMetadata returns nil, nil when the document does not exist.
func (s *Store) GetMetadata(ctx context.Context, id string) (*models.GistMetadata, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	data, err := s.b.Get(ctx, metadataKey(id))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var meta models.GistMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptMeta, id, err)
	}
	return &meta, nil
}

// PutBlob stores data as a new version of id and returns its timestamp.
func (s *Store) PutBlob(ctx context.Context, id string, data []byte) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}

	ts := s.nextTimestamp()
	if err := s.b.Put(ctx, versionKey(id, ts), data); err != nil {
		return "", err
	}
	return ts, nil
}

// GetBlob returns nil, nil when the version does not exist.
func (s *Store) GetBlob(ctx context.Context, id, ts string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := validateTimestamp(ts); err != nil {
		return nil, err
	}

	data, err := s.b.Get(ctx, versionKey(id, ts))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// GetCurrentBlob returns the blob named by the metadata's current version,
// or nil when either the metadata or the blob is missing.
func (s *Store) GetCurrentBlob(ctx context.Context, id string) ([]byte, error) {
	meta, err := s.GetMetadata(ctx, id)
	if err != nil || meta == nil {
		return nil, err
	}
	if meta.CurrentVersion == "" {
		return nil, nil
	}
	return s.GetBlob(ctx, id, meta.CurrentVersion)
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if err := ValidateID(id); err != nil {
		return false, err
	}

	_, err := s.b.Head(ctx, metadataKey(id))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteGist removes the metadata first, then every version. It keeps going
// after individual failures and reports all of them.
func (s *Store) DeleteGist(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	var errs []error
	if err := s.b.Delete(ctx, metadataKey(id)); err != nil {
		errs = append(errs, fmt.Errorf("delete metadata: %w", err))
	}

	versions, err := s.ListVersions(ctx, id)
	if err != nil {
		errs = append(errs, fmt.Errorf("list versions: %w", err))
	} else if err := s.deleteVersions(ctx, id, versions); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return common.Wrap(common.KindStorage, "storage: delete "+id, errors.Join(errs...))
	}
	return nil
}

func (s *Store) deleteVersions(ctx context.Context, id string, versions []VersionInfo) error {
	if len(versions) == 0 {
		return nil
	}

	keys := make([]string, 0, len(versions))
	for _, v := range versions {
		keys = append(keys, versionKey(id, v.Timestamp))
	}

	if bd, ok := s.b.(backend.BatchDeleter); ok {
		if err := bd.DeleteMany(ctx, keys); err != nil {
			return fmt.Errorf("delete versions: %w", err)
		}
		return nil
	}

	var errs []error
	for _, k := range keys {
		if err := s.b.Delete(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// ListGists returns one page of document ids in key order.
func (s *Store) ListGists(ctx context.Context, opts ListOptions) (GistPage, error) {
	page, err := s.b.List(ctx, MetadataPrefix, opts.Cursor, opts.Limit)
	if err != nil {
		return GistPage{}, err
	}

	out := GistPage{IDs: make([]string, 0, len(page.Objects)), Cursor: page.Cursor}
	for _, o := range page.Objects {
		out.IDs = append(out.IDs, strings.TrimPrefix(o.Key, MetadataPrefix))
	}
	return out, nil
}

// ListVersions returns every version of id, newest first.
func (s *Store) ListVersions(ctx context.Context, id string) ([]VersionInfo, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	prefix := versionsPrefix(id)
	var out []VersionInfo
	err := s.walk(ctx, prefix, func(o backend.Object) {
		out = append(out, VersionInfo{Timestamp: strings.TrimPrefix(o.Key, prefix), Size: o.Size})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b VersionInfo) int { return strings.Compare(b.Timestamp, a.Timestamp) })
	return out, nil
}

// PruneVersions deletes all but the keep newest versions of id and returns
// how many were deleted.
func (s *Store) PruneVersions(ctx context.Context, id string, keep int) (int, error) {
	if keep < 1 {
		return 0, ErrInvalidKeep
	}

	versions, err := s.ListVersions(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(versions) <= keep {
		return 0, nil
	}

	stale := versions[keep:]
	if err := s.deleteVersions(ctx, id, stale); err != nil {
		return 0, common.Wrap(common.KindStorage, "storage: prune "+id, err)
	}
	return len(stale), nil
}

// GetStorageStats walks every object in the backend.
func (s *Store) GetStorageStats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.walk(ctx, "", func(o backend.Object) {
		st.TotalObjects++
		st.TotalSize += o.Size
		switch {
		case strings.HasPrefix(o.Key, MetadataPrefix):
			st.MetadataObjects++
		case strings.HasPrefix(o.Key, VersionsPrefix):
			st.VersionObjects++
		}
	})
	return st, err
}

func (s *Store) walk(ctx context.Context, prefix string, fn func(backend.Object)) error {
	cursor := ""
	for {
		page, err := s.b.List(ctx, prefix, cursor, 0)
		if err != nil {
			return err
		}
		for _, o := range page.Objects {
			fn(o)
		}
		if page.Cursor == "" {
			return nil
		}
		cursor = page.Cursor
	}
}
