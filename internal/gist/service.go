// Package gist is the storage orchestrator. It turns single-object store
// calls into document operations, fixes the order of writes so metadata
// never points at a missing blob, and wraps every store call in a retry
// policy.
package gist

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/logging"
	"github.com/dmitrijs2005/ghostpaste/internal/models"
	"github.com/dmitrijs2005/ghostpaste/internal/retryx"
	"github.com/dmitrijs2005/ghostpaste/internal/storage"
	"github.com/dmitrijs2005/ghostpaste/internal/storage/backend"
	"github.com/google/uuid"
)

// Store is the subset of *storage.Store the service needs.
type Store interface {
	PutMetadata(ctx context.Context, meta *models.GistMetadata) error
	GetMetadata(ctx context.Context, id string) (*models.GistMetadata, error)
	PutBlob(ctx context.Context, id string, data []byte) (string, error)
	GetBlob(ctx context.Context, id, ts string) ([]byte, error)
	DeleteGist(ctx context.Context, id string) error
	ListGists(ctx context.Context, opts storage.ListOptions) (storage.GistPage, error)
	ListVersions(ctx context.Context, id string) ([]storage.VersionInfo, error)
	PruneVersions(ctx context.Context, id string, keep int) (int, error)
	GetStorageStats(ctx context.Context) (storage.Stats, error)
}

var _ Store = (*storage.Store)(nil)

// Gist is a document's metadata with its current blob.
type Gist struct {
	Metadata *models.GistMetadata
	Blob     []byte
}

// CleanupResult summarises one expiry sweep.
type CleanupResult struct {
	Checked int
	Deleted int
	Failed  int
}

type Service struct {
	store       Store
	retry       retryx.Policy
	maxVersions int
	now         func() time.Time
	newID       func() (string, error)
	log         logging.Logger
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		retry:       retryx.DefaultPolicy(IsTransient),
		maxVersions: DefaultMaxVersions,
		now:         time.Now,
		newID:       NewID,
		log:         logging.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("module", "gist")
	return s
}

// IsTransient reports whether a store error is worth retrying: everything
// except client errors (see backend.IsClientError).
func IsTransient(err error) bool {
	return !backend.IsClientError(err)
}

// NewID returns 16 random bytes (a v4 UUID) as 22 characters of unpadded
// base64url.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("gist: generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(u[:]), nil
}

func (s *Service) getMetadata(ctx context.Context, id string) (*models.GistMetadata, error) {
	return retryx.DoValue(ctx, s.retry, func(ctx context.Context) (*models.GistMetadata, error) {
		return s.store.GetMetadata(ctx, id)
	})
}

func (s *Service) putMetadata(ctx context.Context, meta *models.GistMetadata) error {
	return s.retry.Do(ctx, func(ctx context.Context) error {
		return s.store.PutMetadata(ctx, meta)
	})
}

// putBlob mints a new timestamp on every attempt. A write that landed but
// reported a transient error leaves an unreferenced version behind. It
// stays until pruning drops it from the retained window or the document is
// deleted.
func (s *Service) putBlob(ctx context.Context, id string, blob []byte) (string, error) {
	return retryx.DoValue(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.store.PutBlob(ctx, id, blob)
	})
}

func (s *Service) getBlob(ctx context.Context, id, ts string) ([]byte, error) {
	return retryx.DoValue(ctx, s.retry, func(ctx context.Context) ([]byte, error) {
		return s.store.GetBlob(ctx, id, ts)
	})
}

// CreateGist writes blob as the first version and then the metadata that
// points at it.
func (s *Service) CreateGist(ctx context.Context, p CreateParams, blob []byte) (*models.GistMetadata, error) {
	if len(blob) == 0 {
		return nil, ErrEmptyBlob
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	ts, err := s.putBlob(ctx, id, blob)
	if err != nil {
		return nil, fmt.Errorf("gist: write blob: %w", err)
	}

	now := s.now().UTC()
	meta := &models.GistMetadata{
		ID:                id,
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
		CurrentVersion:    ts,
		TotalSize:         p.TotalSize,
		BlobCount:         1,
		OneTimeView:       p.OneTimeView,
		EditPinHash:       p.EditPinHash,
		EditPinSalt:       p.EditPinSalt,
		EncryptedMetadata: p.EncryptedMetadata,
	}
	if meta.TotalSize == 0 {
		meta.TotalSize = int64(len(blob))
	}
	if p.ExpiresAt != nil {
		t := p.ExpiresAt.UTC()
		meta.ExpiresAt = &t
	}

	if err := s.putMetadata(ctx, meta); err != nil {
		return nil, fmt.Errorf("gist: write metadata: %w", err)
	}

	s.log.Info(ctx, "gist created", "id", id, "version", ts, "size", len(blob))
	return meta, nil
}

// UpdateGist applies patch to an existing document. A non-nil blob becomes
// the new current version; it is written before the metadata. Version is
// incremented on every call, including metadata-only updates. Old versions
// beyond the retention limit are pruned afterwards; prune failures are only
// logged.
func (s *Service) UpdateGist(ctx context.Context, id string, patch MetadataPatch, blob []byte) (*models.GistMetadata, error) {
	meta, err := s.getMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s", ErrGistNotFound, id)
	}
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != meta.Version {
		return nil, fmt.Errorf("%w: expected %d, stored %d", ErrVersionConflict, *patch.ExpectedVersion, meta.Version)
	}

	wroteBlob := false
	if blob != nil {
		if len(blob) == 0 {
			return nil, ErrEmptyBlob
		}
		ts, err := s.putBlob(ctx, id, blob)
		if err != nil {
			return nil, fmt.Errorf("gist: write blob: %w", err)
		}
		meta.CurrentVersion = ts
		meta.BlobCount++
		meta.TotalSize = int64(len(blob))
		wroteBlob = true
	}

	patch.apply(meta)
	meta.Version++
	meta.UpdatedAt = s.now().UTC()

	if err := s.putMetadata(ctx, meta); err != nil {
		return nil, fmt.Errorf("gist: write metadata: %w", err)
	}

	if wroteBlob {
		s.prune(ctx, id)
	}

	s.log.Info(ctx, "gist updated", "id", id, "version", meta.Version, "new_blob", wroteBlob)
	return meta, nil
}

func (s *Service) prune(ctx context.Context, id string) {
	n, err := retryx.DoValue(ctx, s.retry, func(ctx context.Context) (int, error) {
		return s.store.PruneVersions(ctx, id, s.maxVersions)
	})
	if err != nil {
		s.log.Warn(ctx, "prune failed", "id", id, "error", err)
		return
	}
	if n > 0 {
		s.log.Debug(ctx, "pruned versions", "id", id, "deleted", n, "kept", s.maxVersions)
	}
}

// GetMetadata returns nil when the document does not exist.
func (s *Service) GetMetadata(ctx context.Context, id string) (*models.GistMetadata, error) {
	return s.getMetadata(ctx, id)
}

// GetGist returns nil when the document does not exist. Metadata whose
// current blob is missing is reported as ErrInconsistentStorage.
func (s *Service) GetGist(ctx context.Context, id string) (*Gist, error) {
	meta, err := s.getMetadata(ctx, id)
	if err != nil || meta == nil {
		return nil, err
	}

	blob, err := s.getBlob(ctx, id, meta.CurrentVersion)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		s.log.Error(ctx, "current version missing", "id", id, "version", meta.CurrentVersion)
		return nil, fmt.Errorf("%w: %s@%s", ErrInconsistentStorage, id, meta.CurrentVersion)
	}

	return &Gist{Metadata: meta, Blob: blob}, nil
}

// GetVersion returns a historical blob, or nil if it does not exist.
func (s *Service) GetVersion(ctx context.Context, id, ts string) ([]byte, error) {
	return s.getBlob(ctx, id, ts)
}

// ListVersions returns every version of id, newest first.
func (s *Service) ListVersions(ctx context.Context, id string) ([]storage.VersionInfo, error) {
	return retryx.DoValue(ctx, s.retry, func(ctx context.Context) ([]storage.VersionInfo, error) {
		return s.store.ListVersions(ctx, id)
	})
}

// DeleteGist removes a document and all of its versions.
func (s *Service) DeleteGist(ctx context.Context, id string) error {
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.store.DeleteGist(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "gist deleted", "id", id)
	return nil
}

// DeleteIfNeeded deletes the document described by meta when it is a
// one-time view or has expired, and reports whether it did.
func (s *Service) DeleteIfNeeded(ctx context.Context, meta *models.GistMetadata) (bool, error) {
	if meta == nil {
		return false, nil
	}
	if !meta.OneTimeView && !meta.Expired(s.now()) {
		return false, nil
	}
	if err := s.DeleteGist(ctx, meta.ID); err != nil {
		return false, err
	}
	return true, nil
}

// CleanupExpiredGists pages through every document and deletes the expired
// ones. Per-document failures are logged and counted in Failed; only a
// listing failure stops the sweep.
func (s *Service) CleanupExpiredGists(ctx context.Context, batchSize int) (CleanupResult, error) {
	var res CleanupResult
	if batchSize <= 0 {
		return res, ErrInvalidBatch
	}

	opts := storage.ListOptions{Limit: batchSize}
	for {
		page, err := retryx.DoValue(ctx, s.retry, func(ctx context.Context) (storage.GistPage, error) {
			return s.store.ListGists(ctx, opts)
		})
		if err != nil {
			return res, fmt.Errorf("gist: list: %w", err)
		}

		for _, id := range page.IDs {
			res.Checked++
			deleted, err := s.cleanupOne(ctx, id)
			switch {
			case err != nil:
				res.Failed++
				s.log.Warn(ctx, "cleanup failed", "id", id, "error", err)
			case deleted:
				res.Deleted++
			}
		}

		if page.Cursor == "" {
			break
		}
		opts.Cursor = page.Cursor
	}

	s.log.Info(ctx, "cleanup finished", "checked", res.Checked, "deleted", res.Deleted, "failed", res.Failed)
	return res, nil
}

func (s *Service) cleanupOne(ctx context.Context, id string) (bool, error) {
	meta, err := s.getMetadata(ctx, id)
	if err != nil || meta == nil {
		return false, err
	}
	if !meta.Expired(s.now()) {
		return false, nil
	}
	if err := s.DeleteGist(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// StorageStats reports aggregate object counts.
func (s *Service) StorageStats(ctx context.Context) (storage.Stats, error) {
	return retryx.DoValue(ctx, s.retry, func(ctx context.Context) (storage.Stats, error) {
		return s.store.GetStorageStats(ctx)
	})
}
