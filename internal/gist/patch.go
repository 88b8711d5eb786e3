package gist

import (
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/models"
)

// CreateParams carries the caller-supplied fields of a new document.
// TotalSize defaults to the blob length.
type CreateParams struct {
	TotalSize         int64
	ExpiresAt         *time.Time
	OneTimeView       bool
	EditPinHash       string
	EditPinSalt       string
	EncryptedMetadata *models.EncryptedMetadata
}

// MetadataPatch lists the fields an update may change. Nil fields are left
// alone. ID, CreatedAt and Version have no counterpart here and cannot be
// overwritten.
type MetadataPatch struct {
	// ExpectedVersion, when set, must equal the stored version.
	ExpectedVersion *int

	TotalSize   *int64
	ExpiresAt   *time.Time
	ClearExpiry bool
	OneTimeView *bool

	EditPinHash *string
	EditPinSalt *string

	EncryptedMetadata *models.EncryptedMetadata
}

func (p MetadataPatch) apply(m *models.GistMetadata) {
	if p.TotalSize != nil {
		m.TotalSize = *p.TotalSize
	}
	switch {
	case p.ClearExpiry:
		m.ExpiresAt = nil
	case p.ExpiresAt != nil:
		t := p.ExpiresAt.UTC()
		m.ExpiresAt = &t
	}
	if p.OneTimeView != nil {
		m.OneTimeView = *p.OneTimeView
	}
	if p.EditPinHash != nil {
		m.EditPinHash = *p.EditPinHash
	}
	if p.EditPinSalt != nil {
		m.EditPinSalt = *p.EditPinSalt
	}
	if p.EncryptedMetadata != nil {
		m.EncryptedMetadata = p.EncryptedMetadata
	}
}
