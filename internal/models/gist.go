// Package models defines the persisted GhostPaste document metadata and the
// plaintext side metadata that travels encrypted inside it.
package models

import "time"

// GistMetadata is the mutable record stored at metadata/{id}.
// CurrentVersion always names an existing version blob and Version never
// decreases.
type GistMetadata struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`
	CurrentVersion string    `json:"current_version"`
	TotalSize      int64     `json:"total_size"`
	BlobCount      int       `json:"blob_count"`

	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	OneTimeView bool       `json:"one_time_view,omitempty"`

	// EditPinHash and EditPinSalt are set when the document is protected by
	// an edit password.
	EditPinHash string `json:"edit_pin_hash,omitempty"`
	EditPinSalt string `json:"edit_pin_salt,omitempty"`

	EncryptedMetadata *EncryptedMetadata `json:"encrypted_metadata,omitempty"`
}

// HasPassword reports whether updates require an edit password.
func (m *GistMetadata) HasPassword() bool {
	return m.EditPinHash != "" && m.EditPinSalt != ""
}

// Expired reports whether m has an expiry at or before now.
func (m *GistMetadata) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// EncryptedMetadata is an IV and ciphertext pair. Both are base64 in JSON.
type EncryptedMetadata struct {
	IV   []byte `json:"iv"`
	Data []byte `json:"data"`
}

// SideMetadata is encrypted with the content key and stored in
// GistMetadata.EncryptedMetadata.
type SideMetadata struct {
	Description string           `json:"description,omitempty"`
	Files       []FileIndexEntry `json:"files"`
}

// FileIndexEntry lists one file without its content.
type FileIndexEntry struct {
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Language string `json:"language,omitempty"`
}
