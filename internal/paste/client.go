// Package paste composes the core into the operations a client performs:
// files are packed by the codec, sealed by cryptox under a fresh key and
// stored through the gist service. The key only ever leaves this package
// inside the fragment of a share URL.
package paste

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/codec"
	"github.com/dmitrijs2005/ghostpaste/internal/common"
	"github.com/dmitrijs2005/ghostpaste/internal/cryptox"
	"github.com/dmitrijs2005/ghostpaste/internal/gist"
	"github.com/dmitrijs2005/ghostpaste/internal/models"
	"github.com/dmitrijs2005/ghostpaste/internal/passwd"
	"github.com/dmitrijs2005/ghostpaste/internal/storage"
)

var (
	// ErrInvalidPassword is returned for a wrong edit password. The reason is
	// never given.
	ErrInvalidPassword = common.E(common.KindAuth, "paste: invalid password")

	// ErrNotEditable is returned when changing a document that was created
	// without an edit password.
	ErrNotEditable = common.E(common.KindAuth, "paste: document has no edit password")

	ErrVersionNotFound = common.E(common.KindNotFound, "paste: version not found")
)

// Gists is the part of *gist.Service the client uses.
type Gists interface {
	CreateGist(ctx context.Context, p gist.CreateParams, blob []byte) (*models.GistMetadata, error)
	UpdateGist(ctx context.Context, id string, patch gist.MetadataPatch, blob []byte) (*models.GistMetadata, error)
	GetMetadata(ctx context.Context, id string) (*models.GistMetadata, error)
	GetGist(ctx context.Context, id string) (*gist.Gist, error)
	GetVersion(ctx context.Context, id, ts string) ([]byte, error)
	ListVersions(ctx context.Context, id string) ([]storage.VersionInfo, error)
	DeleteGist(ctx context.Context, id string) error
	DeleteIfNeeded(ctx context.Context, meta *models.GistMetadata) (bool, error)
}

var _ Gists = (*gist.Service)(nil)

type CreateOptions struct {
	Description string
	// Password enables edits. Empty means the document is read-only.
	Password    string
	ExpiresIn   time.Duration
	OneTimeView bool
}

type UpdateOptions struct {
	Password    string
	Description *string
}

// Created is the result of Create. Key is the exported content key; it is
// also embedded in ShareURL.
type Created struct {
	ID       string
	ShareURL string
	Key      string
	Metadata *models.GistMetadata
}

// Document is a decrypted document.
type Document struct {
	Metadata *models.GistMetadata
	Side     *models.SideMetadata
	Files    []codec.File
	// Deleted is set when the read consumed a one-time document.
	Deleted bool
}

type Client struct {
	gists   Gists
	baseURL string
	limits  codec.Limits
	now     func() time.Time
}

type Option func(*Client)

// WithClock sets the time source used for expiry checks. It should match
// the clock of the gist service.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(gists Gists, baseURL string, limits codec.Limits, opts ...Option) *Client {
	c := &Client{gists: gists, baseURL: baseURL, limits: limits, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

func sideMetadata(description string, files []codec.File) models.SideMetadata {
	side := models.SideMetadata{Description: description, Files: make([]models.FileIndexEntry, 0, len(files))}
	for _, f := range files {
		side.Files = append(side.Files, models.FileIndexEntry{Name: f.Name, Size: len(f.Content), Language: f.Language})
	}
	return side
}

func (c *Client) seal(files []codec.File, description string, k cryptox.Key) ([]byte, *models.EncryptedMetadata, error) {
	data, err := codec.Encode(files, c.limits)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(data)

	packed, _, err := cryptox.EncryptAndPack(data, &k)
	if err != nil {
		return nil, nil, err
	}

	enc, err := cryptox.EncryptJSON(sideMetadata(description, files), k)
	if err != nil {
		return nil, nil, err
	}
	return packed, &models.EncryptedMetadata{IV: enc.IV, Data: enc.Ciphertext}, nil
}

// Create stores files as a new document under a fresh key.
func (c *Client) Create(ctx context.Context, files []codec.File, opts CreateOptions) (*Created, error) {
	k, err := cryptox.GenerateKey()
	if err != nil {
		return nil, err
	}

	blob, side, err := c.seal(files, opts.Description, k)
	if err != nil {
		return nil, err
	}

	p := gist.CreateParams{
		TotalSize:         int64(len(blob)),
		OneTimeView:       opts.OneTimeView,
		EncryptedMetadata: side,
	}
	if opts.ExpiresIn > 0 {
		t := c.now().Add(opts.ExpiresIn)
		p.ExpiresAt = &t
	}
	if opts.Password != "" {
		salt, err := passwd.GenerateSalt()
		if err != nil {
			return nil, err
		}
		hash, err := passwd.HashPassword(opts.Password, salt)
		if err != nil {
			return nil, err
		}
		p.EditPinHash, p.EditPinSalt = hash, salt
	}

	meta, err := c.gists.CreateGist(ctx, p, blob)
	if err != nil {
		return nil, err
	}

	share, err := cryptox.ShareURL(c.baseURL, meta.ID, k)
	if err != nil {
		return nil, err
	}
	return &Created{ID: meta.ID, ShareURL: share, Key: cryptox.ExportKey(k), Metadata: meta}, nil
}

func (c *Client) open(blob []byte, meta *models.GistMetadata, k cryptox.Key) (*Document, error) {
	data, err := cryptox.UnpackAndDecrypt(blob, k)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(data)

	files, err := codec.Decode(data, c.limits)
	if err != nil {
		return nil, err
	}

	doc := &Document{Metadata: meta, Files: files}
	if em := meta.EncryptedMetadata; em != nil {
		var side models.SideMetadata
		if err := cryptox.DecryptJSON(&cryptox.EncryptedData{IV: em.IV, Ciphertext: em.Data}, k, &side); err != nil {
			return nil, err
		}
		doc.Side = &side
	}
	return doc, nil
}

// Read fetches and decrypts the current version named by shareURL. Expired
// documents are deleted and reported as gist.ErrGistNotFound. A one-time
// document is deleted after a successful read.
func (c *Client) Read(ctx context.Context, shareURL string) (*Document, error) {
	id, k, err := cryptox.ParseShareURL(shareURL)
	if err != nil {
		return nil, err
	}

	g, err := c.gists.GetGist(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: %s", gist.ErrGistNotFound, id)
	}
	if g.Metadata.Expired(c.now()) {
		if _, err := c.gists.DeleteIfNeeded(ctx, g.Metadata); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", gist.ErrGistNotFound, id)
	}

	doc, err := c.open(g.Blob, g.Metadata, k)
	if err != nil {
		return nil, err
	}

	deleted, err := c.gists.DeleteIfNeeded(ctx, g.Metadata)
	if err != nil {
		return nil, err
	}
	doc.Deleted = deleted
	return doc, nil
}

// ReadVersion fetches and decrypts one historical version.
func (c *Client) ReadVersion(ctx context.Context, shareURL, ts string) (*Document, error) {
	id, k, err := cryptox.ParseShareURL(shareURL)
	if err != nil {
		return nil, err
	}

	meta, err := c.liveMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	blob, err := c.gists.GetVersion(ctx, id, ts)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, fmt.Errorf("%w: %s@%s", ErrVersionNotFound, id, ts)
	}

	doc, err := c.open(blob, meta, k)
	if err != nil {
		return nil, err
	}

	deleted, err := c.gists.DeleteIfNeeded(ctx, meta)
	if err != nil {
		return nil, err
	}
	doc.Deleted = deleted
	return doc, nil
}

// Versions lists the versions of the document named by shareURL, newest
// first. The key fragment is not required.
func (c *Client) Versions(ctx context.Context, shareURL string) ([]storage.VersionInfo, error) {
	id, err := cryptox.ShareID(shareURL)
	if err != nil {
		return nil, err
	}
	if _, err := c.liveMetadata(ctx, id); err != nil {
		return nil, err
	}
	return c.gists.ListVersions(ctx, id)
}

func (c *Client) liveMetadata(ctx context.Context, id string) (*models.GistMetadata, error) {
	meta, err := c.gists.GetMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s", gist.ErrGistNotFound, id)
	}
	if meta.Expired(c.now()) {
		if _, err := c.gists.DeleteIfNeeded(ctx, meta); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", gist.ErrGistNotFound, id)
	}
	return meta, nil
}

func checkPassword(meta *models.GistMetadata, password string) error {
	if !meta.HasPassword() {
		return ErrNotEditable
	}
	if !passwd.ValidatePassword(password, meta.EditPinHash, meta.EditPinSalt) {
		return ErrInvalidPassword
	}
	return nil
}

// Update replaces the content of the document named by shareURL. The edit
// password is checked first and the version read with it is passed on as
// the expected version, so a concurrent update surfaces as
// gist.ErrVersionConflict.
func (c *Client) Update(ctx context.Context, shareURL string, files []codec.File, opts UpdateOptions) (*models.GistMetadata, error) {
	id, k, err := cryptox.ParseShareURL(shareURL)
	if err != nil {
		return nil, err
	}

	meta, err := c.liveMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(meta, opts.Password); err != nil {
		return nil, err
	}

	description := ""
	if opts.Description != nil {
		description = *opts.Description
	} else if em := meta.EncryptedMetadata; em != nil {
		var side models.SideMetadata
		if err := cryptox.DecryptJSON(&cryptox.EncryptedData{IV: em.IV, Ciphertext: em.Data}, k, &side); err != nil {
			return nil, err
		}
		description = side.Description
	}

	blob, side, err := c.seal(files, description, k)
	if err != nil {
		return nil, err
	}

	expected := meta.Version
	return c.gists.UpdateGist(ctx, id, gist.MetadataPatch{
		ExpectedVersion:   &expected,
		EncryptedMetadata: side,
	}, blob)
}

// Delete removes the document named by shareURL after checking the edit
// password.
func (c *Client) Delete(ctx context.Context, shareURL, password string) error {
	id, err := cryptox.ShareID(shareURL)
	if err != nil {
		return err
	}

	meta, err := c.gists.GetMetadata(ctx, id)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("%w: %s", gist.ErrGistNotFound, id)
	}
	if err := checkPassword(meta, password); err != nil {
		return err
	}
	return c.gists.DeleteGist(ctx, id)
}
