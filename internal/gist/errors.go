package gist

import "github.com/dmitrijs2005/ghostpaste/internal/common"

var (
	// ErrGistNotFound is returned by operations that require an existing
	// document. Plain reads report absence as a nil result instead.
	ErrGistNotFound = common.E(common.KindNotFound, "gist: not found")

	// ErrInconsistentStorage means metadata names a version blob that does
	// not exist.
	ErrInconsistentStorage = common.E(common.KindStorage, "gist: current version blob is missing")

	// ErrVersionConflict is returned when MetadataPatch.ExpectedVersion does
	// not match the stored version.
	ErrVersionConflict = common.ErrVersionConflict

	ErrEmptyBlob    = common.E(common.KindValidation, "gist: blob is empty")
	ErrInvalidBatch = common.E(common.KindValidation, "gist: batch size must be positive")
)
