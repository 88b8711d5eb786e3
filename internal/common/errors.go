// Package common defines the error taxonomy shared by every GhostPaste layer
// together with small helpers for random bytes and memory wiping.
//
// Package-level sentinels are *Error values created with E. Callers match a
// precise condition with errors.Is and the broader class with KindOf:
//
//	if common.KindOf(err) == common.KindValidation {
//	    // client-caused, never retried
//	}
package common

import "errors"

// Kind classifies an error so callers can decide between retrying,
// reporting and failing without inspecting messages.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a client-caused input problem (bad shape, over a limit).
	KindValidation
	// KindFormat is corruption found while decoding stored bytes.
	KindFormat
	// KindCrypto covers key handling and authenticated decryption failures.
	KindCrypto
	// KindAuth is an edit-password failure. It never carries a reason.
	KindAuth
	// KindStorage is an object-store failure, possibly after retries.
	KindStorage
	// KindNotFound is a logical document that does not exist.
	KindNotFound
	// KindConflict is an optimistic version check that did not match.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindFormat:
		return "format"
	case KindCrypto:
		return "crypto"
	case KindAuth:
		return "auth"
	case KindStorage:
		return "storage"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ClientCaused reports whether errors of kind k come from the request
// itself. Retrying such a call returns the same error.
func (k Kind) ClientCaused() bool {
	switch k {
	case KindValidation, KindFormat, KindCrypto, KindAuth, KindNotFound, KindConflict:
		return true
	}
	return false
}

// Error is a classified error. Err, when set, is the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// E creates a sentinel of the given kind.
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap classifies err under kind, keeping it reachable through errors.Unwrap.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrVersionConflict is returned when an expected version does not match.
var ErrVersionConflict = E(KindConflict, "version conflict")
