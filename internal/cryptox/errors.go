package cryptox

import "github.com/dmitrijs2005/ghostpaste/internal/common"

var (
	// ErrDecryptionFailed covers every decryption failure: wrong key, altered
	// IV or ciphertext, bad IV length. The cause is deliberately not exposed.
	ErrDecryptionFailed = common.E(common.KindCrypto, "cryptox: decryption failed")

	// ErrInvalidKey is returned when an exported key cannot be imported.
	ErrInvalidKey = common.E(common.KindCrypto, "cryptox: invalid key")

	// ErrKeyGeneration is returned when the random source fails.
	ErrKeyGeneration = common.E(common.KindCrypto, "cryptox: key generation failed")

	// ErrEncryptionFailed is returned when sealing cannot be performed.
	ErrEncryptionFailed = common.E(common.KindCrypto, "cryptox: encryption failed")

	// ErrInvalidPackedData is returned by Unpack for input shorter than an IV.
	ErrInvalidPackedData = common.E(common.KindFormat, "cryptox: packed data too short")

	// ErrInvalidShareURL is returned for locators that do not name a document.
	ErrInvalidShareURL = common.E(common.KindValidation, "cryptox: invalid share url")

	// ErrMissingKey is returned when a share locator carries no key fragment.
	ErrMissingKey = common.E(common.KindCrypto, "cryptox: share url has no key")
)
