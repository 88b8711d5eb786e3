// Package cryptox is the GhostPaste encryption engine. Content is sealed with
// AES-256-GCM under a random per-document key that never reaches the storage
// tier; only the packed form iv||ciphertext is persisted.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the GCM nonce length in bytes.
	IVSize = 12
	// TagSize is the GCM authentication tag length appended to ciphertext.
	TagSize = 16
)

// randReader is a test seam for the random source used for keys and IVs.
var randReader io.Reader = rand.Reader

// Key is a raw AES-256 key.
type Key [KeySize]byte

// EncryptedData is one sealed message. Ciphertext includes the trailing tag.
type EncryptedData struct {
	IV         []byte
	Ciphertext []byte
}

// GenerateKey returns a fresh random key.
func GenerateKey() (Key, error) {
	raw, err := common.ReadRandom(randReader, KeySize)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	defer common.WipeByteArray(raw)

	var k Key
	copy(k[:], raw)
	return k, nil
}

// ExportKey encodes k as unpadded URL-safe base64.
func ExportKey(k Key) string {
	return base64.RawURLEncoding.EncodeToString(k[:])
}

// ImportKey decodes a key produced by ExportKey.
func ImportKey(s string) (Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: not base64url", ErrInvalidKey)
	}
	if len(raw) != KeySize {
		return Key{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(raw), KeySize)
	}
	var k Key
	copy(k[:], raw)
	return k, nil
}

func newGCM(k Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under k with a fresh random IV. Two calls with
// the same input never produce the same IV or ciphertext.
func Encrypt(plaintext []byte, k Key) (*EncryptedData, error) {
	aead, err := newGCM(k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	iv, err := common.ReadRandom(randReader, IVSize)
	if err != nil {
		return nil, fmt.Errorf("%w: iv: %v", ErrEncryptionFailed, err)
	}

	return &EncryptedData{
		IV:         iv,
		Ciphertext: aead.Seal(nil, iv, plaintext, nil),
	}, nil
}

// Decrypt opens d with k. Any failure yields ErrDecryptionFailed with no
// further detail, so a wrong key and tampered data look the same.
func Decrypt(d *EncryptedData, k Key) ([]byte, error) {
	if d == nil || len(d.IV) != IVSize || len(d.Ciphertext) < TagSize {
		return nil, ErrDecryptionFailed
	}
	aead, err := newGCM(k)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := aead.Open(nil, d.IV, d.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// Pack concatenates iv||ciphertext.
func Pack(d *EncryptedData) []byte {
	out := make([]byte, 0, len(d.IV)+len(d.Ciphertext))
	out = append(out, d.IV...)
	return append(out, d.Ciphertext...)
}

// Unpack splits the output of Pack. The returned slices do not alias b.
func Unpack(b []byte) (*EncryptedData, error) {
	if len(b) < IVSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPackedData, len(b))
	}
	iv := make([]byte, IVSize)
	copy(iv, b[:IVSize])
	ct := make([]byte, len(b)-IVSize)
	copy(ct, b[IVSize:])
	return &EncryptedData{IV: iv, Ciphertext: ct}, nil
}

// EncryptAndPack encrypts data and returns the packed blob together with the
// key used. When key is nil a new one is generated.
func EncryptAndPack(data []byte, key *Key) ([]byte, Key, error) {
	var k Key
	if key != nil {
		k = *key
	} else {
		var err error
		if k, err = GenerateKey(); err != nil {
			return nil, Key{}, err
		}
	}

	enc, err := Encrypt(data, k)
	if err != nil {
		return nil, Key{}, err
	}
	return Pack(enc), k, nil
}

// UnpackAndDecrypt reverses EncryptAndPack.
func UnpackAndDecrypt(packed []byte, k Key) ([]byte, error) {
	enc, err := Unpack(packed)
	if err != nil {
		return nil, err
	}
	return Decrypt(enc, k)
}

// EncryptJSON marshals v to JSON and seals it under k.
//
// Example:
//
//	enc, err := cryptox.EncryptJSON(models.SideMetadata{Description: "notes"}, key)
//	if err != nil {
//	    return err
//	}
func EncryptJSON(v any, k Key) (*EncryptedData, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", ErrEncryptionFailed, err)
	}
	return Encrypt(plaintext, k)
}

// DecryptJSON opens d and unmarshals the JSON plaintext into v.
func DecryptJSON(d *EncryptedData, k Key, v any) error {
	plaintext, err := Decrypt(d, k)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return ErrDecryptionFailed
	}
	return nil
}
