package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T) Key {
	t.Helper()
	k, err := GenerateKey()
	require.NoError(t, err)
	return k
}

func TestGenerateKey_Unique(t *testing.T) {
	a := mustKey(t)
	b := mustKey(t)
	assert.NotEqual(t, a, b)
}

func TestExportImportKey_RoundTrip(t *testing.T) {
	k := mustKey(t)

	s := ExportKey(k)
	assert.Len(t, s, 43)
	assert.NotContains(t, s, "=")
	assert.NotContains(t, s, "+")
	assert.NotContains(t, s, "/")

	got, err := ImportKey(s)
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestImportKey_Invalid(t *testing.T) {
	for _, s := range []string{"", "!!!", "c2hvcnQ", ExportKey(Key{}) + "AA"} {
		_, err := ImportKey(s)
		assert.ErrorIs(t, err, ErrInvalidKey, "input %q", s)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	k := mustKey(t)

	for _, pt := range [][]byte{{}, []byte("hello"), bytes.Repeat([]byte{0xAB}, 4096)} {
		enc, err := Encrypt(pt, k)
		require.NoError(t, err)
		assert.Len(t, enc.IV, IVSize)
		assert.Len(t, enc.Ciphertext, len(pt)+TagSize)

		got, err := Decrypt(enc, k)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestEncrypt_FreshIVEachCall(t *testing.T) {
	k := mustKey(t)
	pt := []byte("same plaintext")

	a, err := Encrypt(pt, k)
	require.NoError(t, err)
	b, err := Encrypt(pt, k)
	require.NoError(t, err)

	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)

	pa, err := Decrypt(a, k)
	require.NoError(t, err)
	pb, err := Decrypt(b, k)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestDecrypt_BitFlipsFail(t *testing.T) {
	k := mustKey(t)
	enc, err := Encrypt([]byte("attack at dawn"), k)
	require.NoError(t, err)

	for i := 0; i < len(enc.Ciphertext)*8; i++ {
		ct := bytes.Clone(enc.Ciphertext)
		ct[i/8] ^= 1 << (i % 8)
		_, err := Decrypt(&EncryptedData{IV: enc.IV, Ciphertext: ct}, k)
		require.ErrorIs(t, err, ErrDecryptionFailed, "ciphertext bit %d", i)
	}

	for i := 0; i < IVSize*8; i++ {
		iv := bytes.Clone(enc.IV)
		iv[i/8] ^= 1 << (i % 8)
		_, err := Decrypt(&EncryptedData{IV: iv, Ciphertext: enc.Ciphertext}, k)
		require.ErrorIs(t, err, ErrDecryptionFailed, "iv bit %d", i)
	}
}

func TestDecrypt_WrongKeyIndistinguishable(t *testing.T) {
	k := mustKey(t)
	enc, err := Encrypt([]byte("secret"), k)
	require.NoError(t, err)

	_, errWrongKey := Decrypt(enc, mustKey(t))

	tampered := &EncryptedData{IV: enc.IV, Ciphertext: bytes.Clone(enc.Ciphertext)}
	tampered.Ciphertext[0] ^= 1
	_, errTampered := Decrypt(tampered, k)

	require.Error(t, errWrongKey)
	assert.Equal(t, errWrongKey.Error(), errTampered.Error())
	assert.Equal(t, common.KindCrypto, common.KindOf(errWrongKey))
}

func TestDecrypt_MalformedInput(t *testing.T) {
	k := mustKey(t)

	_, err := Decrypt(nil, k)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = Decrypt(&EncryptedData{IV: make([]byte, 8), Ciphertext: make([]byte, 32)}, k)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = Decrypt(&EncryptedData{IV: make([]byte, IVSize), Ciphertext: make([]byte, 4)}, k)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestPackUnpack(t *testing.T) {
	k := mustKey(t)
	enc, err := Encrypt([]byte("payload"), k)
	require.NoError(t, err)

	packed := Pack(enc)
	assert.Equal(t, enc.IV, packed[:IVSize])

	got, err := Unpack(packed)
	require.NoError(t, err)
	assert.Equal(t, enc, got)

	_, err = Unpack(packed[:IVSize-1])
	assert.ErrorIs(t, err, ErrInvalidPackedData)
}

func TestEncryptAndPack(t *testing.T) {
	packed, k, err := EncryptAndPack([]byte("generated key"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, Key{}, k)

	pt, err := UnpackAndDecrypt(packed, k)
	require.NoError(t, err)
	assert.Equal(t, []byte("generated key"), pt)

	own := mustKey(t)
	packed, used, err := EncryptAndPack([]byte("own key"), &own)
	require.NoError(t, err)
	assert.Equal(t, own, used)

	_, err = UnpackAndDecrypt(packed, mustKey(t))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerateKey_RandomFailure(t *testing.T) {
	orig := randReader
	randReader = failingReader{}
	t.Cleanup(func() { randReader = orig })

	_, err := GenerateKey()
	assert.ErrorIs(t, err, ErrKeyGeneration)

	_, err = Encrypt([]byte("x"), Key{})
	assert.ErrorIs(t, err, ErrEncryptionFailed)
}

func TestEncryptDecryptJSON(t *testing.T) {
	type side struct {
		Description string `json:"description"`
		Count       int    `json:"count"`
	}
	k := mustKey(t)

	enc, err := EncryptJSON(side{Description: "notes", Count: 2}, k)
	require.NoError(t, err)

	var got side
	require.NoError(t, DecryptJSON(enc, k, &got))
	assert.Equal(t, side{Description: "notes", Count: 2}, got)

	assert.ErrorIs(t, DecryptJSON(enc, mustKey(t), &got), ErrDecryptionFailed)
}
