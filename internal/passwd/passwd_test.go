package passwd

import (
	"errors"
	"strings"
	"testing"
	"unicode"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSalt(t *testing.T) string {
	t.Helper()
	s, err := GenerateSalt()
	require.NoError(t, err)
	return s
}

func TestCheckPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"ok", "blue42", nil},
		{"min length", "ab1c", nil},
		{"max length", strings.Repeat("a", 19) + "1", nil},
		{"multibyte counts runes", "пароль1", nil},
		{"too short", "a1b", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
		{"too long", strings.Repeat("a", 20) + "1", ErrPasswordTooLong},
		{"letters only", "abcdef", ErrPasswordComplexity},
		{"digits only", "987654", ErrPasswordComplexity},
		{"common", "password1", ErrPasswordTooCommon},
		{"common any case", "PassW0rd", ErrPasswordTooCommon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPolicy(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, common.KindValidation, common.KindOf(err))
		})
	}
}

func TestGenerateSalt(t *testing.T) {
	a := mustSalt(t)
	b := mustSalt(t)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 24)
}

func TestHashPassword_Deterministic(t *testing.T) {
	salt := mustSalt(t)

	h1, err := HashPassword("blue42", salt)
	require.NoError(t, err)
	h2, err := HashPassword("blue42", salt)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 44)

	h3, err := HashPassword("blue42", mustSalt(t))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestHashPassword_PolicyFirst(t *testing.T) {
	_, err := HashPassword("abc", "not base64!")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = HashPassword("blue42", "not base64!")
	assert.ErrorIs(t, err, ErrInvalidSalt)
}

func TestValidatePassword(t *testing.T) {
	salt := mustSalt(t)
	hash, err := HashPassword("blue42", salt)
	require.NoError(t, err)

	assert.True(t, ValidatePassword("blue42", hash, salt))
	assert.False(t, ValidatePassword("blue43", hash, salt))
	assert.False(t, ValidatePassword("Blue42", hash, salt))
	assert.False(t, ValidatePassword("blue42", hash, mustSalt(t)))
	assert.False(t, ValidatePassword("blue42", "%%%", salt))
	assert.False(t, ValidatePassword("blue42", hash[:20], salt))
	assert.False(t, ValidatePassword("blue42", hash, "%%%"))
	assert.False(t, ValidatePassword("blue42", "", ""))
}

func TestGenerateRandomPassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		p, err := GenerateRandomPassword()
		require.NoError(t, err)
		assert.Len(t, p, RandomPasswordLength)
		assert.NoError(t, CheckPolicy(p))
		for _, r := range p {
			assert.True(t, unicode.IsLetter(r) || unicode.IsDigit(r), "unexpected rune %q", r)
		}
		seen[p] = true
	}
	assert.Greater(t, len(seen), 45)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestRandomSourceFailure(t *testing.T) {
	orig := randReader
	randReader = failingReader{}
	t.Cleanup(func() { randReader = orig })

	_, err := GenerateSalt()
	assert.ErrorIs(t, err, ErrRandomSource)

	_, err = GenerateRandomPassword()
	assert.ErrorIs(t, err, ErrRandomSource)
}
