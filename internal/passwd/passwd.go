// Package passwd implements the optional edit password that protects a
// document against modification. It is independent of the content key:
// the stored hash proves knowledge of the password and nothing else.
package passwd

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 16
	HashSize   = 32
	Iterations = 100_000

	MinLength = 4
	MaxLength = 20

	RandomPasswordLength = 12
)

var (
	ErrPasswordTooShort   = common.E(common.KindValidation, "passwd: password too short")
	ErrPasswordTooLong    = common.E(common.KindValidation, "passwd: password too long")
	ErrPasswordComplexity = common.E(common.KindValidation, "passwd: password must contain a letter and a digit")
	ErrPasswordTooCommon  = common.E(common.KindValidation, "passwd: password is too common")
	ErrInvalidSalt        = common.E(common.KindValidation, "passwd: invalid salt")
	ErrRandomSource       = common.E(common.KindCrypto, "passwd: random source failed")
)

var randReader io.Reader = rand.Reader

var commonPasswords = map[string]struct{}{
	"password":  {},
	"password1": {},
	"passw0rd":  {},
	"pass1234":  {},
	"qwerty":    {},
	"qwerty1":   {},
	"qwerty123": {},
	"abc123":    {},
	"abcd1234":  {},
	"admin":     {},
	"admin1":    {},
	"admin123":  {},
	"letmein":   {},
	"letmein1":  {},
	"welcome1":  {},
	"test123":   {},
	"test1234":  {},
	"1234":      {},
	"12345":     {},
	"123456":    {},
	"12345678":  {},
	"iloveyou1": {},
	"monkey1":   {},
	"dragon1":   {},
}

// CheckPolicy reports why password is not acceptable as an edit password,
// or nil if it is.
func CheckPolicy(password string) error {
	n := len([]rune(password))
	if n < MinLength {
		return ErrPasswordTooShort
	}
	if n > MaxLength {
		return ErrPasswordTooLong
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrPasswordComplexity
	}

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return ErrPasswordTooCommon
	}
	return nil
}

// GenerateSalt returns SaltSize random bytes, base64 encoded.
func GenerateSalt() (string, error) {
	b, err := common.ReadRandom(randReader, SaltSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// HashPassword enforces the password policy and derives the stored hash with
// PBKDF2-HMAC-SHA256. The result is base64 encoded.
func HashPassword(password, salt string) (string, error) {
	if err := CheckPolicy(password); err != nil {
		return "", err
	}
	return derive(password, salt)
}

func derive(password, salt string) (string, error) {
	s, err := base64.StdEncoding.DecodeString(salt)
	if err != nil || len(s) == 0 {
		return "", ErrInvalidSalt
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	dk := pbkdf2.Key(pw, s, Iterations, HashSize, sha256.New)
	defer common.WipeByteArray(dk)

	return base64.StdEncoding.EncodeToString(dk), nil
}

// ValidatePassword reports whether password matches hash under salt.
// Every failure, including a malformed hash or salt, yields false.
func ValidatePassword(password, hash, salt string) bool {
	want, err := base64.StdEncoding.DecodeString(hash)
	if err != nil || len(want) != HashSize {
		return false
	}

	got, err := derive(password, salt)
	if err != nil {
		return false
	}
	gotRaw, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(gotRaw, want) == 1
}

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
)

// GenerateRandomPassword returns a RandomPasswordLength character password
// that satisfies CheckPolicy.
func GenerateRandomPassword() (string, error) {
	for {
		p, err := randomPassword()
		if err != nil {
			return "", err
		}
		if CheckPolicy(p) == nil {
			return p, nil
		}
	}
}

func randomPassword() (string, error) {
	const alphabet = letters + digits

	out := make([]byte, RandomPasswordLength)

	c, err := pick(letters)
	if err != nil {
		return "", err
	}
	out[0] = c

	if out[1], err = pick(digits); err != nil {
		return "", err
	}

	for i := 2; i < len(out); i++ {
		if out[i], err = pick(alphabet); err != nil {
			return "", err
		}
	}

	// Fisher-Yates
	for i := len(out) - 1; i > 0; i-- {
		j, err := randIntn(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func pick(set string) (byte, error) {
	i, err := randIntn(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randIntn(n int) (int, error) {
	v, err := rand.Int(randReader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return int(v.Int64()), nil
}
