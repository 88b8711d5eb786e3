package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	sentinel := E(KindValidation, "too big")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("x"), KindUnknown},
		{"sentinel", sentinel, KindValidation},
		{"wrapped sentinel", fmt.Errorf("file a.txt: %w", sentinel), KindValidation},
		{"wrap helper", Wrap(KindStorage, "put failed", errors.New("503")), KindStorage},
		{"not found", fmt.Errorf("get: %w", E(KindNotFound, "no such gist")), KindNotFound},
		{"conflict", fmt.Errorf("update: %w", ErrVersionConflict), KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindStorage, "storage operation failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage operation failed: connection reset", err.Error())
	assert.Nil(t, Wrap(KindStorage, "x", nil))
}

func TestErrorsIs_SentinelIdentity(t *testing.T) {
	a := E(KindValidation, "same text")
	b := E(KindValidation, "same text")

	assert.True(t, errors.Is(fmt.Errorf("ctx: %w", a), a))
	assert.False(t, errors.Is(a, b))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestKind_ClientCaused(t *testing.T) {
	for _, k := range []Kind{KindValidation, KindFormat, KindCrypto, KindAuth, KindNotFound, KindConflict} {
		assert.True(t, k.ClientCaused(), k.String())
	}
	for _, k := range []Kind{KindUnknown, KindStorage} {
		assert.False(t, k.ClientCaused(), k.String())
	}
}
