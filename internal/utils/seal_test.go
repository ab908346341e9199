package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealRoundTrip(t *testing.T) {
	s, err := NewSealer("correct horse battery staple")
	require.NoError(t, err)

	for _, in := range []string{"", "x", "sk_live_abcdef1234", "ünïcödé ✓", string(make([]byte, 4096))} {
		sealed, err := s.SealString(in)
		require.NoError(t, err)
		out, err := s.OpenString(sealed)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestSealUsesFreshNonce(t *testing.T) {
	s, err := NewSealer("k")
	require.NoError(t, err)
	a, _ := s.SealString("same")
	b, _ := s.SealString("same")
	assert.NotEqual(t, a, b)
}

func TestSealNil(t *testing.T) {
	s, err := NewSealer("k")
	require.NoError(t, err)
	out, err := s.Seal(nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
	out, err = s.Open(nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestOpenTamperedTag(t *testing.T) {
	s, err := NewSealer("k")
	require.NoError(t, err)
	sealed, err := s.SealString("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[nonceSize] ^= 0x01 // first tag byte
	_, err = s.OpenString(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrSealedAuth)
}

func TestOpenWrongKey(t *testing.T) {
	a, _ := NewSealer("one")
	b, _ := NewSealer("two")
	sealed, err := a.SealString("secret")
	require.NoError(t, err)
	_, err = b.OpenString(sealed)
	assert.ErrorIs(t, err, ErrSealedAuth)
}

func TestOpenMalformed(t *testing.T) {
	s, _ := NewSealer("k")
	_, err := s.OpenString("%%%not-base64")
	assert.ErrorIs(t, err, ErrSealedMalformed)
	_, err = s.OpenString(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrSealedMalformed)
}

func TestNewSealerRequiresPassphrase(t *testing.T) {
	_, err := NewSealer("")
	assert.ErrorIs(t, err, ErrNoPassphrase)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "**************1234", MaskSecret("sk_live_abcdef1234"))
	assert.Equal(t, "****", MaskSecret("abcd"))
	assert.Equal(t, "**", MaskSecret("ab"))
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "*2345", MaskSecret("12345"))
}
