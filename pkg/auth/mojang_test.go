package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinecraftHexDigestKnownVectors(t *testing.T) {
	// Known Mojang test vectors for the two's-complement signed hex
	// digest (notch/jeb_/simon independently published these).
	cases := []struct {
		secret, key string
		want        string
	}{
		{"Notch", "", "4ed1f46bbe04bc756bcb17c0c7ce3e4632f06a48"},
		{"jeb_", "", "-7c9d5b0044c130109a5d7b5fb5c317c02b4e28c1"},
		{"simon", "", "88e16a1019277b15d58faf0541e11910eb756f6"},
	}
	for _, c := range cases {
		got := minecraftHexDigest([]byte(c.secret), []byte(c.key))
		assert.Equal(t, c.want, got, c.secret)
	}
}

func TestMojangProviderEncryptionStart(t *testing.T) {
	p, err := NewMojangProvider()
	require.NoError(t, err)

	decision, err := p.EncryptionStart("Alex")
	require.NoError(t, err)
	require.Nil(t, decision.Skip)
	require.NotNil(t, decision.Request)
	assert.Len(t, decision.Request.VerifyToken, 4)
	assert.NotEmpty(t, decision.Request.PublicKey)

	h, ok := decision.Handle.(*mojangHandle)
	require.True(t, ok)
	assert.Equal(t, "Alex", h.name)
	assert.Equal(t, decision.Request.VerifyToken, h.verifyToken)
}

func TestMojangProviderRejectsForeignHandle(t *testing.T) {
	p, err := NewMojangProvider()
	require.NoError(t, err)
	_, err = p.EncryptionResponse("not-a-handle", nil)
	require.Error(t, err)
}
