package proto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeRoundtrip(t *testing.T) {
	h := &Handshake{Protocol: 340, Address: "localhost", Port: 25565, NextState: 2}
	var buf bytes.Buffer
	require.NoError(t, h.WriteTo(&buf))

	got := &Handshake{}
	require.NoError(t, got.ReadFrom(&buf))
	assert.Equal(t, h, got)
}

func TestLoginStartRejectsLongName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "012345678901234567")) // 18 chars > 16
	ls := &LoginStart{}
	err := ls.ReadFrom(&buf)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, LengthExceedsLimit, protoErr.Kind)
}

func TestLoginStart17CharsRejected(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "aaaaaaaaaaaaaaaaa")) // 17 chars
	ls := &LoginStart{}
	err := ls.ReadFrom(&buf)
	require.Error(t, err)
}

func TestSetCompressionRoundtrip(t *testing.T) {
	sc := &SetCompression{Threshold: 256}
	var buf bytes.Buffer
	require.NoError(t, sc.WriteTo(&buf))
	got := &SetCompression{}
	require.NoError(t, got.ReadFrom(&buf))
	assert.Equal(t, int32(256), got.Threshold)
}
