package proto

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteVarIntBoundaries(t *testing.T) {
	cases := []struct {
		value int32
		want  []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{2147483647, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x07}},
		{-1, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, c.value))
		assert.Equal(t, c.want, buf.Bytes())
	}
}

func TestVarIntRoundtrip(t *testing.T) {
	values := []int32{0, 1, -1, 127, 128, -128, 300, 1 << 20, -(1 << 20), 2147483647, -2147483648}
	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, v))
		assert.EqualValues(t, VarIntSize(v), buf.Len())

		got, n, err := ReadVarInt(bufio.NewReader(&buf))
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.EqualValues(t, VarIntSize(v), n)
	}
}

func TestReadVarIntRejectsTooLong(t *testing.T) {
	// Five bytes all with the continuation bit set, no terminator.
	raw := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	_, _, err := ReadVarInt(bufio.NewReader(bytes.NewReader(raw)))
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, VarintTooLong, protoErr.Kind)
}

func TestReadWriteBytesRoundtrip(t *testing.T) {
	payloads := [][]byte{{}, {1, 2, 3}, bytes.Repeat([]byte{0xAB}, 300)}
	for _, p := range payloads {
		var buf bytes.Buffer
		require.NoError(t, WriteBytes(&buf, p))
		got, err := ReadBytes(bufio.NewReader(&buf), 1<<20)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestReadBytesRejectsOverLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBytes(&buf, make([]byte, 300)))
	_, err := ReadBytes(bufio.NewReader(&buf), 255)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, LengthExceedsLimit, protoErr.Kind)
}

func TestReadStringLossyDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBytes(&buf, []byte{0xFF, 0xFE, 'h', 'i'}))
	s, err := ReadString(bufio.NewReader(&buf), 255)
	require.NoError(t, err)
	assert.Contains(t, s, "hi")
}

func TestReadStringRejectsTooManyChars(t *testing.T) {
	var buf bytes.Buffer
	name := make([]byte, 17)
	for i := range name {
		name[i] = 'a'
	}
	require.NoError(t, WriteBytes(&buf, name))
	_, err := ReadString(bufio.NewReader(&buf), 16)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, LengthExceedsLimit, protoErr.Kind)
}

func TestFixedWidthIntRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInt16(&buf, -1234))
	got16, err := ReadInt16(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, -1234, got16)

	buf.Reset()
	require.NoError(t, WriteInt64(&buf, 1<<40))
	got64, err := ReadInt64(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, 1<<40, got64)
}
