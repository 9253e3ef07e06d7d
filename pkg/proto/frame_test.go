package proto

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threshPtr(v int32) *int32 { return &v }

func TestFrameRoundtripAcrossThresholds(t *testing.T) {
	thresholds := []*int32{nil, threshPtr(1), threshPtr(256), threshPtr(65536)}
	for _, th := range thresholds {
		pkt := &Chat{Message: "hello from the pump", Outbound: false}

		var wire bytes.Buffer
		require.NoError(t, WritePacket(&wire, th, pkt))

		var scratch ScratchBuffer
		frame, err := ReadFrame(bufio.NewReader(&wire), th, &scratch)
		require.NoError(t, err)

		got := &Chat{}
		require.NoError(t, frame.Decode(got))
		assert.Equal(t, pkt.Message, got.Message)
	}
}

func TestFrameFastPathPreservation(t *testing.T) {
	threshold := threshPtr(64)
	bigMessage := strings.Repeat("x", 512)
	pkt := &Chat{Message: bigMessage}

	var wire bytes.Buffer
	require.NoError(t, WritePacket(&wire, threshold, pkt))
	original := append([]byte(nil), wire.Bytes()...)

	var scratch ScratchBuffer
	frame, err := ReadFrame(bufio.NewReader(bytes.NewReader(original)), threshold, &scratch)
	require.NoError(t, err)

	var rewritten bytes.Buffer
	require.NoError(t, frame.WriteTo(&rewritten, threshold))
	assert.Equal(t, original, rewritten.Bytes(), "compressed frame forwarded through the same threshold must be byte-identical")
}

func TestFrameCheapIDNeverDecompresses(t *testing.T) {
	threshold := threshPtr(8)
	pkt := &Chat{Message: strings.Repeat("y", 200)}
	var wire bytes.Buffer
	require.NoError(t, WritePacket(&wire, threshold, pkt))

	var scratch ScratchBuffer
	frame, err := ReadFrame(bufio.NewReader(&wire), threshold, &scratch)
	require.NoError(t, err)

	_, known := frame.CheapID()
	assert.False(t, known, "a compressed frame must never report a cheap id")
}

func TestFrameRecompressionPathDecompresses(t *testing.T) {
	threshold := threshPtr(8)
	pkt := &Chat{Message: strings.Repeat("z", 100)}
	var wire bytes.Buffer
	require.NoError(t, WritePacket(&wire, threshold, pkt))

	var scratch ScratchBuffer
	frame, err := ReadFrame(bufio.NewReader(&wire), threshold, &scratch)
	require.NoError(t, err)

	var plainOut bytes.Buffer
	require.NoError(t, frame.WriteTo(&plainOut, nil))

	var scratch2 ScratchBuffer
	plainFrame, err := ReadFrame(bufio.NewReader(&plainOut), nil, &scratch2)
	require.NoError(t, err)
	got := &Chat{}
	require.NoError(t, plainFrame.Decode(got))
	assert.Equal(t, pkt.Message, got.Message)
}

func TestReadFrameRejectsZeroLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVarInt(&buf, 0))
	var scratch ScratchBuffer
	_, err := ReadFrame(bufio.NewReader(&buf), nil, &scratch)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestWrongPacketIDRejected(t *testing.T) {
	threshold := threshPtr(256)
	var wire bytes.Buffer
	require.NoError(t, WritePacket(&wire, threshold, &LoginStart{Name: "Alex"}))

	var scratch ScratchBuffer
	frame, err := ReadFrame(bufio.NewReader(&wire), threshold, &scratch)
	require.NoError(t, err)

	err = frame.Decode(&SetCompression{})
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, WrongPacketID, protoErr.Kind)
}
