package proxy

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/underlayhq/mcrelay/pkg/proto"
)

func TestPumpDirectionForwardsBackendOpaquely(t *testing.T) {
	srcProxy, srcFake := net.Pipe()
	dstProxy, dstFake := net.Pipe()
	defer srcFake.Close()
	defer dstFake.Close()

	done := make(chan pumpResult, 1)
	go func() { done <- pumpDirection(newConn(srcProxy), newConn(dstProxy), false) }()

	fakeSrc := newConn(srcFake)
	require.NoError(t, fakeSrc.WritePacket(&proto.Chat{Message: "server broadcast", Position: proto.ChatPositionSystem, Outbound: true}))

	fakeDst := newConn(dstFake)
	frame, err := fakeDst.ReadFrame()
	require.NoError(t, err)
	var got proto.Chat
	got.Outbound = true
	require.NoError(t, frame.Decode(&got))
	assert.Equal(t, "server broadcast", got.Message)

	_ = srcFake.Close()
	<-done
}

func TestPumpDirectionProxyPingNotForwarded(t *testing.T) {
	srcProxy, srcFake := net.Pipe()
	dstProxy, dstFake := net.Pipe()
	defer srcFake.Close()
	defer dstFake.Close()

	done := make(chan pumpResult, 1)
	go func() { done <- pumpDirection(newConn(srcProxy), newConn(dstProxy), true) }()

	fakeSrc := newConn(srcFake)
	require.NoError(t, fakeSrc.WritePacket(&proto.Chat{Message: "/proxy-ping"}))

	reply, err := fakeSrc.ReadFrame()
	require.NoError(t, err)
	var pong proto.Chat
	pong.Outbound = true
	require.NoError(t, reply.Decode(&pong))
	assert.Contains(t, pong.Message, "Pong")

	forwarded := make(chan struct{})
	go func() {
		_, _ = newConn(dstFake).ReadFrame()
		close(forwarded)
	}()
	select {
	case <-forwarded:
		t.Fatal("proxy-ping must not be forwarded to the backend")
	case <-time.After(100 * time.Millisecond):
	}

	_ = srcFake.Close()
	<-done
}

func TestPumpDirectionForwardsOrdinaryChat(t *testing.T) {
	srcProxy, srcFake := net.Pipe()
	dstProxy, dstFake := net.Pipe()
	defer srcFake.Close()
	defer dstFake.Close()

	done := make(chan pumpResult, 1)
	go func() { done <- pumpDirection(newConn(srcProxy), newConn(dstProxy), true) }()

	fakeSrc := newConn(srcFake)
	require.NoError(t, fakeSrc.WritePacket(&proto.Chat{Message: "hello world"}))

	fakeDst := newConn(dstFake)
	frame, err := fakeDst.ReadFrame()
	require.NoError(t, err)
	var got proto.Chat
	require.NoError(t, frame.Decode(&got))
	assert.Equal(t, "hello world", got.Message)

	_ = srcFake.Close()
	<-done
}

func TestPumpDirectionMigrationCommand(t *testing.T) {
	srcProxy, srcFake := net.Pipe()
	dstProxy, _ := net.Pipe()
	defer srcFake.Close()

	done := make(chan pumpResult, 1)
	go func() { done <- pumpDirection(newConn(srcProxy), newConn(dstProxy), true) }()

	fakeSrc := newConn(srcFake)
	require.NoError(t, fakeSrc.WritePacket(&proto.Chat{Message: "/proxy-goto 10.0.0.2:25565"}))

	result := <-done
	require.NotNil(t, result.mig)
	assert.Equal(t, "10.0.0.2:25565", result.mig.target.Address)
	assert.Equal(t, "10.0.0.2", result.mig.target.HandshakeHost)
	assert.Equal(t, int16(25565), result.mig.target.HandshakePort)
}
