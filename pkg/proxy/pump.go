package proxy

import (
	"errors"
	"io"
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/underlayhq/mcrelay/pkg/proto"
)

// Exit reasons a pump iteration can end with. Migration is deliberately
// not an error: it is a distinct, non-exceptional control return.
var (
	errBackendClosed = errors.New("backend closed")
	errClientClosed  = errors.New("client closed")
)

// migration carries the resolved target for an in-band "/proxy-goto".
type migration struct {
	target TargetServer
}

func (*migration) Error() string { return "migrating to another backend" }

// pumpResult is what one pump() call yields to the orchestrator.
type pumpResult struct {
	err error
	mig *migration
}

// pump splices client and backend once both are logged in. Each
// direction runs on its own goroutine and reports its outcome back
// here; only this function closes the sockets. The backend is always
// closed; the client is closed too unless the outcome is a migration,
// in which case it stays open for the orchestrator to reuse.
func pump(client, backend *conn) pumpResult {
	results := make(chan pumpResult, 2)

	go func() { results <- pumpDirection(backend, client, false) }()
	go func() { results <- pumpDirection(client, backend, true) }()

	first := <-results
	if first.mig == nil {
		_ = client.Close()
	}
	_ = backend.Close()
	<-results // drain the other goroutine so it doesn't leak past this call
	return first
}

// pumpDirection forwards frames from src to dst until error, EOF, or
// (when fromClient) a migration command fires. fromClient selects the
// chat-interception behavior that only applies to the client→backend
// direction; the backend→client direction always forwards opaquely.
func pumpDirection(src, dst *conn, fromClient bool) pumpResult {
	for {
		frame, err := src.ReadFrame()
		if err != nil {
			if isClosedOrEOF(err) {
				if fromClient {
					return pumpResult{err: errClientClosed}
				}
				return pumpResult{err: errBackendClosed}
			}
			return pumpResult{err: err}
		}

		if !fromClient {
			// Backend → client: always forward opaquely, never decode.
			if err := dst.WriteFrame(frame); err != nil {
				return pumpResult{err: err}
			}
			continue
		}

		id, known := frame.CheapID()
		if !known || id != (&proto.Chat{}).ID() {
			if err := dst.WriteFrame(frame); err != nil {
				return pumpResult{err: err}
			}
			continue
		}

		var chat proto.Chat
		if err := frame.Decode(&chat); err != nil {
			return pumpResult{err: err}
		}

		switch {
		case chat.Message == "/proxy-ping":
			reply := &proto.Chat{
				Message:  proto.PlainText("Pong"),
				Position: proto.ChatPositionChat,
				Outbound: true,
			}
			if err := src.WritePacket(reply); err != nil {
				return pumpResult{err: err}
			}
			// Not forwarded to backend.

		case strings.HasPrefix(chat.Message, "/proxy-goto "):
			hostPort := strings.TrimPrefix(chat.Message, "/proxy-goto ")
			host, port, err := net.SplitHostPort(hostPort)
			if err != nil {
				zap.L().Debug("malformed /proxy-goto target", zap.String("arg", hostPort), zap.Error(err))
				continue
			}
			portNum, err := parsePort(port)
			if err != nil {
				zap.L().Debug("malformed /proxy-goto port", zap.String("arg", hostPort), zap.Error(err))
				continue
			}
			return pumpResult{mig: &migration{target: TargetServer{
				Address:       hostPort,
				HandshakeHost: host,
				HandshakePort: portNum,
			}}}

		default:
			if err := dst.WritePacket(&chat); err != nil {
				return pumpResult{err: err}
			}
		}
	}
}

func parsePort(s string) (int16, error) {
	var n int
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New("invalid port")
		}
		n = n*10 + int(r-'0')
	}
	if n > 65535 {
		return 0, errors.New("port out of range")
	}
	return int16(n), nil
}

func isClosedOrEOF(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var ioErr *proto.IoError
	if errors.As(err, &ioErr) {
		return errors.Is(ioErr.Err, io.EOF) || errors.Is(ioErr.Err, net.ErrClosed) || errors.Is(ioErr.Err, io.ErrClosedPipe)
	}
	return false
}
