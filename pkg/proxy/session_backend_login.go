package proxy

import (
	"net"
	"time"

	"github.com/underlayhq/mcrelay/pkg/proto"
)

// requiredCompressionThreshold is the fixed threshold the proxy
// advertises to clients and requires every backend to negotiate
// exactly, so the pump can forward compressed frames between the two
// links without ever having to recompress them.
const requiredCompressionThreshold = 256

// dialBackend opens a connection to target, replays the handshake and
// login-start as info, and drives the backend's login state machine to
// completion. On success it returns the backend conn ready for the
// pump, already in the Play state.
func dialBackend(info LoggedInInfo, target TargetServer) (*conn, error) {
	nc, err := net.DialTimeout("tcp", target.Address, 10*time.Second)
	if err != nil {
		return nil, proto.WrapIo(err)
	}
	c := newConn(nc)

	if err := c.WritePacket(&proto.Handshake{
		Protocol:  info.Protocol,
		Address:   target.HandshakeHost,
		Port:      target.HandshakePort,
		NextState: 2,
	}); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.SetState(proto.Login)

	if err := c.WritePacket(&proto.LoginStart{Name: info.Username}); err != nil {
		_ = c.Close()
		return nil, err
	}

	for {
		frame, err := c.ReadFrame()
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		id, err := frame.ID()
		if err != nil {
			_ = c.Close()
			return nil, err
		}

		switch id {
		case (&proto.SetCompression{}).ID():
			var sc proto.SetCompression
			if err := frame.Decode(&sc); err != nil {
				_ = c.Close()
				return nil, err
			}
			c.SetCompressionThreshold(sc.Threshold)

		case (&proto.Disconnect{}).ID():
			var dc proto.Disconnect
			if err := frame.Decode(&dc); err != nil {
				_ = c.Close()
				return nil, err
			}
			_ = c.Close()
			return nil, &disconnectError{Reason: dc.Reason}

		case (&proto.LoginSuccess{}).ID():
			var ls proto.LoginSuccess
			if err := frame.Decode(&ls); err != nil {
				_ = c.Close()
				return nil, err
			}
			c.mu.RLock()
			threshold := c.threshold
			c.mu.RUnlock()
			if threshold == nil {
				_ = c.Close()
				return nil, proto.NewProtocolError(proto.BadCompressionThreshold)
			}
			if *threshold != requiredCompressionThreshold {
				_ = c.Close()
				return nil, proto.NewBadCompressionThreshold(*threshold)
			}
			c.SetState(proto.Play)
			return c, nil

		case (&proto.EncryptionRequest{}).ID():
			_ = c.Close()
			return nil, proto.NewProtocolError(proto.ServerIsInOnlineMode)

		default:
			_ = c.Close()
			return nil, proto.NewStateIDError(c.State(), id)
		}
	}
}

// disconnectError carries a backend's login-time Disconnect reason up
// to the orchestrator.
type disconnectError struct {
	Reason string
}

func (e *disconnectError) Error() string { return "backend disconnected: " + e.Reason }
