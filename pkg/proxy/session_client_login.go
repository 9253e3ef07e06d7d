package proxy

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/underlayhq/mcrelay/pkg/auth"
	"github.com/underlayhq/mcrelay/pkg/proto"
)

// statusResponder supplies the JSON body a StatusRequest is answered
// with. The host configuration implements this.
type statusResponder interface {
	StatusJSON() string
}

// driveClientLogin runs the handshake→status-or-login state machine on
// a freshly accepted client socket. It returns once the socket either
// authenticates (login path) or is done (status path, EOF after Pong
// treated as success).
func driveClientLogin(c *conn, authProvider auth.Provider, status statusResponder) (LoggedInInfo, error) {
	var (
		protocol  int32
		authHandle any
	)

	for {
		frame, err := c.ReadFrame()
		if err != nil {
			return LoggedInInfo{}, err
		}
		id, err := frame.ID()
		if err != nil {
			return LoggedInInfo{}, err
		}
		st := c.State()

		switch {
		case st == proto.Handshaking && id == (&proto.Handshake{}).ID():
			var hs proto.Handshake
			if err := frame.Decode(&hs); err != nil {
				return LoggedInInfo{}, err
			}
			protocol = hs.Protocol
			if hs.NextState == 2 {
				c.SetState(proto.Login)
			} else {
				c.SetState(proto.Status)
			}

		case st == proto.Status && id == (&proto.StatusRequest{}).ID():
			var req proto.StatusRequest
			if err := frame.Decode(&req); err != nil {
				return LoggedInInfo{}, err
			}
			if err := c.WritePacket(&proto.StatusResponse{Response: status.StatusJSON()}); err != nil {
				return LoggedInInfo{}, err
			}

		case st == proto.Status && id == (&proto.Ping{}).ID():
			var ping proto.Ping
			if err := frame.Decode(&ping); err != nil {
				return LoggedInInfo{}, err
			}
			if err := c.WritePacket(&proto.Pong{Payload: ping.Payload}); err != nil {
				return LoggedInInfo{}, err
			}
			// The client closes right after receiving the Pong; EOF here is
			// the expected, successful end of the status path.
			if _, err := c.ReadFrame(); err != nil {
				if errors.Is(err, io.EOF) || isIoEOF(err) {
					return LoggedInInfo{}, io.EOF
				}
				return LoggedInInfo{}, err
			}
			return LoggedInInfo{}, io.EOF

		case st == proto.Login && id == (&proto.LoginStart{}).ID():
			var start proto.LoginStart
			if err := frame.Decode(&start); err != nil {
				return LoggedInInfo{}, err
			}
			decision, err := authProvider.EncryptionStart(start.Name)
			if err != nil {
				return LoggedInInfo{}, err
			}
			if decision.Skip != nil {
				return LoggedInInfo{
					Username: decision.Skip.Username,
					UUID:     decision.Skip.UUID,
					Protocol: protocol,
				}, nil
			}
			authHandle = decision.Handle
			if err := c.WritePacket(decision.Request); err != nil {
				return LoggedInInfo{}, err
			}

		case st == proto.Login && id == (&proto.EncryptionResponse{}).ID():
			if authHandle == nil {
				return LoggedInInfo{}, proto.NewProtocolError(proto.AuthPluginDidNotRequestEncryption)
			}
			var res proto.EncryptionResponse
			if err := frame.Decode(&res); err != nil {
				return LoggedInInfo{}, err
			}
			succeeded, err := authProvider.EncryptionResponse(authHandle, &res)
			if err != nil {
				return LoggedInInfo{}, err
			}
			return LoggedInInfo{
				Username: succeeded.Username,
				UUID:     succeeded.UUID,
				Protocol: protocol,
			}, nil

		default:
			zap.L().Debug("incorrect (state, id) combo on client login", zap.Stringer("state", st), zap.Int32("id", id))
			return LoggedInInfo{}, proto.NewStateIDError(st, id)
		}
	}
}

func isIoEOF(err error) bool {
	var ioErr *proto.IoError
	if !errors.As(err, &ioErr) {
		return false
	}
	return errors.Is(ioErr.Err, io.EOF) || errors.Is(ioErr.Err, io.ErrClosedPipe)
}
