package proto

import "fmt"

// IoError wraps any underlying transport failure. It is always fatal to
// the current session.
type IoError struct {
	Err error
}

func (e *IoError) Error() string { return fmt.Sprintf("io: %v", e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

func WrapIo(err error) error {
	if err == nil {
		return nil
	}
	return &IoError{Err: err}
}

// ProtocolErrorKind enumerates the fatal protocol-level error kinds a
// session can encounter while decoding or driving the state machine.
type ProtocolErrorKind int

const (
	VarintTooLong ProtocolErrorKind = iota
	LengthExceedsLimit
	WrongPacketID
	TrailingBytes
	IncorrectStateIDCombo
	AuthPluginDidNotRequestEncryption
	BadCompressionThreshold
	ServerIsInOnlineMode
)

func (k ProtocolErrorKind) String() string {
	switch k {
	case VarintTooLong:
		return "VarintTooLong"
	case LengthExceedsLimit:
		return "LengthExceedsLimit"
	case WrongPacketID:
		return "WrongPacketID"
	case TrailingBytes:
		return "TrailingBytes"
	case IncorrectStateIDCombo:
		return "IncorrectStateIdCombo"
	case AuthPluginDidNotRequestEncryption:
		return "AuthPluginDidNotRequestEncryption"
	case BadCompressionThreshold:
		return "BadCompressionThreshold"
	case ServerIsInOnlineMode:
		return "ServerIsInOnlineMode"
	default:
		return "Unknown"
	}
}

// ProtocolError is a fatal, well-typed protocol violation. State and ID
// are populated for IncorrectStateIDCombo; Got is populated for
// BadCompressionThreshold when a threshold was negotiated, and nil when
// none was.
type ProtocolError struct {
	Kind  ProtocolErrorKind
	State State
	ID    int32
	Got   *int32
}

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case IncorrectStateIDCombo:
		return fmt.Sprintf("protocol: incorrect (state, id) combo: (%s, 0x%02X)", e.State, e.ID)
	case BadCompressionThreshold:
		if e.Got != nil {
			return fmt.Sprintf("protocol: bad compression threshold: got %d", *e.Got)
		}
		return "protocol: bad compression threshold"
	default:
		return fmt.Sprintf("protocol: %s", e.Kind)
	}
}

func NewProtocolError(kind ProtocolErrorKind) error {
	return &ProtocolError{Kind: kind}
}

func NewStateIDError(state State, id int32) error {
	return &ProtocolError{Kind: IncorrectStateIDCombo, State: state, ID: id}
}

func NewBadCompressionThreshold(got int32) error {
	v := got
	return &ProtocolError{Kind: BadCompressionThreshold, Got: &v}
}

// AuthErrorKind enumerates the fatal-to-the-login-attempt error kinds the
// authentication provider can return.
type AuthErrorKind int

const (
	BadVerifyToken AuthErrorKind = iota
	BadSharedSecret
	RsaFailure
	TransportFailure
	Unsupported
)

func (k AuthErrorKind) String() string {
	switch k {
	case BadVerifyToken:
		return "BadVerifyToken"
	case BadSharedSecret:
		return "BadSharedSecret"
	case RsaFailure:
		return "Rsa"
	case TransportFailure:
		return "Transport"
	case Unsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// AuthError carries a cause chain back from a failed login attempt.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

func NewAuthError(kind AuthErrorKind, cause error) error {
	return &AuthError{Kind: kind, Err: cause}
}
