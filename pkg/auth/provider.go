// Package auth turns a client-supplied username into either an
// immediate login success or an encryption challenge verified against
// the Mojang session service.
package auth

import "github.com/underlayhq/mcrelay/pkg/proto"

// AuthSucceeded is the terminal result of a successful login, whichever
// path produced it.
type AuthSucceeded struct {
	Username string
	UUID     string
}

// StartDecision is returned by Provider.EncryptionStart. Exactly one of
// its two constructors applies; callers type-switch or check Skip != nil.
type StartDecision struct {
	Skip *AuthSucceeded

	// Populated when the provider wants to begin the RSA handshake.
	// Handle is opaque to everyone but the Provider that created it.
	Request *proto.EncryptionRequest
	Handle  any
}

// Provider is the authentication capability a host wires into the
// client-side login driver. OfflineProvider and MojangProvider are the
// two implementations below.
type Provider interface {
	// EncryptionStart turns a freshly-received username into either an
	// immediate success or an encryption challenge to send the client.
	EncryptionStart(name string) (StartDecision, error)

	// EncryptionResponse verifies a client's reply to an encryption
	// challenge previously started with the same handle. Implementations
	// that never hand out a Request from EncryptionStart should return
	// proto.NewAuthError(proto.Unsupported, nil).
	EncryptionResponse(handle any, res *proto.EncryptionResponse) (AuthSucceeded, error)
}
