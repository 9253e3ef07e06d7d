// Package route chooses the first backend a newly logged-in player
// lands on.
package route

import "github.com/underlayhq/mcrelay/pkg/proxy"

// Provider supplies the initial backend target for a freshly logged-in
// player. It is not consulted on in-band migration — the pump's chat
// interceptor resolves "/proxy-goto" targets itself.
type Provider interface {
	// InitialTarget returns the backend a player should land on, or
	// ok=false to refuse the connection outright.
	InitialTarget(info proxy.LoggedInInfo) (target proxy.TargetServer, ok bool)
}

// Static routes every player to the same configured backend.
type Static struct {
	Target proxy.TargetServer
}

func (s Static) InitialTarget(proxy.LoggedInInfo) (proxy.TargetServer, bool) {
	return s.Target, true
}
