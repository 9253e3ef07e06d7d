package proxy

import (
	"fmt"
	"sync"
)

// Player is the host-visible handle to a logged-in session: identity
// plus the backend it's currently routed to. It carries no gameplay
// bookkeeping (mod info, plugin channels, tab list, resource packs) —
// this proxy never decodes Play-state traffic.
type Player interface {
	fmt.Stringer

	Username() string
	UUID() string
	Protocol() int32

	// CurrentServer returns the backend this player is presently routed
	// to, if any.
	CurrentServer() (TargetServer, bool)
}

type connectedPlayer struct {
	info LoggedInInfo

	mu      sync.RWMutex
	current *TargetServer
}

func newConnectedPlayer(info LoggedInInfo) *connectedPlayer {
	return &connectedPlayer{info: info}
}

func (p *connectedPlayer) Username() string { return p.info.Username }
func (p *connectedPlayer) UUID() string     { return p.info.UUID }
func (p *connectedPlayer) Protocol() int32  { return p.info.Protocol }

func (p *connectedPlayer) String() string {
	return fmt.Sprintf("%s (%s)", p.info.Username, p.info.UUID)
}

func (p *connectedPlayer) CurrentServer() (TargetServer, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return TargetServer{}, false
	}
	return *p.current, true
}

func (p *connectedPlayer) setCurrentServer(t TargetServer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = &t
}
