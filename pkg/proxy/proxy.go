// Package proxy implements the transparent Minecraft Java-Edition
// protocol proxy's traffic pipeline: the client-facing login driver,
// the backend-facing login driver, and the bidirectional pump that
// splices the two together once both are authenticated.
package proxy

import (
	"context"
	"net"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/underlayhq/mcrelay/pkg/auth"
	"github.com/underlayhq/mcrelay/pkg/proto"
)

// Router supplies the initial backend for a newly logged-in player.
// Defined here (rather than imported from pkg/route) so this package
// has no dependency on the routing package — pkg/route depends on
// pkg/proxy for LoggedInInfo/TargetServer, not the other way around.
type Router interface {
	InitialTarget(info LoggedInInfo) (TargetServer, bool)
}

// Config is the subset of host configuration the orchestrator itself
// consumes; pkg/config.Config embeds more than this but satisfies it.
type Config interface {
	statusResponder
	ListenAddr() string
}

// Proxy owns the listener and wires each accepted connection through
// login and into the pump, repeating on migration.
type Proxy struct {
	cfg    Config
	auth   auth.Provider
	router Router

	listener net.Listener
}

// New constructs a Proxy ready to Run. authProvider and router are its
// only plugin points.
func New(cfg Config, authProvider auth.Provider, router Router) *Proxy {
	return &Proxy{cfg: cfg, auth: authProvider, router: router}
}

// Run accepts connections until ctx is canceled. It never throttles or
// caps the number of concurrent accepts.
func (p *Proxy) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", p.cfg.ListenAddr())
	if err != nil {
		return err
	}
	p.listener = ln
	zap.L().Info("listening for connections", zap.String("addr", ln.Addr().String()))

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	group.Go(func() error {
		for {
			nc, err := ln.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
					return err
				}
			}
			go p.handleClient(nc)
		}
	})
	return group.Wait()
}

// Shutdown closes the listener, ending Run's accept loop.
func (p *Proxy) Shutdown() error {
	if p.listener == nil {
		return nil
	}
	return p.listener.Close()
}

// handleClient owns a client socket exclusively from accept to
// disconnect, driving login then pumping, repeating the
// backend-login+pump step on every migration without re-running the
// client login driver or sending a second LoginSuccess.
func (p *Proxy) handleClient(nc net.Conn) {
	client := newConn(nc)
	defer func() { _ = client.Close() }()

	info, err := driveClientLogin(client, p.auth, p.cfg)
	if err != nil {
		logSessionEnd("client login", client, err)
		return
	}

	target, ok := p.router.InitialTarget(info)
	if !ok {
		zap.L().Info("routing provider refused connection", zap.String("user", info.Username))
		return
	}

	if err := client.WritePacket(&proto.SetCompression{Threshold: requiredCompressionThreshold}); err != nil {
		logSessionEnd("set compression", client, err)
		return
	}
	client.SetCompressionThreshold(requiredCompressionThreshold)
	if err := client.WritePacket(&proto.LoginSuccess{UUID: info.UUID, Username: info.Username}); err != nil {
		logSessionEnd("login success", client, err)
		return
	}
	client.SetState(proto.Play)

	player := newConnectedPlayer(info)
	zap.S().Infof("%s logged in, routing to %s", player, target.Address)

	for {
		backend, err := dialBackend(info, target)
		if err != nil {
			logSessionEnd("backend login", client, err)
			return
		}
		player.setCurrentServer(target)

		result := pump(client, backend)
		if result.mig != nil {
			target = result.mig.target
			zap.S().Infof("%s migrating to %s", player, target.Address)
			continue
		}
		if result.err != nil && result.err != errBackendClosed && result.err != errClientClosed {
			logSessionEnd("pump", client, result.err)
		}
		return
	}
}

func logSessionEnd(stage string, c *conn, err error) {
	zap.L().Debug("session ended", zap.String("stage", stage), zap.Stringer("remote", c.RemoteAddr()), zap.Error(err))
}
