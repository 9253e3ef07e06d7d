package proxy

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"go.uber.org/atomic"

	"github.com/underlayhq/mcrelay/pkg/proto"
)

// ErrClosedConn indicates a connection is already closed.
var ErrClosedConn = errors.New("connection is closed")

// conn is one leg of the proxy's traffic pipeline — either the
// player-facing socket or the current backend socket — wrapping
// proto.Frame-based framing, a per-link compression threshold, and a
// reusable scratch buffer that only ever grows.
type conn struct {
	c net.Conn

	r *bufio.Reader
	w *bufio.Writer

	scratch proto.ScratchBuffer

	mu        sync.RWMutex
	state     proto.State
	protocol  int32
	threshold *int32 // nil until SetCompressionThreshold is called

	closeOnce sync.Once
	closed    atomic.Bool
}

func newConn(base net.Conn) *conn {
	return &conn{
		c:     base,
		r:     bufio.NewReader(base),
		w:     bufio.NewWriter(base),
		state: proto.Handshaking,
	}
}

// ReadFrame reads the next frame honoring the link's negotiated
// compression threshold. The returned frame's payload aliases this
// connection's scratch buffer and is only valid until the next call to
// ReadFrame.
func (c *conn) ReadFrame() (*proto.Frame, error) {
	c.mu.RLock()
	threshold := c.threshold
	c.mu.RUnlock()
	return proto.ReadFrame(c.r, threshold, &c.scratch)
}

// WritePacket serializes and frames p, then flushes.
func (c *conn) WritePacket(p proto.Packet) (err error) {
	if c.Closed() {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	c.mu.RLock()
	threshold := c.threshold
	c.mu.RUnlock()
	if err = proto.WritePacket(c.w, threshold, p); err != nil {
		return err
	}
	return c.flush()
}

// WriteFrame re-emits a frame already read from the other leg, honoring
// this link's own threshold. This is the pump's opaque-forward path.
func (c *conn) WriteFrame(f *proto.Frame) (err error) {
	if c.Closed() {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	c.mu.RLock()
	threshold := c.threshold
	c.mu.RUnlock()
	if err = f.WriteTo(c.w, threshold); err != nil {
		return err
	}
	return c.flush()
}

func (c *conn) flush() error {
	return c.w.Flush()
}

func (c *conn) closeOnErr(err error) {
	if err == nil {
		return
	}
	_ = c.Close()
}

// SetCompressionThreshold enables length-then-uncompressed-size framing
// on this link from this point on.
func (c *conn) SetCompressionThreshold(threshold int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = &threshold
}

func (c *conn) State() proto.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *conn) SetState(s proto.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *conn) Protocol() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.protocol
}

func (c *conn) SetProtocol(p int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.protocol = p
}

func (c *conn) RemoteAddr() net.Addr { return c.c.RemoteAddr() }

func (c *conn) Closed() bool { return c.closed.Load() }

// Close closes the underlying socket. Safe to call more than once; only
// the first call actually closes.
func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.c.Close()
	})
	if err == nil && c.closed.Load() {
		return nil
	}
	return err
}
