package proto

// ScratchBuffer is the per-link reusable buffer a session owns across
// every frame it reads: it grows to exactly the capacity a frame
// payload needs and is never shrunk afterwards, so long-lived sessions
// forwarding play-state traffic don't pay allocator cost per frame.
type ScratchBuffer struct {
	buf []byte
}

// Grow returns a slice of buf sized exactly n, growing the backing array
// if needed. The returned slice is only valid until the next Grow call.
func (s *ScratchBuffer) Grow(n int) []byte {
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	return s.buf[:n]
}
