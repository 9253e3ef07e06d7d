package proto

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// frameKind tags which of the two wire shapes a Frame currently holds.
// A Compressed frame promotes itself to carrying decoded id/payload the
// first time something actually needs the packet id or body (ID, Decode,
// or a recompression WriteTo); CheapID and opaque WriteTo never trigger
// that promotion, which lets the pump forward unrecognized compressed
// frames without ever paying for inflate.
type frameKind int

const (
	framePlain frameKind = iota
	frameCompressed
)

// Frame is one packet as read off the wire, in whichever of the two
// states ReadFrame produced it in.
type Frame struct {
	kind frameKind

	// Valid once kind==framePlain, or once a Compressed frame has been
	// decompressed.
	id      int32
	payload []byte
	known   bool

	// Valid only while kind==frameCompressed and !known.
	uncompressedSize int32
	raw              []byte
}

// ReadFrame reads one frame from src, honoring threshold (nil means no
// compression negotiated on this link yet). scratch is grown in place
// and reused; the returned Frame's payload/raw slices alias it and are
// only valid until the next ReadFrame call on the same scratch buffer.
func ReadFrame(src ByteReader, threshold *int32, scratch *ScratchBuffer) (*Frame, error) {
	if threshold == nil {
		return readPlainFrame(src, scratch)
	}

	total, _, err := ReadVarInt(src)
	if err != nil {
		return nil, err
	}
	if total < 1 {
		return nil, NewProtocolError(LengthExceedsLimit)
	}
	dataLen, dataLenSize, err := ReadVarInt(src)
	if err != nil {
		return nil, err
	}
	remaining := total - int32(dataLenSize)
	if remaining < 0 {
		return nil, NewProtocolError(LengthExceedsLimit)
	}
	body := scratch.Grow(int(remaining))
	if _, err := io.ReadFull(src, body); err != nil {
		return nil, WrapIo(err)
	}

	if dataLen == 0 {
		// Uncompressed-despite-being-compression-framed: parse (id, payload)
		// directly out of body.
		id, payload, err := splitIDPayload(body)
		if err != nil {
			return nil, err
		}
		return &Frame{kind: framePlain, known: true, id: id, payload: payload}, nil
	}
	return &Frame{kind: frameCompressed, uncompressedSize: dataLen, raw: body}, nil
}

func readPlainFrame(src ByteReader, scratch *ScratchBuffer) (*Frame, error) {
	total, _, err := ReadVarInt(src)
	if err != nil {
		return nil, err
	}
	if total < 1 {
		return nil, NewProtocolError(LengthExceedsLimit)
	}
	id, idLen, err := ReadVarInt(src)
	if err != nil {
		return nil, err
	}
	if id < 0 {
		return nil, NewProtocolError(LengthExceedsLimit)
	}
	remaining := total - int32(idLen)
	if remaining < 0 {
		return nil, NewProtocolError(LengthExceedsLimit)
	}
	payload := scratch.Grow(int(remaining))
	if _, err := io.ReadFull(src, payload); err != nil {
		return nil, WrapIo(err)
	}
	return &Frame{kind: framePlain, known: true, id: id, payload: payload}, nil
}

func splitIDPayload(body []byte) (int32, []byte, error) {
	r := bytes.NewReader(body)
	id, idLen, err := ReadVarInt(r)
	if err != nil {
		return 0, nil, err
	}
	return id, body[idLen:], nil
}

// CheapID returns the packet id only if it's already known without
// decompressing (i.e. the frame is Plain). The pump uses this to forward
// unknown compressed frames without ever paying for inflate.
func (f *Frame) CheapID() (int32, bool) {
	if f.kind == framePlain {
		return f.id, true
	}
	return 0, false
}

// ID returns the packet id, decompressing (and caching the result) if
// necessary.
func (f *Frame) ID() (int32, error) {
	if err := f.ensureDecoded(); err != nil {
		return 0, err
	}
	return f.id, nil
}

func (f *Frame) ensureDecoded() error {
	if f.known {
		return nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(f.raw))
	if err != nil {
		return WrapIo(err)
	}
	defer zr.Close()
	decompressed := make([]byte, f.uncompressedSize)
	if _, err := io.ReadFull(zr, decompressed); err != nil {
		return WrapIo(err)
	}
	id, payload, err := splitIDPayload(decompressed)
	if err != nil {
		return err
	}
	f.id = id
	f.payload = payload
	f.known = true
	f.raw = nil
	return nil
}

// Decode consumes the frame and unmarshals it into p, verifying the
// packet id matches and every payload byte is consumed.
func (f *Frame) Decode(p Packet) error {
	if err := f.ensureDecoded(); err != nil {
		return err
	}
	if p.ID() != f.id {
		return NewProtocolError(WrongPacketID)
	}
	r := bytes.NewReader(f.payload)
	if err := p.ReadFrom(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return NewProtocolError(TrailingBytes)
	}
	return nil
}

// WriteTo serializes the frame to dst honoring threshold. The common
// case is a byte-identical pass-through when the frame is still
// compressed and the destination link also negotiated compression;
// otherwise it decompresses (if needed) and re-emits plain or
// recompresses to match the destination's threshold.
func (f *Frame) WriteTo(dst io.Writer, threshold *int32) error {
	if f.kind == frameCompressed && !f.known && threshold != nil {
		// Byte-identical pass-through: same compressed envelope out as in.
		total := VarIntSize(f.uncompressedSize) + int32(len(f.raw))
		if err := WriteVarInt(dst, total); err != nil {
			return err
		}
		if err := WriteVarInt(dst, f.uncompressedSize); err != nil {
			return err
		}
		_, err := dst.Write(f.raw)
		return WrapIo(err)
	}
	// Either already Plain, already decompressed, or the slow
	// compressed-input/no-compression-output path: ensureDecoded is a
	// no-op once known, and resolves (id, payload) otherwise.
	if err := f.ensureDecoded(); err != nil {
		return err
	}
	return writePlainBody(dst, threshold, f.id, f.payload)
}

// WritePacket serializes p's (id, body) then frames it per the
// negotiated threshold.
func WritePacket(dst io.Writer, threshold *int32, p Packet) error {
	var body bytes.Buffer
	if err := p.WriteTo(&body); err != nil {
		return err
	}
	return writePlainBody(dst, threshold, p.ID(), body.Bytes())
}

func writePlainBody(dst io.Writer, threshold *int32, id int32, payload []byte) error {
	idLen := VarIntSize(id)
	bodyLen := int32(idLen) + int32(len(payload))

	if threshold == nil {
		if err := WriteVarInt(dst, bodyLen); err != nil {
			return err
		}
		if err := WriteVarInt(dst, id); err != nil {
			return err
		}
		_, err := dst.Write(payload)
		return WrapIo(err)
	}

	if bodyLen < *threshold {
		if err := WriteVarInt(dst, bodyLen+1); err != nil {
			return err
		}
		if err := WriteVarInt(dst, 0); err != nil {
			return err
		}
		if err := WriteVarInt(dst, id); err != nil {
			return err
		}
		_, err := dst.Write(payload)
		return WrapIo(err)
	}

	var rawBody bytes.Buffer
	if err := WriteVarInt(&rawBody, id); err != nil {
		return err
	}
	rawBody.Write(payload)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(rawBody.Bytes()); err != nil {
		return WrapIo(err)
	}
	if err := zw.Close(); err != nil {
		return WrapIo(err)
	}

	total := VarIntSize(int32(rawBody.Len())) + int32(compressed.Len())
	if err := WriteVarInt(dst, total); err != nil {
		return err
	}
	if err := WriteVarInt(dst, int32(rawBody.Len())); err != nil {
		return err
	}
	_, err := dst.Write(compressed.Bytes())
	return WrapIo(err)
}
