package proto

import (
	"bufio"
	"io"
)

// Packet is implemented by every entry in the catalog. Field codecs are
// hand-written per type rather than reflected.
type Packet interface {
	ID() int32
	ReadFrom(r io.Reader) error
	WriteTo(w io.Writer) error
}

func byteReader(r io.Reader) ByteReader {
	if br, ok := r.(ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// Handshake: Handshaking, c->s, 0x00.
type Handshake struct {
	Protocol   int32
	Address    string
	Port       int16
	NextState  int32
}

func (*Handshake) ID() int32 { return 0x00 }

func (p *Handshake) ReadFrom(r io.Reader) (err error) {
	br := byteReader(r)
	if p.Protocol, _, err = ReadVarInt(br); err != nil {
		return err
	}
	if p.Address, err = ReadString(br, 255); err != nil {
		return err
	}
	if p.Port, err = ReadInt16(br); err != nil {
		return err
	}
	if p.NextState, _, err = ReadVarInt(br); err != nil {
		return err
	}
	return nil
}

func (p *Handshake) WriteTo(w io.Writer) error {
	if err := WriteVarInt(w, p.Protocol); err != nil {
		return err
	}
	if err := WriteString(w, p.Address); err != nil {
		return err
	}
	if err := WriteInt16(w, p.Port); err != nil {
		return err
	}
	return WriteVarInt(w, p.NextState)
}

// StatusRequest: Status, c->s, 0x00.
type StatusRequest struct{}

func (*StatusRequest) ID() int32                    { return 0x00 }
func (*StatusRequest) ReadFrom(io.Reader) error      { return nil }
func (*StatusRequest) WriteTo(io.Writer) error       { return nil }

// StatusResponse: Status, s->c, 0x00.
type StatusResponse struct {
	Response string
}

func (*StatusResponse) ID() int32 { return 0x00 }

func (p *StatusResponse) ReadFrom(r io.Reader) (err error) {
	p.Response, err = ReadString(byteReader(r), 32767)
	return err
}

func (p *StatusResponse) WriteTo(w io.Writer) error {
	return WriteString(w, p.Response)
}

// Ping: Status, c->s, 0x01. Pong: Status, s->c, 0x01. Same wire shape.
type Ping struct{ Payload int64 }

func (*Ping) ID() int32 { return 0x01 }
func (p *Ping) ReadFrom(r io.Reader) (err error) {
	p.Payload, err = ReadInt64(r)
	return err
}
func (p *Ping) WriteTo(w io.Writer) error { return WriteInt64(w, p.Payload) }

type Pong struct{ Payload int64 }

func (*Pong) ID() int32 { return 0x01 }
func (p *Pong) ReadFrom(r io.Reader) (err error) {
	p.Payload, err = ReadInt64(r)
	return err
}
func (p *Pong) WriteTo(w io.Writer) error { return WriteInt64(w, p.Payload) }

// LoginStart: Login, c->s, 0x00.
type LoginStart struct {
	Name string
}

func (*LoginStart) ID() int32 { return 0x00 }

func (p *LoginStart) ReadFrom(r io.Reader) (err error) {
	p.Name, err = ReadString(byteReader(r), 16)
	return err
}

func (p *LoginStart) WriteTo(w io.Writer) error {
	return WriteString(w, p.Name)
}

// Disconnect: Login, s->c, 0x00.
type Disconnect struct {
	Reason string
}

func (*Disconnect) ID() int32 { return 0x00 }

func (p *Disconnect) ReadFrom(r io.Reader) (err error) {
	p.Reason, err = ReadString(byteReader(r), 262144)
	return err
}

func (p *Disconnect) WriteTo(w io.Writer) error {
	return WriteString(w, p.Reason)
}

// EncryptionRequest: Login, s->c, 0x01.
type EncryptionRequest struct {
	ServerID     string
	PublicKey    []byte
	VerifyToken  []byte
}

func (*EncryptionRequest) ID() int32 { return 0x01 }

func (p *EncryptionRequest) ReadFrom(r io.Reader) (err error) {
	br := byteReader(r)
	if p.ServerID, err = ReadString(br, 20); err != nil {
		return err
	}
	if p.PublicKey, err = ReadBytes(br, 4096); err != nil {
		return err
	}
	if p.VerifyToken, err = ReadBytes(br, 128); err != nil {
		return err
	}
	return nil
}

func (p *EncryptionRequest) WriteTo(w io.Writer) error {
	if err := WriteString(w, p.ServerID); err != nil {
		return err
	}
	if err := WriteBytes(w, p.PublicKey); err != nil {
		return err
	}
	return WriteBytes(w, p.VerifyToken)
}

// EncryptionResponse: Login, c->s, 0x01.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (*EncryptionResponse) ID() int32 { return 0x01 }

func (p *EncryptionResponse) ReadFrom(r io.Reader) (err error) {
	br := byteReader(r)
	if p.SharedSecret, err = ReadBytes(br, 128); err != nil {
		return err
	}
	if p.VerifyToken, err = ReadBytes(br, 128); err != nil {
		return err
	}
	return nil
}

func (p *EncryptionResponse) WriteTo(w io.Writer) error {
	if err := WriteBytes(w, p.SharedSecret); err != nil {
		return err
	}
	return WriteBytes(w, p.VerifyToken)
}

// LoginSuccess: Login, s->c, 0x02.
type LoginSuccess struct {
	UUID     string
	Username string
}

func (*LoginSuccess) ID() int32 { return 0x02 }

func (p *LoginSuccess) ReadFrom(r io.Reader) (err error) {
	br := byteReader(r)
	if p.UUID, err = ReadString(br, 36); err != nil {
		return err
	}
	if p.Username, err = ReadString(br, 16); err != nil {
		return err
	}
	return nil
}

func (p *LoginSuccess) WriteTo(w io.Writer) error {
	if err := WriteString(w, p.UUID); err != nil {
		return err
	}
	return WriteString(w, p.Username)
}

// SetCompression: Login, s->c, 0x03.
type SetCompression struct {
	Threshold int32
}

func (*SetCompression) ID() int32 { return 0x03 }

func (p *SetCompression) ReadFrom(r io.Reader) (err error) {
	p.Threshold, _, err = ReadVarInt(byteReader(r))
	return err
}

func (p *SetCompression) WriteTo(w io.Writer) error {
	return WriteVarInt(w, p.Threshold)
}

// Chat message positions, used by the outbound field only.
const (
	ChatPositionChat      byte = 0
	ChatPositionSystem    byte = 1
	ChatPositionActionBar byte = 2
)

// Chat: Play, c<->s, 0x0F both directions. Position is outbound-only;
// inbound frames carry just the message.
type Chat struct {
	Message  string
	Position byte
	Outbound bool
}

func (*Chat) ID() int32 { return 0x0F }

func (p *Chat) ReadFrom(r io.Reader) (err error) {
	br := byteReader(r)
	if p.Message, err = ReadString(br, 256); err != nil {
		return err
	}
	if p.Outbound {
		p.Position, err = ReadUint8(br)
	}
	return err
}

func (p *Chat) WriteTo(w io.Writer) error {
	if err := WriteString(w, p.Message); err != nil {
		return err
	}
	if p.Outbound {
		return WriteUint8(w, p.Position)
	}
	return nil
}
