package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Field-specific maximum string lengths enforced at decode time (§4.1).
const (
	MaxTokenLen  = 32
	MaxChatLen   = 200
	MaxRoomIDLen = 20
)

// ByteBuf is a sequential byte buffer: writes always append, reads advance a
// cursor. It backs both packet encoding and decoding so the same primitive
// helpers serve both directions.
type ByteBuf struct {
	buf    []byte
	cursor int
}

// NewByteBuf returns an empty, write-only ByteBuf.
func NewByteBuf() *ByteBuf {
	return &ByteBuf{}
}

// WrapByteBuf returns a ByteBuf positioned at the start of data, for decoding.
func WrapByteBuf(data []byte) *ByteBuf {
	return &ByteBuf{buf: data}
}

// Bytes returns the buffer's full backing slice.
func (b *ByteBuf) Bytes() []byte { return b.buf }

// Remaining reports how many unread bytes remain.
func (b *ByteBuf) Remaining() int { return len(b.buf) - b.cursor }

func (b *ByteBuf) readN(n int) ([]byte, error) {
	if b.Remaining() < n {
		return nil, newCodecError(ReasonNeedMoreData, fmt.Sprintf("need %d bytes, have %d", n, b.Remaining()))
	}
	out := b.buf[b.cursor : b.cursor+n]
	b.cursor += n
	return out, nil
}

func (b *ByteBuf) WriteBytes(p []byte) { b.buf = append(b.buf, p...) }

// RemainingBytes returns a copy of the unread tail of the buffer, advancing
// the cursor to the end. Used by packets whose payload is opaque raw bytes.
func (b *ByteBuf) RemainingBytes() []byte {
	out := append([]byte(nil), b.buf[b.cursor:]...)
	b.cursor = len(b.buf)
	return out
}

// -- byte / bool --

func (b *ByteBuf) WriteByte(v byte) error {
	b.buf = append(b.buf, v)
	return nil
}

func (b *ByteBuf) ReadByte() (byte, error) {
	p, err := b.readN(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (b *ByteBuf) WriteBool(v bool) {
	if v {
		b.buf = append(b.buf, 1)
	} else {
		b.buf = append(b.buf, 0)
	}
}

func (b *ByteBuf) ReadBool() (bool, error) {
	v, err := b.ReadByte()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// -- VarInt --

func (b *ByteBuf) WriteVarInt(v int32) {
	var tmp [MaxVarIntBytes]byte
	n := PutVarInt(tmp[:], v)
	b.buf = append(b.buf, tmp[:n]...)
}

func (b *ByteBuf) ReadVarInt() (int32, error) {
	v, _, err := ReadVarInt(bytes.NewReader(b.buf[b.cursor:]))
	if err != nil {
		return 0, err
	}
	b.cursor += VarIntSize(v)
	return v, nil
}

// -- little-endian 32-bit int / float, the common wire shape for this protocol --

func (b *ByteBuf) WriteInt32LE(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	b.buf = append(b.buf, tmp[:]...)
}

func (b *ByteBuf) ReadInt32LE() (int32, error) {
	p, err := b.readN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(p)), nil
}

func (b *ByteBuf) WriteFloat32LE(v float32) {
	b.WriteInt32LE(int32(math.Float32bits(v)))
}

func (b *ByteBuf) ReadFloat32LE() (float32, error) {
	v, err := b.ReadInt32LE()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

// -- big-endian variants, carried for protocol compatibility on fields that
// specify them (§4.1); unused by the packets defined in this package today. --

func (b *ByteBuf) WriteInt16BE(v int16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	b.buf = append(b.buf, tmp[:]...)
}

func (b *ByteBuf) ReadInt16BE() (int16, error) {
	p, err := b.readN(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(p)), nil
}

func (b *ByteBuf) WriteMedium24BE(v int32) {
	b.buf = append(b.buf, byte(v>>16), byte(v>>8), byte(v))
}

func (b *ByteBuf) ReadMedium24BE() (int32, error) {
	p, err := b.readN(3)
	if err != nil {
		return 0, err
	}
	return int32(p[0])<<16 | int32(p[1])<<8 | int32(p[2]), nil
}

func (b *ByteBuf) WriteInt32BE(v int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	b.buf = append(b.buf, tmp[:]...)
}

func (b *ByteBuf) ReadInt32BE() (int32, error) {
	p, err := b.readN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(p)), nil
}

// -- length-prefixed UTF-8 strings, with a field-specific max length --

func (b *ByteBuf) WriteString(s string) {
	b.WriteVarInt(int32(len(s)))
	b.buf = append(b.buf, s...)
}

// ReadStringMax reads a VarInt-length-prefixed string, failing with
// ReasonStringTooLong if the declared length exceeds max.
func (b *ByteBuf) ReadStringMax(max int) (string, error) {
	n, err := b.ReadVarInt()
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > max {
		return "", newCodecError(ReasonStringTooLong, fmt.Sprintf("length %d exceeds max %d", n, max))
	}
	p, err := b.readN(int(n))
	if err != nil {
		return "", err
	}
	return string(p), nil
}
