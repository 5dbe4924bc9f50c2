package protocol

import (
	"errors"
	"io"
)

// MaxVarIntBytes is the longest a 32-bit VarInt can legally be: 5 bytes of
// 7 payload bits each covers the full 32-bit range including the sign bit.
const MaxVarIntBytes = 5

// ReadVarInt decodes a VarInt from r. It returns ReasonNeedMoreData if the
// reader is exhausted before a terminating byte is seen, and ReasonBadVarInt
// if a 6th byte would be required.
func ReadVarInt(r io.Reader) (int32, int, error) {
	var result uint32
	var numRead int
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, numRead, newCodecError(ReasonNeedMoreData, "VarInt truncated")
			}
			return 0, numRead, err
		}
		result |= uint32(b[0]&0x7F) << (7 * numRead)
		numRead++
		if b[0]&0x80 == 0 {
			return int32(result), numRead, nil
		}
		if numRead >= MaxVarIntBytes {
			return 0, numRead, newCodecError(ReasonBadVarInt, "VarInt longer than 5 bytes")
		}
	}
}

// WriteVarInt encodes value and writes it to w.
func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [MaxVarIntBytes]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

// PutVarInt encodes value into buf (which must have capacity MaxVarIntBytes)
// and returns the number of bytes written.
func PutVarInt(buf []byte, value int32) int {
	uval := uint32(value)
	n := 0
	for {
		if uval&^uint32(0x7F) == 0 {
			buf[n] = byte(uval)
			n++
			return n
		}
		buf[n] = byte(uval&0x7F) | 0x80
		n++
		uval >>= 7
	}
}

// VarIntSize returns the number of bytes PutVarInt would write for value.
func VarIntSize(value int32) int {
	uval := uint32(value)
	size := 1
	for uval&^uint32(0x7F) != 0 {
		uval >>= 7
		size++
	}
	return size
}
