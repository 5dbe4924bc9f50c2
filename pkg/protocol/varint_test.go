package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, 63, 64, 127, 128, 16383, 16384, 2097151, 2097152, 1<<31 - 1, -1}
	for _, v := range values {
		var buf bytes.Buffer
		if _, err := WriteVarInt(&buf, v); err != nil {
			t.Fatalf("WriteVarInt(%d): %v", v, err)
		}
		got, n, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
		if n != VarIntSize(v) {
			t.Errorf("VarIntSize(%d) = %d, bytes read = %d", v, VarIntSize(v), n)
		}
	}
}

func TestVarIntNeedMoreData(t *testing.T) {
	// A continuation byte with nothing to follow.
	buf := bytes.NewReader([]byte{0x80})
	_, _, err := ReadVarInt(buf)
	var ce *CodecError
	if !errors.As(err, &ce) || ce.Reason != ReasonNeedMoreData {
		t.Fatalf("expected ReasonNeedMoreData, got %v", err)
	}
}

func TestVarIntBadVarInt(t *testing.T) {
	// Six continuation bytes: a VarInt may be at most 5.
	buf := bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	_, _, err := ReadVarInt(buf)
	var ce *CodecError
	if !errors.As(err, &ce) || ce.Reason != ReasonBadVarInt {
		t.Fatalf("expected ReasonBadVarInt, got %v", err)
	}
}

func TestVarIntSizeMatchesEncoding(t *testing.T) {
	for _, v := range []int32{0, 127, 128, 2097151, 2097152, -1} {
		size := VarIntSize(v)
		var buf [MaxVarIntBytes]byte
		n := PutVarInt(buf[:], v)
		if n != size {
			t.Errorf("VarIntSize(%d)=%d but PutVarInt wrote %d", v, size, n)
		}
	}
}
