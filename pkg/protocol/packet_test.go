package protocol

import (
	"bytes"
	"io"
	"testing"
)

// oneByteReader forces every Read call to return at most one byte, to
// exercise framing against worst-case TCP segmentation (§8 property 2).
type oneByteReader struct{ r io.Reader }

func (o *oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestFrameRoundTrip(t *testing.T) {
	f := MarshalFrame(0x02, func(b *ByteBuf) {
		b.WriteInt32LE(42)
		b.WriteString("hello")
	})

	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.ID != f.ID || !bytes.Equal(got.Data, f.Data) {
		t.Errorf("frame mismatch: got %+v, want %+v", got, f)
	}
}

func TestFramingSurvivesArbitrarySplits(t *testing.T) {
	frames := []*Frame{
		MarshalFrame(0x00, func(b *ByteBuf) {}),
		MarshalFrame(0x01, func(b *ByteBuf) { b.WriteString("room-one") }),
		MarshalFrame(0x02, func(b *ByteBuf) { b.WriteInt32LE(-7); b.WriteBool(true) }),
	}

	var buf bytes.Buffer
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	r := &oneByteReader{r: bytes.NewReader(buf.Bytes())}
	for i, want := range frames {
		got, err := ReadFrame(r)
		if err != nil {
			t.Fatalf("frame %d: ReadFrame: %v", i, err)
		}
		if got.ID != want.ID || !bytes.Equal(got.Data, want.Data) {
			t.Errorf("frame %d mismatch: got %+v, want %+v", i, got, want)
		}
	}
}

func TestReadFrameRejectsOversizeLength(t *testing.T) {
	var buf bytes.Buffer
	WriteVarInt(&buf, MaxFrameLength+1)
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected error for oversize frame length")
	}
}
