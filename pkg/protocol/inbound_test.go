package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeInboundTypes(t *testing.T) {
	authFrame := MarshalFrame(InAuthenticate, func(b *ByteBuf) { b.WriteString("tok") })
	pkt, err := DecodeInbound(authFrame)
	if err != nil {
		t.Fatalf("decode authenticate: %v", err)
	}
	auth, ok := pkt.(AuthenticatePacket)
	if !ok || auth.Token != "tok" {
		t.Fatalf("got %+v", pkt)
	}

	joinFrame := MarshalFrame(InJoinRoom, func(b *ByteBuf) {
		b.WriteString("room1")
		b.WriteBool(true)
	})
	pkt, err = DecodeInbound(joinFrame)
	if err != nil {
		t.Fatalf("decode join: %v", err)
	}
	join, ok := pkt.(JoinRoomPacket)
	if !ok || join.RoomID != "room1" || !join.Monitor {
		t.Fatalf("got %+v", pkt)
	}

	selectFrame := MarshalFrame(InSelectChart, func(b *ByteBuf) { b.WriteInt32LE(555) })
	pkt, err = DecodeInbound(selectFrame)
	if err != nil {
		t.Fatalf("decode select chart: %v", err)
	}
	sel, ok := pkt.(SelectChartPacket)
	if !ok || sel.ChartID != 555 {
		t.Fatalf("got %+v", pkt)
	}
}

func TestDecodeInboundUnknownID(t *testing.T) {
	frame := &Frame{ID: 0xFF, Data: nil}
	_, err := DecodeInbound(frame)
	var ce *CodecError
	if !errors.As(err, &ce) || ce.Reason != ReasonUnknownPacket {
		t.Fatalf("expected ReasonUnknownPacket, got %v", err)
	}
}

func TestDecodeInboundStringTooLong(t *testing.T) {
	frame := MarshalFrame(InChat, func(b *ByteBuf) {
		b.WriteString(strings.Repeat("x", MaxChatLen+1))
	})
	_, err := DecodeInbound(frame)
	var ce *CodecError
	if !errors.As(err, &ce) || ce.Reason != ReasonStringTooLong {
		t.Fatalf("expected ReasonStringTooLong, got %v", err)
	}
}

func TestDecodeInboundRoomIDTooLong(t *testing.T) {
	frame := MarshalFrame(InCreateRoom, func(b *ByteBuf) {
		b.WriteString(strings.Repeat("r", MaxRoomIDLen+1))
	})
	_, err := DecodeInbound(frame)
	var ce *CodecError
	if !errors.As(err, &ce) || ce.Reason != ReasonStringTooLong {
		t.Fatalf("expected ReasonStringTooLong, got %v", err)
	}
}
