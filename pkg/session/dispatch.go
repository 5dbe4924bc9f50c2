package session

import (
	"go.uber.org/zap"

	"github.com/phira-mp/server/internal/metrics"
	"github.com/phira-mp/server/pkg/protocol"
	"github.com/phira-mp/server/pkg/room"
)

// dispatch routes one decoded inbound packet to its handler. It returns
// false when the connection must be closed (codec/protocol-fatal paths are
// handled by the caller; this covers the identity-service failure during
// Authenticate that §7 says closes the connection).
func (s *Session) dispatch(pkt protocol.InboundPacket) bool {
	switch p := pkt.(type) {
	case protocol.PingPacket:
		s.send(protocol.PongPacket{})
		metrics.InboundPackets.WithLabelValues("ping", "ok").Inc()
		return true

	case protocol.AuthenticatePacket:
		return s.handleAuthenticate(p)

	case protocol.ChatPacket:
		s.handleChat(p)
		return true

	case protocol.TouchesPacket:
		s.requireAuthThen(func() {
			s.deps.Registry.RelayInRoom(s.identity.ID, protocol.EncodeOutbound(protocol.TouchesOut{UserID: s.identity.ID, Raw: p.Raw}))
		})
		return true

	case protocol.JudgesPacket:
		s.requireAuthThen(func() {
			s.deps.Registry.RelayInRoom(s.identity.ID, protocol.EncodeOutbound(protocol.JudgesOut{UserID: s.identity.ID, Raw: p.Raw}))
		})
		return true

	case protocol.CreateRoomPacket:
		s.handleCreateRoom(p)
		return true

	case protocol.JoinRoomPacket:
		s.handleJoinRoom(p)
		return true

	case protocol.LeaveRoomPacket:
		s.handleLeaveRoom()
		return true

	case protocol.LockRoomPacket:
		s.handleOp("lock_room", func() error { return s.deps.Registry.LockRoom(s.roomOrEmpty(), s.identity.ID, p.Lock) },
			func(result protocol.Result) protocol.OutboundPacket { return protocol.LockRoomResponse{Result: result} })
		return true

	case protocol.CycleRoomPacket:
		s.handleOp("cycle_room", func() error { return s.deps.Registry.CycleRoom(s.roomOrEmpty(), s.identity.ID, p.Cycle) },
			func(result protocol.Result) protocol.OutboundPacket { return protocol.CycleRoomResponse{Result: result} })
		return true

	case protocol.SelectChartPacket:
		s.handleSelectChart(p)
		return true

	case protocol.RequestStartPacket:
		s.handleOp("request_start", func() error { return s.deps.Registry.RequestStart(s.roomOrEmpty(), s.identity.ID) },
			func(result protocol.Result) protocol.OutboundPacket { return protocol.RequestStartResponse{Result: result} })
		return true

	case protocol.ReadyPacket:
		s.handleOp("ready", func() error { return s.deps.Registry.Ready(s.roomOrEmpty(), s.identity.ID) },
			func(result protocol.Result) protocol.OutboundPacket { return protocol.ReadyResponse{Result: result} })
		return true

	case protocol.CancelReadyPacket:
		s.handleOp("cancel_ready", func() error { return s.deps.Registry.CancelReady(s.roomOrEmpty(), s.identity.ID) },
			func(result protocol.Result) protocol.OutboundPacket { return protocol.CancelReadyResponse{Result: result} })
		return true

	case protocol.PlayedPacket:
		s.handlePlayed(p)
		return true

	case protocol.AbortPacket:
		s.handleOp("abort", func() error { return s.deps.Registry.Abort(s.roomOrEmpty(), s.identity.ID) },
			func(result protocol.Result) protocol.OutboundPacket { return protocol.AbortResponse{Result: result} })
		return true

	default:
		return true
	}
}

func (s *Session) send(p protocol.OutboundPacket) {
	s.conn.Send(protocol.EncodeOutbound(p))
}

func (s *Session) requireAuthThen(f func()) {
	if !s.authenticated {
		return
	}
	f()
}

// roomOrEmpty looks up the caller's current room id; operations that need
// it surface room_not_found/not_in_room from the registry itself when it's
// empty or stale, so no extra guard is needed here.
func (s *Session) roomOrEmpty() string {
	id, _ := s.deps.Registry.RoomOf(s.identity.ID)
	return id
}

// handleOp runs a registry operation that reports success/failure only
// (no extra success payload), turning a room.OpError into a localised
// Failed(reason) and anything else into a bare Success.
func (s *Session) handleOp(label string, op func() error, build func(protocol.Result) protocol.OutboundPacket) {
	if !s.authenticated {
		return
	}
	err := op()
	if err == nil {
		s.send(build(protocol.Succeed(nil)))
		metrics.InboundPackets.WithLabelValues(label, "ok").Inc()
		return
	}
	if opErr, ok := err.(room.OpError); ok {
		s.send(build(protocol.Failed(s.localize(string(opErr)))))
		metrics.InboundPackets.WithLabelValues(label, "rejected").Inc()
		return
	}
	s.logger.Error("unexpected error from room operation", zap.String("op", label), zap.Error(err))
	metrics.InboundPackets.WithLabelValues(label, "error").Inc()
}
