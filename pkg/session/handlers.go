package session

import (
	"go.uber.org/zap"

	"github.com/phira-mp/server/internal/logging"
	"github.com/phira-mp/server/internal/metrics"
	"github.com/phira-mp/server/pkg/protocol"
	"github.com/phira-mp/server/pkg/room"
)

// handleAuthenticate implements §4.4's Authenticate flow: fetch the
// profile (cached, circuit-broken), reject a second login for an
// already-online user (Scenario G, §8), otherwise admit the session and
// send the greeter lines plus an optional build-identification message. A
// false return closes the connection, matching both the identity-service
// failure path and the duplicate-login rejection in §7.
func (s *Session) handleAuthenticate(p protocol.AuthenticatePacket) bool {
	if s.authenticated {
		s.logger.Warn("re-authenticate attempt, closing connection")
		return false
	}

	profile, err := s.deps.Identity.GetUserInfo(s.ctx(), p.Token)
	if err != nil {
		s.logger.Warn("identity lookup failed, closing connection", zap.Error(err))
		metrics.InboundPackets.WithLabelValues("authenticate", "identity_error").Inc()
		return false
	}

	if !s.deps.Online.Claim(profile.ID) {
		s.send(protocol.AuthenticateFailed(s.deps.I10n.Resolve(profile.Language, room.ReasonUserDuplicateJoin)))
		metrics.InboundPackets.WithLabelValues("authenticate", "duplicate").Inc()
		return false
	}

	s.authenticated = true
	s.identity = room.UserIdentity{ID: profile.ID, Name: profile.Name, Language: profile.Language}
	s.isMonitor = s.deps.Registry.IsMonitor(profile.ID)
	s.logger = logging.WithUser(s.logger, profile.ID)
	metrics.InboundPackets.WithLabelValues("authenticate", "ok").Inc()

	wireProfile := protocol.UserProfile{UserID: profile.ID, Username: profile.Name}
	s.send(protocol.AuthenticateSuccess(wireProfile, s.isMonitor))

	for _, line := range []string{
		"Welcome, " + profile.Name + "!",
		"You are playing on a phira-mp-go instance.",
		"Protocol and room matching implemented by the phira-mp-go server.",
	} {
		s.send(protocol.MessageOut{Message: protocol.ChatMessage{UserID: -1, Content: line}})
	}

	if s.deps.BuildVersion != "" || s.deps.BuildCommit != "" {
		s.send(protocol.MessageOut{Message: protocol.BuildInfoMessage{Version: s.deps.BuildVersion, CommitHash: s.deps.BuildCommit}})
	}

	return true
}

// handleChat relays a chat line to the caller's room, silently dropping it
// if the per-user flood limit is exceeded (§9 of SPEC_FULL.md: chat has no
// Failed response, so rejection is invisible on the wire).
func (s *Session) handleChat(p protocol.ChatPacket) {
	if !s.authenticated {
		return
	}
	if !s.deps.Chat.Allow(s.ctx(), s.identity.ID) {
		metrics.InboundPackets.WithLabelValues("chat", "rate_limited").Inc()
		return
	}
	s.deps.Registry.RelayInRoom(s.identity.ID, protocol.EncodeOutbound(protocol.ChatOut{UserID: s.identity.ID, Message: p.Message}))
	metrics.InboundPackets.WithLabelValues("chat", "ok").Inc()
}

func (s *Session) handleCreateRoom(p protocol.CreateRoomPacket) {
	if !s.authenticated {
		return
	}
	err := s.deps.Registry.CreateRoom(p.RoomID, s.identity, s.conn)
	if err == nil {
		s.send(protocol.CreateRoomResponse{Result: protocol.Succeed(nil)})
		metrics.InboundPackets.WithLabelValues("create_room", "ok").Inc()
		return
	}
	s.sendRoomOpFailure("create_room", err, func(res protocol.Result) protocol.OutboundPacket {
		return protocol.CreateRoomResponse{Result: res}
	})
}

func (s *Session) handleJoinRoom(p protocol.JoinRoomPacket) {
	if !s.authenticated {
		return
	}
	var info protocol.RoomInfo
	var err error
	if p.Monitor {
		info, err = s.deps.Registry.JoinRoomAsMonitor(p.RoomID, s.identity, s.conn)
	} else {
		info, err = s.deps.Registry.JoinRoom(p.RoomID, s.identity, s.conn)
	}
	if err == nil {
		s.send(protocol.JoinRoomSuccess(info))
		metrics.InboundPackets.WithLabelValues("join_room", "ok").Inc()
		return
	}
	s.sendRoomOpFailure("join_room", err, func(res protocol.Result) protocol.OutboundPacket {
		return protocol.JoinRoomResponse{Result: res}
	})
}

func (s *Session) handleLeaveRoom() {
	if !s.authenticated {
		return
	}
	_, err := s.deps.Registry.LeaveRoom(s.identity.ID)
	if err == nil {
		s.send(protocol.LeaveRoomResponse{Result: protocol.Succeed(nil)})
		metrics.InboundPackets.WithLabelValues("leave_room", "ok").Inc()
		return
	}
	s.sendRoomOpFailure("leave_room", err, func(res protocol.Result) protocol.OutboundPacket {
		return protocol.LeaveRoomResponse{Result: res}
	})
}

func (s *Session) handleSelectChart(p protocol.SelectChartPacket) {
	s.handleOp("select_chart", func() error {
		return s.deps.Registry.SelectChart(s.roomOrEmpty(), s.identity.ID, p.ChartID, s.fetchChartName)
	}, func(res protocol.Result) protocol.OutboundPacket {
		return protocol.SelectChartResponse{Result: res}
	})
}

func (s *Session) handlePlayed(p protocol.PlayedPacket) {
	s.handleOp("played", func() error {
		return s.deps.Registry.Played(s.roomOrEmpty(), s.identity.ID, p.RecordID, s.fetchRecord)
	}, func(res protocol.Result) protocol.OutboundPacket {
		return protocol.PlayedResponse{Result: res}
	})
}

func (s *Session) fetchChartName(chartID int32) (string, error) {
	info, err := s.deps.Identity.GetChart(s.ctx(), chartID)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

func (s *Session) fetchRecord(recordID int32) (score int32, accuracy float32, fullCombo bool, err error) {
	rec, err := s.deps.Identity.GetRecord(s.ctx(), recordID)
	if err != nil {
		return 0, 0, false, err
	}
	return rec.Score, rec.Accuracy, rec.FullCombo, nil
}

// sendRoomOpFailure turns a room.OpError into a localised Failed response;
// anything else (should not happen — Registry only ever returns OpError or
// nil) is logged and swallowed rather than echoed to the wire.
func (s *Session) sendRoomOpFailure(label string, err error, build func(protocol.Result) protocol.OutboundPacket) {
	if opErr, ok := err.(room.OpError); ok {
		s.send(build(protocol.Failed(s.localize(string(opErr)))))
		metrics.InboundPackets.WithLabelValues(label, "rejected").Inc()
		return
	}
	s.logger.Error("unexpected error from room operation", zap.String("op", label), zap.Error(err))
	metrics.InboundPackets.WithLabelValues(label, "error").Inc()
}
