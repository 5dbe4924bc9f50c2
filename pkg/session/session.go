// Package session implements the per-connection protocol handler (§4.4):
// pre-auth gating, authentication, dispatch of every inbound packet into
// pkg/room operations, and disconnect cleanup.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/phira-mp/server/internal/i10n"
	"github.com/phira-mp/server/internal/identityclient"
	"github.com/phira-mp/server/internal/logging"
	"github.com/phira-mp/server/internal/metrics"
	"github.com/phira-mp/server/internal/ratelimit"
	"github.com/phira-mp/server/pkg/connection"
	"github.com/phira-mp/server/pkg/protocol"
	"github.com/phira-mp/server/pkg/room"
)

// readTimeout bounds a single inbound message read (§6 "300s default").
const readTimeout = 300 * time.Second

// Deps are the process-wide collaborators every Session shares.
type Deps struct {
	Registry     *room.Registry
	Identity     *identityclient.Client
	Online       *OnlineTable
	Chat         *ratelimit.ChatLimiter
	I10n         *i10n.Table
	Logger       *zap.Logger
	BuildVersion string
	BuildCommit  string
}

// Session holds the state carried by one connection across its lifetime
// (§4.4): the identity once authenticated, and whether it has authenticated
// at all.
type Session struct {
	deps *Deps
	conn *connection.Connection

	authenticated bool
	identity      room.UserIdentity
	isMonitor     bool

	logger *zap.Logger
}

// New builds a Session for a freshly accepted connection.
func New(deps *Deps, conn *connection.Connection) *Session {
	return &Session{
		deps:   deps,
		conn:   conn,
		logger: logging.WithCorrelation(deps.Logger, conn.ID()),
	}
}

// Run drives the read loop for conn until it closes or a fatal codec/
// protocol error occurs. It is the sole owner of the connection's read
// side, matching the one-reader/one-writer split of §4.3.
func (s *Session) Run() {
	defer s.conn.Close()

	for {
		s.conn.Conn().SetReadDeadline(time.Now().Add(readTimeout))
		frame, err := protocol.ReadFrame(s.conn.Conn())
		if err != nil {
			s.logger.Debug("read loop ending", zap.Error(err))
			return
		}
		s.conn.MarkActivity()

		pkt, err := protocol.DecodeInbound(frame)
		if err != nil {
			s.logger.Warn("decode error, closing connection", zap.Error(err))
			metrics.InboundPackets.WithLabelValues("unknown", "decode_error").Inc()
			return
		}

		if !s.authenticated {
			switch pkt.(type) {
			case protocol.PingPacket, protocol.AuthenticatePacket:
			default:
				s.logger.Warn("packet before authentication, closing connection")
				return
			}
		}

		if !s.dispatch(pkt) {
			return
		}
	}
}

// OnClose runs the disconnect-cleanup sequence (§4.4): release the online
// table entry and leave whatever room the user occupied.
func (s *Session) OnClose(*connection.Connection) {
	metrics.DecConnection()
	if !s.authenticated {
		return
	}
	s.deps.Online.Release(s.identity.ID)

	for s.deps.Registry.IsSeated(s.identity.ID) {
		result, err := s.deps.Registry.LeaveRoom(s.identity.ID)
		if err != nil {
			s.logger.Warn("disconnect cleanup: leave room failed", zap.Error(err))
			break
		}
		s.announceLeaveOutcome(result)
	}
}

func (s *Session) announceLeaveOutcome(result room.LeaveResult) {
	if result.NewHostChosen {
		s.logger.Info("host succession on disconnect", zap.Int32("new_host", result.NewHost))
	}
}

func (s *Session) ctx() context.Context {
	return context.Background()
}

// localize resolves a room.OpError reason key to this session's language.
func (s *Session) localize(reason string) string {
	return s.deps.I10n.Resolve(s.identity.Language, reason)
}
