// Package server runs the TCP accept loop for the lobby protocol (§4.3,
// §5), handing each admitted connection off to pkg/session.
package server

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/phira-mp/server/internal/metrics"
	"github.com/phira-mp/server/pkg/connection"
	"github.com/phira-mp/server/pkg/protocol"
	"github.com/phira-mp/server/pkg/session"
)

// handshakeTimeout bounds how long a freshly accepted socket has to send
// its single protocol-version byte (§6).
const handshakeTimeout = 10 * time.Second

// Config holds the TCP server's own settings, separate from the session
// layer's Deps.
type Config struct {
	Address        string
	MaxConnections int64
}

// Server owns the listener and the connection-admission semaphore.
type Server struct {
	config   Config
	deps     *session.Deps
	logger   *zap.Logger
	sem      *semaphore.Weighted
	listener net.Listener

	mu     sync.Mutex
	stopCh chan struct{}
}

// New builds a Server. deps are the shared session collaborators
// (registry, identity client, rate limiter, logger, ...).
func New(config Config, deps *session.Deps, logger *zap.Logger) *Server {
	return &Server{
		config: config,
		deps:   deps,
		logger: logger,
		sem:    semaphore.NewWeighted(config.MaxConnections),
		stopCh: make(chan struct{}),
	}
}

// Start begins listening and accepting connections in a background
// goroutine; it returns once the listener is bound.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.listener = l
	s.logger.Info("lobby server listening", zap.String("address", s.config.Address))

	go s.acceptLoop()
	return nil
}

// Stop closes the listener; connections already accepted run to their own
// completion.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stopCh:
		return
	default:
		close(s.stopCh)
	}
	if s.listener != nil {
		s.listener.Close()
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Warn("accept error", zap.Error(err))
				continue
			}
		}

		if !s.sem.TryAcquire(1) {
			s.logger.Warn("connection admission limit reached, rejecting socket")
			conn.Close()
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(netConn net.Conn) {
	defer s.sem.Release(1)

	correlationID := uuid.New().String()

	if err := s.handshake(netConn); err != nil {
		s.logger.Debug("handshake failed", zap.String("connection_id", correlationID), zap.Error(err))
		netConn.Close()
		return
	}

	var sess *session.Session
	conn := connection.New(correlationID, netConn, s.logger, func(c *connection.Connection) {
		sess.OnClose(c)
	})
	sess = session.New(s.deps, conn)

	metrics.IncConnection()
	sess.Run()
}

// handshake reads the single protocol-version byte every connection must
// send before any framed packet (§6): a version mismatch is fatal.
func (s *Server) handshake(conn net.Conn) error {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var buf [1]byte
	if _, err := conn.Read(buf[:]); err != nil {
		return err
	}
	if buf[0] != protocol.ProtocolVersion {
		return &VersionMismatchError{Got: buf[0], Want: protocol.ProtocolVersion}
	}
	return nil
}

// VersionMismatchError reports a handshake byte that doesn't match the
// single protocol version this server speaks.
type VersionMismatchError struct {
	Got, Want byte
}

func (e *VersionMismatchError) Error() string {
	return "protocol version mismatch"
}
