package server

import (
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/phira-mp/server/internal/i10n"
	"github.com/phira-mp/server/internal/identityclient"
	"github.com/phira-mp/server/internal/ratelimit"
	"github.com/phira-mp/server/pkg/protocol"
	"github.com/phira-mp/server/pkg/room"
	"github.com/phira-mp/server/pkg/session"
)

func testDeps() *session.Deps {
	return &session.Deps{
		Registry: room.NewRegistry(nil),
		Identity: identityclient.New("http://127.0.0.1:0", time.Second, 5, 30*time.Second, 100, 5*time.Minute),
		Online:   session.NewOnlineTable(),
		Chat:     ratelimit.New(5, 10*time.Second),
		I10n:     i10n.NewTable(""),
		Logger:   zap.NewNop(),
	}
}

func TestHandshakeRejectsWrongVersionByte(t *testing.T) {
	s := New(Config{Address: "127.0.0.1:0", MaxConnections: 10}, testDeps(), zap.NewNop())

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- s.handshake(serverSide) }()

	clientSide.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := clientSide.Write([]byte{protocol.ProtocolVersion + 1}); err != nil {
		t.Fatalf("write handshake byte: %v", err)
	}

	err := <-errCh
	if err == nil {
		t.Fatal("expected a version-mismatch error")
	}
	if _, ok := err.(*VersionMismatchError); !ok {
		t.Fatalf("got error of type %T, want *VersionMismatchError", err)
	}
}

func TestHandshakeAcceptsMatchingVersionByte(t *testing.T) {
	s := New(Config{Address: "127.0.0.1:0", MaxConnections: 10}, testDeps(), zap.NewNop())

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- s.handshake(serverSide) }()

	clientSide.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := clientSide.Write([]byte{protocol.ProtocolVersion}); err != nil {
		t.Fatalf("write handshake byte: %v", err)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("handshake: %v", err)
	}
}

func TestStartAndStopBindThenReleaseTheListener(t *testing.T) {
	s := New(Config{Address: "127.0.0.1:0", MaxConnections: 10}, testDeps(), zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := s.listener.Addr().String()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial listening server: %v", err)
	}
	conn.Close()

	s.Stop()
	s.Stop() // idempotent

	if _, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		t.Fatal("expected dialing a stopped listener to fail")
	}
}
