package session

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/phira-mp/server/internal/i10n"
	"github.com/phira-mp/server/internal/identityclient"
	"github.com/phira-mp/server/internal/ratelimit"
	"github.com/phira-mp/server/pkg/connection"
	"github.com/phira-mp/server/pkg/protocol"
	"github.com/phira-mp/server/pkg/room"
)

// newTestSession wires a Session against a real in-process room.Registry and
// OnlineTable, an identity client pointed at the given httptest.Server (or no
// server at all if identityURL is empty, in which case every identity call
// fails), and a net.Pipe in place of a real socket. The caller owns the
// client half of the pipe.
func newTestSession(t *testing.T, identityURL string) (*Session, net.Conn) {
	t.Helper()

	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })

	if identityURL == "" {
		identityURL = "http://127.0.0.1:0"
	}

	deps := &Deps{
		Registry: room.NewRegistry(nil),
		Identity: identityclient.New(identityURL, time.Second, 5, 30*time.Second, 100, 5*time.Minute),
		Online:   NewOnlineTable(),
		Chat:     ratelimit.New(5, 10*time.Second),
		I10n:     i10n.NewTable(""),
		Logger:   zap.NewNop(),
	}

	conn := connection.New("test-conn", server, zap.NewNop(), nil)
	t.Cleanup(conn.Close)

	return New(deps, conn), client
}

// fakeIdentityServer answers /me with the given profile and everything else
// with 200s of empty JSON objects, matching the shape GetChart/GetRecord
// expect closely enough for tests that don't exercise those paths.
func fakeIdentityServer(t *testing.T, profile identityclient.UserProfile) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func readFrame(t *testing.T, conn net.Conn) *protocol.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := protocol.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	return f
}
