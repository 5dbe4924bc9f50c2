package session

import (
	"testing"

	"github.com/phira-mp/server/internal/identityclient"
	"github.com/phira-mp/server/pkg/protocol"
	"github.com/phira-mp/server/pkg/room"
)

func TestHandleAuthenticateSuccessSendsProfileAndGreeter(t *testing.T) {
	srv := fakeIdentityServer(t, identityclient.UserProfile{ID: 42, Name: "Alice", Language: "en"})
	s, client := newTestSession(t, srv.URL)
	defer client.Close()

	ok := s.handleAuthenticate(protocol.AuthenticatePacket{Token: "tok"})
	if !ok {
		t.Fatal("expected handleAuthenticate to keep the connection open")
	}
	if !s.authenticated {
		t.Fatal("expected session to be marked authenticated")
	}
	if s.identity.ID != 42 {
		t.Fatalf("got identity %+v, want ID 42", s.identity)
	}

	f := readFrame(t, client)
	if f.ID != protocol.OutAuthenticate {
		t.Fatalf("got outbound id %d, want AuthenticateResponse", f.ID)
	}

	// Three greeter lines follow.
	for i := 0; i < 3; i++ {
		f = readFrame(t, client)
		if f.ID != protocol.OutMessage {
			t.Fatalf("greeter line %d: got outbound id %d, want Message", i, f.ID)
		}
	}
}

func TestHandleAuthenticateRejectsSecondLoginScenarioG(t *testing.T) {
	srv := fakeIdentityServer(t, identityclient.UserProfile{ID: 5, Name: "Bob", Language: "en"})

	first, firstClient := newTestSession(t, srv.URL)
	defer firstClient.Close()
	if !first.handleAuthenticate(protocol.AuthenticatePacket{Token: "t1"}) {
		t.Fatal("first login should succeed")
	}
	readFrame(t, firstClient) // AuthenticateResponse
	for i := 0; i < 3; i++ {
		readFrame(t, firstClient)
	}

	second, secondClient := newTestSession(t, srv.URL)
	defer secondClient.Close()
	second.deps.Online = first.deps.Online // same online table, as a real server would share

	ok := second.handleAuthenticate(protocol.AuthenticatePacket{Token: "t1"})
	if ok {
		t.Fatal("expected the second connection's authenticate to close the connection")
	}
	if second.authenticated {
		t.Fatal("second session must not be marked authenticated")
	}

	f := readFrame(t, secondClient)
	if f.ID != protocol.OutAuthenticate {
		t.Fatalf("got outbound id %d, want AuthenticateResponse", f.ID)
	}

	if !first.authenticated {
		t.Fatal("first session must remain authenticated (Scenario G)")
	}
}

func TestHandleAuthenticateIdentityFailureClosesConnection(t *testing.T) {
	s, client := newTestSession(t, "")
	defer client.Close()

	ok := s.handleAuthenticate(protocol.AuthenticatePacket{Token: "tok"})
	if ok {
		t.Fatal("expected identity-service failure to close the connection")
	}
	if s.authenticated {
		t.Fatal("session must not be authenticated after an identity-service failure")
	}
}

func TestHandleAuthenticateRejectsReauthentication(t *testing.T) {
	srv := fakeIdentityServer(t, identityclient.UserProfile{ID: 1, Name: "Alice", Language: "en"})
	s, client := newTestSession(t, srv.URL)
	defer client.Close()

	if !s.handleAuthenticate(protocol.AuthenticatePacket{Token: "tok"}) {
		t.Fatal("first authenticate should succeed")
	}
	readFrame(t, client)
	for i := 0; i < 3; i++ {
		readFrame(t, client)
	}

	ok := s.handleAuthenticate(protocol.AuthenticatePacket{Token: "tok2"})
	if ok {
		t.Fatal("re-authenticate attempt must close the connection")
	}
}

func TestHandleChatDropsSilentlyWhenRateLimited(t *testing.T) {
	srv := fakeIdentityServer(t, identityclient.UserProfile{ID: 9, Name: "Flooder", Language: "en"})
	s, client := newTestSession(t, srv.URL)
	defer client.Close()

	s.handleAuthenticate(protocol.AuthenticatePacket{Token: "tok"})
	readFrame(t, client)
	for i := 0; i < 3; i++ {
		readFrame(t, client)
	}

	if err := s.deps.Registry.CreateRoom("R", s.identity, s.conn); err != nil {
		t.Fatalf("create room: %v", err)
	}

	for i := 0; i < 5; i++ {
		s.handleChat(protocol.ChatPacket{Message: "hi"})
	}
	// The 6th message exceeds the 5-per-10s limit and must not panic or block.
	s.handleChat(protocol.ChatPacket{Message: "flood"})
}

func TestHandleCreateRoomThenDuplicateFails(t *testing.T) {
	srv := fakeIdentityServer(t, identityclient.UserProfile{ID: 1, Name: "Host", Language: "en"})
	s, client := newTestSession(t, srv.URL)
	defer client.Close()
	s.handleAuthenticate(protocol.AuthenticatePacket{Token: "tok"})
	readFrame(t, client)
	for i := 0; i < 3; i++ {
		readFrame(t, client)
	}

	s.handleCreateRoom(protocol.CreateRoomPacket{RoomID: "R"})
	f := readFrame(t, client)
	if f.ID != protocol.OutCreateRoom {
		t.Fatalf("got %d, want CreateRoomResponse", f.ID)
	}

	s.handleCreateRoom(protocol.CreateRoomPacket{RoomID: "R"})
	f = readFrame(t, client)
	if f.ID != protocol.OutCreateRoom {
		t.Fatalf("got %d, want CreateRoomResponse", f.ID)
	}
	b := protocol.WrapByteBuf(f.Data)
	ok, err := b.ReadBool()
	if err != nil {
		t.Fatalf("read result byte: %v", err)
	}
	if ok {
		t.Fatal("expected the duplicate create to fail")
	}
	reason, err := b.ReadStringMax(4096)
	if err != nil {
		t.Fatalf("read reason: %v", err)
	}
	if reason != s.localize(room.ReasonRoomDuplicateCreate) {
		t.Fatalf("got reason %q, want localised %q", reason, room.ReasonRoomDuplicateCreate)
	}
}
