package session

import (
	"testing"
	"time"

	"github.com/phira-mp/server/internal/identityclient"
	"github.com/phira-mp/server/pkg/protocol"
)

func TestDispatchPingWorksBeforeAuthentication(t *testing.T) {
	s, client := newTestSession(t, "")
	defer client.Close()

	if !s.dispatch(protocol.PingPacket{}) {
		t.Fatal("ping must never close the connection")
	}
	f := readFrame(t, client)
	if f.ID != protocol.OutPong {
		t.Fatalf("got %d, want Pong", f.ID)
	}
}

func TestRunClosesConnectionOnPacketBeforeAuthentication(t *testing.T) {
	s, client := newTestSession(t, "")
	defer client.Close()

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	client.SetWriteDeadline(time.Now().Add(time.Second))
	f := protocol.MarshalFrame(protocol.InCreateRoom, func(b *protocol.ByteBuf) { b.WriteString("R") })
	if err := protocol.WriteFrame(client, f); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should close the connection on a pre-auth packet")
	}
}

func TestTouchesRelayExcludesSender(t *testing.T) {
	hostSrv := fakeIdentityServer(t, identityclient.UserProfile{ID: 1, Name: "Host", Language: "en"})
	host, hostClient := newTestSession(t, hostSrv.URL)
	defer hostClient.Close()
	host.handleAuthenticate(protocol.AuthenticatePacket{Token: "tok"})
	readFrame(t, hostClient)
	for i := 0; i < 3; i++ {
		readFrame(t, hostClient)
	}
	if err := host.deps.Registry.CreateRoom("R", host.identity, host.conn); err != nil {
		t.Fatalf("create room: %v", err)
	}

	memberSrv := fakeIdentityServer(t, identityclient.UserProfile{ID: 2, Name: "Member", Language: "en"})
	member, memberClient := newTestSession(t, memberSrv.URL)
	defer memberClient.Close()
	member.deps.Registry = host.deps.Registry
	member.handleAuthenticate(protocol.AuthenticatePacket{Token: "tok2"})
	readFrame(t, memberClient)
	for i := 0; i < 3; i++ {
		readFrame(t, memberClient)
	}
	if _, err := member.deps.Registry.JoinRoom("R", member.identity, member.conn); err != nil {
		t.Fatalf("join room: %v", err)
	}
	readFrame(t, hostClient) // OnJoinRoomOut broadcast to the host
	readFrame(t, hostClient) // JoinRoomMessage broadcast to the host

	if !member.dispatch(protocol.TouchesPacket{Raw: []byte{1, 2, 3}}) {
		t.Fatal("touches must not close the connection")
	}

	f := readFrame(t, hostClient)
	if f.ID != protocol.OutTouches {
		t.Fatalf("got %d, want Touches relayed to the other member", f.ID)
	}

	memberClient.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := protocol.ReadFrame(memberClient); err == nil {
		t.Fatal("the sender must not receive its own Touches relay")
	}
}
