package protocol

import "testing"

func TestOutboundIDAndDeterministicEncoding(t *testing.T) {
	cases := []struct {
		name string
		pkt  OutboundPacket
		id   byte
	}{
		{"pong", PongPacket{}, OutPong},
		{"authenticate-success", AuthenticateSuccess(UserProfile{UserID: 7, Username: "nyan"}, false), OutAuthenticate},
		{"authenticate-failed", AuthenticateFailed("user_duplicate_join"), OutAuthenticate},
		{"chat", ChatOut{UserID: -1, Message: "welcome"}, OutChat},
		{"change-state", ChangeStateOut{State: NewSelectChart(99, true)}, OutChangeState},
		{"change-host", ChangeHostOut{IsHost: true}, OutChangeHost},
		{"join-room-success", JoinRoomSuccess(RoomInfo{
			RoomID: "abc", State: NewWaitForReady(), Live: true, Locked: false, Cycle: true,
			IsHost: true, IsReady: false,
			Participants: []RoomParticipant{{Profile: UserProfile{UserID: 1, Username: "a"}, IsMonitor: false}},
		}), OutJoinRoom},
		{"on-join-room", OnJoinRoomOut{Profile: UserProfile{UserID: 2, Username: "b"}, IsMonitor: true}, OutOnJoinRoom},
		{"leave-room-failed", LeaveRoomResponse{Result: Failed("not_in_room")}, OutLeaveRoom},
		{"message-join", MessageOut{Message: JoinRoomMessage{UserID: 5, Name: "five"}}, OutMessage},
		{"message-played", MessageOut{Message: PlayedMessage{UserID: 5, Score: 900000, Accuracy: 0.987, FullCombo: true}}, OutMessage},
		{"message-build-info", MessageOut{Message: BuildInfoMessage{Version: "1.0.0", CommitHash: "deadbeef"}}, OutMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.pkt.OutboundID() != tc.id {
				t.Fatalf("OutboundID() = %#x, want %#x", tc.pkt.OutboundID(), tc.id)
			}
			frame := EncodeOutbound(tc.pkt)
			if frame.ID != tc.id {
				t.Fatalf("frame id = %#x, want %#x", frame.ID, tc.id)
			}
			// Re-encoding must be deterministic and reproduce the same bytes.
			again := EncodeOutbound(tc.pkt)
			if string(frame.Data) != string(again.Data) {
				t.Fatalf("encoding not deterministic for %s", tc.name)
			}
		})
	}
}

func TestAuthenticateResponseSuccessPayload(t *testing.T) {
	pkt := AuthenticateSuccess(UserProfile{UserID: 42, Username: "host"}, true)
	frame := EncodeOutbound(pkt)
	b := WrapByteBuf(frame.Data)

	ok, _, err := decodeResult(b)
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if !ok {
		t.Fatal("expected success result")
	}
	profile, err := decodeUserProfile(b)
	if err != nil {
		t.Fatalf("decodeUserProfile: %v", err)
	}
	if profile.UserID != 42 || profile.Username != "host" {
		t.Errorf("profile = %+v", profile)
	}
	isMonitor, err := b.ReadBool()
	if err != nil {
		t.Fatalf("ReadBool: %v", err)
	}
	if !isMonitor {
		t.Error("expected isMonitor=true")
	}
}

func TestGameStateRoundTrip(t *testing.T) {
	states := []GameState{
		NewSelectChart(0, false),
		NewSelectChart(123, true),
		NewWaitForReady(),
		NewPlaying(),
	}
	for _, s := range states {
		b := NewByteBuf()
		s.Encode(b)
		got, err := DecodeGameState(WrapByteBuf(b.Bytes()))
		if err != nil {
			t.Fatalf("DecodeGameState: %v", err)
		}
		if !got.Equal(s) {
			t.Errorf("got %+v, want %+v", got, s)
		}
	}
}
