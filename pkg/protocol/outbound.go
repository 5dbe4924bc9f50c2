package protocol

// Outbound packet identifiers (§6).
const (
	OutPong         byte = 0x00
	OutAuthenticate byte = 0x01
	OutChat         byte = 0x02
	OutTouches      byte = 0x03
	OutJudges       byte = 0x04
	OutMessage      byte = 0x05
	OutChangeState  byte = 0x06
	OutChangeHost   byte = 0x07
	OutCreateRoom   byte = 0x08
	OutJoinRoom     byte = 0x09
	OutOnJoinRoom   byte = 0x0A
	OutLeaveRoom    byte = 0x0B
	OutLockRoom     byte = 0x0C
	OutCycleRoom    byte = 0x0D
	OutSelectChart  byte = 0x0E
	OutRequestStart byte = 0x0F
	OutReady        byte = 0x10
	OutCancelReady  byte = 0x11
	OutPlayed       byte = 0x12
	OutAbort        byte = 0x13
)

// OutboundPacket is implemented by every server->client packet.
type OutboundPacket interface {
	OutboundID() byte
	Encode(b *ByteBuf)
}

// EncodeOutbound renders p into a wire Frame.
func EncodeOutbound(p OutboundPacket) *Frame {
	return MarshalFrame(p.OutboundID(), p.Encode)
}

// Result is the two-armed Failed/Success sum almost every response packet
// wraps (§4.2). The discriminant byte is written as part of Encode, not
// carried as distinct Go types, matching how the protocol actually
// distinguishes the two cases on the wire.
type Result struct {
	ok            bool
	reason        string
	encodeSuccess func(*ByteBuf)
}

// Failed builds a FAILED result carrying a localisation-key reason string.
func Failed(reason string) Result {
	return Result{ok: false, reason: reason}
}

// Succeed builds a SUCCESS result. encode may be nil for payload-less successes.
func Succeed(encode func(*ByteBuf)) Result {
	return Result{ok: true, encodeSuccess: encode}
}

func (r Result) IsSuccess() bool { return r.ok }
func (r Result) Reason() string  { return r.reason }

func (r Result) Encode(b *ByteBuf) {
	if r.ok {
		_ = b.WriteByte(0x01)
		if r.encodeSuccess != nil {
			r.encodeSuccess(b)
		}
		return
	}
	_ = b.WriteByte(0x00)
	b.WriteString(r.reason)
}

// -- simple, payload-free or single-field outbound packets --

type PongPacket struct{}

func (PongPacket) OutboundID() byte   { return OutPong }
func (PongPacket) Encode(b *ByteBuf) {}

// AuthenticateResponse carries the Result for the Authenticate request:
// Success payload is (UserProfile, isMonitor).
type AuthenticateResponse struct{ Result Result }

func (p AuthenticateResponse) OutboundID() byte    { return OutAuthenticate }
func (p AuthenticateResponse) Encode(b *ByteBuf)   { p.Result.Encode(b) }

func AuthenticateSuccess(profile UserProfile, isMonitor bool) AuthenticateResponse {
	return AuthenticateResponse{Result: Succeed(func(b *ByteBuf) {
		profile.Encode(b)
		b.WriteBool(isMonitor)
	})}
}

func AuthenticateFailed(reason string) AuthenticateResponse {
	return AuthenticateResponse{Result: Failed(reason)}
}

// ChatOut relays a chat line verbatim to the other members of the sender's
// room. The greeter lines sent at authentication are not ChatOut packets;
// they go out as ChatMessage inside a MessageOut.
type ChatOut struct {
	UserID  int32
	Message string
}

func (p ChatOut) OutboundID() byte { return OutChat }
func (p ChatOut) Encode(b *ByteBuf) {
	b.WriteInt32LE(p.UserID)
	b.WriteString(p.Message)
}

type TouchesOut struct {
	UserID int32
	Raw    []byte
}

func (p TouchesOut) OutboundID() byte { return OutTouches }
func (p TouchesOut) Encode(b *ByteBuf) {
	b.WriteInt32LE(p.UserID)
	b.WriteBytes(p.Raw)
}

type JudgesOut struct {
	UserID int32
	Raw    []byte
}

func (p JudgesOut) OutboundID() byte { return OutJudges }
func (p JudgesOut) Encode(b *ByteBuf) {
	b.WriteInt32LE(p.UserID)
	b.WriteBytes(p.Raw)
}

// MessageOut wraps a Message (§4.2's generic informational broadcasts).
type MessageOut struct{ Message Message }

func (p MessageOut) OutboundID() byte { return OutMessage }
func (p MessageOut) Encode(b *ByteBuf) {
	EncodeMessage(p.Message, b)
}

// ChangeStateOut announces a room's new GameState to its members.
type ChangeStateOut struct{ State GameState }

func (p ChangeStateOut) OutboundID() byte  { return OutChangeState }
func (p ChangeStateOut) Encode(b *ByteBuf) { p.State.Encode(b) }

// ChangeHostOut tells a specific user whether they now hold (or have lost) host.
type ChangeHostOut struct{ IsHost bool }

func (p ChangeHostOut) OutboundID() byte  { return OutChangeHost }
func (p ChangeHostOut) Encode(b *ByteBuf) { b.WriteBool(p.IsHost) }

// -- room-operation response/event twins --

type CreateRoomResponse struct{ Result Result }

func (p CreateRoomResponse) OutboundID() byte  { return OutCreateRoom }
func (p CreateRoomResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

type JoinRoomResponse struct{ Result Result }

func (p JoinRoomResponse) OutboundID() byte  { return OutJoinRoom }
func (p JoinRoomResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

func JoinRoomSuccess(info RoomInfo) JoinRoomResponse {
	return JoinRoomResponse{Result: Succeed(info.Encode)}
}

// OnJoinRoomOut is broadcast to existing members when someone joins (§4.4).
type OnJoinRoomOut struct {
	Profile   UserProfile
	IsMonitor bool
}

func (p OnJoinRoomOut) OutboundID() byte { return OutOnJoinRoom }
func (p OnJoinRoomOut) Encode(b *ByteBuf) {
	p.Profile.Encode(b)
	b.WriteBool(p.IsMonitor)
}

type LeaveRoomResponse struct{ Result Result }

func (p LeaveRoomResponse) OutboundID() byte  { return OutLeaveRoom }
func (p LeaveRoomResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

type LockRoomResponse struct{ Result Result }

func (p LockRoomResponse) OutboundID() byte  { return OutLockRoom }
func (p LockRoomResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

type CycleRoomResponse struct{ Result Result }

func (p CycleRoomResponse) OutboundID() byte  { return OutCycleRoom }
func (p CycleRoomResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

type SelectChartResponse struct{ Result Result }

func (p SelectChartResponse) OutboundID() byte  { return OutSelectChart }
func (p SelectChartResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

type RequestStartResponse struct{ Result Result }

func (p RequestStartResponse) OutboundID() byte  { return OutRequestStart }
func (p RequestStartResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

type ReadyResponse struct{ Result Result }

func (p ReadyResponse) OutboundID() byte  { return OutReady }
func (p ReadyResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

type CancelReadyResponse struct{ Result Result }

func (p CancelReadyResponse) OutboundID() byte  { return OutCancelReady }
func (p CancelReadyResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

type PlayedResponse struct{ Result Result }

func (p PlayedResponse) OutboundID() byte  { return OutPlayed }
func (p PlayedResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }

type AbortResponse struct{ Result Result }

func (p AbortResponse) OutboundID() byte  { return OutAbort }
func (p AbortResponse) Encode(b *ByteBuf) { p.Result.Encode(b) }
