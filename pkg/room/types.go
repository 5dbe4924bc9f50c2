package room

import "github.com/phira-mp/server/pkg/protocol"

// UserIdentity is the immutable-for-the-session user record obtained from
// the identity service (§3). Language drives reason-string localisation at
// the session layer, not inside this package.
type UserIdentity struct {
	ID       int32
	Name     string
	Language string
}

func (u UserIdentity) Profile() protocol.UserProfile {
	return protocol.UserProfile{UserID: u.ID, Username: u.Name}
}

// Sender is the minimum a connection must offer for room broadcast fan-out:
// a non-blocking enqueue of an already-framed outbound message (§5). Kept
// as an interface so this package never imports the transport layer.
type Sender interface {
	Send(f *protocol.Frame)
}

// Member is the association between an authenticated user and the
// connection they joined through (§3).
type Member struct {
	Identity UserIdentity
	Sender   Sender
}
