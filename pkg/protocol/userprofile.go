package protocol

// UserProfile is the wire projection of a user identity (§3, §6): just the
// id and display name, never the bearer token or language.
type UserProfile struct {
	UserID   int32
	Username string
}

// Encode writes `i32LE userId || VarInt+UTF-8 username`.
func (p UserProfile) Encode(b *ByteBuf) {
	b.WriteInt32LE(p.UserID)
	b.WriteString(p.Username)
}

// DecodeUserProfile reads a UserProfile encoded per Encode. maxNameLen bounds
// the username the same way every other string field is bounded.
func DecodeUserProfile(b *ByteBuf, maxNameLen int) (UserProfile, error) {
	id, err := b.ReadInt32LE()
	if err != nil {
		return UserProfile{}, err
	}
	name, err := b.ReadStringMax(maxNameLen)
	if err != nil {
		return UserProfile{}, err
	}
	return UserProfile{UserID: id, Username: name}, nil
}
