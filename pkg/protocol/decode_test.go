package protocol

// Decode helpers below exist only to let tests read back the payload of
// outbound packets this server produces; a real Phira client is the one
// that decodes these in production, which is out of scope here (§1).

func decodeResult(b *ByteBuf) (ok bool, reason string, err error) {
	tag, err := b.ReadByte()
	if err != nil {
		return false, "", err
	}
	if tag == 0x00 {
		reason, err = b.ReadStringMax(MaxChatLen)
		return false, reason, err
	}
	return true, "", nil
}

func decodeUserProfile(b *ByteBuf) (UserProfile, error) {
	return DecodeUserProfile(b, MaxChatLen)
}
